package tracing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeIdleGate struct {
	ready bool
}

func (g *fakeIdleGate) IsReady() bool { return g.ready }

func TestDoubleBufferFlushSkippedWhenWriterBusy(t *testing.T) {
	gate := &fakeIdleGate{ready: false}
	sink := &fakeSink{}
	db := NewDoubleBuffer(4, gate, sink, nil)

	_, _ = db.AddEvent()
	ok := db.Flush()
	require.False(t, ok)
	require.Equal(t, 0, sink.flushes)
}

func TestDoubleBufferFlushSwapsAndDrainsInactiveBuffer(t *testing.T) {
	gate := &fakeIdleGate{ready: true}
	sink := &fakeSink{}
	db := NewDoubleBuffer(4, gate, sink, nil)

	rec, h := db.AddEvent()
	rec.ID = 42

	ok := db.Flush()
	require.True(t, ok)
	require.Equal(t, 1, sink.flushes)
	require.Len(t, sink.appended, 1)
	require.Equal(t, uint64(42), sink.appended[0].ID)

	// The drained buffer is no longer active; a handle into it should not
	// resolve via the now-active (other) buffer.
	_, ok2 := db.Lookup(h)
	require.False(t, ok2)
}

func TestDoubleBufferProducersDuringSwapHitNewActiveBuffer(t *testing.T) {
	gate := &fakeIdleGate{ready: true}
	sink := &fakeSink{}
	db := NewDoubleBuffer(4, gate, sink, nil)

	_, _ = db.AddEvent()
	db.Flush()

	// Post-swap appends land in what is now the active buffer and must
	// resolve via Lookup without requiring another Flush.
	rec, h := db.AddEvent()
	rec.ID = 7
	got, ok := db.Lookup(h)
	require.True(t, ok)
	require.Equal(t, uint64(7), got.ID)
}

func TestDoubleBufferDrainActiveSynchronouslyIgnoresIdleGate(t *testing.T) {
	gate := &fakeIdleGate{ready: false}
	sink := &fakeSink{}
	db := NewDoubleBuffer(4, gate, sink, nil)

	_, _ = db.AddEvent()
	_, _ = db.AddEvent()

	n := db.DrainActiveSynchronously()
	require.Equal(t, 2, n)
	require.Equal(t, 1, sink.flushes)
}
