package tracing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buildbuddy-io/tracehub/server/util/status"
)

func newTestController(t *testing.T) (*Controller, *fakeIdleGate, *fakeSink) {
	t.Helper()
	gate := &fakeIdleGate{ready: true}
	sink := &fakeSink{}
	db := NewDoubleBuffer(4, gate, sink, nil)
	return NewController(db, nil), gate, sink
}

func TestControllerStartStopLifecycle(t *testing.T) {
	c, _, _ := newTestController(t)
	require.False(t, c.IsRecording())

	require.NoError(t, c.Start(nil))
	require.True(t, c.IsRecording())

	drained := c.Stop()
	require.Equal(t, 0, drained)
	require.False(t, c.IsRecording())
}

func TestControllerStartWhileRecordingIsRejected(t *testing.T) {
	c, _, _ := newTestController(t)
	require.NoError(t, c.Start(nil))

	err := c.Start(nil)
	require.Error(t, err)
	require.True(t, status.IsFailedPreconditionError(err))
	require.True(t, c.IsRecording(), "the rejected Start must not have disturbed state")
}

func TestControllerStopWhileDisabledIsNoop(t *testing.T) {
	c, _, _ := newTestController(t)
	require.Equal(t, 0, c.Stop())
	require.False(t, c.IsRecording())
}

func TestControllerAddEventAndUpdateDuration(t *testing.T) {
	c, _, _ := newTestController(t)
	require.NoError(t, c.Start(nil))

	flag := c.GetGroupFlag("v8")
	h := c.AddEvent(PhaseComplete, flag, "op", "", 0, 0, 0, int(EnabledForRecording))
	require.NotEqual(t, Handle(0), h)

	c.UpdateDuration(h)
	// UpdateDuration on a freshly-appended event should produce a
	// non-negative duration relative to its own TS.
	rec, ok := c.buffer.Lookup(h)
	require.True(t, ok)
	require.GreaterOrEqual(t, rec.Duration, int64(0))
}

func TestControllerGroupFlagRoundTripsThroughName(t *testing.T) {
	c, _, _ := newTestController(t)
	flag := c.GetGroupFlag("node.async_hooks")
	require.Equal(t, "node.async_hooks", c.GroupName(flag))
}

func TestControllerAddEventOnOverflowReturnsZeroHandle(t *testing.T) {
	gate := &fakeIdleGate{ready: true}
	sink := &fakeSink{}
	db := NewDoubleBuffer(1, gate, sink, nil)
	c := NewController(db, nil)
	require.NoError(t, c.Start(nil))

	flag := c.GetGroupFlag("v8")
	var last Handle
	for i := 0; i < chunkCapacity; i++ {
		last = c.AddEvent(PhaseInstant, flag, "op", "", 0, 0, 0, 0)
		require.NotEqual(t, Handle(0), last)
	}
	overflow := c.AddEvent(PhaseInstant, flag, "op", "", 0, 0, 0, 0)
	require.Equal(t, Handle(0), overflow)
}
