package tracing

import "sync/atomic"

// idleGate is the writer-side capability DoubleBuffer polls before
// swapping: "is a previous write still in flight?" (C9's idle flag).
type idleGate interface {
	IsReady() bool
}

// DoubleBuffer holds a pair of internalBuffers and an atomically-swapped
// active index (C4). AddEvent/Lookup forward to the active buffer; Flush
// swaps the active index and drains the now-inactive buffer, decoupling
// flush latency from the producer fast path — the core concurrency trick
// described in §4.2.
type DoubleBuffer struct {
	buffers [2]*internalBuffer
	active  atomic.Int32
	writer  idleGate
	sink    EventSink
}

// NewDoubleBuffer builds a DoubleBuffer with two internalBuffers of
// maxChunks capacity each. onThresholdCrossed is forwarded to both
// internalBuffers as their flush-signal callback (DoubleBuffer never names
// the Agent type, it only holds a closure).
func NewDoubleBuffer(maxChunks int, writer idleGate, sink EventSink, onThresholdCrossed func()) *DoubleBuffer {
	db := &DoubleBuffer{writer: writer, sink: sink}
	db.buffers[0] = newInternalBuffer(maxChunks, onThresholdCrossed)
	db.buffers[1] = newInternalBuffer(maxChunks, onThresholdCrossed)
	// The two buffers draw chunk seqs from disjoint ranges, so a handle
	// issued by one never matches a live chunk of the other.
	db.buffers[1].currentSeq = 1 << 31
	return db
}

func (db *DoubleBuffer) activeBuffer() *internalBuffer {
	return db.buffers[db.active.Load()]
}

// AddEvent forwards to the active buffer.
func (db *DoubleBuffer) AddEvent() (*Event, Handle) {
	return db.activeBuffer().addEvent()
}

// Lookup forwards to the active buffer.
//
// Note: a handle returned while buffer A was active resolves via this
// method only as long as buffer A is still active and its chunk has not
// been recycled; after a swap Lookup consults the other buffer, whose chunk
// seqs never match A's, so the handle reports not found — Controller relies
// on update_duration being called promptly after AddEvent, which holds for
// all call sites in this system.
func (db *DoubleBuffer) Lookup(h Handle) (*Event, bool) {
	return db.activeBuffer().lookup(h)
}

// Flush implements §4.2's four-step protocol. Returns false without
// touching state if the writer is still busy with a previous write.
func (db *DoubleBuffer) Flush() bool {
	if !db.writer.IsReady() {
		return false
	}
	prevActive := db.active.Load()
	newActive := 1 - prevActive
	db.active.Store(newActive)
	// Drain the buffer that was active until just now. Producers racing
	// in between the swap and this call already see newActive as active,
	// so they cannot write into the buffer being drained.
	db.buffers[prevActive].drainTo(db.sink)
	return true
}

// DrainActiveSynchronously bypasses the idle gate entirely: used only by
// Controller.Stop, which runs single-threaded with respect to producers and
// must not lose the tail of the buffer to a busy writer.
func (db *DoubleBuffer) DrainActiveSynchronously() int {
	return db.activeBuffer().drainTo(db.sink)
}
