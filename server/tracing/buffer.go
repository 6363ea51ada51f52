package tracing

import "sync"

// flushThresholdFraction is the fraction of maxChunks at which an append
// triggers one asynchronous flush-signal to the writer's owner.
const flushThresholdFraction = 0.75

// EventSink is the capability a drained buffer writes into: append one
// record, then flush once the drain is complete. It stands in for the
// teacher source's intrusive TraceWriter base class.
type EventSink interface {
	AppendEvent(e *Event)
	Flush()
}

// internalBuffer is a concurrent, bounded collection of chunks (C3). It is
// the unit DoubleBuffer swaps between; producers on any goroutine call
// addEvent/lookup, and at most one goroutine at a time calls drainTo (the
// I/O goroutine, or the control goroutine during Stop).
type internalBuffer struct {
	mu sync.Mutex

	maxChunks      int
	chunks         []*chunk // len <= maxChunks, grows lazily, slots reused via reset
	totalChunks    int
	currentSeq     uint32
	flushThreshold int

	// onThresholdCrossed is invoked synchronously, still holding b.mu, on
	// every addEvent call once totalChunks has reached flushThreshold — not
	// just the first. The callback must therefore be cheap, non-blocking,
	// and must not re-enter this internalBuffer; Agent satisfies this with
	// a non-blocking coalescing channel send, so repeated firings collapse
	// into a single pending flush signal.
	onThresholdCrossed func()
}

func newInternalBuffer(maxChunks int, onThresholdCrossed func()) *internalBuffer {
	threshold := int(float64(maxChunks) * flushThresholdFraction)
	return &internalBuffer{
		maxChunks: maxChunks,
		chunks:    make([]*chunk, 0, maxChunks),
		// currentSeq starts at 1, not 0: makeHandle(seq=0, chunkIndex=0,
		// eventIndex=0) is indistinguishable from the Handle(0) overflow
		// sentinel, so the very first chunk ever allocated must not carry
		// seq 0.
		currentSeq:         1,
		flushThreshold:     threshold,
		onThresholdCrossed: onThresholdCrossed,
	}
}

// addEvent appends to the tail chunk under the buffer's mutex, allocating a
// new chunk (or recycling a retained one) if the tail is full or absent.
// Returns (nil, 0) on overflow: silent and explicit, per §4.1.
func (b *internalBuffer) addEvent() (*Event, Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.totalChunks >= b.flushThreshold {
		if b.onThresholdCrossed != nil {
			b.onThresholdCrossed()
		}
	}

	if b.totalChunks == 0 || b.chunks[b.totalChunks-1].isFull() {
		if b.totalChunks == b.maxChunks {
			return nil, 0
		}
		if b.totalChunks < len(b.chunks) {
			b.chunks[b.totalChunks].reset(b.currentSeq)
		} else {
			b.chunks = append(b.chunks, newChunk(b.currentSeq))
		}
		b.currentSeq++
		b.totalChunks++
	}

	tailIndex := b.totalChunks - 1
	tail := b.chunks[tailIndex]
	rec, eventIndex := tail.addEvent()
	return rec, makeHandle(b.maxChunks, tail.seq, tailIndex, eventIndex)
}

// lookup validates and resolves a handle to its backing Event, per the ABA
// guard in §3: a chunk_index that is no longer live, or whose seq no longer
// matches, means the slot was recycled; lookup returns (nil, false) rather
// than stale data.
func (b *internalBuffer) lookup(h Handle) (*Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	chunkSeq, chunkIndex, eventIndex := extractHandle(b.maxChunks, h)
	if chunkIndex < 0 || chunkIndex >= b.totalChunks {
		return nil, false
	}
	c := b.chunks[chunkIndex]
	if c.seq != chunkSeq {
		return nil, false
	}
	if eventIndex < 0 || eventIndex >= c.nextFree {
		return nil, false
	}
	return c.at(eventIndex), true
}

// drainTo iterates chunks in insertion order, records in fill order,
// appends each to sink, flushes the sink once, then resets totalChunks to
// 0. Chunk allocations are retained for reuse by future addEvent calls.
func (b *internalBuffer) drainTo(sink EventSink) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for i := 0; i < b.totalChunks; i++ {
		c := b.chunks[i]
		for j := 0; j < c.nextFree; j++ {
			sink.AppendEvent(c.at(j))
			n++
		}
	}
	sink.Flush()
	b.totalChunks = 0
	return n
}
