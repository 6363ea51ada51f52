package tracing

// chunkCapacity is the fixed number of Event slots per chunk (C2 in the
// component table).
const chunkCapacity = 64

// Handle is an opaque token returned by Controller.AddEvent, usable to
// locate and update a pending event's duration until the owning chunk is
// recycled. The sentinel value 0 means "no slot" (buffer overflow).
type Handle uint64

// makeHandle packs (chunkSeq, chunkIndex, eventIndex) into a single
// integer. Arithmetic (not bit-packing) is used deliberately: maxChunks
// need not be a power of two.
func makeHandle(maxChunks int, chunkSeq uint32, chunkIndex, eventIndex int) Handle {
	capacity := uint64(maxChunks) * chunkCapacity
	return Handle(uint64(chunkSeq)*capacity + uint64(chunkIndex)*chunkCapacity + uint64(eventIndex))
}

// extractHandle is the inverse of makeHandle.
func extractHandle(maxChunks int, h Handle) (chunkSeq uint32, chunkIndex, eventIndex int) {
	capacity := uint64(maxChunks) * chunkCapacity
	chunkSeq = uint32(uint64(h) / capacity)
	rest := uint64(h) % capacity
	chunkIndex = int(rest / chunkCapacity)
	eventIndex = int(rest % chunkCapacity)
	return
}

// chunk is a fixed-capacity tile of the buffer: the allocation unit.
// Invariant: nextFree only increases while the chunk is the tail of its
// internalBuffer; once sealed (non-tail) it is immutable except for
// per-record duration updates performed through Handle lookup.
type chunk struct {
	seq      uint32
	nextFree int
	records  [chunkCapacity]Event
}

func newChunk(seq uint32) *chunk {
	return &chunk{seq: seq}
}

func (c *chunk) isFull() bool {
	return c.nextFree >= chunkCapacity
}

// reset recycles the chunk's backing array under a new sequence number
// without freeing memory, per §3: "slots may be reset (new seq) without
// freeing memory."
func (c *chunk) reset(seq uint32) {
	c.seq = seq
	c.nextFree = 0
}

// addEvent reserves the next free slot and returns a pointer to it along
// with its index within the chunk. Caller must already hold the owning
// internalBuffer's mutex and must have checked !isFull().
func (c *chunk) addEvent() (*Event, int) {
	idx := c.nextFree
	c.nextFree++
	return &c.records[idx], idx
}

func (c *chunk) at(idx int) *Event {
	return &c.records[idx]
}
