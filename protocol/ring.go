package protocol

// RingSize is the capacity of a Ring. It must be a power of two that divides
// 256 so the free-running uint8 counters wrap cleanly.
const RingSize = 32

const ringMask = RingSize - 1

// Ring is a fixed 32-byte circular byte queue addressed by free-running
// head/tail counters. Occupancy is head-tail (unsigned), so a full ring
// holds all RingSize bytes. The producer only advances head and the consumer
// only advances tail; with one writer per end no lock is needed as long as
// each counter update is a single store.
type Ring struct {
	buf  [RingSize]byte
	head uint8 // producer
	tail uint8 // consumer
}

// Push appends b, reporting false if the ring is full
func (r *Ring) Push(b byte) bool {
	if r.head-r.tail >= RingSize {
		return false
	}
	r.buf[r.head&ringMask] = b
	r.head++
	return true
}

// Pop removes the oldest byte
func (r *Ring) Pop() (byte, bool) {
	if r.head == r.tail {
		return 0, false
	}
	b := r.buf[r.tail&ringMask]
	r.tail++
	return b, true
}

// Write appends as many bytes of data as fit and returns the count
func (r *Ring) Write(data []byte) int {
	written := 0
	for _, b := range data {
		if !r.Push(b) {
			break
		}
		written++
	}
	return written
}

// Read reads up to len(data) bytes from the ring
func (r *Ring) Read(data []byte) int {
	read := 0
	for i := range data {
		b, ok := r.Pop()
		if !ok {
			break
		}
		data[i] = b
		read++
	}
	return read
}

// Available returns the number of bytes available for reading
func (r *Ring) Available() int {
	return int(r.head - r.tail)
}

// Free returns the number of bytes available for writing
func (r *Ring) Free() int {
	return RingSize - r.Available()
}

// IsEmpty returns true if the ring is empty
func (r *Ring) IsEmpty() bool {
	return r.head == r.tail
}

// Reset clears the ring
func (r *Ring) Reset() {
	r.head = 0
	r.tail = 0
}
