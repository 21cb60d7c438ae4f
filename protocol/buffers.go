package protocol

import "sync/atomic"

// Default link buffer capacities
const (
	RxBufferSize = 16
	TxBufferSize = 64
)

// OverflowPolicy selects what Push does when the buffer is full
type OverflowPolicy uint8

const (
	// RejectNew refuses the incoming byte and leaves the contents untouched
	RejectNew OverflowPolicy = iota
	// OverwriteOldest discards the oldest unread byte to make room.
	// The producer then moves the read index too, so this policy is only
	// safe when producer and consumer share one execution context.
	OverwriteOldest
)

// ChannelBuffer is a fixed-capacity byte ring used for both link directions.
// One producer and one consumer may run in different contexts: the producer
// owns write, the consumer owns read, and count is the only shared word.
type ChannelBuffer struct {
	buf     []byte
	read    int
	write   int
	count   atomic.Uint32
	dropped atomic.Uint32
	policy  OverflowPolicy
}

// NewChannelBuffer creates a ring with the given capacity and overflow policy
func NewChannelBuffer(capacity int, policy OverflowPolicy) *ChannelBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ChannelBuffer{
		buf:    make([]byte, capacity),
		policy: policy,
	}
}

// Push appends one byte. It returns false when the byte was rejected.
func (c *ChannelBuffer) Push(b byte) bool {
	if int(c.count.Load()) >= len(c.buf) {
		if c.policy != OverwriteOldest {
			c.dropped.Add(1)
			return false
		}
		// Make room by discarding the oldest byte
		c.read = (c.read + 1) % len(c.buf)
		c.count.Add(^uint32(0))
		c.dropped.Add(1)
	}
	c.buf[c.write] = b
	c.write = (c.write + 1) % len(c.buf)
	c.count.Add(1)
	return true
}

// Pop removes the oldest byte. ok is false when the buffer is empty.
func (c *ChannelBuffer) Pop() (b byte, ok bool) {
	if c.count.Load() == 0 {
		return 0, false
	}
	b = c.buf[c.read]
	c.read = (c.read + 1) % len(c.buf)
	c.count.Add(^uint32(0))
	return b, true
}

// Peek returns the oldest byte without removing it
func (c *ChannelBuffer) Peek() (byte, bool) {
	if c.count.Load() == 0 {
		return 0, false
	}
	return c.buf[c.read], true
}

// Write pushes data until the first rejected byte and returns how many were stored
func (c *ChannelBuffer) Write(data []byte) int {
	written := 0
	for _, b := range data {
		if !c.Push(b) {
			break
		}
		written++
	}
	return written
}

// Read pops up to len(data) bytes
func (c *ChannelBuffer) Read(data []byte) int {
	n := 0
	for n < len(data) {
		b, ok := c.Pop()
		if !ok {
			break
		}
		data[n] = b
		n++
	}
	return n
}

// Len returns the number of unread bytes
func (c *ChannelBuffer) Len() int {
	return int(c.count.Load())
}

// Cap returns the fixed capacity
func (c *ChannelBuffer) Cap() int {
	return len(c.buf)
}

// Free returns the number of bytes that can be pushed without overflow
func (c *ChannelBuffer) Free() int {
	return len(c.buf) - c.Len()
}

// IsEmpty returns true if there is nothing to read
func (c *ChannelBuffer) IsEmpty() bool {
	return c.Len() == 0
}

// IsFull returns true if the next Push overflows
func (c *ChannelBuffer) IsFull() bool {
	return c.Len() >= len(c.buf)
}

// Policy returns the configured overflow policy
func (c *ChannelBuffer) Policy() OverflowPolicy {
	return c.policy
}

// Dropped returns how many bytes were lost to overflow since the last Reset
func (c *ChannelBuffer) Dropped() uint32 {
	return c.dropped.Load()
}

// Reset clears the buffer. Both sides must be idle.
func (c *ChannelBuffer) Reset() {
	c.read = 0
	c.write = 0
	c.count.Store(0)
	c.dropped.Store(0)
}

// ScratchOutput assembles one outbound frame before it is committed to a ring
type ScratchOutput struct {
	buf      [MessageMax]byte
	pos      int
	overflow bool
}

// NewScratchOutput creates a new ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{pos: 0}
}

// Output appends data, silently truncating at MessageMax
func (s *ScratchOutput) Output(data ...byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
	if n < len(data) {
		s.overflow = true
	}
}

// OutputString appends the bytes of str
func (s *ScratchOutput) OutputString(str string) {
	n := copy(s.buf[s.pos:], str)
	s.pos += n
	if n < len(str) {
		s.overflow = true
	}
}

// Overflowed reports whether the frame hit MessageMax
func (s *ScratchOutput) Overflowed() bool {
	return s.overflow
}

// Result returns the accumulated output data
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Reset clears the buffer
func (s *ScratchOutput) Reset() {
	s.pos = 0
	s.overflow = false
}
