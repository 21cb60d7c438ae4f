package core

import "sync/atomic"

// StatusFlag is one bit of the status word shared between the tick
// interrupt and the control loop
type StatusFlag uint32

const (
	FlagTickElapsed StatusFlag = 1 << iota
	FlagControlUpdate
	FlagEncoderHold
	FlagEncoderFlush
	FlagTimeoutDetected
)

// Status is the only cross-context signaling surface. Every update is a
// single atomic word operation.
type Status struct {
	bits atomic.Uint32
}

// Set raises the flags in f
func (s *Status) Set(f StatusFlag) {
	for {
		old := s.bits.Load()
		if s.bits.CompareAndSwap(old, old|uint32(f)) {
			return
		}
	}
}

// Clear lowers the flags in f
func (s *Status) Clear(f StatusFlag) {
	for {
		old := s.bits.Load()
		if s.bits.CompareAndSwap(old, old&^uint32(f)) {
			return
		}
	}
}

// Test reports whether any flag in f is raised
func (s *Status) Test(f StatusFlag) bool {
	return s.bits.Load()&uint32(f) != 0
}

// TestAndSet raises f and returns whether it was already raised
func (s *Status) TestAndSet(f StatusFlag) bool {
	for {
		old := s.bits.Load()
		if s.bits.CompareAndSwap(old, old|uint32(f)) {
			return old&uint32(f) != 0
		}
	}
}

// TestAndClear lowers f and returns whether it was raised
func (s *Status) TestAndClear(f StatusFlag) bool {
	for {
		old := s.bits.Load()
		if s.bits.CompareAndSwap(old, old&^uint32(f)) {
			return old&uint32(f) != 0
		}
	}
}

// Load returns the whole status word
func (s *Status) Load() StatusFlag {
	return StatusFlag(s.bits.Load())
}
