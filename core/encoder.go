package core

import (
	"runtime"
	"sync/atomic"
)

// MaxEncoderChannels is the number of 2-bit channels that fit one sample byte
const MaxEncoderChannels = 4

// quadratureTable maps (previous<<2 | current) to a count step.
// Unchanged and invalid (both lines flipped) transitions count 0.
var quadratureTable = [16]int8{
	0, +1, -1, 0,
	-1, 0, 0, +1,
	+1, 0, 0, -1,
	0, -1, +1, 0,
}

type encoderChannel struct {
	// Interrupt-local
	prev    uint8
	pending int32

	// Shared, folded by the interrupt only
	counter atomic.Int32

	// Loop-local
	speed int16
}

// EncoderTracker decodes quadrature lines into positions. Sample runs in the
// tick interrupt; ReadAll runs in the control loop, at most once per tick.
type EncoderTracker struct {
	channels  []encoderChannel
	positions []int32
	status    *Status

	threshold int32
	retries   int
	wait      func()

	retryFailures uint32
}

// NewEncoderTracker creates a tracker for n channels (at most
// MaxEncoderChannels). threshold is the pending count that triggers an
// opportunistic fold; retries bounds the flush handshake.
func NewEncoderTracker(n int, threshold int32, retries int, status *Status) *EncoderTracker {
	if n > MaxEncoderChannels {
		n = MaxEncoderChannels
	}
	if retries < 1 {
		retries = 1
	}
	return &EncoderTracker{
		channels:  make([]encoderChannel, n),
		positions: make([]int32, n),
		status:    status,
		threshold: threshold,
		retries:   retries,
		wait:      runtime.Gosched,
	}
}

// SetWaiter replaces the hook ReadAll calls between handshake attempts
func (e *EncoderTracker) SetWaiter(wait func()) {
	if wait == nil {
		wait = runtime.Gosched
	}
	e.wait = wait
}

// Channels returns the number of tracked channels
func (e *EncoderTracker) Channels() int {
	return len(e.channels)
}

// Sample decodes one reading of the encoder lines. Channel i uses bits 2i
// and 2i+1. Called from interrupt context only.
func (e *EncoderTracker) Sample(lines uint8) {
	flush := e.status.Test(FlagEncoderFlush)
	hold := e.status.Test(FlagEncoderHold)

	for i := range e.channels {
		ch := &e.channels[i]
		cur := (lines >> (2 * uint(i))) & 0x03
		ch.pending += int32(quadratureTable[ch.prev<<2|cur])
		ch.prev = cur

		if ch.pending == 0 {
			continue
		}
		if flush || (!hold && abs32(ch.pending) >= e.threshold) {
			ch.counter.Add(ch.pending)
			ch.pending = 0
		}
	}

	// Acknowledge only after every accumulator is folded
	if flush {
		e.status.Clear(FlagEncoderFlush)
	}
}

// ReadAll takes a consistent snapshot of every shared counter and updates
// positions and speeds. The returned slice is owned by the tracker and is
// valid until the next call. On ErrEncoderRetryExhausted nothing changes.
func (e *EncoderTracker) ReadAll() ([]int32, error) {
	e.status.Set(FlagEncoderHold)
	e.status.Set(FlagEncoderFlush)

	for attempt := 0; attempt < e.retries; attempt++ {
		e.wait()
		if e.status.Test(FlagEncoderFlush) {
			continue
		}
		for i := range e.channels {
			pos := e.channels[i].counter.Load()
			e.channels[i].speed = int16(pos - e.positions[i])
			e.positions[i] = pos
		}
		e.status.Clear(FlagEncoderHold)
		return e.positions, nil
	}

	e.status.Clear(FlagEncoderFlush | FlagEncoderHold)
	e.retryFailures++
	RecordEvent(EvtEncoderRetry, 0, e.retryFailures, 0)
	return e.positions, ErrEncoderRetryExhausted
}

// Position returns the position of channel i from the last snapshot
func (e *EncoderTracker) Position(i int) (int32, error) {
	if i < 0 || i >= len(e.positions) {
		return 0, ErrInvalidChannel
	}
	return e.positions[i], nil
}

// Speed returns counts per control tick of channel i from the last snapshot
func (e *EncoderTracker) Speed(i int) (int16, error) {
	if i < 0 || i >= len(e.channels) {
		return 0, ErrInvalidChannel
	}
	return e.channels[i].speed, nil
}

// Speeds appends the speed of every channel to dst
func (e *EncoderTracker) Speeds(dst []int16) []int16 {
	for i := range e.channels {
		dst = append(dst, e.channels[i].speed)
	}
	return dst
}

// Counter returns the raw shared counter of channel i
func (e *EncoderTracker) Counter(i int) int32 {
	if i < 0 || i >= len(e.channels) {
		return 0
	}
	return e.channels[i].counter.Load()
}

// RetryFailures returns how many reads exhausted the handshake
func (e *EncoderTracker) RetryFailures() uint32 {
	return e.retryFailures
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
