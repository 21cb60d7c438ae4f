//go:build rp2040

package main

import (
	"runtime/volatile"
	"time"
	"unsafe"
)

// RP2040/RP2350 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// hardwareMicros reads the low word of the 1 MHz hardware timer
func hardwareMicros() uint32 {
	return timerRAWL.Get()
}

// tickClock paces the system tick against the hardware timer so sleep
// jitter does not accumulate
type tickClock struct {
	period   uint32 // microseconds
	deadline uint32
}

func newTickClock(period time.Duration) *tickClock {
	p := uint32(period / time.Microsecond)
	return &tickClock{period: p, deadline: hardwareMicros() + p}
}

// wait sleeps until the next deadline. It reports false when the deadline
// had already passed, which the caller counts as a late tick.
func (c *tickClock) wait() bool {
	remaining := int32(c.deadline - hardwareMicros())
	c.deadline += c.period
	if remaining <= 0 {
		return false
	}
	time.Sleep(time.Duration(remaining) * time.Microsecond)
	return true
}
