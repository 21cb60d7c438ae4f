package sim

import (
	"errors"
	"sync"
)

var errStageChannel = errors.New("sim: power stage channel out of range")

// Stage is an in-memory H-bridge bank. It records the last direction and
// duty written to each channel.
type Stage struct {
	mu   sync.Mutex
	inA  []bool
	inB  []bool
	duty []uint8
}

// NewStage creates a stage with the given number of channels
func NewStage(channels int) *Stage {
	return &Stage{
		inA:  make([]bool, channels),
		inB:  make([]bool, channels),
		duty: make([]uint8, channels),
	}
}

func (s *Stage) SetDirection(ch uint8, inA, inB bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(ch) >= len(s.duty) {
		return errStageChannel
	}
	s.inA[ch] = inA
	s.inB[ch] = inB
	return nil
}

func (s *Stage) SetDuty(ch uint8, duty uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(ch) >= len(s.duty) {
		return errStageChannel
	}
	s.duty[ch] = duty
	return nil
}

func (s *Stage) Channels() int {
	return len(s.duty)
}

// Drive returns the signed duty of channel ch as seen at the motor terminals:
// positive when inB is driven and inA is not. Both or neither input high
// brakes the motor.
func (s *Stage) Drive(ch int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch < 0 || ch >= len(s.duty) {
		return 0
	}
	switch {
	case s.inB[ch] && !s.inA[ch]:
		return int(s.duty[ch])
	case s.inA[ch] && !s.inB[ch]:
		return -int(s.duty[ch])
	}
	return 0
}
