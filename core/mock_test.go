package core

import "errors"

// mockStage records every write for inspection
type mockStage struct {
	channels int
	inA      []bool
	inB      []bool
	duty     []uint8
	writes   int
	fail     bool
}

func newMockStage(channels int) *mockStage {
	return &mockStage{
		channels: channels,
		inA:      make([]bool, channels),
		inB:      make([]bool, channels),
		duty:     make([]uint8, channels),
	}
}

func (m *mockStage) SetDirection(ch uint8, inA, inB bool) error {
	if m.fail {
		return errors.New("mock stage failure")
	}
	m.inA[ch] = inA
	m.inB[ch] = inB
	m.writes++
	return nil
}

func (m *mockStage) SetDuty(ch uint8, duty uint8) error {
	if m.fail {
		return errors.New("mock stage failure")
	}
	m.duty[ch] = duty
	m.writes++
	return nil
}

func (m *mockStage) Channels() int {
	return m.channels
}

// mockNotifier collects control loop reports
type mockNotifier struct {
	modes  []Mode
	errors []ErrorCode
}

func (n *mockNotifier) ModeChanged(m Mode)         { n.modes = append(n.modes, m) }
func (n *mockNotifier) ReportError(code ErrorCode) { n.errors = append(n.errors, code) }

// Gray code sequence for one channel turning forward
var forwardSequence = [4]uint8{0b00, 0b01, 0b11, 0b10}

// stepLines moves channel ch one count and returns the lines of every
// channel. state holds the sequence index per channel.
func stepLines(state []int, ch int, forward bool) uint8 {
	if forward {
		state[ch] = (state[ch] + 1) % 4
	} else {
		state[ch] = (state[ch] + 3) % 4
	}
	var lines uint8
	for i, s := range state {
		lines |= forwardSequence[s] << (2 * uint(i))
	}
	return lines
}
