package core

import (
	"errors"
	"testing"
)

func TestStageApply(t *testing.T) {
	tests := []struct {
		name    string
		ch      int
		power   int16
		duty    uint8
		forward bool // inB high
	}{
		{"zero", 1, 0, 0, true},
		{"deadband positive", 1, 15, 0, true},
		{"deadband negative", 1, -15, 0, false},
		{"at minimum", 1, 16, 16, true},
		{"mid", 1, 60, 60, true},
		{"negative", 1, -60, 60, false},
		{"clamped", 1, 500, 127, true},
		{"clamped negative", 1, -32768, 127, false},
		// Channel 0 is wired reversed
		{"reversed forward", 0, 60, 60, false},
		{"reversed backward", 0, -60, 60, true},
	}

	hal := newMockStage(4)
	d := NewPowerStageDriver(hal, 4, DefaultMinPower, DefaultMaxPower, DefaultReverseMask)

	for _, tt := range tests {
		if err := d.Apply(tt.ch, tt.power); err != nil {
			t.Errorf("%s: Apply failed: %v", tt.name, err)
			continue
		}
		if hal.duty[tt.ch] != tt.duty {
			t.Errorf("%s: duty %d, expected %d", tt.name, hal.duty[tt.ch], tt.duty)
		}
		if hal.inB[tt.ch] != tt.forward || hal.inA[tt.ch] == tt.forward {
			t.Errorf("%s: inA=%v inB=%v", tt.name, hal.inA[tt.ch], hal.inB[tt.ch])
		}
		if d.LastDuty(tt.ch) != tt.duty {
			t.Errorf("%s: LastDuty %d", tt.name, d.LastDuty(tt.ch))
		}
	}
}

func TestStageInvalidChannel(t *testing.T) {
	hal := newMockStage(4)
	d := NewPowerStageDriver(hal, 2, DefaultMinPower, DefaultMaxPower, 0)

	for _, ch := range []int{-1, 2, 4} {
		if err := d.Apply(ch, 50); !errors.Is(err, ErrInvalidChannel) {
			t.Errorf("Apply(%d): expected ErrInvalidChannel, got %v", ch, err)
		}
	}
	if hal.writes != 0 {
		t.Errorf("Invalid channel must not write hardware, got %d writes", hal.writes)
	}
}

func TestStageHALError(t *testing.T) {
	hal := newMockStage(2)
	hal.fail = true
	d := NewPowerStageDriver(hal, 2, DefaultMinPower, DefaultMaxPower, 0)

	if err := d.Apply(0, 50); err == nil {
		t.Error("Expected HAL error to propagate")
	}
	if d.LastDuty(0) != 0 {
		t.Error("Failed apply should not update diagnostics")
	}
}
