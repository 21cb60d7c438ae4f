package core

import (
	"errors"
	"testing"
)

func TestSlewRampToTarget(t *testing.T) {
	s := NewSlewPowerController(2, 10, 127)
	s.SetTarget(0, 50)
	s.SetTarget(1, -25)

	expected0 := []int16{10, 20, 30, 40, 50, 50}
	expected1 := []int16{-10, -20, -25, -25, -25, -25}
	for i := range expected0 {
		s.Advance()
		if s.Current(0) != expected0[i] || s.Current(1) != expected1[i] {
			t.Errorf("Tick %d: got %d,%d expected %d,%d",
				i+1, s.Current(0), s.Current(1), expected0[i], expected1[i])
		}
	}
}

func TestSlewReversalStopsAtZero(t *testing.T) {
	s := NewSlewPowerController(1, 10, 127)
	s.SetTarget(0, 25)
	for i := 0; i < 3; i++ {
		s.Advance()
	}
	if s.Current(0) != 25 {
		t.Fatalf("Expected 25, got %d", s.Current(0))
	}

	s.SetTarget(0, -25)
	expected := []int16{15, 5, 0, -10, -20, -25}
	for i, want := range expected {
		s.Advance()
		if s.Current(0) != want {
			t.Errorf("Tick %d: got %d expected %d", i+1, s.Current(0), want)
		}
	}
}

func TestSlewStepBound(t *testing.T) {
	s := NewSlewPowerController(1, 7, 100)
	targets := []int16{100, -100, 3, -3, 0, 32767, -32768, 55}

	prev := s.Current(0)
	for _, target := range targets {
		s.SetTarget(0, target)
		for i := 0; i < 40; i++ {
			s.Advance()
			cur := s.Current(0)
			diff := int32(cur) - int32(prev)
			if diff > 7 || diff < -7 {
				t.Fatalf("Step %d -> %d exceeds slope", prev, cur)
			}
			// Never skip over zero
			if (prev > 0 && cur < 0) || (prev < 0 && cur > 0) {
				t.Fatalf("Crossed zero %d -> %d", prev, cur)
			}
			if cur > 100 || cur < -100 {
				t.Fatalf("Current %d beyond saturation", cur)
			}
			prev = cur
		}
	}
}

func TestSlewSaturationAndNoop(t *testing.T) {
	s := NewSlewPowerController(1, 50, 60)
	s.SetTarget(0, 1000)

	s.Advance()
	s.Advance()
	if s.Current(0) != 60 {
		t.Errorf("Expected saturation at 60, got %d", s.Current(0))
	}
	if s.Target(0) != 1000 {
		t.Errorf("Target should be stored unclamped, got %d", s.Target(0))
	}

	s.Advance()
	if s.Current(0) != 60 {
		t.Errorf("Advance at target should be a no-op, got %d", s.Current(0))
	}
}

func TestSlewReset(t *testing.T) {
	s := NewSlewPowerController(2, 10, 127)
	s.SetTarget(0, 100)
	s.SetTarget(1, -100)
	for i := 0; i < 5; i++ {
		s.Advance()
	}

	s.Reset()
	if s.Current(0) != 0 || s.Current(1) != 0 {
		t.Errorf("Reset should zero current, got %d,%d", s.Current(0), s.Current(1))
	}
	if s.Target(0) != 100 {
		t.Errorf("Reset should keep targets, got %d", s.Target(0))
	}

	if got := s.Currents(nil); len(got) != 2 {
		t.Errorf("Expected 2 currents, got %v", got)
	}
}

func TestSlewInvalidChannel(t *testing.T) {
	s := NewSlewPowerController(2, 10, 127)
	if err := s.SetTarget(2, 5); !errors.Is(err, ErrInvalidChannel) {
		t.Errorf("Expected ErrInvalidChannel, got %v", err)
	}
}
