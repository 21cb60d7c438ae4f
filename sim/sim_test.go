package sim

import (
	"context"
	"io"
	"net"
	"testing"
	"time"
)

func TestStageDrive(t *testing.T) {
	s := NewStage(2)
	s.SetDirection(0, false, true)
	s.SetDuty(0, 40)
	s.SetDirection(1, true, false)
	s.SetDuty(1, 30)

	if s.Drive(0) != 40 || s.Drive(1) != -30 {
		t.Errorf("Expected 40,-30, got %d,%d", s.Drive(0), s.Drive(1))
	}

	// Both inputs high brakes
	s.SetDirection(1, true, true)
	if s.Drive(1) != 0 {
		t.Errorf("Expected brake, got %d", s.Drive(1))
	}

	if err := s.SetDuty(2, 10); err == nil {
		t.Error("Expected error for channel 2")
	}
	if s.Drive(5) != 0 {
		t.Error("Out of range channel should not drive")
	}
}

func TestPlantSteps(t *testing.T) {
	cfg := PlantConfig{CountsPerTick: 2, Response: 1, MaxDuty: 100, EncoderMirror: 0x01}
	p := NewPlant(cfg, 2)

	full := func(ch int) int { return 100 }
	for i := 0; i < 10; i++ {
		samples := p.Advance(full)
		if len(samples) != 2 {
			t.Fatalf("Tick %d: expected 2 samples, got %d", i, len(samples))
		}
		if samples[len(samples)-1] != p.Lines() {
			t.Fatalf("Last sample should match the lines")
		}
	}

	if p.Counts(1) != 20 {
		t.Errorf("Expected 20 counts, got %d", p.Counts(1))
	}
	// Wheel 0 encoder is mirrored
	if p.Counts(0) != -20 {
		t.Errorf("Expected -20 counts, got %d", p.Counts(0))
	}

	// Stopping the drive stops the wheel
	stop := func(ch int) int { return 0 }
	if samples := p.Advance(stop); len(samples) != 0 {
		t.Errorf("Expected no motion, got %d samples", len(samples))
	}
}

func TestPlantStepLimit(t *testing.T) {
	p := NewPlant(PlantConfig{CountsPerTick: 1000, Response: 1, MaxDuty: 1}, 1)
	samples := p.Advance(func(ch int) int { return 1 })
	if len(samples) != maxStepsPerTick {
		t.Errorf("Expected %d samples, got %d", maxStepsPerTick, len(samples))
	}
}

func newTestBoard(t *testing.T) *Board {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Core.ControlPrescaler = 1
	cfg.Plant.Response = 1
	b, err := NewBoard(cfg)
	if err != nil {
		t.Fatalf("NewBoard failed: %v", err)
	}
	return b
}

func TestBoardDrivesWheels(t *testing.T) {
	b := newTestBoard(t)
	b.Receive([]byte("PWMR127L127\x00"))

	for i := 0; i < 30; i++ {
		b.Step()
	}

	enc := b.Device().Encoders()
	for ch := 0; ch < 2; ch++ {
		pos, err := enc.Position(ch)
		if err != nil {
			t.Fatalf("Position(%d) failed: %v", ch, err)
		}
		if pos <= 0 {
			t.Errorf("Channel %d: expected forward motion, got %d", ch, pos)
		}
		if int64(pos) != b.Plant().Counts(ch) {
			t.Errorf("Channel %d: position %d, plant counts %d", ch, pos, b.Plant().Counts(ch))
		}
	}
	p0, _ := enc.Position(0)
	p1, _ := enc.Position(1)
	if p0 != p1 {
		t.Errorf("Equal power should turn both wheels alike: %d vs %d", p0, p1)
	}
}

func TestBoardRun(t *testing.T) {
	b := newTestBoard(t)
	host, port := net.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx, port) }()

	if _, err := host.Write([]byte("F\x00")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	want := "F21\x00OrangeBot-2020-01-19\x00"
	buf := make([]byte, len(want))
	host.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := io.ReadFull(host, buf); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(buf) != want {
		t.Errorf("Expected %q, got %q", want, buf)
	}

	host.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after the port closed")
	}
}
