package core

import (
	"strings"
	"testing"
)

func TestEventRing(t *testing.T) {
	ClearEvents()
	defer ClearEvents()

	for i := 0; i < DiagRingSize+5; i++ {
		RecordEvent(EvtTimeout, 0, uint32(i), 0)
	}
	events := Events()
	if len(events) != DiagRingSize {
		t.Fatalf("Expected %d events, got %d", DiagRingSize, len(events))
	}
	// Oldest entries are overwritten
	if events[0].Value1 != 5 || events[len(events)-1].Value1 != DiagRingSize+4 {
		t.Errorf("Unexpected ring order: first %d last %d", events[0].Value1, events[len(events)-1].Value1)
	}
}

func TestDumpEvents(t *testing.T) {
	ClearEvents()
	defer ClearEvents()

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	RecordEvent(EvtModeChange, uint8(ModeOpenLoopPower), 7, 0)
	RecordEvent(EvtErrorReported, uint8(ErrCommunicationTimeout), 0, 0)
	DumpEvents()

	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines, got %v", lines)
	}
	if !strings.Contains(lines[1], "MODE arg=1 v1=7") {
		t.Errorf("Unexpected line %q", lines[1])
	}
	if !strings.Contains(lines[2], "ERROR arg=1") {
		t.Errorf("Unexpected line %q", lines[2])
	}
}
