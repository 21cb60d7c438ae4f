package core

import "orangebot/protocol"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// DiagEvent captures a notable board event for post-mortem analysis
type DiagEvent struct {
	EventType uint8  // Event type code
	Arg       uint8  // Mode, error code or channel
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtModeChange    = 1 // Control loop adopted a new mode
	EvtErrorReported = 2 // ERR frame queued
	EvtEncoderRetry  = 3 // Encoder handshake exhausted its retries
	EvtTickOverrun   = 4 // Tick flag was still set when the next tick fired
	EvtTimeout       = 5 // Communication timeout detected
	EvtFrameDropped  = 6 // Outbound frame did not fit the TX ring
)

const (
	DiagRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Diagnostic ring buffer (non-blocking, for post-mortem)
	diagRing     [DiagRingSize]DiagEvent
	diagRingHead uint8
	diagEnabled  bool = true

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, a log file
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16) // Buffer 16 messages
	go debugOutputWorker()
}

// debugOutputWorker runs in background, drains debug channel
func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugAsync for non-blocking)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Returns immediately even if channel is full (drops message)
func DebugAsync(msg string) {
	if !debugEnabled {
		return
	}
	if debugChan != nil {
		select {
		case debugChan <- msg:
		default:
			// Channel full, drop message (non-blocking)
		}
	}
}

// RecordEvent captures an event in the diagnostic ring
func RecordEvent(eventType, arg uint8, value1, value2 uint32) {
	if !diagEnabled {
		return
	}
	idx := diagRingHead
	diagRing[idx] = DiagEvent{
		EventType: eventType,
		Arg:       arg,
		Value1:    value1,
		Value2:    value2,
	}
	diagRingHead = (idx + 1) % DiagRingSize
}

// Events returns the recorded events from oldest to newest
func Events() []DiagEvent {
	out := make([]DiagEvent, 0, DiagRingSize)
	start := diagRingHead
	for i := uint8(0); i < DiagRingSize; i++ {
		evt := diagRing[(start+i)%DiagRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// eventName returns the dump label of an event type
func eventName(eventType uint8) string {
	switch eventType {
	case EvtModeChange:
		return "MODE"
	case EvtErrorReported:
		return "ERROR"
	case EvtEncoderRetry:
		return "ENC_RETRY"
	case EvtTickOverrun:
		return "OVERRUN!"
	case EvtTimeout:
		return "TIMEOUT"
	case EvtFrameDropped:
		return "TX_DROP"
	}
	return "UNKNOWN"
}

// DumpEvents outputs the diagnostic ring (call on shutdown/error)
// This should be called from the loop context or after stopping the tick
func DumpEvents() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[DIAG] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[DIAG] " + eventName(evt.EventType) +
			" arg=" + protocol.FormatUnsigned(uint32(evt.Arg)) +
			" v1=" + protocol.FormatUnsigned(evt.Value1) +
			" v2=" + protocol.FormatUnsigned(evt.Value2))
	}
	debugPrintln("[DIAG] === End Dump ===")
}

// ClearEvents clears the diagnostic ring
func ClearEvents() {
	for i := range diagRing {
		diagRing[i] = DiagEvent{}
	}
	diagRingHead = 0
}
