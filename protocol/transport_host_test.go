package protocol

import (
	"io"
	"reflect"
	"testing"
	"time"
)

// pipePort joins the host transport to an in-memory board side
type pipePort struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p *pipePort) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipePort) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p *pipePort) Close() error {
	p.r.Close()
	return p.w.Close()
}

// newPipePair returns the host port plus the board-side reader and writer
func newPipePair() (*pipePort, *io.PipeReader, *io.PipeWriter) {
	hostRead, boardWrite := io.Pipe()
	boardRead, hostWrite := io.Pipe()
	return &pipePort{r: hostRead, w: hostWrite}, boardRead, boardWrite
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		frame    string
		expected Response
	}{
		{"ERR1", ErrorReport{Code: 1}},
		{"CTRL:STOP", ControlModeReport{Mode: "STOP"}},
		{"PWM_DUAL+50:-50", PlatformPowerReport{Values: []int16{50, -50}}},
		{"ENC_ABS0:-42", EncoderPositionReport{Index: 0, Position: -42}},
		{"ENC_SPD_DUAL+3:-4", EncoderSpeedReport{Speeds: []int16{3, -4}}},
		{"F21", SignatureHeader{Length: 21}},
	}

	for _, tt := range tests {
		got, err := ParseResponse([]byte(tt.frame))
		if err != nil {
			t.Errorf("ParseResponse(%q) failed: %v", tt.frame, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("ParseResponse(%q) = %#v, expected %#v", tt.frame, got, tt.expected)
		}
	}
}

func TestParseResponseMalformed(t *testing.T) {
	for _, frame := range []string{"", "ERR", "ERR999", "CTRL:", "PWM_DUAL+1:", "ENC_ABS0", "ENC_ABS0:x", "Fx", "hello"} {
		if _, err := ParseResponse([]byte(frame)); err == nil {
			t.Errorf("ParseResponse(%q) should fail", frame)
		}
	}
}

func TestHostTransportReceive(t *testing.T) {
	port, boardRead, boardWrite := newPipePair()
	ht := NewHostTransport(port)
	defer ht.Close()

	go func() {
		boardWrite.Write([]byte("CTRL:PWM\x00F21\x00OrangeBot-2020-01-19\x00garbage\x00ENC_ABS1:+9\x00"))
	}()

	expected := []Response{
		ControlModeReport{Mode: "PWM"},
		SignatureReport{Length: 21, Signature: "OrangeBot-2020-01-19"},
		EncoderPositionReport{Index: 1, Position: 9},
	}
	for i, want := range expected {
		got, err := ht.ReceiveResponse(time.Second)
		if err != nil {
			t.Fatalf("Response %d: %v", i, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Response %d: got %#v, expected %#v", i, got, want)
		}
	}
	if ht.Malformed() != 1 {
		t.Errorf("Expected 1 malformed frame, got %d", ht.Malformed())
	}

	// Requests reach the board unchanged
	go ht.Send(EncodePlatformPower(10, -10))
	buf := make([]byte, 32)
	n, err := boardRead.Read(buf)
	if err != nil {
		t.Fatalf("Board read failed: %v", err)
	}
	if string(buf[:n]) != "PWMR10L-10\x00" {
		t.Errorf("Board received %q", buf[:n])
	}
}

func TestHostTransportHandlerAndClose(t *testing.T) {
	port, _, boardWrite := newPipePair()
	ht := NewHostTransport(port)

	got := make(chan Response, 1)
	ht.SetResponseHandler(func(resp Response) {
		got <- resp
	})

	go boardWrite.Write([]byte("ERR1\x00"))

	select {
	case resp := <-got:
		if resp != (ErrorReport{Code: 1}) {
			t.Errorf("Handler received %#v", resp)
		}
	case <-time.After(time.Second):
		t.Fatal("Handler was not called")
	}

	if err := ht.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := ht.Send([]byte("P\x00")); err != ErrTransportStopped {
		t.Errorf("Send after close: expected ErrTransportStopped, got %v", err)
	}
	// Second close is a no-op
	ht.Close()
}

func TestHostTransportDropsOverlongFrame(t *testing.T) {
	ht := &HostTransport{
		pending:      make([]byte, 0, MessageMax),
		responseChan: make(chan Response, 16),
	}

	long := make([]byte, MessageMax+10)
	for i := range long {
		long[i] = 'X'
	}
	// Cut at MessageMax this would still parse as a mode report
	ht.feed([]byte("CTRL:"))
	ht.feed(long)
	ht.feed([]byte("\x00ERR2\x00"))

	if ht.Malformed() != 1 {
		t.Errorf("Expected 1 malformed frame, got %d", ht.Malformed())
	}
	if ht.Received() != 1 {
		t.Fatalf("Expected 1 response, got %d", ht.Received())
	}
	if resp := <-ht.responseChan; resp != (ErrorReport{Code: 2}) {
		t.Errorf("Expected ERR2 after the dropped frame, got %#v", resp)
	}

	// An overlong signature text does not leak into the next frame
	ht.feed([]byte("F21\x00"))
	ht.feed(long)
	ht.feed([]byte("\x00CTRL:OFF\x00"))
	if resp := <-ht.responseChan; resp != (ControlModeReport{Mode: "OFF"}) {
		t.Errorf("Expected CTRL:OFF, got %#v", resp)
	}
}
