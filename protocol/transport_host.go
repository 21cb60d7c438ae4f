package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var ErrTransportStopped = errors.New("transport stopped")

// ResponseHandler is called from the read loop for every decoded response
type ResponseHandler func(resp Response)

// HostTransport handles the board link from the host side: it writes request
// frames and decodes NUL-terminated responses in a background reader.
type HostTransport struct {
	port io.ReadWriteCloser

	// Partial inbound frame
	pending    []byte
	discarding bool // Overlong frame: skip to the next terminator

	// Set after a signature header until its text frame arrives
	signatureLen    uint8
	expectSignature bool

	responseChan    chan Response
	responseHandler atomic.Pointer[ResponseHandler]

	malformed atomic.Uint32
	received  atomic.Uint32

	writeMutex sync.Mutex

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// NewHostTransport creates a new host-side transport and starts its reader
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:         port,
		pending:      make([]byte, 0, MessageMax),
		responseChan: make(chan Response, 16),
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}

	go t.readLoop()

	return t
}

// Send writes one complete request frame
func (t *HostTransport) Send(frame []byte) error {
	select {
	case <-t.stopChan:
		return ErrTransportStopped
	default:
	}

	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	n, err := t.port.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(frame))
	}
	return nil
}

// ReceiveResponse waits for the next decoded response
func (t *HostTransport) ReceiveResponse(timeout time.Duration) (Response, error) {
	select {
	case resp := <-t.responseChan:
		return resp, nil

	case <-time.After(timeout):
		return nil, fmt.Errorf("response timeout after %v", timeout)

	case <-t.stopChan:
		return nil, ErrTransportStopped
	}
}

// SetResponseHandler sets a callback for handling responses asynchronously
func (t *HostTransport) SetResponseHandler(handler ResponseHandler) {
	if handler == nil {
		t.responseHandler.Store(nil)
		return
	}
	t.responseHandler.Store(&handler)
}

// Malformed returns the number of frames that failed to decode
func (t *HostTransport) Malformed() uint32 {
	return t.malformed.Load()
}

// Received returns the number of decoded responses
func (t *HostTransport) Received() uint32 {
	return t.received.Load()
}

// readLoop continuously reads from the port and splits frames
func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buffer := make([]byte, 256)

	for {
		select {
		case <-t.stopChan:
			return
		default:
		}

		n, err := t.port.Read(buffer)
		if n > 0 {
			t.feed(buffer[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// feed appends raw bytes and dispatches every completed frame. A frame
// longer than MessageMax is counted as malformed and dropped whole.
func (t *HostTransport) feed(data []byte) {
	for _, b := range data {
		if b != FrameTerminator {
			if t.discarding {
				continue
			}
			if len(t.pending) >= MessageMax {
				t.malformed.Add(1)
				t.pending = t.pending[:0]
				t.discarding = true
				continue
			}
			t.pending = append(t.pending, b)
			continue
		}
		if t.discarding {
			t.discarding = false
			// The dropped frame was the signature text
			t.expectSignature = false
			continue
		}
		frame := t.pending
		t.pending = t.pending[:0]
		if len(frame) == 0 {
			continue
		}
		t.processFrame(frame)
	}
}

func (t *HostTransport) processFrame(frame []byte) {
	if t.expectSignature {
		t.expectSignature = false
		t.dispatch(SignatureReport{Length: t.signatureLen, Signature: string(frame)})
		return
	}

	resp, err := ParseResponse(frame)
	if err != nil {
		t.malformed.Add(1)
		return
	}
	if hdr, ok := resp.(SignatureHeader); ok {
		t.signatureLen = hdr.Length
		t.expectSignature = true
		return
	}
	t.dispatch(resp)
}

// dispatch hands a response to the handler and the response channel
func (t *HostTransport) dispatch(resp Response) {
	t.received.Add(1)

	if h := t.responseHandler.Load(); h != nil {
		(*h)(resp)
	}

	select {
	case t.responseChan <- resp:
	default:
		// Response channel full, drop oldest
		select {
		case <-t.responseChan:
		default:
		}
		select {
		case t.responseChan <- resp:
		default:
		}
	}
}

// Close stops the transport and closes the port
func (t *HostTransport) Close() error {
	var err error
	t.stopOnce.Do(func() {
		close(t.stopChan)
		if t.port != nil {
			err = t.port.Close()
		}
		<-t.doneChan
	})
	return err
}

// Reset drops queued responses
func (t *HostTransport) Reset() {
	for len(t.responseChan) > 0 {
		<-t.responseChan
	}
}
