package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"orangebot/protocol"
)

// DefaultPollInterval is the period of the encoder/power exchange
const DefaultPollInterval = 250 * time.Millisecond

// Status is the host view of the board, rebuilt from its responses
type Status struct {
	Signature string    `json:"signature"`
	Mode      string    `json:"mode"`
	Positions []int32   `json:"positions"`
	Speeds    []int16   `json:"speeds"`
	Powers    []int16   `json:"powers"`
	Right     int16     `json:"right"`
	Left      int16     `json:"left"`
	LastError int       `json:"last_error"` // -1 when none
	Errors    uint32    `json:"errors"`
	Updated   time.Time `json:"updated"`
}

// Client talks to one board over a HostTransport
type Client struct {
	transport *protocol.HostTransport

	mu     sync.Mutex
	status Status

	// Power sent on every poll
	right, left int16

	encoders  int
	scanIndex uint32
}

// NewClient starts a client on port for a board with the given number of
// encoders
func NewClient(port io.ReadWriteCloser, encoders int) *Client {
	if encoders < 1 {
		encoders = 1
	}
	c := &Client{
		transport: protocol.NewHostTransport(port),
		encoders:  encoders,
		status: Status{
			Positions: make([]int32, encoders),
			Speeds:    make([]int16, encoders),
			LastError: -1,
		},
	}
	c.transport.SetResponseHandler(c.apply)
	return c
}

// apply folds one response into the status. Read loop context.
func (c *Client) apply(resp protocol.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch r := resp.(type) {
	case protocol.ErrorReport:
		c.status.LastError = int(r.Code)
		c.status.Errors++
	case protocol.ControlModeReport:
		c.status.Mode = r.Mode
	case protocol.PlatformPowerReport:
		c.status.Powers = append(c.status.Powers[:0], r.Values...)
	case protocol.SignatureReport:
		c.status.Signature = r.Signature
	case protocol.EncoderPositionReport:
		if int(r.Index) < len(c.status.Positions) {
			c.status.Positions[r.Index] = r.Position
		}
	case protocol.EncoderSpeedReport:
		copy(c.status.Speeds, r.Speeds)
	}
	c.status.Updated = time.Now()
}

// Status returns a copy of the current board view
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.status
	s.Positions = append([]int32(nil), c.status.Positions...)
	s.Speeds = append([]int16(nil), c.status.Speeds...)
	s.Powers = append([]int16(nil), c.status.Powers...)
	s.Right, s.Left = c.right, c.left
	return s
}

// SetPower sets the power sent to the right and left wheels on every poll
func (c *Client) SetPower(right, left int16) {
	c.mu.Lock()
	c.right, c.left = right, left
	c.mu.Unlock()
}

// Ping keeps the board link alive
func (c *Client) Ping() error {
	return c.transport.Send(protocol.EncodeRequest(protocol.SigPing))
}

// RequestSignature asks the board for its signature
func (c *Client) RequestSignature() error {
	return c.transport.Send(protocol.EncodeRequest(protocol.SigSignature))
}

// RequestEncoderPosition asks for the absolute position of encoder index
func (c *Client) RequestEncoderPosition(index uint32) error {
	return c.transport.Send(protocol.EncodeEncoderPositionRequest(index))
}

// RequestEncoderSpeed asks for the speed of every encoder
func (c *Client) RequestEncoderSpeed() error {
	return c.transport.Send(protocol.EncodeRequest(protocol.SigEncoderSpeed))
}

// RequestPowerReadback asks for the power currently commanded on every channel
func (c *Client) RequestPowerReadback() error {
	return c.transport.Send(protocol.EncodeRequest(protocol.SigPowerReadback))
}

// SendPower sends the platform power immediately
func (c *Client) SendPower(right, left int16) error {
	return c.transport.Send(protocol.EncodePlatformPower(right, left))
}

// PollOnce runs one exchange: the next encoder position in round robin, the
// encoder speeds, then the current power setting
func (c *Client) PollOnce() error {
	index := c.scanIndex
	c.scanIndex = (c.scanIndex + 1) % uint32(c.encoders)

	if err := c.RequestEncoderPosition(index); err != nil {
		return fmt.Errorf("encoder position %d: %w", index, err)
	}
	if err := c.RequestEncoderSpeed(); err != nil {
		return fmt.Errorf("encoder speed: %w", err)
	}

	c.mu.Lock()
	right, left := c.right, c.left
	c.mu.Unlock()

	if err := c.SendPower(right, left); err != nil {
		return fmt.Errorf("platform power: %w", err)
	}
	return nil
}

// Run asks for the signature once, then polls every interval until ctx is
// done or the transport stops
func (c *Client) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if err := c.RequestSignature(); err != nil {
		return fmt.Errorf("signature request: %w", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.PollOnce(); err != nil {
				if errors.Is(err, protocol.ErrTransportStopped) {
					return err
				}
				log.Printf("[link] poll failed: %v", err)
			}
		}
	}
}

// Await waits for the next response of the given kind, discarding others
func (c *Client) Await(kind string, timeout time.Duration) (protocol.Response, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("no %s response within %v", kind, timeout)
		}
		resp, err := c.transport.ReceiveResponse(remaining)
		if err != nil {
			return nil, err
		}
		if resp.Kind() == kind {
			return resp, nil
		}
	}
}

// Transport returns the underlying transport
func (c *Client) Transport() *protocol.HostTransport {
	return c.transport
}

// Close stops the client and closes the port
func (c *Client) Close() error {
	return c.transport.Close()
}
