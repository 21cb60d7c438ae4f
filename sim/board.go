package sim

import (
	"context"
	"errors"
	"io"
	"time"

	"orangebot/core"
	"orangebot/protocol"
)

// Config describes a simulated board
type Config struct {
	Core core.Config
	// Period of the system tick interrupt
	TickPeriod time.Duration
	Plant      PlantConfig
}

// DefaultConfig returns the reference board with a 1 ms system tick
func DefaultConfig() Config {
	return Config{
		Core:       core.DefaultConfig(),
		TickPeriod: time.Millisecond,
		Plant:      DefaultPlantConfig(),
	}
}

// Board runs the board core on the desktop. The tick interrupt, the link
// receive interrupt and the main loop are all played by one goroutine, so
// the core never sees real concurrency.
type Board struct {
	cfg   Config
	dev   *core.Device
	stage *Stage
	plant *Plant

	tx [protocol.MessageMax]byte
}

// NewBoard builds a simulated board
func NewBoard(cfg Config) (*Board, error) {
	if cfg.TickPeriod <= 0 {
		return nil, errors.New("sim: tick period must be positive")
	}
	stage := NewStage(cfg.Core.PowerChannels)
	dev, err := core.NewDevice(cfg.Core, stage)
	if err != nil {
		return nil, err
	}

	b := &Board{
		cfg:   cfg,
		dev:   dev,
		stage: stage,
		plant: NewPlant(cfg.Plant, cfg.Core.EncoderChannels),
	}
	// A tick fires between handshake attempts and samples the lines as they are
	dev.SetEncoderWaiter(func() { dev.SampleEncoders(b.plant.Lines()) })
	return b, nil
}

// Step runs one system tick: move the wheels, sample the encoders, raise the
// tick, then one pass of the main loop
func (b *Board) Step() {
	samples := b.plant.Advance(b.stage.Drive)
	for i := 0; i+1 < len(samples); i++ {
		b.dev.SampleEncoders(samples[i])
	}
	b.dev.SystemTick(b.plant.Lines())
	b.dev.Poll()
}

// Receive feeds link bytes to the board, running the main loop whenever the
// RX ring fills
func (b *Board) Receive(data []byte) {
	for _, c := range data {
		for !b.dev.ReceiveByte(c) {
			b.dev.Poll()
		}
	}
	b.dev.Poll()
}

// Flush writes every pending response byte to w
func (b *Board) Flush(w io.Writer) error {
	for b.dev.Pending() > 0 {
		n := b.dev.Drain(b.tx[:])
		if _, err := w.Write(b.tx[:n]); err != nil {
			return err
		}
	}
	return nil
}

// Run serves the board protocol on port until ctx is done or the port
// reaches EOF
func (b *Board) Run(ctx context.Context, port io.ReadWriter) error {
	rx := make(chan []byte, 16)
	readErr := make(chan error, 1)

	go func() {
		defer close(rx)
		buf := make([]byte, 256)
		for {
			n, err := port.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				select {
				case rx <- data:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	ticker := time.NewTicker(b.cfg.TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case data, ok := <-rx:
			if !ok {
				select {
				case err := <-readErr:
					if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
						return nil
					}
					return err
				default:
					return ctx.Err()
				}
			}
			b.Receive(data)

		case <-ticker.C:
			b.Step()
		}

		if err := b.Flush(port); err != nil {
			if errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return err
		}
	}
}

// Device returns the board core
func (b *Board) Device() *core.Device { return b.dev }

// Stage returns the simulated power stage
func (b *Board) Stage() *Stage { return b.stage }

// Plant returns the simulated wheels
func (b *Board) Plant() *Plant { return b.plant }
