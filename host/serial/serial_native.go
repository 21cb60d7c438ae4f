package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// tarmPort adapts github.com/tarm/serial to Port
type tarmPort struct {
	port    *serial.Port
	polling bool
}

// Open opens the device named in cfg
func Open(cfg Config) (Port, error) {
	if cfg.Device == "" {
		return nil, errors.New("serial: no device configured")
	}

	port, err := serial.OpenPort(cfg.tarm())
	if err != nil {
		return nil, fmt.Errorf("serial: open %s at %d baud: %w", cfg.Device, cfg.Baud, err)
	}
	return &tarmPort{port: port, polling: cfg.ReadTimeout > 0}, nil
}

func (c Config) tarm() *serial.Config {
	return &serial.Config{
		Name:        c.Device,
		Baud:        c.Baud,
		ReadTimeout: time.Duration(c.ReadTimeout) * time.Millisecond,
	}
}

// Read returns (0, nil) when the read timeout expires. tarm/serial reports
// that as io.EOF, which would end every reader loop.
func (p *tarmPort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if n == 0 && p.polling && errors.Is(err, io.EOF) {
		return 0, nil
	}
	return n, err
}

func (p *tarmPort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *tarmPort) Close() error {
	return p.port.Close()
}

func (p *tarmPort) Flush() error {
	return p.port.Flush()
}
