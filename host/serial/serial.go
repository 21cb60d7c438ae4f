// Package serial opens the UART link between the host and the board
package serial

import (
	"io"
)

// Port is the byte link to the board. The simulator also accepts any
// io.ReadWriter, so pipes stand in for a port in tests.
type Port interface {
	io.ReadWriteCloser

	// Flush discards data received but not read
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g. "/dev/ttyS0", "COM3")
	Device string `yaml:"device" env:"DEVICE"`

	// The board UART runs at 256000; 230400 is the closest rate every
	// platform accepts.
	Baud int `yaml:"baud" env:"BAUD"`

	// Read timeout in milliseconds, 0 blocks
	ReadTimeout int `yaml:"read_timeout_ms" env:"READ_TIMEOUT_MS"`
}

// DefaultConfig returns the configuration of the Raspberry Pi GPIO UART
func DefaultConfig(device string) Config {
	return Config{
		Device:      device,
		Baud:        230400,
		ReadTimeout: 100,
	}
}
