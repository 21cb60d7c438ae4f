//go:build rp2040

package main

import (
	"machine"
)

// Link baud rate. USB CDC ignores it; it matters when the link is moved to
// a hardware UART.
const linkBaudRate = 230400

// InitUSB initializes the USB CDC link to the host
func InitUSB() error {
	return machine.Serial.Configure(machine.UARTConfig{BaudRate: linkBaudRate})
}

// USBAvailable returns the number of bytes available to read from USB
func USBAvailable() int {
	return machine.Serial.Buffered()
}

// USBRead reads a single byte from USB
func USBRead() (byte, error) {
	return machine.Serial.ReadByte()
}

// USBWriteBytes writes multiple bytes to USB
func USBWriteBytes(data []byte) (int, error) {
	return machine.Serial.Write(data)
}
