package core

import (
	"errors"
	"orangebot/protocol"
)

// Board defaults
const (
	DefaultSignature          = "OrangeBot-2020-01-19"
	DefaultMaxSignatureLength = 32
	DefaultTimeoutTicks       = 200
	DefaultPowerChannels      = 4
	DefaultEncoderChannels    = 2
	DefaultMinPower           = 16
	DefaultMaxPower           = 127
	DefaultSlopeLimit         = 10
	DefaultReverseMask        = 0x01
	DefaultEncoderThreshold   = 100
	DefaultEncoderRetries     = 3
	DefaultControlPrescaler   = 16
)

// Config holds the constants the board core is built with. None of them
// change at runtime.
type Config struct {
	RxBufferSize int
	TxBufferSize int

	// Control ticks without a matched command before the board stops
	TimeoutTicks uint32

	PowerChannels   int
	EncoderChannels int

	MinPower   uint8
	MaxPower   uint8
	SlopeLimit int16
	Saturation int16

	// Bit i set means channel i is wired with reversed polarity
	ReverseMask uint8

	Signature          string
	MaxSignatureLength int

	EncoderThreshold int32
	EncoderRetries   int

	// System ticks per control tick
	ControlPrescaler uint8
}

// DefaultConfig returns the configuration of the reference board
func DefaultConfig() Config {
	return Config{
		RxBufferSize:       protocol.RxBufferSize,
		TxBufferSize:       protocol.TxBufferSize,
		TimeoutTicks:       DefaultTimeoutTicks,
		PowerChannels:      DefaultPowerChannels,
		EncoderChannels:    DefaultEncoderChannels,
		MinPower:           DefaultMinPower,
		MaxPower:           DefaultMaxPower,
		SlopeLimit:         DefaultSlopeLimit,
		Saturation:         DefaultMaxPower,
		ReverseMask:        DefaultReverseMask,
		Signature:          DefaultSignature,
		MaxSignatureLength: DefaultMaxSignatureLength,
		EncoderThreshold:   DefaultEncoderThreshold,
		EncoderRetries:     DefaultEncoderRetries,
		ControlPrescaler:   DefaultControlPrescaler,
	}
}

// Validate rejects configurations the core cannot run with. An oversized
// signature is not rejected here; it is reported when the host asks for it.
func (c Config) Validate() error {
	if c.RxBufferSize < 1 {
		return errors.New("rx buffer size must be at least 1")
	}
	if c.TxBufferSize < 8 {
		return errors.New("tx buffer size must be at least 8")
	}
	if c.TimeoutTicks == 0 {
		return errors.New("timeout ticks must be greater than 0")
	}
	// PWMR addresses channels 0 and 1, the reverse mask has 8 bits
	if c.PowerChannels < 2 || c.PowerChannels > 8 {
		return errors.New("power channels must be between 2 and 8")
	}
	if c.EncoderChannels < 1 || c.EncoderChannels > MaxEncoderChannels {
		return errors.New("encoder channels must be between 1 and " + protocol.FormatUnsigned(MaxEncoderChannels))
	}
	if c.MaxPower == 0 || c.MinPower > c.MaxPower {
		return errors.New("power limits must satisfy 0 <= min <= max, max > 0")
	}
	if c.SlopeLimit <= 0 {
		return errors.New("slope limit must be greater than 0")
	}
	if c.Saturation <= 0 {
		return errors.New("saturation must be greater than 0")
	}
	if c.MaxSignatureLength < 1 || c.MaxSignatureLength > protocol.MaxSignatureBytes {
		return errors.New("max signature length must be between 1 and " + protocol.FormatUnsigned(protocol.MaxSignatureBytes))
	}
	if c.EncoderThreshold < 1 {
		return errors.New("encoder threshold must be at least 1")
	}
	if c.EncoderRetries < 1 {
		return errors.New("encoder retries must be at least 1")
	}
	if c.ControlPrescaler == 0 {
		return errors.New("control prescaler must be at least 1")
	}
	return nil
}
