//go:build rp2040

package main

import (
	"errors"
	"machine"

	"tinygo.org/x/drivers/l293x"
)

// PWM carrier for the bridge enable lines
const stagePWMPeriod = 1e9 / 20000

// bridgePins wires one half of an L293-style bridge
type bridgePins struct {
	inA, inB, en machine.Pin
}

// Reference board wiring. The enable lines share PWM slices 5 and 6.
var bridgeWiring = [4]bridgePins{
	{machine.GPIO2, machine.GPIO3, machine.GPIO10},
	{machine.GPIO4, machine.GPIO5, machine.GPIO11},
	{machine.GPIO6, machine.GPIO7, machine.GPIO12},
	{machine.GPIO8, machine.GPIO9, machine.GPIO13},
}

// pwmPeripheral abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// bridgeChannel is the last state written to one channel. The l293x driver
// takes direction and speed together, so both halves are kept here.
type bridgeChannel struct {
	dev      l293x.PWMDevice
	inA, inB bool
	duty     uint8
}

// RP2040Stage implements core.PowerStage on top of the l293x driver
type RP2040Stage struct {
	channels []bridgeChannel
	maxDuty  uint8
}

// NewRP2040Stage configures the bridge pins and PWM slices. maxDuty is the
// duty value that maps to a fully on enable line.
func NewRP2040Stage(wiring []bridgePins, maxDuty uint8) (*RP2040Stage, error) {
	if maxDuty == 0 {
		return nil, errors.New("max duty must be positive")
	}
	s := &RP2040Stage{
		channels: make([]bridgeChannel, len(wiring)),
		maxDuty:  maxDuty,
	}

	configured := make(map[uint8]bool)
	for i, w := range wiring {
		// RP2040: GPIO N belongs to slice (N >> 1) & 7
		slice := uint8((uint32(w.en) >> 1) & 0x7)
		pwm := getPWMPeripheral(slice)
		if !configured[slice] {
			if err := pwm.Configure(machine.PWMConfig{Period: stagePWMPeriod}); err != nil {
				return nil, err
			}
			configured[slice] = true
		}

		// The driver's forward raises its first pin, which is inB here
		s.channels[i].dev = l293x.NewWithSpeed(w.inB, w.inA, w.en, pwm)
		if err := s.channels[i].dev.Configure(); err != nil {
			return nil, err
		}
		s.channels[i].dev.Stop()
	}
	return s, nil
}

// Channels returns the number of wired bridges
func (s *RP2040Stage) Channels() int {
	return len(s.channels)
}

// SetDirection latches the control inputs of channel ch
func (s *RP2040Stage) SetDirection(ch uint8, inA, inB bool) error {
	if int(ch) >= len(s.channels) {
		return errors.New("bridge channel out of range")
	}
	c := &s.channels[ch]
	c.inA, c.inB = inA, inB
	s.write(c)
	return nil
}

// SetDuty sets the enable duty of channel ch
func (s *RP2040Stage) SetDuty(ch uint8, duty uint8) error {
	if int(ch) >= len(s.channels) {
		return errors.New("bridge channel out of range")
	}
	c := &s.channels[ch]
	c.duty = duty
	s.write(c)
	return nil
}

// write pushes a channel state to the driver. inB alone drives forward and
// inA alone drives backward; anything else brakes.
func (s *RP2040Stage) write(c *bridgeChannel) {
	speed := uint32(c.duty) * 100 / uint32(s.maxDuty)
	if speed > 100 {
		speed = 100
	}
	switch {
	case speed == 0:
		c.dev.Stop()
	case c.inB && !c.inA:
		c.dev.Forward(speed)
	case c.inA && !c.inB:
		c.dev.Backward(speed)
	default:
		c.dev.Stop()
	}
}

// getPWMPeripheral returns the PWM peripheral for a slice number
func getPWMPeripheral(slice uint8) pwmPeripheral {
	switch slice {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	case 7:
		return machine.PWM7
	default:
		return machine.PWM0
	}
}
