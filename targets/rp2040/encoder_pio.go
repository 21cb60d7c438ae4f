//go:build rp2040

package main

// PIO quadrature sampler. One state machine watches the four encoder lines
// and pushes a word to the RX FIFO each time they change, so edges between
// system ticks are not lost.

import (
	"machine"
	"orangebot/core"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// buildSamplerProgram creates the change detector using AssemblerV0.
// X holds the last pushed sample.
func buildSamplerProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Mov(rp2pio.MovDestISR, rp2pio.MovSrcNull).Encode(), // 0: mov isr, null
		asm.In(rp2pio.InSrcPins, 4).Encode(),                    // 1: in pins, 4
		asm.Mov(rp2pio.MovDestY, rp2pio.MovSrcISR).Encode(),    // 2: mov y, isr
		asm.Jmp(5, rp2pio.JmpXNotEqualY).Encode(),              // 3: jmp x!=y, 5
		asm.Jmp(0, rp2pio.JmpAlways).Encode(),                  // 4: jmp 0
		// changed:
		asm.Mov(rp2pio.MovDestX, rp2pio.MovSrcY).Encode(), // 5: mov x, y
		asm.Push(false, false).Encode(),                   // 6: push noblock
		// .wrap
	}
}

const samplerPIOOrigin = 0

// Sample clock: 125 MHz / 125 = one instruction per microsecond
const samplerClkDiv = 125

// PIOEncoderSampler feeds the encoder tracker from a PIO state machine
type PIOEncoderSampler struct {
	pio  *rp2pio.PIO
	sm   rp2pio.StateMachine
	base machine.Pin
	last uint8
}

// NewPIOEncoderSampler claims state machine smNum of PIO pioNum
func NewPIOEncoderSampler(pioNum, smNum uint8) *PIOEncoderSampler {
	var pioHW *rp2pio.PIO
	if pioNum == 0 {
		pioHW = rp2pio.PIO0
	} else {
		pioHW = rp2pio.PIO1
	}
	return &PIOEncoderSampler{
		pio: pioHW,
		sm:  pioHW.StateMachine(smNum),
	}
}

// Init loads the program and starts sampling the four consecutive pins
// starting at base: channel 0 A/B then channel 1 A/B.
func (s *PIOEncoderSampler) Init(base machine.Pin) error {
	s.base = base
	s.sm.TryClaim()

	program := buildSamplerProgram()
	offset, err := s.pio.AddProgram(program, samplerPIOOrigin)
	if err != nil {
		return err
	}

	for i := machine.Pin(0); i < 4; i++ {
		(base + i).Configure(machine.PinConfig{Mode: s.pio.PinMode()})
	}

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetInPins(base)
	// Shift left so pin 0 lands in bit 0, no autopush
	cfg.SetInShift(false, false, 32)
	// Joined FIFO gives eight samples of slack per tick
	cfg.SetFIFOJoin(rp2pio.FifoJoinRx)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(samplerClkDiv, 0)

	s.sm.Init(offset, cfg)
	// Inputs only
	s.sm.SetPindirsConsecutive(base, 4, false)

	s.last = s.readPins()
	s.sm.SetEnabled(true)
	return nil
}

// Drain hands every buffered sample except the newest to the device and
// returns the newest line state.
func (s *PIOEncoderSampler) Drain(dev *core.Device) uint8 {
	for !s.sm.IsRxFIFOEmpty() {
		dev.SampleEncoders(s.last)
		s.last = uint8(s.sm.RxGet() & 0x0f)
	}
	return s.last
}

func (s *PIOEncoderSampler) readPins() uint8 {
	var lines uint8
	for i := machine.Pin(0); i < 4; i++ {
		if (s.base + i).Get() {
			lines |= 1 << uint8(i)
		}
	}
	return lines
}
