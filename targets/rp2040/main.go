//go:build rp2040

package main

import (
	"machine"
	"orangebot/core"
	"orangebot/protocol"
	"time"
)

const systemTickPeriod = time.Millisecond

// Encoder lines GPIO16..GPIO19
const encoderBase = machine.GPIO16

var (
	dev     *core.Device
	sampler *PIOEncoderSampler

	// Scratch for draining the TX ring
	outputBuffer [protocol.TxBufferSize]byte

	// Debug counters
	msgerrors                uint32
	lateTicks                uint32
	consecutiveWriteFailures uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	if err := InitUSB(); err != nil {
		return
	}
	InitDebugUART()

	cfg := core.DefaultConfig()
	stage, err := NewRP2040Stage(bridgeWiring[:cfg.PowerChannels], cfg.MaxPower)
	if err != nil {
		core.DebugPrintln("[INIT] stage: " + err.Error())
		return
	}

	dev, err = core.NewDevice(cfg, stage)
	if err != nil {
		core.DebugPrintln("[INIT] device: " + err.Error())
		return
	}

	sampler = NewPIOEncoderSampler(0, 0)
	if err := sampler.Init(encoderBase); err != nil {
		core.DebugPrintln("[INIT] encoder sampler: " + err.Error())
		return
	}
	// The handshake pulls buffered samples itself instead of waiting a tick
	dev.SetEncoderWaiter(func() {
		dev.SampleEncoders(sampler.Drain(dev))
	})

	go usbReaderLoop()
	go tickLoop()

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					core.DebugAsync("[MAIN] recovered panic")
				}
			}()

			dev.Poll()
			writeUSB()
		}()

		// Yield to the reader and tick goroutines
		time.Sleep(10 * time.Microsecond)
	}
}

// tickLoop raises the system tick. Samples buffered by the PIO since the
// last tick are fed first so no edge is skipped.
func tickLoop() {
	clock := newTickClock(systemTickPeriod)
	for {
		if !clock.wait() {
			lateTicks++
		}
		dev.SystemTick(sampler.Drain(dev))
	}
}

// usbReaderLoop moves received bytes into the RX ring
func usbReaderLoop() {
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop()
		}
	}()

	for {
		for USBAvailable() > 0 {
			b, err := USBRead()
			if err != nil {
				msgerrors++
				break
			}
			// A full ring drops the byte; the frame then fails to parse
			dev.ReceiveByte(b)
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// writeUSB drains pending responses to the host
func writeUSB() {
	for dev.Pending() > 0 {
		n := dev.Drain(outputBuffer[:])
		written := 0
		for written < n {
			w, err := USBWriteBytes(outputBuffer[written:n])
			if err != nil || w == 0 {
				// Likely disconnect; the rest of this chunk is lost
				consecutiveWriteFailures++
				if consecutiveWriteFailures > 10 {
					consecutiveWriteFailures = 0
					core.DebugAsync("[USB] write failures, host gone?")
				}
				return
			}
			written += w
		}
		consecutiveWriteFailures = 0
	}
}
