package core

import (
	"errors"
	"orangebot/protocol"
	"sync/atomic"
)

// Stats is a snapshot of the board counters
type Stats struct {
	Ticks                uint32
	ControlTicks         uint32
	AbortedTicks         uint32
	Overruns             uint32
	RxDropped            uint32
	TxFramesDropped      uint32
	FrameErrors          uint32
	EncoderRetryFailures uint32
	TimeoutDetected      bool
	ErrorsReported       [numErrorCodes]uint32
}

// Device owns every piece of board state. SystemTick and ReceiveByte are the
// interrupt entry points; everything else runs in the loop context.
type Device struct {
	cfg    Config
	status Status

	rx *protocol.ChannelBuffer
	tx *protocol.ChannelBuffer

	dict      *protocol.Dictionary
	transport *protocol.Transport

	encoders *EncoderTracker
	slew     *SlewPowerController
	stage    *PowerStageDriver
	control  *ControlLoop

	// Interrupt-local
	prescaler uint8

	ticks    atomic.Uint32
	overruns atomic.Uint32

	// Loop-local
	timeoutCount  uint32
	seenOverruns  uint32
	errorsCounted [numErrorCodes]uint32
	values        [8]int16
}

// NewDevice builds a board core on top of the power stage hal
func NewDevice(cfg Config, hal PowerStage) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if hal == nil {
		return nil, errors.New("power stage is nil")
	}
	if hal.Channels() < cfg.PowerChannels {
		return nil, errors.New("power stage has " + protocol.FormatUnsigned(uint32(hal.Channels())) +
			" channels, need " + protocol.FormatUnsigned(uint32(cfg.PowerChannels)))
	}

	d := &Device{
		cfg:  cfg,
		rx:   protocol.NewChannelBuffer(cfg.RxBufferSize, protocol.RejectNew),
		tx:   protocol.NewChannelBuffer(cfg.TxBufferSize, protocol.RejectNew),
		dict: protocol.NewDictionary(),
	}
	d.encoders = NewEncoderTracker(cfg.EncoderChannels, cfg.EncoderThreshold, cfg.EncoderRetries, &d.status)
	d.slew = NewSlewPowerController(cfg.PowerChannels, cfg.SlopeLimit, cfg.Saturation)
	d.stage = NewPowerStageDriver(hal, cfg.PowerChannels, cfg.MinPower, cfg.MaxPower, cfg.ReverseMask)
	d.control = NewControlLoop(d.encoders, d.slew, d.stage, d)

	d.transport = protocol.NewTransport(d.rx, d.tx, d.dict, d.handleCommand)
	d.transport.SetErrorHandler(d.handleFrameError)

	d.initCommands()

	return d, nil
}

// ReceiveByte queues one byte from the link. It returns false when the RX
// ring is full and the byte was dropped. Interrupt context.
func (d *Device) ReceiveByte(b byte) bool {
	return d.rx.Push(b)
}

// SampleEncoders feeds one extra line sample without advancing the tick.
// Used when the sampler hardware buffers several samples per tick.
// Interrupt context.
func (d *Device) SampleEncoders(lines uint8) {
	d.encoders.Sample(lines)
}

// SystemTick samples the encoder lines and raises the tick flags.
// Interrupt context.
func (d *Device) SystemTick(lines uint8) {
	d.encoders.Sample(lines)
	d.ticks.Add(1)

	if d.status.TestAndSet(FlagTickElapsed) {
		d.overruns.Add(1)
	}

	d.prescaler++
	if d.prescaler >= d.cfg.ControlPrescaler {
		d.prescaler = 0
		d.status.Set(FlagControlUpdate)
	}
}

// Poll runs one pass of the main loop: decode pending frames, then run the
// control tick if one is due. It never blocks beyond the bounded encoder
// handshake.
func (d *Device) Poll() {
	d.transport.Receive()

	d.status.Clear(FlagTickElapsed)
	if n := d.overruns.Load(); n != d.seenOverruns {
		d.seenOverruns = n
		RecordEvent(EvtTickOverrun, 0, n, d.ticks.Load())
	}

	if d.status.TestAndClear(FlagControlUpdate) {
		d.advanceTimeout()
		if err := d.control.Tick(); err != nil {
			DebugAsync("[CTRL] " + err.Error())
		}
	}
}

// Drain moves pending response bytes into p for the link writer
func (d *Device) Drain(p []byte) int {
	return d.tx.Read(p)
}

// Pending returns the number of response bytes waiting in the TX ring
func (d *Device) Pending() int {
	return d.tx.Len()
}

// ApplyPlatform sets the ramp targets of the right (0) and left (1) channels.
// The stage is written by the next control tick.
func (d *Device) ApplyPlatform(right, left int16) error {
	if err := d.slew.SetTarget(0, right); err != nil {
		return err
	}
	return d.slew.SetTarget(1, left)
}

// SetEncoderWaiter sets the hook run between encoder handshake attempts.
// It must give the tick interrupt a chance to run.
func (d *Device) SetEncoderWaiter(wait func()) {
	d.encoders.SetWaiter(wait)
}

// resetTimeout restarts the communication timeout window
func (d *Device) resetTimeout() {
	d.timeoutCount = 0
	d.status.Clear(FlagTimeoutDetected)
}

// advanceTimeout counts one control tick without traffic. The timeout is
// reported once when the window closes.
func (d *Device) advanceTimeout() {
	if d.timeoutCount >= d.cfg.TimeoutTicks {
		return
	}
	d.timeoutCount++
	if d.timeoutCount < d.cfg.TimeoutTicks {
		return
	}
	d.status.Set(FlagTimeoutDetected)
	RecordEvent(EvtTimeout, uint8(d.control.Mode()), d.control.Ticks(), 0)
	d.report(ErrCommunicationTimeout)
	d.control.RequestMode(ModeStopped)
}

// ModeChanged sends the CTRL notification for a newly adopted mode
func (d *Device) ModeChanged(m Mode) {
	DebugAsync("[CTRL] mode " + m.String())
	d.sent(d.transport.SendControlMode(m.String()))
}

// ReportError sends ERR<code>
func (d *Device) ReportError(code ErrorCode) {
	d.report(code)
}

func (d *Device) report(code ErrorCode) {
	if code < numErrorCodes {
		d.errorsCounted[code]++
	}
	RecordEvent(EvtErrorReported, uint8(code), 0, 0)
	d.sent(d.transport.SendError(uint8(code)))
}

// sent records a response that did not fit the TX ring
func (d *Device) sent(err error) {
	if err != nil {
		RecordEvent(EvtFrameDropped, 0, d.transport.FramesDropped(), uint32(d.tx.Free()))
	}
}

// Stats returns the board counters. Loop context.
func (d *Device) Stats() Stats {
	// Interrupt counters are taken together so overruns never exceed ticks
	state := disableInterrupts()
	ticks := d.ticks.Load()
	overruns := d.overruns.Load()
	rxDropped := d.rx.Dropped()
	restoreInterrupts(state)

	return Stats{
		Ticks:                ticks,
		ControlTicks:         d.control.Ticks(),
		AbortedTicks:         d.control.Aborted(),
		Overruns:             overruns,
		RxDropped:            rxDropped,
		TxFramesDropped:      d.transport.FramesDropped(),
		FrameErrors:          d.transport.DecodeErrors(),
		EncoderRetryFailures: d.encoders.RetryFailures(),
		TimeoutDetected:      d.status.Test(FlagTimeoutDetected),
		ErrorsReported:       d.errorsCounted,
	}
}

// Config returns the configuration the device was built with
func (d *Device) Config() Config { return d.cfg }

// Control returns the control loop
func (d *Device) Control() *ControlLoop { return d.control }

// Encoders returns the encoder tracker
func (d *Device) Encoders() *EncoderTracker { return d.encoders }

// Slew returns the power ramp controller
func (d *Device) Slew() *SlewPowerController { return d.slew }

// Stage returns the power stage driver
func (d *Device) Stage() *PowerStageDriver { return d.stage }

// Status returns the shared status word
func (d *Device) Status() *Status { return &d.status }

// Dictionary returns the sealed command dictionary
func (d *Device) Dictionary() *protocol.Dictionary { return d.dict }
