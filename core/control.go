package core

// Mode is the control system the loop runs each tick
type Mode uint8

const (
	ModeStopped Mode = iota
	ModeOpenLoopPower
	ModeClosedLoopSpeed
	ModeClosedLoopPosition
)

// String returns the wire name used in CTRL: notifications
func (m Mode) String() string {
	switch m {
	case ModeStopped:
		return "OFF"
	case ModeOpenLoopPower:
		return "PWM"
	case ModeClosedLoopSpeed:
		return "SPD"
	case ModeClosedLoopPosition:
		return "POS"
	}
	return "ERR"
}

// Notifier receives what the control loop reports to the host
type Notifier interface {
	ModeChanged(m Mode)
	ReportError(code ErrorCode)
}

// modeRunner is the per-tick work of one mode
type modeRunner func(l *ControlLoop) error

// modeRunners has no arm for ModeClosedLoopPosition. The position law is
// advertised but not implemented, so that mode reports an undefined control
// system like any unknown value.
var modeRunners = map[Mode]modeRunner{
	ModeStopped:         runStopped,
	ModeOpenLoopPower:   runOpenLoopPower,
	ModeClosedLoopSpeed: runClosedLoopSpeed,
}

// ControlLoop sequences the per-tick work: mode adoption, encoder snapshot,
// then the current mode's runner
type ControlLoop struct {
	current   Mode
	requested Mode

	encoders *EncoderTracker
	slew     *SlewPowerController
	stage    *PowerStageDriver
	notify   Notifier

	ticks   uint32
	aborted uint32
}

// NewControlLoop creates a loop in ModeStopped
func NewControlLoop(encoders *EncoderTracker, slew *SlewPowerController, stage *PowerStageDriver, notify Notifier) *ControlLoop {
	return &ControlLoop{
		current:   ModeStopped,
		requested: ModeStopped,
		encoders:  encoders,
		slew:      slew,
		stage:     stage,
		notify:    notify,
	}
}

// RequestMode asks the loop to switch mode on its next tick
func (l *ControlLoop) RequestMode(m Mode) {
	l.requested = m
}

// Mode returns the mode the loop is running
func (l *ControlLoop) Mode() Mode {
	return l.current
}

// RequestedMode returns the mode the loop will adopt on its next tick
func (l *ControlLoop) RequestedMode() Mode {
	return l.requested
}

// Ticks returns the number of ticks run
func (l *ControlLoop) Ticks() uint32 {
	return l.ticks
}

// Aborted returns the number of ticks skipped for lack of an encoder snapshot
func (l *ControlLoop) Aborted() uint32 {
	return l.aborted
}

// Tick runs one control period
func (l *ControlLoop) Tick() error {
	l.ticks++

	if l.requested != l.current {
		l.current = l.requested
		RecordEvent(EvtModeChange, uint8(l.current), l.ticks, 0)
		l.notify.ModeChanged(l.current)
	}

	if _, err := l.encoders.ReadAll(); err != nil {
		l.aborted++
		l.notify.ReportError(ErrEncoderRetryExhausted)
		return err
	}

	run, ok := modeRunners[l.current]
	if !ok {
		l.notify.ReportError(ErrUndefinedControlSystem)
		l.requested = ModeStopped
		return ErrUndefinedControlSystem
	}
	return run(l)
}

// runStopped zeroes both the ramp and the hardware output
func runStopped(l *ControlLoop) error {
	l.slew.Reset()
	var first error
	for i := 0; i < l.stage.Channels(); i++ {
		if err := l.stage.Apply(i, 0); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func runOpenLoopPower(l *ControlLoop) error {
	l.slew.Advance()
	var first error
	for i := 0; i < l.stage.Channels(); i++ {
		if err := l.stage.Apply(i, l.slew.Current(i)); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// runClosedLoopSpeed holds the outputs where they are until a speed law exists
func runClosedLoopSpeed(_ *ControlLoop) error {
	return nil
}
