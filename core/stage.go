package core

// PowerStageDriver maps signed power to duty and direction on one channel of
// the power stage, applying deadband, saturation and wiring polarity
type PowerStageDriver struct {
	hal         PowerStage
	channels    int
	minPower    uint8
	maxPower    uint8
	reverseMask uint8

	lastDuty      []uint8
	lastDirection []bool
}

// NewPowerStageDriver creates a driver for the first channels of hal
func NewPowerStageDriver(hal PowerStage, channels int, minPower, maxPower, reverseMask uint8) *PowerStageDriver {
	return &PowerStageDriver{
		hal:           hal,
		channels:      channels,
		minPower:      minPower,
		maxPower:      maxPower,
		reverseMask:   reverseMask,
		lastDuty:      make([]uint8, channels),
		lastDirection: make([]bool, channels),
	}
}

// Channels returns the number of driven channels
func (d *PowerStageDriver) Channels() int {
	return d.channels
}

// Apply drives channel ch with power. An out-of-range channel returns
// ErrInvalidChannel before any hardware write.
func (d *PowerStageDriver) Apply(ch int, power int16) error {
	if ch < 0 || ch >= d.channels {
		return ErrInvalidChannel
	}

	magnitude := int32(power)
	negative := magnitude < 0
	if negative {
		magnitude = -magnitude
	}
	switch {
	case magnitude < int32(d.minPower):
		magnitude = 0
	case magnitude > int32(d.maxPower):
		magnitude = int32(d.maxPower)
	}

	reversed := (d.reverseMask>>uint(ch))&1 == 1
	direction := negative != reversed

	if err := d.hal.SetDirection(uint8(ch), direction, !direction); err != nil {
		return err
	}
	if err := d.hal.SetDuty(uint8(ch), uint8(magnitude)); err != nil {
		return err
	}

	d.lastDuty[ch] = uint8(magnitude)
	d.lastDirection[ch] = direction
	return nil
}

// LastDuty returns the last duty written to ch
func (d *PowerStageDriver) LastDuty(ch int) uint8 {
	if ch < 0 || ch >= d.channels {
		return 0
	}
	return d.lastDuty[ch]
}

// LastDirection returns the last hardware direction written to ch
func (d *PowerStageDriver) LastDirection(ch int) bool {
	if ch < 0 || ch >= d.channels {
		return false
	}
	return d.lastDirection[ch]
}
