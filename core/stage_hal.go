package core

// PowerStage is the abstract H-bridge interface that core code uses.
// Platform-specific implementations handle the actual pins and PWM slices.
type PowerStage interface {
	// SetDirection drives the two control inputs of channel ch
	SetDirection(ch uint8, inA, inB bool) error

	// SetDuty writes the duty register of channel ch, 0 (off) to the
	// configured maximum power
	SetDuty(ch uint8, duty uint8) error

	// Channels returns the number of physical channels
	Channels() int
}
