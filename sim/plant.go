package sim

import "math"

// PlantConfig describes the simulated wheels
type PlantConfig struct {
	// Encoder counts per system tick at full duty
	CountsPerTick float64 `yaml:"counts_per_tick"`

	// Fraction of the speed error closed each tick, 0 < Response <= 1
	Response float64 `yaml:"response"`

	// Duty that means full speed
	MaxDuty uint8 `yaml:"max_duty"`

	// Bit i set flips the encoder of wheel i, matching a motor mounted
	// mirrored on the chassis
	EncoderMirror uint8 `yaml:"encoder_mirror"`
}

// DefaultPlantConfig returns a plant with roughly 2 counts per millisecond at
// full power
func DefaultPlantConfig() PlantConfig {
	return PlantConfig{
		CountsPerTick: 2,
		Response:      0.05,
		MaxDuty:       127,
		EncoderMirror: 0x01,
	}
}

// Gray code order of one quadrature channel turning forward
var quadratureSequence = [4]uint8{0b00, 0b01, 0b11, 0b10}

// maxStepsPerTick bounds the samples produced per tick so a runaway speed
// cannot stall the loop
const maxStepsPerTick = 64

type wheel struct {
	speed    float64 // counts per tick
	position float64
	emitted  int64
	phase    int
}

// Plant turns motor drive into wheel motion and quadrature line samples.
// Not safe for concurrent use.
type Plant struct {
	cfg     PlantConfig
	wheels  []wheel
	samples []uint8
}

// NewPlant creates a plant with one wheel per encoder channel
func NewPlant(cfg PlantConfig, wheels int) *Plant {
	if cfg.MaxDuty == 0 {
		cfg.MaxDuty = 1
	}
	if cfg.Response <= 0 || cfg.Response > 1 {
		cfg.Response = 1
	}
	return &Plant{
		cfg:     cfg,
		wheels:  make([]wheel, wheels),
		samples: make([]uint8, 0, maxStepsPerTick),
	}
}

// Advance moves every wheel by one system tick and returns the line samples
// that walk the encoders to their new positions, one count per sample. The
// slice is reused by the next call.
func (p *Plant) Advance(drive func(ch int) int) []uint8 {
	for i := range p.wheels {
		w := &p.wheels[i]
		target := float64(drive(i)) / float64(p.cfg.MaxDuty) * p.cfg.CountsPerTick
		w.speed += (target - w.speed) * p.cfg.Response
		w.position += w.speed
	}

	p.samples = p.samples[:0]
	for len(p.samples) < maxStepsPerTick {
		moved := false
		for i := range p.wheels {
			w := &p.wheels[i]
			goal := int64(math.Trunc(w.position))
			switch {
			case w.emitted < goal:
				w.emitted++
				p.step(i, true)
				moved = true
			case w.emitted > goal:
				w.emitted--
				p.step(i, false)
				moved = true
			}
		}
		if !moved {
			break
		}
		p.samples = append(p.samples, p.Lines())
	}
	return p.samples
}

func (p *Plant) step(i int, forward bool) {
	w := &p.wheels[i]
	if (p.cfg.EncoderMirror>>uint(i))&1 == 1 {
		forward = !forward
	}
	if forward {
		w.phase = (w.phase + 1) % 4
	} else {
		w.phase = (w.phase + 3) % 4
	}
}

// Lines returns the current state of every encoder line, two bits per wheel
func (p *Plant) Lines() uint8 {
	var lines uint8
	for i := range p.wheels {
		lines |= quadratureSequence[p.wheels[i].phase] << (2 * uint(i))
	}
	return lines
}

// Counts returns the whole counts wheel i has turned, as its encoder reports
// them
func (p *Plant) Counts(i int) int64 {
	if i < 0 || i >= len(p.wheels) {
		return 0
	}
	n := p.wheels[i].emitted
	if (p.cfg.EncoderMirror>>uint(i))&1 == 1 {
		n = -n
	}
	return n
}

// Speed returns the speed of wheel i in counts per tick
func (p *Plant) Speed(i int) float64 {
	if i < 0 || i >= len(p.wheels) {
		return 0
	}
	return p.wheels[i].speed
}
