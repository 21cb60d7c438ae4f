// Package drive turns a remote-control direction into wheel power
package drive

import "math"

const (
	DefaultVelocity      = 100
	DefaultSteeringRatio = 0.7
)

// Direction is the joystick input. Both axes range over [-1, 1].
type Direction struct {
	Forward float64 `json:"forward"`
	Right   float64 `json:"right"`
}

// Mixer computes differential wheel power from a direction
type Mixer struct {
	// Power of either wheel at full forward
	Velocity float64
	// Share of Velocity given to turning. 0 never turns, 1 turns in place at full right.
	SteeringRatio float64
}

// NewMixer returns a mixer with the given velocity and steering ratio
func NewMixer(velocity, steeringRatio float64) Mixer {
	return Mixer{Velocity: velocity, SteeringRatio: steeringRatio}
}

// DefaultMixer returns the mixer the platform ships with
func DefaultMixer() Mixer {
	return NewMixer(DefaultVelocity, DefaultSteeringRatio)
}

// Mix returns the (right, left) wheel power for d. A wheel pushed beyond
// Velocity is held at the limit and the excess is taken off the other wheel,
// so a hard turn keeps its curvature instead of flattening.
func (m Mixer) Mix(d Direction) (right, left int16) {
	forward := clampUnit(d.Forward)
	turn := clampUnit(d.Right)

	v := m.Velocity
	r := forward*v - turn*v*m.SteeringRatio
	l := forward*v + turn*v*m.SteeringRatio

	r, l = spill(r, l, v)
	l, r = spill(l, r, v)

	return toPower(r, v), toPower(l, v)
}

// spill holds a at ±limit and moves the excess onto b
func spill(a, b, limit float64) (float64, float64) {
	switch {
	case a > limit:
		b -= a - limit
		a = limit
	case a < -limit:
		b -= a + limit
		a = -limit
	}
	return a, b
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}

func toPower(v, limit float64) int16 {
	v = math.Max(-limit, math.Min(limit, v))
	v = math.Round(v)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
