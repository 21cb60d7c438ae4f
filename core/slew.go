package core

// SlewPowerController ramps the commanded power of each channel toward its
// target by a bounded step per control tick.
type SlewPowerController struct {
	target     []int16
	current    []int16
	slope      []int16
	saturation []int16
}

// NewSlewPowerController creates a controller with the same slope limit and
// saturation bound on every channel
func NewSlewPowerController(channels int, slope, saturation int16) *SlewPowerController {
	s := &SlewPowerController{
		target:     make([]int16, channels),
		current:    make([]int16, channels),
		slope:      make([]int16, channels),
		saturation: make([]int16, channels),
	}
	for i := 0; i < channels; i++ {
		s.slope[i] = slope
		s.saturation[i] = saturation
	}
	return s
}

// Channels returns the number of power channels
func (s *SlewPowerController) Channels() int {
	return len(s.current)
}

// SetTarget stores the target of ch unclamped. current is not touched.
func (s *SlewPowerController) SetTarget(ch int, v int16) error {
	if ch < 0 || ch >= len(s.target) {
		return ErrInvalidChannel
	}
	s.target[ch] = v
	return nil
}

// Target returns the stored target of ch
func (s *SlewPowerController) Target(ch int) int16 {
	if ch < 0 || ch >= len(s.target) {
		return 0
	}
	return s.target[ch]
}

// Current returns the commanded power of ch
func (s *SlewPowerController) Current(ch int) int16 {
	if ch < 0 || ch >= len(s.current) {
		return 0
	}
	return s.current[ch]
}

// Currents appends the commanded power of every channel to dst
func (s *SlewPowerController) Currents(dst []int16) []int16 {
	return append(dst, s.current...)
}

// Advance moves every channel one step toward its saturated target.
// A reversal stops at zero; the new direction starts on the next call.
func (s *SlewPowerController) Advance() {
	for i := range s.current {
		sat := int32(s.saturation[i])
		step := int32(s.slope[i])
		target := clamp32(int32(s.target[i]), -sat, sat)
		cur := int32(s.current[i])

		if cur == target {
			continue
		}

		switch {
		case cur > 0 && target < 0:
			cur = max32(cur-step, 0)
		case cur < 0 && target > 0:
			cur = min32(cur+step, 0)
		case target > cur:
			cur = min32(cur+step, target)
		default:
			cur = max32(cur-step, target)
		}
		s.current[i] = int16(cur)
	}
}

// Reset zeroes every channel immediately, bypassing the slope limit.
// Targets are left as they are.
func (s *SlewPowerController) Reset() {
	for i := range s.current {
		s.current[i] = 0
	}
}

func clamp32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
