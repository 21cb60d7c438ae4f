package protocol

import "math"

// Command signatures understood by the board
const (
	SigPing            = "P"
	SigSignature       = "F"
	SigPlatformPower   = "PWMR%SL%S"
	SigEncoderPosition = "ENC_ABS%u"
	SigEncoderSpeed    = "ENC_SPD"
	SigPowerReadback   = "PWM_GET"
)

// Command is a decoded host request. The set of variants is closed.
type Command interface {
	Name() string
	command()
}

// Ping keeps the link alive
type Ping struct{}

// SignatureRequest asks for the board identity string
type SignatureRequest struct{}

// SetPlatformPower sets the right and left wheel power targets and selects
// open-loop power mode
type SetPlatformPower struct {
	Right int16
	Left  int16
}

// EncoderPositionRequest asks for the absolute position of one encoder
type EncoderPositionRequest struct {
	Index uint32
}

// EncoderSpeedRequest asks for the speed of every encoder
type EncoderSpeedRequest struct{}

// PowerReadback asks for the commanded power of every power channel
type PowerReadback struct{}

func (Ping) Name() string                   { return "ping" }
func (SignatureRequest) Name() string       { return "signature" }
func (SetPlatformPower) Name() string       { return "platform_power" }
func (EncoderPositionRequest) Name() string { return "encoder_position" }
func (EncoderSpeedRequest) Name() string    { return "encoder_speed" }
func (PowerReadback) Name() string          { return "power_readback" }

func (Ping) command()                   {}
func (SignatureRequest) command()       {}
func (SetPlatformPower) command()       {}
func (EncoderPositionRequest) command() {}
func (EncoderSpeedRequest) command()    {}
func (PowerReadback) command()          {}

// BuildPing builds a Ping
func BuildPing(_ []Arg) (Command, error) {
	return Ping{}, nil
}

// BuildSignatureRequest builds a SignatureRequest
func BuildSignatureRequest(_ []Arg) (Command, error) {
	return SignatureRequest{}, nil
}

// BuildSetPlatformPower narrows the two signed slots to 16 bits
func BuildSetPlatformPower(args []Arg) (Command, error) {
	if len(args) != 2 {
		return nil, ErrArgumentRange
	}
	right, ok := toInt16(args[0])
	if !ok {
		return nil, ErrArgumentRange
	}
	left, ok := toInt16(args[1])
	if !ok {
		return nil, ErrArgumentRange
	}
	return SetPlatformPower{Right: right, Left: left}, nil
}

// BuildEncoderPositionRequest builds an EncoderPositionRequest
func BuildEncoderPositionRequest(args []Arg) (Command, error) {
	if len(args) != 1 || args[0].Kind != ArgUnsigned {
		return nil, ErrArgumentRange
	}
	return EncoderPositionRequest{Index: args[0].Unsigned}, nil
}

// BuildEncoderSpeedRequest builds an EncoderSpeedRequest
func BuildEncoderSpeedRequest(_ []Arg) (Command, error) {
	return EncoderSpeedRequest{}, nil
}

// BuildPowerReadback builds a PowerReadback
func BuildPowerReadback(_ []Arg) (Command, error) {
	return PowerReadback{}, nil
}

func toInt16(a Arg) (int16, bool) {
	if a.Kind != ArgSigned || a.Signed < math.MinInt16 || a.Signed > math.MaxInt16 {
		return 0, false
	}
	return int16(a.Signed), true
}

// EncodePlatformPower renders the host request frame for SetPlatformPower
func EncodePlatformPower(right, left int16) []byte {
	out := append([]byte(nil), "PWMR"...)
	out = appendPlain(out, int32(right))
	out = append(out, 'L')
	out = appendPlain(out, int32(left))
	return append(out, FrameTerminator)
}

// EncodeRequest renders a request frame without arguments
func EncodeRequest(signature string) []byte {
	out := append([]byte(nil), signature...)
	return append(out, FrameTerminator)
}

// EncodeEncoderPositionRequest renders "ENC_ABS<index>\0"
func EncodeEncoderPositionRequest(index uint32) []byte {
	out := append([]byte(nil), PrefixEncoderAbs...)
	out = AppendUnsigned(out, index)
	return append(out, FrameTerminator)
}

// appendPlain writes v with a sign only when negative, as hosts usually do
func appendPlain(dst []byte, v int32) []byte {
	if v < 0 {
		return AppendSigned(dst, v)
	}
	return AppendUnsigned(dst, uint32(v))
}
