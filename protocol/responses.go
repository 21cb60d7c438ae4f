package protocol

import (
	"bytes"
	"errors"
	"math"
)

var ErrMalformedResponse = errors.New("malformed response frame")

// Response is a decoded board frame as seen by the host
type Response interface {
	Kind() string
	response()
}

// ErrorReport carries an ERR<code> frame
type ErrorReport struct {
	Code uint8
}

// ControlModeReport carries a CTRL:<mode> frame
type ControlModeReport struct {
	Mode string
}

// PlatformPowerReport carries the commanded power per channel
type PlatformPowerReport struct {
	Values []int16
}

// SignatureHeader is the first frame of a signature reply. The signature text
// follows in its own frame.
type SignatureHeader struct {
	Length uint8
}

// SignatureReport is a complete signature reply
type SignatureReport struct {
	Length    uint8
	Signature string
}

// EncoderPositionReport carries one absolute encoder position
type EncoderPositionReport struct {
	Index    uint32
	Position int32
}

// EncoderSpeedReport carries the last speed of every encoder
type EncoderSpeedReport struct {
	Speeds []int16
}

func (ErrorReport) Kind() string           { return "error" }
func (ControlModeReport) Kind() string     { return "control_mode" }
func (PlatformPowerReport) Kind() string   { return "platform_power" }
func (SignatureHeader) Kind() string       { return "signature_header" }
func (SignatureReport) Kind() string       { return "signature" }
func (EncoderPositionReport) Kind() string { return "encoder_position" }
func (EncoderSpeedReport) Kind() string    { return "encoder_speed" }

func (ErrorReport) response()           {}
func (ControlModeReport) response()     {}
func (PlatformPowerReport) response()   {}
func (SignatureHeader) response()       {}
func (SignatureReport) response()       {}
func (EncoderPositionReport) response() {}
func (EncoderSpeedReport) response()    {}

// ParseResponse decodes one board frame without its terminator.
// The text frame that follows a SignatureHeader is not self-describing and
// must be paired by the caller.
func ParseResponse(frame []byte) (Response, error) {
	switch {
	case bytes.HasPrefix(frame, []byte(PrefixError)):
		v, next, ok := parseUnsigned(frame, len(PrefixError))
		if !ok || next != len(frame) || v > math.MaxUint8 {
			return nil, ErrMalformedResponse
		}
		return ErrorReport{Code: uint8(v)}, nil

	case bytes.HasPrefix(frame, []byte(PrefixControlMode)):
		mode := frame[len(PrefixControlMode):]
		if len(mode) == 0 {
			return nil, ErrMalformedResponse
		}
		return ControlModeReport{Mode: string(mode)}, nil

	case bytes.HasPrefix(frame, []byte(PrefixPlatformPower)):
		values, ok := parseSignedList(frame, len(PrefixPlatformPower))
		if !ok {
			return nil, ErrMalformedResponse
		}
		return PlatformPowerReport{Values: values}, nil

	case bytes.HasPrefix(frame, []byte(PrefixEncoderSpdDual)):
		speeds, ok := parseSignedList(frame, len(PrefixEncoderSpdDual))
		if !ok {
			return nil, ErrMalformedResponse
		}
		return EncoderSpeedReport{Speeds: speeds}, nil

	case bytes.HasPrefix(frame, []byte(PrefixEncoderAbs)):
		index, next, ok := parseUnsigned(frame, len(PrefixEncoderAbs))
		if !ok || next >= len(frame) || frame[next] != FieldSeparator {
			return nil, ErrMalformedResponse
		}
		pos, end, ok := parseSigned(frame, next+1)
		if !ok || end != len(frame) {
			return nil, ErrMalformedResponse
		}
		return EncoderPositionReport{Index: index, Position: pos}, nil

	case bytes.HasPrefix(frame, []byte(PrefixSignature)):
		v, next, ok := parseUnsigned(frame, len(PrefixSignature))
		if !ok || next != len(frame) || v > math.MaxUint8 {
			return nil, ErrMalformedResponse
		}
		return SignatureHeader{Length: uint8(v)}, nil
	}
	return nil, ErrMalformedResponse
}

// parseSignedList reads signed 16-bit fields separated by ':' up to the end
func parseSignedList(frame []byte, i int) ([]int16, bool) {
	var out []int16
	for {
		v, next, ok := parseSigned(frame, i)
		if !ok || v < math.MinInt16 || v > math.MaxInt16 {
			return nil, false
		}
		out = append(out, int16(v))
		if next == len(frame) {
			return out, true
		}
		if frame[next] != FieldSeparator {
			return nil, false
		}
		i = next + 1
	}
}
