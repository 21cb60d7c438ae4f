package core

import (
	"errors"
	"orangebot/protocol"
)

// ErrorCode is a board error reported to the host as ERR<code>.
// The numeric values are part of the wire protocol.
type ErrorCode uint8

const (
	ErrUndefinedControlSystem ErrorCode = iota
	ErrCommunicationTimeout
	ErrBadParserDictionary
	ErrParserRuntimeError
	ErrBadBoardSignature
	ErrInvalidArgument
	ErrEncoderRetryExhausted

	numErrorCodes
)

var errorNames = [numErrorCodes]string{
	"undefined control system",
	"communication timeout",
	"bad parser dictionary",
	"parser runtime error",
	"bad board signature",
	"invalid argument",
	"encoder retry exhausted",
}

func (e ErrorCode) Error() string {
	if e < numErrorCodes {
		return errorNames[e]
	}
	return "error " + protocol.FormatUnsigned(uint32(e))
}

// ErrInvalidChannel is returned for a power or encoder channel index outside
// the configured range. It is reported as ErrInvalidArgument.
var ErrInvalidChannel = errors.New("channel index out of range")

// codeOf maps an error to the code reported on the wire
func codeOf(err error) ErrorCode {
	var code ErrorCode
	switch {
	case errors.As(err, &code):
		return code
	case errors.Is(err, ErrInvalidChannel):
		return ErrInvalidArgument
	case errors.Is(err, protocol.ErrNoMatch),
		errors.Is(err, protocol.ErrFrameTooLong),
		errors.Is(err, protocol.ErrArgumentRange):
		return ErrParserRuntimeError
	case errors.Is(err, protocol.ErrDuplicateOrMalformed),
		errors.Is(err, protocol.ErrDictionarySealed):
		return ErrBadParserDictionary
	}
	return ErrParserRuntimeError
}
