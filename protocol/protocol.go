// Package protocol implements the OrangeBot serial link protocol: ASCII
// command frames from the host, NUL-terminated response frames back.
package protocol

// Version represents the firmware protocol version
const Version = "0.2.0"

// Protocol constants. MessageMax is the largest outbound frame and matches
// the TX ring; FrameMax is the largest inbound frame body kept before the
// frame is discarded.
const (
	MessageMax      = 64
	FrameMax        = 32
	FrameTerminator = 0x00
	FieldSeparator  = ':'
)

// MaxSignatureBytes bounds the board signature so its length fits the u8 field
const MaxSignatureBytes = 254

// Response prefixes
const (
	PrefixError          = "ERR"
	PrefixControlMode    = "CTRL:"
	PrefixPlatformPower  = "PWM_DUAL"
	PrefixSignature      = "F"
	PrefixEncoderAbs     = "ENC_ABS"
	PrefixEncoderSpdDual = "ENC_SPD_DUAL"
)
