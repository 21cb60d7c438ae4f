package protocol

import "errors"

var (
	ErrFrameTooLong = errors.New("inbound frame exceeds maximum length")
	ErrFrameDropped = errors.New("outbound frame does not fit the transmit buffer")
)

// CommandHandler is called for every inbound frame that matched a signature
type CommandHandler func(cmd Command) error

// ErrorHandler is called for every inbound frame that could not be decoded
type ErrorHandler func(err error)

// Transport frames inbound bytes from the RX ring into commands and encodes
// responses into the TX ring. It runs entirely in the control loop context.
type Transport struct {
	rx   *ChannelBuffer
	tx   *ChannelBuffer
	dict *Dictionary

	handler      CommandHandler
	errorHandler ErrorHandler

	frame      [FrameMax]byte
	frameLen   int
	discarding bool // Overlong frame: skip to the next terminator

	scratch ScratchOutput

	framesReceived uint32
	framesDropped  uint32
	decodeErrors   uint32
}

// NewTransport creates a new Transport instance
func NewTransport(rx, tx *ChannelBuffer, dict *Dictionary, handler CommandHandler) *Transport {
	return &Transport{
		rx:      rx,
		tx:      tx,
		dict:    dict,
		handler: handler,
	}
}

// SetErrorHandler sets the callback for frames that fail to decode
func (t *Transport) SetErrorHandler(h ErrorHandler) {
	t.errorHandler = h
}

// Receive consumes every byte currently in the RX ring and dispatches each
// complete frame. A partial frame is kept for the next call.
func (t *Transport) Receive() {
	for {
		b, ok := t.rx.Pop()
		if !ok {
			return
		}
		if isTerminator(b) {
			t.endFrame()
			continue
		}
		if t.discarding {
			continue
		}
		if t.frameLen >= len(t.frame) {
			t.discarding = true
			t.frameLen = 0
			t.fail(ErrFrameTooLong)
			continue
		}
		t.frame[t.frameLen] = b
		t.frameLen++
	}
}

// endFrame dispatches the accumulated frame
func (t *Transport) endFrame() {
	n := t.frameLen
	t.frameLen = 0
	if t.discarding {
		t.discarding = false
		return
	}
	// Back-to-back terminators are idle line noise
	if n == 0 {
		return
	}
	t.framesReceived++
	cmd, err := t.dict.Match(t.frame[:n])
	if err != nil {
		t.fail(err)
		return
	}
	if t.handler != nil {
		if err := t.handler(cmd); err != nil {
			t.fail(err)
		}
	}
}

func (t *Transport) fail(err error) {
	t.decodeErrors++
	if t.errorHandler != nil {
		t.errorHandler(err)
	}
}

// Pending returns the length of the partially received frame
func (t *Transport) Pending() int {
	return t.frameLen
}

// Reset drops any partial frame
func (t *Transport) Reset() {
	t.frameLen = 0
	t.discarding = false
	t.scratch.Reset()
}

// FramesReceived returns the number of terminated frames seen
func (t *Transport) FramesReceived() uint32 { return t.framesReceived }

// FramesDropped returns the number of responses that did not fit the TX ring
func (t *Transport) FramesDropped() uint32 { return t.framesDropped }

// DecodeErrors returns the number of inbound frames that failed to decode or
// whose handler returned an error
func (t *Transport) DecodeErrors() uint32 { return t.decodeErrors }

// SendError encodes "ERR<code>\0"
func (t *Transport) SendError(code uint8) error {
	t.begin(PrefixError)
	t.digits(uint32(code))
	return t.commit()
}

// SendControlMode encodes "CTRL:<mode>\0"
func (t *Transport) SendControlMode(mode string) error {
	t.begin(PrefixControlMode)
	t.scratch.OutputString(mode)
	return t.commit()
}

// SendPlatformPower encodes "PWM_DUAL<s>:<s>...\0"
func (t *Transport) SendPlatformPower(values []int16) error {
	t.begin(PrefixPlatformPower)
	for i, v := range values {
		if i > 0 {
			t.scratch.Output(FieldSeparator)
		}
		t.signed(int32(v))
	}
	return t.commit()
}

// SendSignature encodes "F<length>\0<signature>\0". length is the value the
// board advertises, which counts the signature terminator.
func (t *Transport) SendSignature(length uint8, signature string) error {
	t.begin(PrefixSignature)
	t.digits(uint32(length))
	t.scratch.Output(FrameTerminator)
	t.scratch.OutputString(signature)
	return t.commit()
}

// SendEncoderPosition encodes "ENC_ABS<index>:<position>\0"
func (t *Transport) SendEncoderPosition(index uint32, position int32) error {
	t.begin(PrefixEncoderAbs)
	t.digits(index)
	t.scratch.Output(FieldSeparator)
	t.signed(position)
	return t.commit()
}

// SendEncoderSpeed encodes "ENC_SPD_DUAL<s>:<s>\0"
func (t *Transport) SendEncoderSpeed(speeds []int16) error {
	t.begin(PrefixEncoderSpdDual)
	for i, v := range speeds {
		if i > 0 {
			t.scratch.Output(FieldSeparator)
		}
		t.signed(int32(v))
	}
	return t.commit()
}

func (t *Transport) begin(prefix string) {
	t.scratch.Reset()
	t.scratch.OutputString(prefix)
}

func (t *Transport) digits(v uint32) {
	var buf [maxDigits32]byte
	t.scratch.Output(AppendUnsigned(buf[:0], v)...)
}

func (t *Transport) signed(v int32) {
	var buf [maxDigits32 + 1]byte
	t.scratch.Output(AppendSigned(buf[:0], v)...)
}

// commit terminates the scratch frame and moves it to the TX ring as a whole
func (t *Transport) commit() error {
	t.scratch.Output(FrameTerminator)
	frame := t.scratch.Result()
	if t.scratch.Overflowed() || len(frame) > t.tx.Free() {
		t.framesDropped++
		t.scratch.Reset()
		return ErrFrameDropped
	}
	t.tx.Write(frame)
	t.scratch.Reset()
	return nil
}

func isTerminator(b byte) bool {
	return b == FrameTerminator || b == '\r' || b == '\n'
}
