package core

import "orangebot/protocol"

// initCommands registers the board command set and seals the dictionary.
// A failed registration is reported and the remaining commands still load.
func (d *Device) initCommands() {
	entries := []struct {
		signature string
		build     protocol.Builder
	}{
		{protocol.SigPing, protocol.BuildPing},
		{protocol.SigSignature, protocol.BuildSignatureRequest},
		{protocol.SigPlatformPower, protocol.BuildSetPlatformPower},
		{protocol.SigEncoderPosition, protocol.BuildEncoderPositionRequest},
		{protocol.SigEncoderSpeed, protocol.BuildEncoderSpeedRequest},
		{protocol.SigPowerReadback, protocol.BuildPowerReadback},
	}

	for _, e := range entries {
		if err := d.dict.Register(e.signature, e.build); err != nil {
			DebugPrintln("[CMD] register " + e.signature + ": " + err.Error())
			d.report(ErrBadParserDictionary)
		}
	}
	d.dict.Seal()
}

// handleCommand runs one decoded host command in the loop context
func (d *Device) handleCommand(cmd protocol.Command) error {
	// A bad encoder index is dropped without touching the link timeout
	if c, ok := cmd.(protocol.EncoderPositionRequest); ok {
		pos, err := d.encoders.Position(int(c.Index))
		if err != nil {
			return err
		}
		d.resetTimeout()
		d.sent(d.transport.SendEncoderPosition(c.Index, pos))
		return nil
	}

	d.resetTimeout()

	switch c := cmd.(type) {
	case protocol.Ping:
		// Timeout reset only

	case protocol.SignatureRequest:
		return d.sendSignature()

	case protocol.SetPlatformPower:
		d.control.RequestMode(ModeOpenLoopPower)
		return d.ApplyPlatform(c.Right, c.Left)

	case protocol.EncoderSpeedRequest:
		d.sent(d.transport.SendEncoderSpeed(d.encoders.Speeds(d.values[:0])))

	case protocol.PowerReadback:
		d.sent(d.transport.SendPlatformPower(d.slew.Currents(d.values[:0])))
	}
	return nil
}

// sendSignature replies with the board signature. The advertised length
// counts the signature terminator.
func (d *Device) sendSignature() error {
	length := len(d.cfg.Signature) + 1
	if length > d.cfg.MaxSignatureLength {
		return ErrBadBoardSignature
	}
	d.sent(d.transport.SendSignature(uint8(length), d.cfg.Signature))
	return nil
}

// handleFrameError reports a frame that failed to decode or dispatch
func (d *Device) handleFrameError(err error) {
	DebugAsync("[CMD] " + err.Error())
	d.report(codeOf(err))
}
