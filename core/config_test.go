package core

import "testing"

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
	if cfg.Saturation != int16(cfg.MaxPower) {
		t.Errorf("Saturation should default to max power, got %d", cfg.Saturation)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"rx buffer", func(c *Config) { c.RxBufferSize = 0 }},
		{"tx buffer", func(c *Config) { c.TxBufferSize = 7 }},
		{"timeout", func(c *Config) { c.TimeoutTicks = 0 }},
		{"one power channel", func(c *Config) { c.PowerChannels = 1 }},
		{"nine power channels", func(c *Config) { c.PowerChannels = 9 }},
		{"no encoders", func(c *Config) { c.EncoderChannels = 0 }},
		{"five encoders", func(c *Config) { c.EncoderChannels = 5 }},
		{"min above max", func(c *Config) { c.MinPower = 200 }},
		{"zero max", func(c *Config) { c.MinPower, c.MaxPower = 0, 0 }},
		{"slope", func(c *Config) { c.SlopeLimit = 0 }},
		{"saturation", func(c *Config) { c.Saturation = -1 }},
		{"signature length", func(c *Config) { c.MaxSignatureLength = 255 }},
		{"threshold", func(c *Config) { c.EncoderThreshold = 0 }},
		{"retries", func(c *Config) { c.EncoderRetries = 0 }},
		{"prescaler", func(c *Config) { c.ControlPrescaler = 0 }},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}

	// An oversized signature is reported on request, not rejected here
	cfg := DefaultConfig()
	cfg.Signature = "a-signature-much-longer-than-the-configured-limit"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Oversized signature should validate, got %v", err)
	}
}

func TestErrorCodeMapping(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCode
	}{
		{ErrInvalidChannel, ErrInvalidArgument},
		{ErrBadBoardSignature, ErrBadBoardSignature},
		{ErrEncoderRetryExhausted, ErrEncoderRetryExhausted},
	}
	for _, tt := range tests {
		if got := codeOf(tt.err); got != tt.want {
			t.Errorf("codeOf(%v): got %d expected %d", tt.err, got, tt.want)
		}
	}
	if ErrorCode(42).Error() != "error 42" {
		t.Errorf("Unexpected name %q", ErrorCode(42).Error())
	}
}
