package config

import "fmt"

// Validate checks configuration correctness.
// It performs declarative validation only and does not mutate cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ---- SERIAL ----

	if cfg.Serial.Baud <= 0 {
		return fmt.Errorf("serial: baud must be positive, got %d", cfg.Serial.Baud)
	}
	if cfg.Serial.ReadTimeout < 0 {
		return fmt.Errorf("serial: read_timeout_ms must not be negative")
	}

	// ---- LINK ----

	if cfg.Link.PollIntervalMs <= 0 {
		return fmt.Errorf("link: poll_interval_ms must be positive")
	}
	if cfg.Link.Encoders < 1 || cfg.Link.Encoders > 4 {
		return fmt.Errorf("link: encoders must be between 1 and 4, got %d", cfg.Link.Encoders)
	}

	// ---- DRIVE ----

	// Power travels as a 16-bit signed value; the board clamps to its own limit
	if cfg.Drive.Velocity <= 0 || cfg.Drive.Velocity > 32767 {
		return fmt.Errorf("drive: velocity must be in (0, 32767], got %v", cfg.Drive.Velocity)
	}
	if cfg.Drive.SteeringRatio < 0 || cfg.Drive.SteeringRatio > 1 {
		return fmt.Errorf("drive: steering_ratio must be in [0, 1], got %v", cfg.Drive.SteeringRatio)
	}

	// ---- WEB ----

	if cfg.Web.Listen != "" && cfg.Web.StatusIntervalMs <= 0 {
		return fmt.Errorf("web: status_interval_ms must be positive")
	}

	// ---- LOG ----

	if cfg.Log.File != "" && cfg.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log: max_size_mb must be positive when a file is set")
	}

	// ---- SIM ----

	if cfg.Sim.TickPeriodUs <= 0 {
		return fmt.Errorf("sim: tick_period_us must be positive")
	}
	if cfg.Sim.CountsPerTick < 0 {
		return fmt.Errorf("sim: counts_per_tick must not be negative")
	}
	if cfg.Sim.Response <= 0 || cfg.Sim.Response > 1 {
		return fmt.Errorf("sim: response must be in (0, 1], got %v", cfg.Sim.Response)
	}
	if len(cfg.Sim.Signature) == 0 {
		return fmt.Errorf("sim: signature must not be empty")
	}

	return nil
}
