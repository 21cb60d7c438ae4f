// Package config loads the host and simulator configuration: a YAML file,
// then ORANGEBOT_* environment overrides
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"

	"orangebot/host/serial"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "ORANGEBOT_"

type Config struct {
	Serial serial.Config `yaml:"serial" envPrefix:"SERIAL_"`
	Link   LinkConfig    `yaml:"link" envPrefix:"LINK_"`
	Drive  DriveConfig   `yaml:"drive" envPrefix:"DRIVE_"`
	Web    WebConfig     `yaml:"web" envPrefix:"WEB_"`
	Log    LogConfig     `yaml:"log" envPrefix:"LOG_"`
	Sim    SimConfig     `yaml:"sim" envPrefix:"SIM_"`
}

// ---- LINK ----

type LinkConfig struct {
	PollIntervalMs int `yaml:"poll_interval_ms" env:"POLL_INTERVAL_MS"`
	Encoders       int `yaml:"encoders" env:"ENCODERS"`
}

// ---- DRIVE ----

type DriveConfig struct {
	Velocity      float64 `yaml:"velocity" env:"VELOCITY"`
	SteeringRatio float64 `yaml:"steering_ratio" env:"STEERING_RATIO"`
}

// ---- WEB ----

type WebConfig struct {
	// Empty disables the web server
	Listen           string `yaml:"listen" env:"LISTEN"`
	StatusIntervalMs int    `yaml:"status_interval_ms" env:"STATUS_INTERVAL_MS"`
}

// ---- LOG ----

type LogConfig struct {
	// Empty logs to stderr only
	File       string `yaml:"file" env:"FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"MAX_AGE_DAYS"`
	Compress   bool   `yaml:"compress" env:"COMPRESS"`
	// Board debug output in the simulator
	Debug bool `yaml:"debug" env:"DEBUG"`
}

// ---- SIM ----

type SimConfig struct {
	// Serial device or pseudo terminal the simulated board listens on
	Device        string  `yaml:"device" env:"DEVICE"`
	TickPeriodUs  int     `yaml:"tick_period_us" env:"TICK_PERIOD_US"`
	CountsPerTick float64 `yaml:"counts_per_tick" env:"COUNTS_PER_TICK"`
	Response      float64 `yaml:"response" env:"RESPONSE"`
	Signature     string  `yaml:"signature" env:"SIGNATURE"`
}

// Default returns the configuration of the reference platform
func Default() *Config {
	return &Config{
		Serial: serial.DefaultConfig("/dev/ttyS0"),
		Link: LinkConfig{
			PollIntervalMs: 250,
			Encoders:       2,
		},
		Drive: DriveConfig{
			Velocity:      100,
			SteeringRatio: 0.7,
		},
		Web: WebConfig{
			Listen:           ":8080",
			StatusIntervalMs: 333,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Sim: SimConfig{
			TickPeriodUs:  1000,
			CountsPerTick: 2,
			Response:      0.05,
			Signature:     "OrangeBot-2020-01-19",
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

func load(path string, environment map[string]string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	opts := env.Options{Prefix: EnvPrefix, Environment: environment}
	if err := env.Parse(cfg, opts); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	return cfg, nil
}
