package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given no config file", t, func() {
		cfg, err := load("", map[string]string{})
		So(err, ShouldBeNil)

		Convey("the defaults describe the reference platform", func() {
			So(cfg.Serial.Device, ShouldEqual, "/dev/ttyS0")
			So(cfg.Link.PollIntervalMs, ShouldEqual, 250)
			So(cfg.Web.StatusIntervalMs, ShouldEqual, 333)
			So(cfg.Drive.SteeringRatio, ShouldEqual, 0.7)
			So(Validate(cfg), ShouldBeNil)
		})
	})

	Convey("Given a YAML file", t, func() {
		path := filepath.Join(t.TempDir(), "orangebot.yaml")
		data := []byte(`
serial:
  device: /dev/ttyUSB1
  baud: 115200
drive:
  velocity: 80
web:
  listen: ""
`)
		So(os.WriteFile(path, data, 0o644), ShouldBeNil)

		Convey("its values override the defaults", func() {
			cfg, err := load(path, map[string]string{})
			So(err, ShouldBeNil)
			So(cfg.Serial.Device, ShouldEqual, "/dev/ttyUSB1")
			So(cfg.Serial.Baud, ShouldEqual, 115200)
			So(cfg.Drive.Velocity, ShouldEqual, 80.0)
			So(cfg.Web.Listen, ShouldEqual, "")
			// Untouched sections keep their defaults
			So(cfg.Link.Encoders, ShouldEqual, 2)
		})

		Convey("environment overrides win over the file", func() {
			cfg, err := load(path, map[string]string{
				"ORANGEBOT_SERIAL_DEVICE": "/dev/ttyACM0",
				"ORANGEBOT_LINK_ENCODERS": "4",
				"ORANGEBOT_LOG_DEBUG":     "true",
				"ORANGEBOT_SIM_RESPONSE":  "0.5",
				"ORANGEBOT_WEB_LISTEN":    ":9090",
			})
			So(err, ShouldBeNil)
			So(cfg.Serial.Device, ShouldEqual, "/dev/ttyACM0")
			So(cfg.Serial.Baud, ShouldEqual, 115200)
			So(cfg.Link.Encoders, ShouldEqual, 4)
			So(cfg.Log.Debug, ShouldBeTrue)
			So(cfg.Sim.Response, ShouldEqual, 0.5)
			So(cfg.Web.Listen, ShouldEqual, ":9090")
		})

		Convey("a malformed override is an error", func() {
			_, err := load(path, map[string]string{"ORANGEBOT_SERIAL_BAUD": "fast"})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("A missing file is an error", t, func() {
		_, err := load(filepath.Join(t.TempDir(), "missing.yaml"), map[string]string{})
		So(err, ShouldNotBeNil)
	})
}

func TestValidate(t *testing.T) {
	Convey("Validate rejects impossible settings", t, func() {
		cases := []struct {
			name   string
			mutate func(c *Config)
		}{
			{"zero baud", func(c *Config) { c.Serial.Baud = 0 }},
			{"zero poll interval", func(c *Config) { c.Link.PollIntervalMs = 0 }},
			{"five encoders", func(c *Config) { c.Link.Encoders = 5 }},
			{"zero velocity", func(c *Config) { c.Drive.Velocity = 0 }},
			{"steering above one", func(c *Config) { c.Drive.SteeringRatio = 1.5 }},
			{"zero push interval", func(c *Config) { c.Web.StatusIntervalMs = 0 }},
			{"log file without size", func(c *Config) { c.Log.File = "host.log"; c.Log.MaxSizeMB = 0 }},
			{"zero tick", func(c *Config) { c.Sim.TickPeriodUs = 0 }},
			{"zero response", func(c *Config) { c.Sim.Response = 0 }},
			{"empty signature", func(c *Config) { c.Sim.Signature = "" }},
		}
		for _, tc := range cases {
			tc := tc
			Convey(tc.name, func() {
				cfg := Default()
				tc.mutate(cfg)
				So(Validate(cfg), ShouldNotBeNil)
			})
		}

		Convey("nil config", func() {
			So(Validate(nil), ShouldNotBeNil)
		})
	})
}
