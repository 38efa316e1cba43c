// Package config reads the host daemon's hardware wiring from TOML.
package config

import (
	"encoding"
	"fmt"
	"io"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Config describes how the garland host daemon reaches its hardware. The
// animation itself is fixed at build time and cannot be configured.
type Config struct {
	// Strip selects the LED strip backend.
	Strip StripKind `toml:"strip"`
	// HeartbeatPin is the GPIO pin name of the heartbeat LED, for example
	// "GPIO17". If empty, the heartbeat is only logged.
	HeartbeatPin string `toml:"heartbeat_pin"`
	// Simulate runs the animation on a virtual clock instead of the wall
	// clock. It is only useful with the console strip.
	Simulate bool `toml:"simulate"`

	Serial SerialConfig `toml:"serial"`
	SPI    SPIConfig    `toml:"spi"`
}

// StripKind is the kind of LED strip backend.
type StripKind string

const (
	// SerialStrip sends frames to an LED controller over a serial port
	// using the ledserial protocol.
	SerialStrip StripKind = "serial"
	// SPIStrip drives a WS281x strip whose data line is wired to a SPI MOSI
	// pin.
	SPIStrip StripKind = "spi"
	// ConsoleStrip draws frames on the terminal.
	ConsoleStrip StripKind = "console"
)

// SerialConfig is the configuration for the serial strip.
type SerialConfig struct {
	// Device is the path to the device file of the LED controller.
	// This is usually /dev/ttyUSB0 or /dev/ttyACM0.
	Device string `toml:"device"`
	// Baud is the baud rate for the serial connection.
	Baud int `toml:"baud"`
	// AckTimeout is how long to wait for the controller to acknowledge a
	// frame.
	AckTimeout TOMLDuration `toml:"ack_timeout"`
}

// SPIConfig is the configuration for the SPI strip.
type SPIConfig struct {
	// Port is the SPI port name. If empty, the first port is used.
	Port string `toml:"port"`
	// Frequency is the SPI clock, for example "2500kHz".
	Frequency string `toml:"frequency"`
}

// DefaultConfig returns the configuration used for missing fields.
func DefaultConfig() Config {
	return Config{
		Strip: ConsoleStrip,
		Serial: SerialConfig{
			Device:     "/dev/ttyUSB0",
			Baud:       115200,
			AckTimeout: TOMLDuration(500 * time.Millisecond),
		},
		SPI: SPIConfig{
			Frequency: "2500kHz",
		},
	}
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.Strip == "" {
		c.Strip = def.Strip
	}
	if c.Serial.Device == "" {
		c.Serial.Device = def.Serial.Device
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}
	if c.Serial.AckTimeout == 0 {
		c.Serial.AckTimeout = def.Serial.AckTimeout
	}
	if c.SPI.Frequency == "" {
		c.SPI.Frequency = def.SPI.Frequency
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Strip {
	case SerialStrip:
		if c.Serial.Device == "" {
			return errors.New("serial strip needs a device")
		}
		if c.Serial.Baud <= 0 {
			return fmt.Errorf("invalid baud rate %d", c.Serial.Baud)
		}
		if c.Serial.AckTimeout <= 0 {
			return errors.New("serial ack_timeout must be positive")
		}
	case SPIStrip:
		if c.SPI.Frequency == "" {
			return errors.New("spi strip needs a frequency")
		}
	case ConsoleStrip:
	default:
		return fmt.Errorf("unknown strip kind %q", c.Strip)
	}

	if c.Simulate && c.Strip != ConsoleStrip {
		return errors.New("simulate only works with the console strip")
	}

	return nil
}

// TOMLDuration is a duration that can be parsed from TOML.
type TOMLDuration time.Duration

var (
	_ encoding.TextUnmarshaler = (*TOMLDuration)(nil)
	_ encoding.TextMarshaler   = (*TOMLDuration)(nil)
)

func (d *TOMLDuration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = TOMLDuration(duration)
	return nil
}

func (d TOMLDuration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ParseConfig parses a configuration from a reader. Fields missing from the
// file take their DefaultConfig values.
func ParseConfig(r io.Reader) (*Config, error) {
	var config Config
	if err := toml.NewDecoder(r).Decode(&config); err != nil {
		return nil, errors.Wrap(err, "failed to decode TOML")
	}
	config.fillDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &config, nil
}
