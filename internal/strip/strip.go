// Package strip provides the LED strips and heartbeat indicators the host
// daemon can run on.
package strip

import (
	"context"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"libdb.so/garland"
	"libdb.so/garland/config"
)

// Device is an LED strip that needs background servicing.
type Device interface {
	garland.Strip
	// Run services the device until ctx is canceled, then releases it.
	Run(ctx context.Context) error
}

// consoleGain brings the [0, garland.Amplitude) channel range up to
// something visible.
const consoleGain = 0xFF / (garland.Amplitude - 1)

// Open opens the strip selected by cfg.
func Open(cfg *config.Config, logger *slog.Logger) (Device, error) {
	logger = logger.With("strip", cfg.Strip)

	switch cfg.Strip {
	case config.SerialStrip:
		s, err := OpenSerial(cfg.Serial, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.SPIStrip:
		s, err := OpenSPI(cfg.SPI, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.ConsoleStrip:
		color := isatty.IsTerminal(os.Stdout.Fd())
		return NewConsole(os.Stdout, color, consoleGain), nil
	default:
		return nil, errors.Errorf("unknown strip kind %q", cfg.Strip)
	}
}

// OpenIndicator opens the heartbeat indicator selected by cfg.
func OpenIndicator(cfg *config.Config, logger *slog.Logger) (garland.Indicator, error) {
	if cfg.HeartbeatPin == "" {
		return NewLogIndicator(logger), nil
	}
	p, err := OpenPin(cfg.HeartbeatPin, logger)
	if err != nil {
		return nil, err
	}
	return p, nil
}
