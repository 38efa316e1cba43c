package strip

import (
	"log/slog"

	"github.com/pkg/errors"
	"libdb.so/garland"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Pin is a heartbeat indicator on a GPIO output.
type Pin struct {
	pin    gpio.PinOut
	level  gpio.Level
	logger *slog.Logger
}

var _ garland.Indicator = (*Pin)(nil)

// OpenPin looks up the GPIO pin by name and drives it low.
func OpenPin(name string, logger *slog.Logger) (*Pin, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize periph host")
	}

	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.Errorf("no GPIO pin named %q", name)
	}

	if err := p.Out(gpio.Low); err != nil {
		return nil, errors.Wrapf(err, "failed to drive %s low", p)
	}

	return newPin(p, logger), nil
}

func newPin(p gpio.PinOut, logger *slog.Logger) *Pin {
	return &Pin{
		pin:    p,
		level:  gpio.Low,
		logger: logger,
	}
}

// Toggle implements garland.Indicator. A failed write is logged; the
// heartbeat has nobody to report it to.
func (p *Pin) Toggle() {
	level := !p.level
	if err := p.pin.Out(level); err != nil {
		p.logger.Warn(
			"failed to toggle heartbeat pin",
			"pin", p.pin,
			"error", err)
		return
	}
	p.level = level
}

// LogIndicator is a heartbeat indicator for hosts without a spare LED. It
// logs every toggle at debug level.
type LogIndicator struct {
	logger *slog.Logger
	on     bool
}

var _ garland.Indicator = (*LogIndicator)(nil)

// NewLogIndicator creates a LogIndicator.
func NewLogIndicator(logger *slog.Logger) *LogIndicator {
	return &LogIndicator{logger: logger}
}

// Toggle implements garland.Indicator.
func (i *LogIndicator) Toggle() {
	i.on = !i.on
	i.logger.Debug("heartbeat", "on", i.on)
}
