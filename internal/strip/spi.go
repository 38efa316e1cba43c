package strip

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"libdb.so/garland"
	"libdb.so/garland/config"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// SPI is a WS281x strip whose data line is driven by a SPI MOSI pin.
type SPI struct {
	port   spi.PortCloser
	dev    *nrzled.Dev
	logger *slog.Logger
	buf    []byte
}

var _ Device = (*SPI)(nil)

// OpenSPI opens the SPI port and sets up the strip on it.
func OpenSPI(cfg config.SPIConfig, logger *slog.Logger) (*SPI, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize periph host")
	}

	var freq physic.Frequency
	if err := freq.Set(cfg.Frequency); err != nil {
		return nil, errors.Wrapf(err, "invalid SPI frequency %q", cfg.Frequency)
	}

	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open SPI port")
	}

	if p, ok := port.(spi.Pins); ok {
		logger.Debug(
			"opened SPI port",
			"clk", p.CLK(),
			"mosi", p.MOSI())
	}

	dev, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: garland.StripLength,
		Channels:  3,
		Freq:      freq,
	})
	if err != nil {
		port.Close()
		return nil, errors.Wrap(err, "failed to set up WS281x strip")
	}

	return &SPI{
		port:   port,
		dev:    dev,
		logger: logger,
		buf:    make([]byte, 0, 3*garland.StripLength),
	}, nil
}

// Run turns the strip off and releases the port once ctx is canceled.
func (s *SPI) Run(ctx context.Context) error {
	<-ctx.Done()

	if err := s.dev.Halt(); err != nil {
		s.logger.Warn("failed to turn off strip", "error", err)
	}
	if err := s.port.Close(); err != nil {
		return errors.Wrap(err, "failed to close SPI port")
	}
	return ctx.Err()
}

// Transmit implements garland.Strip.
func (s *SPI) Transmit(ctx context.Context, colors []garland.Color) error {
	s.buf = garland.AppendPixels(s.buf[:0], colors)
	if _, err := s.dev.Write(s.buf); err != nil {
		return errors.Wrap(err, "failed to write to SPI")
	}
	return nil
}
