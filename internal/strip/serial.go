package strip

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
	"libdb.so/garland"
	"libdb.so/garland/config"
	"libdb.so/garland/ledserial"
)

// Serial is a strip behind an LED controller speaking the ledserial
// protocol. Transmit blocks until the controller acknowledges the frame.
type Serial struct {
	port    io.ReadWriteCloser
	logger  *slog.Logger
	timeout time.Duration
	packets chan ledserial.OutgoingPacket

	buf         []byte
	initialized bool
}

var _ Device = (*Serial)(nil)

// OpenSerial opens the serial port of the LED controller.
func OpenSerial(cfg config.SerialConfig, logger *slog.Logger) (*Serial, error) {
	port, err := serial.Open(cfg.Device, &serial.Mode{
		BaudRate: cfg.Baud,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open serial port")
	}

	if err := port.SetReadTimeout(serial.NoTimeout); err != nil {
		port.Close()
		return nil, errors.Wrap(err, "failed to reset read timeout")
	}

	return newSerial(port, time.Duration(cfg.AckTimeout), logger), nil
}

func newSerial(port io.ReadWriteCloser, timeout time.Duration, logger *slog.Logger) *Serial {
	return &Serial{
		port:    port,
		logger:  logger,
		timeout: timeout,
		packets: make(chan ledserial.OutgoingPacket, 8),
		buf:     make([]byte, 0, 3*garland.StripLength),
	}
}

// Run reads packets from the controller until ctx is canceled, then closes
// the port.
func (s *Serial) Run(ctx context.Context) error {
	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		<-ctx.Done()
		s.logger.Debug("closing serial port")
		if err := s.port.Close(); err != nil {
			return errors.Wrap(err, "failed to close serial port")
		}
		return ctx.Err()
	})
	errg.Go(func() error {
		return s.readPackets(ctx)
	})
	return errg.Wait()
}

func (s *Serial) readPackets(ctx context.Context) error {
	for ctx.Err() == nil {
		p, err := ledserial.ReadOutgoingPacket(s.port)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A short read indicates a timeout. This is expected.
			// Ignore the error and try again.
			if errors.Is(err, io.EOF) {
				continue
			}
			return errors.Wrap(err, "failed to read packet")
		}

		s.logger.Debug(
			"received packet from controller",
			"type", p.Type())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case s.packets <- p:
			// ok
		}
	}

	return ctx.Err()
}

// Transmit implements garland.Strip. The first call also tells the
// controller how long the strip is.
func (s *Serial) Transmit(ctx context.Context, colors []garland.Color) error {
	if !s.initialized {
		if err := s.send(ctx, ledserial.InitializePacket{
			NumLEDs: uint16(len(colors)),
		}); err != nil {
			return errors.Wrap(err, "failed to initialize controller")
		}
		s.initialized = true
	}

	s.buf = garland.AppendPixels(s.buf[:0], colors)
	return s.send(ctx, ledserial.SetPacket{Pix: s.buf})
}

// send writes p and waits for the controller to acknowledge it.
func (s *Serial) send(ctx context.Context, p ledserial.IncomingPacket) error {
	if err := ledserial.WriteIncomingPacket(s.port, p); err != nil {
		return errors.Wrapf(err, "failed to write %s packet", p.Type())
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-timer.C:
			return errors.Errorf("controller did not acknowledge %s packet within %s", p.Type(), s.timeout)

		case op := <-s.packets:
			switch op := op.(type) {
			case ledserial.AckPacket:
				if op.IncomingPacketType == p.Type() {
					return nil
				}
				s.logger.Warn(
					"ignoring ack for another packet",
					"acked_for", op.IncomingPacketType,
					"waiting_for", p.Type())

			case ledserial.ErrorPacket:
				return errors.Errorf("controller reported error: %s", op.Message)

			case ledserial.PanicPacket:
				return errors.Errorf("controller panicked: %s", op.Message)

			case ledserial.LogPacket:
				s.logger.Info(
					"received log packet from controller",
					"message", op.Message)

			default:
				return errors.Errorf("received unknown packet from controller: %s", op.Type())
			}
		}
	}
}
