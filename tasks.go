package garland

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"libdb.so/garland/internal/rng"
	"libdb.so/garland/sched"
)

// Indicator is a digital output that the heartbeat toggles.
type Indicator interface {
	// Toggle flips the output level.
	Toggle()
}

// Strip is the physical LED strip.
type Strip interface {
	// Transmit sends exactly StripLength colors to the strip, index 0 first.
	// It blocks until the colors have been sent. Any error means the
	// hardware is broken or misconfigured.
	Transmit(ctx context.Context, colors []Color) error
}

// Heartbeat toggles an indicator on a fixed period to show that the
// scheduler is alive.
type Heartbeat struct {
	indicator Indicator
	period    time.Duration
}

// NewHeartbeat creates a heartbeat that toggles ind every period, starting
// right away.
func NewHeartbeat(ind Indicator, period time.Duration) *Heartbeat {
	return &Heartbeat{
		indicator: ind,
		period:    period,
	}
}

// Run implements sched.TaskFunc.
func (h *Heartbeat) Run(ctx context.Context, t *sched.Task) error {
	for {
		h.indicator.Toggle()

		if err := t.Delay(h.period); err != nil {
			return err
		}
	}
}

// ColorGenerator draws pseudo-random colors and hands them to the frame
// shifter. It has no timer of its own: it runs as fast as the shifter takes
// colors.
type ColorGenerator struct {
	rand      *rng.Wyrand
	amplitude uint16
	out       *sched.Sender[Color]
	logger    *slog.Logger
}

// NewColorGenerator creates a generator seeded with seed that draws every
// channel from [0, amplitude).
func NewColorGenerator(seed uint64, amplitude uint8, out *sched.Sender[Color], logger *slog.Logger) *ColorGenerator {
	return &ColorGenerator{
		rand:      rng.New(seed),
		amplitude: uint16(amplitude),
		out:       out,
		logger:    logger,
	}
}

// draw returns the next raw color, before NoPastel.
func (g *ColorGenerator) draw() Color {
	return Color{
		R: uint8(g.rand.Uint16n(g.amplitude)),
		G: uint8(g.rand.Uint16n(g.amplitude)),
		B: uint8(g.rand.Uint16n(g.amplitude)),
	}
}

// Run implements sched.TaskFunc.
func (g *ColorGenerator) Run(ctx context.Context, t *sched.Task) error {
	var dropped uint64

	for {
		color := NoPastel(g.draw())

		// A closed shifter only drops the color; keep generating.
		if err := g.out.Send(t, color); err != nil {
			return err
		}

		if n := g.out.Dropped(); n != dropped {
			if dropped == 0 {
				g.logger.Warn("frame shifter is gone, dropping colors")
			}
			dropped = n
		}
	}
}

// FrameShifter keeps the scrolling color history and publishes a copy of it
// every time a new color arrives, at most once per period.
type FrameShifter struct {
	frame  Frame
	in     *sched.Receiver[Color]
	out    *sched.Sender[Frame]
	period time.Duration
}

// NewFrameShifter creates a shifter starting from an all-black frame.
func NewFrameShifter(in *sched.Receiver[Color], out *sched.Sender[Frame], period time.Duration) *FrameShifter {
	return &FrameShifter{
		in:     in,
		out:    out,
		period: period,
	}
}

// Run implements sched.TaskFunc.
func (s *FrameShifter) Run(ctx context.Context, t *sched.Task) error {
	for {
		s.frame.Shift()

		color, err := s.in.Recv(t)
		if err != nil {
			return errors.Wrap(err, "failed to receive color")
		}
		s.frame[0] = color

		if err := s.out.Send(t, s.frame); err != nil {
			return err
		}

		if err := t.Delay(s.period); err != nil {
			return err
		}
	}
}

// StripWriter transmits every published frame to the strip.
type StripWriter struct {
	in     *sched.Receiver[Frame]
	strip  Strip
	logger *slog.Logger
}

// NewStripWriter creates a writer that drains frames from in.
func NewStripWriter(in *sched.Receiver[Frame], strip Strip, logger *slog.Logger) *StripWriter {
	return &StripWriter{
		in:     in,
		strip:  strip,
		logger: logger,
	}
}

// Run implements sched.TaskFunc.
func (w *StripWriter) Run(ctx context.Context, t *sched.Task) error {
	for {
		frame, err := w.in.Recv(t)
		if err != nil {
			return errors.Wrap(err, "failed to receive frame")
		}

		w.logger.Debug(
			"transmitting frame",
			"newest", frame[0])

		if err := w.strip.Transmit(ctx, frame[:]); err != nil {
			return errors.Wrap(err, "failed to transmit frame")
		}
	}
}
