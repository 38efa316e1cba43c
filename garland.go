// Package garland animates an addressable LED strip with a slowly scrolling
// stream of random colors.
//
// The animation is a pipeline of four tasks on a priority-preemptive
// scheduler (see package sched): a ColorGenerator feeds colors through a
// single-slot channel to a FrameShifter, which publishes the whole frame
// through a second slot to a StripWriter. A Heartbeat blinks an indicator
// on the side.
package garland

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"libdb.so/garland/sched"
)

const (
	// Seed seeds the color generator.
	Seed = 42
	// Amplitude bounds every raw color channel to [0, Amplitude).
	Amplitude = 10
	// FramePeriod is the minimum time between two frames.
	FramePeriod = 80 * time.Millisecond
	// HeartbeatPeriod is the time between two indicator toggles.
	HeartbeatPeriod = time.Second
)

const (
	// PriorityLow is the priority of the heartbeat, the generator and the
	// shifter.
	PriorityLow sched.Priority = 1
	// PriorityHigh is the priority of the strip writer, so that a finished
	// frame goes out before anything else runs.
	PriorityHigh sched.Priority = 2
)

// Board is what hardware bring-up hands to the daemon. Everything in it must
// already be initialized and working.
type Board struct {
	// Clock is the monotonic timer used for delays.
	Clock sched.Clock
	// Indicator is the heartbeat output.
	Indicator Indicator
	// Strip is the LED strip.
	Strip Strip
}

// Daemon is the garland daemon.
type Daemon struct {
	board  Board
	logger *slog.Logger
}

// NewDaemon creates a new garland daemon.
func NewDaemon(board Board, logger *slog.Logger) (*Daemon, error) {
	switch {
	case board.Clock == nil:
		return nil, errors.New("board has no clock")
	case board.Indicator == nil:
		return nil, errors.New("board has no indicator")
	case board.Strip == nil:
		return nil, errors.New("board has no LED strip")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Daemon{
		board:  board,
		logger: logger,
	}, nil
}

// Run spawns the animation tasks and runs them until ctx is canceled or one
// of them fails.
func (d *Daemon) Run(ctx context.Context) error {
	s := sched.New(d.board.Clock, d.logger.With("component", "sched"))

	colorTx, colorRx := sched.NewSlot[Color]()
	frameTx, frameRx := sched.NewSlot[Frame]()

	heartbeat := NewHeartbeat(d.board.Indicator, HeartbeatPeriod)
	generator := NewColorGenerator(Seed, Amplitude, colorTx, d.logger.With("task", "color-generator"))
	shifter := NewFrameShifter(colorRx, frameTx, FramePeriod)
	writer := NewStripWriter(frameRx, d.board.Strip, d.logger.With("task", "strip-writer"))

	s.Spawn("heartbeat", PriorityLow, heartbeat.Run)
	s.Spawn("color-generator", PriorityLow, generator.Run)
	s.Spawn("frame-shifter", PriorityLow, shifter.Run)
	s.Spawn("strip-writer", PriorityHigh, writer.Run)

	d.logger.Debug(
		"starting animation",
		"leds", StripLength,
		"frame_period", FramePeriod)

	err := s.Run(ctx)

	d.logger.Debug("animation stopped", "idles", s.Idles())

	if err != nil && !errors.Is(err, ctx.Err()) {
		return errors.Wrap(err, "animation failed")
	}
	return err
}
