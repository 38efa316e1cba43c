// Command garland runs the whole animation on the microcontroller itself,
// with the strip wired directly to a GPIO pin.
package main

import (
	"context"
	"image/color"
	"log/slog"
	"machine"
	"runtime/interrupt"
	"time"

	"libdb.so/garland"
	"libdb.so/garland/sched"
	"tinygo.org/x/drivers/ws2812"
)

// stripPin is the data line of the LED strip.
var stripPin = machine.D10

func main() {
	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	stripPin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	d, err := garland.NewDaemon(garland.Board{
		Clock:     sched.SystemClock{},
		Indicator: &ledIndicator{pin: machine.LED},
		Strip:     newWS2812Strip(stripPin),
	}, logger)
	if err != nil {
		halt(logger, err)
	}

	halt(logger, d.Run(context.Background()))
}

// halt reports err and leaves the board blinking fast forever.
func halt(logger *slog.Logger, err error) {
	logger.Error("animation stopped", "error", err)
	for {
		machine.LED.Set(!machine.LED.Get())
		time.Sleep(garland.HeartbeatPeriod / 10)
	}
}

type ledIndicator struct {
	pin machine.Pin
	on  bool
}

func (l *ledIndicator) Toggle() {
	l.on = !l.on
	l.pin.Set(l.on)
}

type ws2812Strip struct {
	dev ws2812.Device
	buf []color.RGBA
}

func newWS2812Strip(pin machine.Pin) *ws2812Strip {
	return &ws2812Strip{
		dev: ws2812.New(pin),
		buf: make([]color.RGBA, garland.StripLength),
	}
}

func (s *ws2812Strip) Transmit(ctx context.Context, colors []garland.Color) error {
	s.buf = s.buf[:0]
	for _, c := range colors {
		s.buf = append(s.buf, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF})
	}

	// The WS2812 timing is bit-banged, so nothing may interrupt it.
	state := interrupt.Disable()
	err := s.dev.WriteColors(s.buf)
	interrupt.Restore(state)
	return err
}
