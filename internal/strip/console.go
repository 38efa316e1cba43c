package strip

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"libdb.so/garland"
)

// ramp maps brightness to characters for terminals without color.
const ramp = " .:-=+*#%@"

// Console draws every frame as a single line on a terminal.
type Console struct {
	w     io.Writer
	color bool
	gain  int
	buf   bytes.Buffer
}

var _ Device = (*Console)(nil)

// NewConsole creates a console strip writing to w. If color is true, LEDs
// are drawn with 24-bit ANSI background colors; otherwise with an ASCII
// brightness ramp. Channel values are multiplied by gain and clamped, since
// the animation is far too dim to see on a screen.
func NewConsole(w io.Writer, color bool, gain int) *Console {
	if gain < 1 {
		gain = 1
	}
	return &Console{
		w:     w,
		color: color,
		gain:  gain,
	}
}

// Run ends the line once ctx is canceled.
func (c *Console) Run(ctx context.Context) error {
	<-ctx.Done()
	io.WriteString(c.w, "\n")
	return ctx.Err()
}

// Transmit implements garland.Strip.
func (c *Console) Transmit(ctx context.Context, colors []garland.Color) error {
	c.buf.Reset()
	c.buf.WriteByte('\r')

	for _, color := range colors {
		r, g, b := c.scale(color.R), c.scale(color.G), c.scale(color.B)
		if c.color {
			fmt.Fprintf(&c.buf, "\x1b[48;2;%d;%d;%dm ", r, g, b)
			continue
		}
		level := (r + g + b) * (len(ramp) - 1) / (3 * 0xFF)
		c.buf.WriteByte(ramp[level])
	}

	if c.color {
		c.buf.WriteString("\x1b[0m")
	}

	if _, err := c.buf.WriteTo(c.w); err != nil {
		return errors.Wrap(err, "failed to draw frame")
	}
	return nil
}

func (c *Console) scale(v uint8) int {
	return min(int(v)*c.gain, 0xFF)
}
