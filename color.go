package garland

import "fmt"

// Color is an 8-bit RGB color.
type Color struct {
	R, G, B uint8
}

// String returns the color formatted as #rrggbb.
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// NoPastel makes a color less pastel by attenuating the two channels that
// are not the brightest one. Ties go to red, then green.
func NoPastel(c Color) Color {
	switch max3(c.R, c.G, c.B) {
	case c.R:
		c.G /= 3
		c.B /= 3
	case c.G:
		c.R /= 3
		c.B /= 3
	default:
		// Blue-dominant colors are dimmed harder than the other two cases.
		c.R /= 4
		c.G /= 4
	}
	return c
}

func max3(a, b, c uint8) uint8 {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}
