package garland

import "io"

// StripLength is the number of LEDs on the strip.
const StripLength = 300

// Frame holds one color per LED. Index 0 is the most recently added color,
// index StripLength-1 the oldest one still shown. Frame is an array, so
// assigning or sending it copies the whole strip.
type Frame [StripLength]Color

// Shift moves every color one LED further down the strip. The oldest color
// falls off the end and index 0 keeps its previous value.
func (f *Frame) Shift() {
	copy(f[1:], f[:len(f)-1])
}

// Push shifts the frame and puts c at index 0.
func (f *Frame) Push(c Color) {
	f.Shift()
	f[0] = c
}

// Pixels appends the frame to dst as R, G, B byte triplets and returns the
// extended slice.
func (f *Frame) Pixels(dst []byte) []byte {
	return AppendPixels(dst, f[:])
}

// WriteTo implements io.WriterTo. It writes the frame as R, G, B byte
// triplets.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	var buf [3 * StripLength]byte
	n, err := w.Write(f.Pixels(buf[:0]))
	return int64(n), err
}

// AppendPixels appends colors to dst as R, G, B byte triplets.
func AppendPixels(dst []byte, colors []Color) []byte {
	for _, c := range colors {
		dst = append(dst, c.R, c.G, c.B)
	}
	return dst
}
