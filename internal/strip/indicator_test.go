package strip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestPinToggle(t *testing.T) {
	p := &gpiotest.Pin{N: "GPIO17", Num: 17}
	pin := newPin(p, discardLogger())

	pin.Toggle()
	assert.Equal(t, gpio.High, p.Read())

	pin.Toggle()
	assert.Equal(t, gpio.Low, p.Read())
}

func TestLogIndicatorToggle(t *testing.T) {
	i := NewLogIndicator(discardLogger())
	i.Toggle()
	assert.True(t, i.on)
	i.Toggle()
	assert.False(t, i.on)
}
