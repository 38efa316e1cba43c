package main

import (
	"fmt"
	"machine"
	"runtime/interrupt"

	"libdb.so/garland/ledserial"
	"tinygo.org/x/drivers/ws2812"
)

// Controller answers ledserial packets from the host and drives the strip.
type Controller struct {
	port  SerialReadWriter
	strip ws2812.Device
	rctx  ledserial.ReadContext
}

// NewController creates a controller talking on port and driving the strip
// on stripPin.
func NewController(port machine.Serialer, stripPin machine.Pin) *Controller {
	stripPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &Controller{
		port:  WrapSerial(port),
		strip: ws2812.New(stripPin),
	}
}

// Serve handles packets forever. A panic is reported to the host before it
// takes the board down.
func (c *Controller) Serve() {
	defer func() {
		if v := recover(); v != nil {
			c.send(ledserial.PanicPacket{Message: fmt.Sprint(v)})
			panic(v)
		}
	}()

	for {
		statusBusy()
		p, err := ledserial.ReadIncomingPacket(c.port, c.rctx)
		statusIdle()

		if err != nil {
			c.send(ledserial.ErrorPacket{Message: err.Error()})
			continue
		}

		if err := c.handle(p); err != nil {
			c.send(ledserial.ErrorPacket{Message: err.Error()})
			continue
		}

		c.send(ledserial.AckPacket{IncomingPacketType: p.Type()})
	}
}

func (c *Controller) send(p ledserial.OutgoingPacket) {
	ledserial.WriteOutgoingPacket(c.port, p)
}

func (c *Controller) handle(p ledserial.IncomingPacket) error {
	switch p := p.(type) {
	case ledserial.InitializePacket:
		if p.NumLEDs < 1 {
			return fmt.Errorf("invalid number of LEDs: %d", p.NumLEDs)
		}
		c.rctx.NumLEDs = p.NumLEDs
		c.rctx.LEDBuffer = make([]byte, 3*int(p.NumLEDs))
		c.send(ledserial.LogPacket{
			Message: fmt.Sprintf("strip has %d LEDs", p.NumLEDs),
		})
		c.clear()

	case ledserial.ClearPacket:
		c.clear()

	case ledserial.SetPacket:
		if c.rctx.NumLEDs == 0 {
			return fmt.Errorf("set before initialize")
		}
		c.write(p.Pix)

	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}
	return nil
}

func (c *Controller) clear() {
	clear(c.rctx.LEDBuffer)
	c.write(c.rctx.LEDBuffer)
}

func (c *Controller) write(pix []byte) {
	state := interrupt.Disable()
	for _, b := range pix {
		c.strip.WriteByte(b)
	}
	interrupt.Restore(state)
}
