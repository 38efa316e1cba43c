package main

import (
	"machine"

	"tinygo.org/x/drivers/ws2812"
)

// The XIAO RP2040 has a NeoPixel next to the USB port that must be powered
// separately.
var (
	statusPower = machine.GPIO11
	statusData  = machine.GPIO12
	statusLED   ws2812.Device
)

func initStatusLED() {
	statusPower.Configure(machine.PinConfig{Mode: machine.PinOutput})
	statusPower.Low()

	statusData.Configure(machine.PinConfig{Mode: machine.PinOutput})
	statusLED = ws2812.New(statusData)
	statusLED.WriteByte(0x10)
	statusLED.WriteByte(0x10)
	statusLED.WriteByte(0x10)
}

// statusBusy lights the status LED while a packet is being read.
func statusBusy() { statusPower.High() }

func statusIdle() { statusPower.Low() }
