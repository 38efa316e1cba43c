// Command ledserial is the LED controller firmware for the serial strip of
// the garland host daemon.
package main

import "machine"

// stripPin is the data line of the LED strip.
var stripPin = machine.D10

func main() {
	initStatusLED()
	NewController(machine.Serial, stripPin).Serve()
}
