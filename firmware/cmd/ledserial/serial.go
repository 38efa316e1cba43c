package main

import (
	"io"
	"machine"
	"runtime"
	"time"
)

// SerialReadWriter is a machine.Serialer usable as an io.ReadWriter.
type SerialReadWriter interface {
	io.ReadWriter
	io.ByteReader
	io.ByteWriter
}

type serialIO struct {
	machine.Serialer
}

// WrapSerial wraps a machine.Serialer in an io.ReadWriter. Reads wait for at
// least one byte instead of returning zero bytes.
func WrapSerial(s machine.Serialer) SerialReadWriter {
	return serialIO{Serialer: s}
}

func (s serialIO) Read(b []byte) (int, error) {
	for s.Buffered() == 0 {
		time.Sleep(time.Millisecond)
	}

	n := min(s.Buffered(), len(b))
	for i := 0; i < n; i++ {
		c, err := s.ReadByte()
		if err != nil {
			return i, err
		}
		b[i] = c
	}
	runtime.Gosched()
	return n, nil
}

func (s serialIO) Write(b []byte) (int, error) {
	for i, c := range b {
		if err := s.WriteByte(c); err != nil {
			return i, err
		}
	}
	runtime.Gosched()
	return len(b), nil
}
