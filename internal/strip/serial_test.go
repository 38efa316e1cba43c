package strip

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"libdb.so/garland"
	"libdb.so/garland/ledserial"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pipePort connects a Serial to a fake controller.
type pipePort struct {
	io.Reader
	io.Writer
	closers []io.Closer
}

func (p *pipePort) Close() error {
	for _, c := range p.closers {
		c.Close()
	}
	return nil
}

// fakeController answers ledserial packets like the LED controller firmware.
type fakeController struct {
	r io.Reader
	w io.Writer
	// reply returns the packets to answer p with.
	reply func(p ledserial.IncomingPacket) []ledserial.OutgoingPacket

	received []ledserial.IncomingPacket
	done     chan struct{}
}

func newSerialPair(t *testing.T, timeout time.Duration, reply func(ledserial.IncomingPacket) []ledserial.OutgoingPacket) (*Serial, *fakeController) {
	hostR, ctrlW := io.Pipe()
	ctrlR, hostW := io.Pipe()

	port := &pipePort{
		Reader:  hostR,
		Writer:  hostW,
		closers: []io.Closer{hostR, hostW},
	}

	ctrl := &fakeController{
		r:     ctrlR,
		w:     ctrlW,
		reply: reply,
		done:  make(chan struct{}),
	}
	go ctrl.run()
	t.Cleanup(func() { <-ctrl.done })

	return newSerial(port, timeout, discardLogger()), ctrl
}

func (c *fakeController) run() {
	defer close(c.done)

	var rctx ledserial.ReadContext
	for {
		p, err := ledserial.ReadIncomingPacket(c.r, rctx)
		if err != nil {
			return
		}
		if init, ok := p.(ledserial.InitializePacket); ok {
			rctx.NumLEDs = init.NumLEDs
		}
		c.received = append(c.received, p)

		for _, out := range c.reply(p) {
			if err := ledserial.WriteOutgoingPacket(c.w, out); err != nil {
				return
			}
		}
	}
}

func ackAll(p ledserial.IncomingPacket) []ledserial.OutgoingPacket {
	return []ledserial.OutgoingPacket{
		ledserial.LogPacket{Message: "got " + p.Type().String()},
		ledserial.AckPacket{IncomingPacketType: p.Type()},
	}
}

func runSerial(ctx context.Context, s *Serial) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()
	return errCh
}

func testColors() []garland.Color {
	var f garland.Frame
	for i := range f {
		f[i] = garland.Color{R: uint8(i), G: 1, B: 2}
	}
	return f[:]
}

func TestSerialTransmit(t *testing.T) {
	s, ctrl := newSerialPair(t, time.Second, ackAll)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := runSerial(ctx, s)

	colors := testColors()
	require.NoError(t, s.Transmit(ctx, colors))
	require.NoError(t, s.Transmit(ctx, colors))

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	<-ctrl.done

	require.Len(t, ctrl.received, 3)
	assert.Equal(t, ledserial.InitializePacket{NumLEDs: garland.StripLength}, ctrl.received[0])

	set, ok := ctrl.received[1].(ledserial.SetPacket)
	require.True(t, ok)
	assert.Equal(t, garland.AppendPixels(nil, colors), set.Pix)
	assert.IsType(t, ledserial.SetPacket{}, ctrl.received[2])
}

func TestSerialControllerError(t *testing.T) {
	s, _ := newSerialPair(t, time.Second, func(p ledserial.IncomingPacket) []ledserial.OutgoingPacket {
		if p.Type() == ledserial.TypeSetPacket {
			return []ledserial.OutgoingPacket{
				ledserial.ErrorPacket{Message: "invalid number of pixels"},
			}
		}
		return ackAll(p)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := runSerial(ctx, s)

	err := s.Transmit(ctx, testColors())
	assert.ErrorContains(t, err, "invalid number of pixels")

	cancel()
	<-errCh
}

func TestSerialAckTimeout(t *testing.T) {
	s, _ := newSerialPair(t, 20*time.Millisecond, func(ledserial.IncomingPacket) []ledserial.OutgoingPacket {
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := runSerial(ctx, s)

	err := s.Transmit(ctx, testColors())
	assert.ErrorContains(t, err, "did not acknowledge initialize packet")

	cancel()
	<-errCh
}
