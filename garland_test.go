package garland

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libdb.so/garland/sched"
)

// recordingStrip records every transmitted frame and cancels the daemon
// after a fixed number of them.
type recordingStrip struct {
	clock  sched.Clock
	limit  int
	cancel context.CancelFunc
	failAt int
	err    error

	frames []Frame
	times  []time.Time
}

func (s *recordingStrip) Transmit(ctx context.Context, colors []Color) error {
	if len(colors) != StripLength {
		return errors.Errorf("got %d colors", len(colors))
	}

	var f Frame
	copy(f[:], colors)
	s.frames = append(s.frames, f)
	s.times = append(s.times, s.clock.Now())

	if s.failAt > 0 && len(s.frames) == s.failAt {
		return s.err
	}
	if len(s.frames) == s.limit {
		s.cancel()
	}
	return nil
}

func newTestDaemon(t *testing.T, strip *recordingStrip, ind *fakeIndicator) *Daemon {
	d, err := NewDaemon(Board{
		Clock:     strip.clock,
		Indicator: ind,
		Strip:     strip,
	}, discardLogger())
	require.NoError(t, err)
	return d
}

func TestDaemonAnimates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	strip := &recordingStrip{
		clock:  sched.NewSimClock(epoch),
		limit:  20,
		cancel: cancel,
	}
	ind := &fakeIndicator{}

	err := newTestDaemon(t, strip, ind).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	require.Len(t, strip.frames, 20)

	first := strip.frames[0]
	assert.Equal(t, seed42Colors[0], first[0])
	for i := 1; i < StripLength; i++ {
		require.Equal(t, Color{}, first[i], "index %d", i)
	}

	for n := 1; n < len(strip.frames); n++ {
		prev, cur := strip.frames[n-1], strip.frames[n]
		for i := 1; i < StripLength; i++ {
			require.Equal(t, prev[i-1], cur[i], "frame %d index %d", n, i)
		}
		assert.Equal(t, FramePeriod, strip.times[n].Sub(strip.times[n-1]), "frame %d", n)
	}

	last := strip.frames[len(seed42Colors)-1]
	for i, c := range seed42Colors {
		assert.Equal(t, c, last[len(seed42Colors)-1-i])
	}

	// The last frame went out at 19*80ms = 1.52s: toggles at 0s and 1s.
	assert.Equal(t, 2, ind.toggles)
}

func TestDaemonFillsStrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	strip := &recordingStrip{
		clock:  sched.NewSimClock(epoch),
		limit:  StripLength,
		cancel: cancel,
	}

	err := newTestDaemon(t, strip, &fakeIndicator{}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, strip.frames, StripLength)

	g := NewColorGenerator(Seed, Amplitude, nil, discardLogger())
	want := make([]Color, StripLength)
	for i := range want {
		want[i] = NoPastel(g.draw())
	}

	last := strip.frames[StripLength-1]
	assert.Equal(t, want[0], last[StripLength-1], "oldest LED shows the first color")
	assert.Equal(t, want[StripLength-1], last[0], "newest LED shows the latest color")
	for i := range want {
		require.Equal(t, want[i], last[StripLength-1-i], "color %d", i)
	}
}

func TestDaemonTransmitFailureIsFatal(t *testing.T) {
	busErr := errors.New("spi bus fault")

	strip := &recordingStrip{
		clock:  sched.NewSimClock(epoch),
		cancel: func() {},
		failAt: 3,
		err:    busErr,
	}

	err := newTestDaemon(t, strip, &fakeIndicator{}).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, busErr))
	assert.Contains(t, err.Error(), "strip-writer")
	assert.Len(t, strip.frames, 3, "failed transmissions are not retried")
}

func TestNewDaemonValidatesBoard(t *testing.T) {
	strip := &recordingStrip{clock: sched.NewSimClock(epoch)}

	_, err := NewDaemon(Board{Indicator: &fakeIndicator{}, Strip: strip}, nil)
	assert.Error(t, err)

	_, err = NewDaemon(Board{Clock: strip.clock, Strip: strip}, nil)
	assert.Error(t, err)

	_, err = NewDaemon(Board{Clock: strip.clock, Indicator: &fakeIndicator{}}, nil)
	assert.Error(t, err)
}
