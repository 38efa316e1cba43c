package sched

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotHandsOverInOrder(t *testing.T) {
	s, _ := newTestScheduler()
	tx, rx := NewSlot[int]()

	var got []int
	s.Spawn("producer", 1, func(ctx context.Context, t *Task) error {
		for i := 1; i <= 5; i++ {
			if err := tx.Send(t, i); err != nil {
				return err
			}
		}
		tx.Close()
		return nil
	})
	s.Spawn("consumer", 1, func(ctx context.Context, t *Task) error {
		for {
			v, err := rx.Recv(t)
			if err != nil {
				if errors.Is(err, ErrClosed) {
					return nil
				}
				return err
			}
			got = append(got, v)
		}
	})

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestSlotSendBlocksWhileOccupied(t *testing.T) {
	s := New(SystemClock{}, newTestLogger())
	tx, rx := NewSlot[string]()

	var sent int
	s.Spawn("producer", 1, func(ctx context.Context, t *Task) error {
		for _, v := range []string{"first", "second", "third"} {
			if err := tx.Send(t, v); err != nil {
				return err
			}
			sent++
		}
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, s.Run(ctx), context.DeadlineExceeded)
	assert.Equal(t, 1, sent, "producer must stay suspended on the occupied slot")

	v, ok := rx.Peek()
	assert.True(t, ok)
	assert.Equal(t, "first", v, "pending value must not be overwritten")
	assert.Zero(t, tx.Dropped())
}

func TestSlotClosedReceiverDropsSilently(t *testing.T) {
	s, _ := newTestScheduler()
	tx, rx := NewSlot[int]()
	rx.Close()

	var sent int
	s.Spawn("producer", 1, func(ctx context.Context, t *Task) error {
		for i := 0; i < 3; i++ {
			if err := tx.Send(t, i); err != nil {
				return err
			}
			sent++
		}
		return nil
	})

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, 3, sent)
	assert.Equal(t, uint64(3), tx.Dropped())
}

func TestSlotReceiverCloseReleasesSuspendedSender(t *testing.T) {
	s, _ := newTestScheduler()
	tx, rx := NewSlot[int]()

	s.Spawn("producer", 1, func(ctx context.Context, t *Task) error {
		for i := 0; i < 2; i++ {
			if err := tx.Send(t, i); err != nil {
				return err
			}
		}
		return nil
	})
	s.Spawn("closer", 1, func(ctx context.Context, t *Task) error {
		if err := t.Delay(time.Second); err != nil {
			return err
		}
		rx.Close()
		return nil
	})

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, uint64(1), tx.Dropped())
}

func TestSlotClosedSenderIsFatalForReceiver(t *testing.T) {
	s, _ := newTestScheduler()
	tx, rx := NewSlot[int]()

	s.Spawn("producer", 2, func(ctx context.Context, t *Task) error {
		if err := tx.Send(t, 42); err != nil {
			return err
		}
		tx.Close()
		return nil
	})

	var got []int
	s.Spawn("consumer", 1, func(ctx context.Context, t *Task) error {
		for {
			v, err := rx.Recv(t)
			if err != nil {
				return err
			}
			got = append(got, v)
		}
	})

	err := s.Run(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.Contains(t, err.Error(), "task consumer")
	assert.Equal(t, []int{42}, got, "pending value is delivered before the close")
}

func TestSlotCopiesArrays(t *testing.T) {
	s, _ := newTestScheduler()
	tx, rx := NewSlot[[4]int]()

	var received [4]int
	s.Spawn("producer", 1, func(ctx context.Context, t *Task) error {
		buf := [4]int{1, 2, 3, 4}
		if err := tx.Send(t, buf); err != nil {
			return err
		}
		buf[0] = 99
		return nil
	})
	s.Spawn("consumer", 1, func(ctx context.Context, t *Task) error {
		if err := t.Delay(time.Millisecond); err != nil {
			return err
		}
		v, err := rx.Recv(t)
		received = v
		return err
	})

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, [4]int{1, 2, 3, 4}, received)
}
