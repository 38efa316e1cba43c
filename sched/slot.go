package sched

// slot is a zero-or-one element buffer shared by exactly one Sender and one
// Receiver. It is only ever touched by the task holding the run token.
type slot[T any] struct {
	val      T
	full     bool
	txClosed bool
	rxClosed bool
	dropped  uint64
}

// NewSlot creates a single-slot handoff channel and returns its two halves.
// Each half must be owned by a single task.
func NewSlot[T any]() (*Sender[T], *Receiver[T]) {
	s := &slot[T]{}
	return &Sender[T]{s: s}, &Receiver[T]{s: s}
}

// Sender is the producing half of a slot.
//
// A Sender never overwrites a pending value: Send suspends the calling task
// until the receiver has taken the previous one. Once the receiver is gone,
// values are dropped without error so that producers keep running.
type Sender[T any] struct {
	s *slot[T]
}

// Send hands v to the receiver. It returns an error only when the scheduler
// is shutting down.
func (tx *Sender[T]) Send(t *Task, v T) error {
	s := tx.s
	if s.full && !s.rxClosed {
		if err := t.park(func() bool { return !s.full || s.rxClosed }); err != nil {
			return err
		}
	}

	if s.rxClosed {
		// Still a suspension point, so that a producer looping on a dead
		// slot cannot starve its peers.
		s.dropped++
		return t.requeue()
	}

	s.val = v
	s.full = true
	return t.Yield()
}

// Dropped returns the number of values discarded because the receiver was
// closed.
func (tx *Sender[T]) Dropped() uint64 { return tx.s.dropped }

// Close marks the producer as gone. A value already in the slot can still be
// received.
func (tx *Sender[T]) Close() { tx.s.txClosed = true }

// Receiver is the consuming half of a slot.
//
// Unlike Sender, a Receiver treats a vanished peer as an error: once the
// sender is closed and the slot drained, Recv returns ErrClosed.
type Receiver[T any] struct {
	s *slot[T]
}

// Recv takes the pending value, suspending the calling task while the slot
// is empty.
func (rx *Receiver[T]) Recv(t *Task) (T, error) {
	s := rx.s
	if !s.full && !s.txClosed {
		if err := t.park(func() bool { return s.full || s.txClosed }); err != nil {
			var zero T
			return zero, err
		}
	}

	var zero T
	if !s.full {
		return zero, ErrClosed
	}

	v := s.val
	s.val = zero
	s.full = false
	return v, t.Yield()
}

// Peek returns the pending value without taking it.
func (rx *Receiver[T]) Peek() (T, bool) {
	return rx.s.val, rx.s.full
}

// Close marks the consumer as gone. A suspended sender is released and any
// later value is dropped.
func (rx *Receiver[T]) Close() { rx.s.rxClosed = true }
