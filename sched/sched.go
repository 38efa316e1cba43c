// Package sched implements a small priority-preemptive task scheduler in the
// style of interrupt-driven embedded executors.
//
// Every task runs on its own goroutine, but only the task holding the run
// token executes. The scheduler hands the token to the highest-priority
// ready task and takes it back at the task's next suspension point: a
// Delay, a Send on a full slot, a Recv on an empty slot, or a Yield. Code
// between two suspension points is never interrupted, so state owned by a
// task or shared through a slot needs no locking.
package sched

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrStopped is returned from suspension points once the scheduler has
	// shut down. Tasks should return it unchanged.
	ErrStopped = errors.New("scheduler stopped")
	// ErrClosed is returned by Receiver.Recv once the sending half is closed
	// and the slot has been drained.
	ErrClosed = errors.New("slot closed")
)

// Priority is a static task priority. Higher values run first.
type Priority uint8

// TaskFunc is the body of a task. It runs once, normally forever. A non-nil
// error that is not ErrStopped is fatal and stops the scheduler.
type TaskFunc func(ctx context.Context, t *Task) error

// Scheduler runs a fixed set of tasks.
type Scheduler struct {
	clock  Clock
	logger *slog.Logger

	tasks   []*Task
	handoff chan *Task
	stop    chan struct{}
	seq     uint64
	idles   uint64
	started bool
}

// New creates a scheduler on the given clock.
func New(clock Clock, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		clock:   clock,
		logger:  logger,
		handoff: make(chan *Task),
		stop:    make(chan struct{}),
	}
}

// Clock returns the scheduler's clock.
func (s *Scheduler) Clock() Clock { return s.clock }

// Spawn registers a task. All tasks must be spawned before Run; tasks cannot
// be created or torn down afterwards.
func (s *Scheduler) Spawn(name string, prio Priority, fn TaskFunc) *Task {
	if s.started {
		panic("sched: Spawn called after Run")
	}

	t := &Task{
		name:   name,
		prio:   prio,
		fn:     fn,
		sched:  s,
		resume: make(chan struct{}),
	}
	s.makeReady(t)
	s.tasks = append(s.tasks, t)
	return t
}

// Idles returns the number of times the scheduler found no ready task.
// It must not be called while Run is in progress.
func (s *Scheduler) Idles() uint64 { return s.idles }

// Run dispatches tasks until ctx is done, every task has finished, or a task
// fails. Tasks that are still suspended when Run stops are released with
// ErrStopped, and Run waits for all of them to return.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.started {
		return errors.New("scheduler already started")
	}
	s.started = true

	var wg sync.WaitGroup
	for _, t := range s.tasks {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()
			t.main(ctx)
		}()
	}

	err := s.loop(ctx)

	close(s.stop)
	wg.Wait()

	return err
}

func (s *Scheduler) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		t := s.next()
		if t == nil {
			if s.finished() {
				s.logger.Debug("all tasks finished")
				return nil
			}
			if err := s.idle(ctx); err != nil {
				return err
			}
			continue
		}

		t.state = stateRunning
		t.resume <- struct{}{}
		<-s.handoff

		if t.state == stateDone {
			if t.err != nil && !errors.Is(t.err, ErrStopped) {
				s.logger.Error(
					"task failed",
					"task", t.name,
					"error", t.err)
				return errors.Wrapf(t.err, "task %s", t.name)
			}
			s.logger.Debug("task returned", "task", t.name)
		}
	}
}

// next wakes every suspended task whose condition now holds and returns the
// ready task that should run, or nil.
func (s *Scheduler) next() *Task {
	s.wake()

	var best *Task
	for _, t := range s.tasks {
		if t.state != stateReady {
			continue
		}
		if best == nil || t.prio > best.prio || (t.prio == best.prio && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (s *Scheduler) wake() {
	now := s.clock.Now()
	for _, t := range s.tasks {
		if t.state == stateWaiting && t.wakeable(now) {
			s.makeReady(t)
		}
	}
}

// preempts reports whether a task other than t with a strictly higher
// priority is ready to run.
func (s *Scheduler) preempts(t *Task) bool {
	s.wake()
	for _, other := range s.tasks {
		if other != t && other.state == stateReady && other.prio > t.prio {
			return true
		}
	}
	return false
}

func (s *Scheduler) makeReady(t *Task) {
	s.seq++
	t.seq = s.seq
	t.state = stateReady
	t.timed = false
	t.cond = nil
}

func (s *Scheduler) finished() bool {
	for _, t := range s.tasks {
		if t.state != stateDone {
			return false
		}
	}
	return true
}

// idle sleeps until the earliest pending timer. With no timer pending the
// only way out is ctx, since nothing outside the tasks can make a slot
// ready.
func (s *Scheduler) idle(ctx context.Context) error {
	s.idles++

	var deadline time.Time
	var armed bool
	for _, t := range s.tasks {
		if t.state != stateWaiting || !t.timed {
			continue
		}
		if !armed || t.until.Before(deadline) {
			deadline = t.until
			armed = true
		}
	}

	if !armed {
		s.logger.Debug("every task is suspended on a slot, idling until shutdown")
		<-ctx.Done()
		return ctx.Err()
	}

	return s.clock.Sleep(ctx, deadline)
}
