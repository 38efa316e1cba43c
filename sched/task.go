package sched

import (
	"context"
	"time"
)

type taskState uint8

const (
	stateReady taskState = iota
	stateRunning
	stateWaiting
	stateDone
)

// Task is a handle to a spawned task. Its methods must only be called from
// the task's own body.
type Task struct {
	name  string
	prio  Priority
	fn    TaskFunc
	sched *Scheduler

	resume chan struct{}
	state  taskState
	seq    uint64
	until  time.Time
	timed  bool
	cond   func() bool
	err    error
}

// Name returns the name the task was spawned with.
func (t *Task) Name() string { return t.name }

// Priority returns the task's static priority.
func (t *Task) Priority() Priority { return t.prio }

// Delay suspends the task for at least d.
func (t *Task) Delay(d time.Duration) error {
	t.until = t.sched.clock.Now().Add(d)
	t.timed = true
	return t.park(nil)
}

// Yield is a preemption point. It hands the run token over only if a task
// with a strictly higher priority is ready; otherwise it returns at once.
func (t *Task) Yield() error {
	if !t.sched.preempts(t) {
		return nil
	}
	return t.requeue()
}

// requeue puts the task behind every other ready task of its priority.
func (t *Task) requeue() error {
	t.sched.makeReady(t)
	return t.suspend()
}

func (t *Task) main(ctx context.Context) {
	if !t.await() {
		return
	}

	err := t.fn(ctx, t)

	t.state = stateDone
	t.err = err

	select {
	case t.sched.handoff <- t:
	case <-t.sched.stop:
	}
}

// park suspends the task until cond holds or, if a deadline was armed, the
// deadline passes.
func (t *Task) park(cond func() bool) error {
	t.state = stateWaiting
	t.cond = cond
	return t.suspend()
}

func (t *Task) suspend() error {
	select {
	case t.sched.handoff <- t:
	case <-t.sched.stop:
		return ErrStopped
	}
	if !t.await() {
		return ErrStopped
	}
	return nil
}

func (t *Task) await() bool {
	select {
	case <-t.resume:
		return true
	case <-t.sched.stop:
		return false
	}
}

func (t *Task) wakeable(now time.Time) bool {
	if t.cond != nil && t.cond() {
		return true
	}
	return t.timed && !now.Before(t.until)
}
