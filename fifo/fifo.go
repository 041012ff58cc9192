// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fifo

import (
	"errors"
	"sync/atomic"

	"github.com/eapache/queue"
	"github.com/xmidt-org/xfifo/dispatch"
	"github.com/xmidt-org/xfifo/logging"
	"github.com/xmidt-org/xfifo/semaphore"
)

var (
	// ErrClosed is returned by Close when the FIFO has already been closed.
	ErrClosed = errors.New("the fifo has been closed")
)

// FIFO is a bounded, single-source, single-consumer channel between two run
// loops.  Values are pushed from the source loop and produced on the home
// loop, in push order.  The admitted-but-unretired count never exceeds the
// capacity; pushers suspend when it would.
//
// A FIFO must be Closed before it is abandoned.  Close drains every
// outstanding cross-loop continuation, so once it returns no dispatched task
// references the instance anymore.
type FIFO[T any] struct {
	source *dispatch.Loop
	home   *dispatch.Loop

	admission *semaphore.Adjustable
	drain     *semaphore.Drain

	// items and watcher are owned by the home loop
	items   *queue.Queue
	watcher func(bool)

	available   atomic.Bool
	tearingDown atomic.Bool
	closeCalled atomic.Bool

	cfg config
}

var _ Producer[int] = (*FIFO[int])(nil)

// New constructs a FIFO that admits at most capacity values at a time.
// Values are pushed from tasks on the source loop and produced by tasks on
// the home loop.  A capacity of zero is legal: every push suspends until
// SetCapacity makes room.  A negative capacity or a nil loop panics.
func New[T any](source, home *dispatch.Loop, capacity int, options ...Option) *FIFO[T] {
	if source == nil || home == nil {
		panic("fifo: both a source and a home loop are required")
	}

	cfg := newConfig(options...)
	f := &FIFO[T]{
		source: source,
		home:   home,
		admission: semaphore.NewAdjustable(
			capacity,
			semaphore.WithTrickle(cfg.trickleFraction),
			semaphore.WithTrickleInterval(cfg.trickleInterval),
			semaphore.WithClock(cfg.c),
		),
		items: queue.New(),
		cfg:   cfg,
	}

	// while the fifo is live the drain tracker belongs to the source side,
	// where operations are issued; Close hands it back to the home loop
	f.drain = semaphore.NewDrain(home)
	f.drain.Rethread(source)

	return f
}

// Push hands a value to the home loop, suspending while the FIFO is at
// capacity.  It may only be called from a task on the source loop, and must
// not overlap a call to Close; both are programmer errors and panic.
//
// The admission accounting is exact from the source side's point of view:
// the value counts against capacity from the moment Push returns, even though
// the append itself happens later on the home loop.
func (f *FIFO[T]) Push(value T) {
	f.source.Assert()
	if f.tearingDown.Load() {
		panic("fifo: push during teardown")
	}

	f.drain.Acquire()
	f.admission.Acquire()
	f.cfg.admitted.Add(1.0)

	f.home.Do(func() {
		f.apply(value)
	})
}

// apply is the dispatched continuation of Push, running on the home loop.
func (f *FIFO[T]) apply(value T) {
	if f.tearingDown.Load() {
		// Close only compensates for values already in the sequence, so a
		// continuation that arrives during teardown retires its own slot
		f.admission.Release()
		f.drain.Release()
		f.cfg.retired.Add(1.0)
		return
	}

	f.items.Add(value)
	f.cfg.depth.Set(float64(f.items.Length()))
	f.setAvailable(true)
}

// ProduceNextValue implements Producer.  It removes and returns the oldest
// value, retiring the value's capacity so a suspended pusher can proceed.
// Calling it off the home loop, while unavailable, or during teardown is a
// programmer error and panics.
func (f *FIFO[T]) ProduceNextValue() T {
	f.home.Assert()
	if f.tearingDown.Load() {
		panic("fifo: produce during teardown")
	}

	if f.items.Length() == 0 {
		panic("fifo: produce called while unavailable")
	}

	value := f.items.Remove().(T)
	f.admission.Release()
	f.drain.Release()
	f.cfg.retired.Add(1.0)

	f.cfg.depth.Set(float64(f.items.Length()))
	f.setAvailable(f.items.Length() > 0)
	return value
}

// Available implements Producer.  It is safe to call from any goroutine.
func (f *FIFO[T]) Available() bool {
	return f.available.Load()
}

// OnAvailable registers a watcher invoked on the home loop whenever the
// availability flag changes.  At most one watcher is supported; a nil watcher
// removes the current one.  OnAvailable may be called from any goroutine and
// waits until the registration is visible to the home loop.
func (f *FIFO[T]) OnAvailable(watch func(bool)) {
	f.home.DoSync(func() {
		f.watcher = watch
	})
}

// setAvailable runs on the home loop, immediately after a sequence mutation.
func (f *FIFO[T]) setAvailable(v bool) {
	if f.available.Swap(v) == v {
		return
	}

	if v {
		f.cfg.available.Set(1.0)
	} else {
		f.cfg.available.Set(0.0)
	}

	if f.watcher != nil {
		f.watcher(v)
	}
}

// SetCapacity adjusts how many values may be admitted but not yet retired.
// Raising the capacity immediately wakes suspended pushers, oldest first;
// lowering it never evicts values that were already admitted.  SetCapacity
// is safe to call from any goroutine.
func (f *FIFO[T]) SetCapacity(capacity int) {
	f.admission.SetCapacity(capacity)
}

// Capacity returns the current admission capacity.
func (f *FIFO[T]) Capacity() int {
	return f.admission.Capacity()
}

// Close tears the FIFO down: live, then draining, then drained.  It disables
// pushes and produces, compensates the drain tracker for values that were
// admitted but will never be consumed, and blocks until every dispatched
// continuation referencing this instance has completed.  After Close returns
// it is safe to abandon the instance.
//
// Close must not be called from the source or home loop - it waits on tasks
// that run there - and must not overlap a live Push.  A second Close returns
// ErrClosed without waiting.
func (f *FIFO[T]) Close() error {
	if f.source.RunsHere() || f.home.RunsHere() {
		panic("fifo: Close called from the source or home loop")
	}

	if f.closeCalled.Swap(true) {
		logging.Error(f.cfg.logger).Log(
			logging.MessageKey(), "close of a drained fifo",
			logging.ErrorKey(), ErrClosed,
		)

		return ErrClosed
	}

	// entering draining: serialize with in-flight continuations on the home
	// loop, then snapshot how many values will never be consumed
	var leftover int
	f.home.DoSync(func() {
		f.tearingDown.Store(true)
		leftover = f.items.Length()
		f.setAvailable(false)
	})

	logging.Info(f.cfg.logger).Log(
		logging.MessageKey(), "draining",
		"leftover", leftover,
	)

	// each leftover value holds the drain unit acquired by its push; no
	// consumer will retire them, so balance the tracker here, with source
	// affinity, exactly as a retirement would have
	f.source.DoSync(func() {
		for i := 0; i < leftover; i++ {
			f.drain.Release()
		}
	})

	f.drain.Drain()
	f.drain.Rethread(f.home)

	logging.Info(f.cfg.logger).Log(logging.MessageKey(), "drained")
	return nil
}
