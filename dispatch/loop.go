// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"github.com/go-kit/kit/log"
	"github.com/xmidt-org/xfifo/logging"
)

// Loop is a run loop bound to a single goroutine.  Tasks submitted via Do and
// DoSync execute one at a time, in FIFO order per submitting goroutine, on the
// loop's goroutine.  A Loop is the unit of ownership for thread-affine state:
// anything owned by a loop may only be read or written by tasks running on it.
type Loop struct {
	name   string
	logger log.Logger

	lock     sync.Mutex
	wake     *sync.Cond
	tasks    *queue.Queue
	stopping bool

	done chan struct{}
	gid  atomic.Uint64
}

// Option is a configuration option for a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for loop lifecycle diagnostics.  A nil
// logger restores the nop default.
func WithLogger(logger log.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		} else {
			l.logger = logging.DefaultLogger()
		}
	}
}

// New starts a run loop with the given name.  The name appears in affinity
// violation panics and lifecycle log entries.
func New(name string, options ...Option) *Loop {
	l := &Loop{
		name:   name,
		logger: logging.DefaultLogger(),
		tasks:  queue.New(),
		done:   make(chan struct{}),
	}

	for _, o := range options {
		o(l)
	}

	l.wake = sync.NewCond(&l.lock)
	go l.run()
	return l
}

// Name returns the diagnostic name supplied to New.
func (l *Loop) Name() string {
	return l.name
}

func (l *Loop) run() {
	l.gid.Store(goroutineID())
	logging.Debug(l.logger).Log(logging.MessageKey(), "loop started", "loop", l.name)

	defer func() {
		logging.Debug(l.logger).Log(logging.MessageKey(), "loop stopped", "loop", l.name)
		close(l.done)
	}()

	for {
		l.lock.Lock()
		for l.tasks.Length() == 0 && !l.stopping {
			l.wake.Wait()
		}

		if l.tasks.Length() == 0 {
			l.lock.Unlock()
			return
		}

		task := l.tasks.Remove().(func())
		l.lock.Unlock()
		task()
	}
}

// Do submits a task to run asynchronously on this loop.  It never waits for
// the task to execute.  Tasks submitted by the same goroutine run in
// submission order.  Submitting to a stopped loop is a programmer error and
// panics.
func (l *Loop) Do(task func()) {
	l.lock.Lock()
	if l.stopping {
		l.lock.Unlock()
		panic("dispatch: task submitted to stopped loop " + l.name)
	}

	l.tasks.Add(task)
	l.wake.Signal()
	l.lock.Unlock()
}

// DoSync runs a task on this loop and waits for it to complete.  When called
// from a task already running on this loop, the task executes inline rather
// than deadlocking behind the caller.
func (l *Loop) DoSync(task func()) {
	if l.RunsHere() {
		task()
		return
	}

	finished := make(chan struct{})
	l.Do(func() {
		defer close(finished)
		task()
	})

	<-finished
}

// RunsHere tests whether the calling goroutine is this loop's goroutine.
func (l *Loop) RunsHere() bool {
	return l.gid.Load() == goroutineID()
}

// Assert panics unless the caller is running on this loop.  Use it at the
// entry points of loop-affine operations to catch threading contract
// violations before they corrupt state.
func (l *Loop) Assert() {
	if !l.RunsHere() {
		panic("dispatch: caller is not running on loop " + l.name)
	}
}

// Stop runs any tasks still queued, parks the loop goroutine, and waits for it
// to exit.  Stop is idempotent.  Stopping a loop from one of its own tasks
// would wait on itself and panics instead.
func (l *Loop) Stop() {
	if l.RunsHere() {
		panic("dispatch: loop " + l.name + " cannot stop itself")
	}

	l.lock.Lock()
	if !l.stopping {
		l.stopping = true
		l.wake.Signal()
	}
	l.lock.Unlock()

	<-l.done
}

// goroutineID extracts the current goroutine's id from its stack header.
// The runtime provides no public accessor, so this parses the
// "goroutine N [running]:" line emitted by runtime.Stack.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	header := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	id, err := strconv.ParseUint(header[:strings.IndexByte(header, ' ')], 10, 64)
	if err != nil {
		panic("dispatch: unparseable goroutine header: " + header)
	}

	return id
}
