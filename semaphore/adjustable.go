// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package semaphore

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"github.com/xmidt-org/xfifo/clock"
)

const (
	statePending int32 = iota
	stateGranted
	stateCancelled
)

// DefaultTrickleInterval is how long released capacity is held back by the
// trickle policy before it becomes acquirable again, unless overridden via
// WithTrickleInterval.
const DefaultTrickleInterval = 100 * time.Millisecond

// Interface represents a counting semaphore.  When any acquire method is successful,
// Release *must* be called to return the resource to the semaphore.
type Interface interface {
	// Acquire acquires a resource, blocking as long as necessary.  Capacity
	// exhaustion is not an error: the caller simply waits.
	Acquire()

	// AcquireCtx attempts to acquire a resource before the given context is canceled.
	// If the resource was acquired, this method returns nil.  Otherwise, this method
	// returns ctx.Err().
	AcquireCtx(context.Context) error

	// TryAcquire attempts to acquire a resource, returning false immediately if one
	// was unavailable.  This method returns true if the resource was acquired.
	TryAcquire() bool

	// Release relinquishes control of a resource.  Releasing without a matching
	// acquire is a programmer error and panics.
	Release()
}

// waiter is a single suspended acquirer.  The grant channel is closed by the
// granter after it has transferred a capacity unit to this waiter, so there is
// no barging window between wakeup and acquisition.
type waiter struct {
	state   atomic.Int32
	granted chan struct{}
}

// AdjustableOption configures an Adjustable semaphore.
type AdjustableOption func(*Adjustable)

// WithTrickle sets the fraction, between 0.0 and 1.0, of released capacity
// that is held back and returned gradually rather than immediately.  The
// default of 0 disables trickling.  Fractions outside [0.0, 1.0] panic.
func WithTrickle(fraction float64) AdjustableOption {
	return func(a *Adjustable) {
		if fraction < 0.0 || fraction > 1.0 {
			panic("semaphore: trickle fraction must be in [0.0, 1.0]")
		}

		a.trickleFraction = fraction
	}
}

// WithTrickleInterval sets how long held-back capacity stays out of the pool.
// Nonpositive durations restore DefaultTrickleInterval.
func WithTrickleInterval(d time.Duration) AdjustableOption {
	return func(a *Adjustable) {
		if d > 0 {
			a.trickleInterval = d
		} else {
			a.trickleInterval = DefaultTrickleInterval
		}
	}
}

// WithClock sets the time source used to schedule trickle redemption.
// A nil clock restores the system clock.
func WithClock(c clock.Interface) AdjustableOption {
	return func(a *Adjustable) {
		if c != nil {
			a.c = c
		} else {
			a.c = clock.System()
		}
	}
}

// NewAdjustable constructs a counting semaphore whose capacity can change at
// runtime.  A capacity of zero is legal and simply suspends every acquirer
// until the capacity is raised.  A negative capacity panics.
//
// Waiters are granted capacity strictly in arrival order, so raising the
// capacity by n wakes exactly the n oldest waiters (or fewer, if fewer wait).
func NewAdjustable(capacity int, options ...AdjustableOption) *Adjustable {
	if capacity < 0 {
		panic("semaphore: the capacity must be nonnegative")
	}

	a := &Adjustable{
		capacity:        capacity,
		waiters:         queue.New(),
		trickleInterval: DefaultTrickleInterval,
		c:               clock.System(),
	}

	for _, o := range options {
		o(a)
	}

	return a
}

// Adjustable is the internal-state implementation of an adjustable semaphore.
// All mutable state is guarded by a single mutex; acquirers that cannot be
// admitted immediately park on a per-waiter channel outside the lock.
type Adjustable struct {
	lock        sync.Mutex
	capacity    int
	outstanding int
	waiters     *queue.Queue

	trickleFraction float64
	trickleInterval time.Duration
	trickleCredit   float64
	heldBack        int
	c               clock.Interface
}

var _ Interface = (*Adjustable)(nil)

// admissible must be called with the lock held.  Held-back trickle capacity
// counts against the admissible limit until its timer redeems it.
func (a *Adjustable) admissible() bool {
	return a.outstanding < a.capacity-a.heldBack
}

// pump grants capacity to waiters, oldest first, while any is admissible.
// Must be called with the lock held.
func (a *Adjustable) pump() {
	for a.waiters.Length() > 0 && a.admissible() {
		w := a.waiters.Remove().(*waiter)
		if w.state.CompareAndSwap(statePending, stateGranted) {
			a.outstanding++
			close(w.granted)
		}
	}
}

func (a *Adjustable) enqueueWaiter() *waiter {
	w := &waiter{
		granted: make(chan struct{}),
	}

	a.waiters.Add(w)
	return w
}

func (a *Adjustable) Acquire() {
	a.lock.Lock()
	if a.waiters.Length() == 0 && a.admissible() {
		a.outstanding++
		a.lock.Unlock()
		return
	}

	w := a.enqueueWaiter()
	a.lock.Unlock()

	<-w.granted
}

func (a *Adjustable) AcquireCtx(ctx context.Context) error {
	a.lock.Lock()
	if a.waiters.Length() == 0 && a.admissible() {
		a.outstanding++
		a.lock.Unlock()
		return nil
	}

	w := a.enqueueWaiter()
	a.lock.Unlock()

	select {
	case <-w.granted:
		return nil

	case <-ctx.Done():
		if w.state.CompareAndSwap(statePending, stateCancelled) {
			return ctx.Err()
		}

		// a grant raced the cancellation; the capacity unit has already
		// been transferred, so the acquisition stands
		<-w.granted
		return nil
	}
}

func (a *Adjustable) TryAcquire() bool {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.waiters.Length() == 0 && a.admissible() {
		a.outstanding++
		return true
	}

	return false
}

func (a *Adjustable) Release() {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.outstanding < 1 {
		panic("semaphore: release without a matching acquire")
	}

	a.outstanding--
	if a.trickleFraction > 0.0 {
		a.trickleCredit += a.trickleFraction
		for a.trickleCredit >= 1.0 {
			a.trickleCredit -= 1.0
			a.heldBack++
			go a.redeem(a.c.NewTimer(a.trickleInterval))
		}
	}

	a.pump()
}

// redeem returns one held-back capacity unit to the pool after the trickle
// timer fires.
func (a *Adjustable) redeem(t clock.Timer) {
	<-t.C()

	a.lock.Lock()
	defer a.lock.Unlock()

	a.heldBack--
	a.pump()
}

// SetCapacity adjusts the semaphore's capacity.  Raising it immediately wakes
// suspended acquirers, oldest first; lowering it never revokes capacity that
// has already been acquired.  A negative capacity panics.
func (a *Adjustable) SetCapacity(capacity int) {
	if capacity < 0 {
		panic("semaphore: the capacity must be nonnegative")
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	a.capacity = capacity
	a.pump()
}

// Capacity returns the current capacity.
func (a *Adjustable) Capacity() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.capacity
}

// Outstanding returns the number of acquired-but-unreleased resources.
func (a *Adjustable) Outstanding() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.outstanding
}

// Waiting returns the number of suspended acquirers.  Cancelled waiters that
// have not yet been swept by a grant pass may still be counted.
func (a *Adjustable) Waiting() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.waiters.Length()
}
