// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package semaphore

import (
	"sync"

	"github.com/xmidt-org/xfifo/dispatch"
)

// Drain is a reference-counted in-flight operation tracker: one Acquire per
// operation issued, one Release per operation completed, and a blocking Drain
// that returns once every pair has balanced.  Owners use it to guarantee that
// no dispatched continuation still references an instance before tearing that
// instance down.
//
// Unlike loop-affine state, a Drain is explicitly safe to touch from any
// goroutine.  The owner loop recorded via Rethread is bookkeeping: it
// identifies the loop whose tasks are being counted, and guards against a
// Drain call that would wait on itself.
type Drain struct {
	lock        sync.Mutex
	outstanding int
	balanced    chan struct{}
	owner       *dispatch.Loop
}

// NewDrain constructs a balanced tracker owned by the given loop.  The owner
// may be nil, in which case the self-wait guard is disabled.
func NewDrain(owner *dispatch.Loop) *Drain {
	d := &Drain{
		owner:    owner,
		balanced: make(chan struct{}),
	}

	close(d.balanced)
	return d
}

// Acquire records one more in-flight operation.  It never blocks.
func (d *Drain) Acquire() {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.outstanding == 0 {
		d.balanced = make(chan struct{})
	}

	d.outstanding++
}

// Release records the completion of one in-flight operation.  Releasing a
// balanced tracker is a programmer error and panics.
func (d *Drain) Release() {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.outstanding < 1 {
		panic("semaphore: drain release without a matching acquire")
	}

	d.outstanding--
	if d.outstanding == 0 {
		close(d.balanced)
	}
}

// Drain blocks until every acquire has been matched by a release.  A balanced
// tracker drains immediately.  Calling Drain from a task on the owner loop
// would wait on work that can never run and panics instead.
func (d *Drain) Drain() {
	d.lock.Lock()
	owner := d.owner
	balanced := d.balanced
	d.lock.Unlock()

	if owner != nil && owner.RunsHere() {
		panic("semaphore: Drain called from owner loop " + owner.Name())
	}

	<-balanced
}

// Rethread reassigns the owner loop.  This is bookkeeping only; it does not
// affect the outstanding count.
func (d *Drain) Rethread(owner *dispatch.Loop) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.owner = owner
}

// Outstanding returns the number of unbalanced acquires.
func (d *Drain) Outstanding() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.outstanding
}
