package clocktest

import (
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/xmidt-org/xfifo/clock"
)

// Mock is a stretchr mock for a clock.  In addition to implementing clock.Interface and supplying
// mock behavior, other methods that make mocking a bit easier are supplied.
type Mock struct {
	mock.Mock
}

var _ clock.Interface = (*Mock)(nil)

func (m *Mock) Now() time.Time {
	return m.Called().Get(0).(time.Time)
}

func (m *Mock) OnNow(v time.Time) *mock.Call {
	return m.On("Now").Return(v)
}

func (m *Mock) NewTimer(d time.Duration) clock.Timer {
	return m.Called(d).Get(0).(clock.Timer)
}

func (m *Mock) OnNewTimer(d time.Duration, t clock.Timer) *mock.Call {
	return m.On("NewTimer", d).Return(t)
}

// Timer is a manually fired clock.Timer.  Tests use it to make time-deferred
// behavior, like trickle redemption, deterministic: the code under test blocks
// on C() until the test calls Fire.
type Timer struct {
	lock    sync.Mutex
	c       chan time.Time
	stopped bool
}

var _ clock.Timer = (*Timer)(nil)

// NewTimer constructs an unfired Timer.
func NewTimer() *Timer {
	return &Timer{
		c: make(chan time.Time, 1),
	}
}

func (t *Timer) C() <-chan time.Time {
	return t.c
}

func (t *Timer) Stop() bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	active := !t.stopped
	t.stopped = true
	return active
}

// Fire delivers a tick as if the timer's duration had elapsed.  Firing a
// stopped timer is a no-op.
func (t *Timer) Fire(at time.Time) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if !t.stopped {
		t.stopped = true
		t.c <- at
	}
}
