// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fifo

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/xfifo/dispatch"
)

func newTestLoops(t *testing.T) (source, home *dispatch.Loop) {
	source = dispatch.New("source")
	home = dispatch.New("home")

	t.Cleanup(func() {
		source.Stop()
		home.Stop()
	})

	return
}

// push runs f.Push on the source loop and waits for it to return, so callers
// only use it for pushes that are expected to be admitted immediately.
func push[T any](f *FIFO[T], source *dispatch.Loop, value T) {
	source.DoSync(func() {
		f.Push(value)
	})
}

// produceAll drains every currently available value on the home loop.
func produceAll[T any](f *FIFO[T], home *dispatch.Loop, into *[]T) {
	home.DoSync(func() {
		for f.Available() {
			*into = append(*into, f.ProduceNextValue())
		}
	})
}

func TestNew(t *testing.T) {
	source, home := newTestLoops(t)

	t.Run("NilLoops", func(t *testing.T) {
		assert.Panics(t, func() {
			New[int](nil, home, 1)
		})

		assert.Panics(t, func() {
			New[int](source, nil, 1)
		})
	})

	t.Run("NegativeCapacity", func(t *testing.T) {
		assert.Panics(t, func() {
			New[int](source, home, -1)
		})
	})

	t.Run("Valid", func(t *testing.T) {
		f := New[int](source, home, 1)
		assert.NotNil(t, f)
		assert.Equal(t, 1, f.Capacity())
		assert.NoError(t, f.Close())
	})
}

func TestFIFOOrder(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		source, home = newTestLoops(t)
		f            = New[int](source, home, 50)
	)

	for i := 0; i < 50; i++ {
		push(f, source, i)
	}

	var produced []int
	require.Eventually(
		func() bool {
			produceAll(f, home, &produced)
			return len(produced) == 50
		},
		5*time.Second,
		10*time.Millisecond,
	)

	for i, v := range produced {
		assert.Equal(i, v)
	}

	assert.NoError(f.Close())
}

func TestFIFOBackpressure(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		source, home = newTestLoops(t)
		f            = New[string](source, home, 1)
	)

	push(f, source, "A")

	pushed := make(chan struct{})
	source.Do(func() {
		f.Push("B")
		close(pushed)
	})

	select {
	case <-pushed:
		require.FailNow("push should have suspended at capacity")
	case <-time.After(100 * time.Millisecond):
		// passing
	}

	require.Eventually(f.Available, time.Second, 10*time.Millisecond)

	var produced []string
	produceAll(f, home, &produced)
	assert.Equal([]string{"A"}, produced)

	select {
	case <-pushed:
		// passing: the retirement released the suspended pusher
	case <-time.After(time.Second):
		require.FailNow("push remained suspended after a retirement")
	}

	require.Eventually(
		func() bool {
			produceAll(f, home, &produced)
			return len(produced) == 2
		},
		time.Second,
		10*time.Millisecond,
	)

	assert.Equal([]string{"A", "B"}, produced)
	assert.NoError(f.Close())
}

// TestFIFOCapacityTwoScenario walks the canonical admission scenario:
// with capacity 2, A and B are admitted immediately, C suspends, and the
// first retirement lets C through.
func TestFIFOCapacityTwoScenario(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		source, home = newTestLoops(t)
		f            = New[string](source, home, 2)
	)

	push(f, source, "A")
	push(f, source, "B")

	cPushed := make(chan struct{})
	source.Do(func() {
		f.Push("C")
		close(cPushed)
	})

	select {
	case <-cPushed:
		require.FailNow("third push should have suspended")
	case <-time.After(100 * time.Millisecond):
		// passing
	}

	require.Eventually(f.Available, time.Second, 10*time.Millisecond)

	var first string
	home.DoSync(func() {
		first = f.ProduceNextValue()
	})

	assert.Equal("A", first)

	select {
	case <-cPushed:
		// passing
	case <-time.After(time.Second):
		require.FailNow("third push remained suspended after a retirement")
	}

	var rest []string
	require.Eventually(
		func() bool {
			produceAll(f, home, &rest)
			return len(rest) == 2
		},
		time.Second,
		10*time.Millisecond,
	)

	assert.Equal([]string{"B", "C"}, rest)
	assert.NoError(f.Close())
}

func TestFIFOSetCapacity(t *testing.T) {
	t.Run("IncreaseWakesPusher", func(t *testing.T) {
		var (
			require = require.New(t)

			source, home = newTestLoops(t)
			f            = New[int](source, home, 0)
		)

		pushed := make(chan struct{})
		source.Do(func() {
			f.Push(1)
			close(pushed)
		})

		select {
		case <-pushed:
			require.FailNow("push into a zero-capacity fifo should suspend")
		case <-time.After(100 * time.Millisecond):
			// passing
		}

		f.SetCapacity(1)

		select {
		case <-pushed:
			// passing
		case <-time.After(time.Second):
			require.FailNow("capacity increase failed to wake the pusher")
		}

		require.Eventually(f.Available, time.Second, 10*time.Millisecond)

		var produced []int
		produceAll(f, home, &produced)
		require.Equal([]int{1}, produced)
		require.NoError(f.Close())
	})

	t.Run("DecreaseNeverEvicts", func(t *testing.T) {
		var (
			assert  = assert.New(t)
			require = require.New(t)

			source, home = newTestLoops(t)
			f            = New[int](source, home, 2)
		)

		push(f, source, 1)
		push(f, source, 2)
		f.SetCapacity(1)

		var produced []int
		require.Eventually(
			func() bool {
				produceAll(f, home, &produced)
				return len(produced) == 2
			},
			time.Second,
			10*time.Millisecond,
		)

		assert.Equal([]int{1, 2}, produced)
		assert.NoError(f.Close())
	})
}

func TestFIFOAvailabilityWatcher(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		source, home = newTestLoops(t)
		f            = New[int](source, home, 1)

		transitions []bool
	)

	f.OnAvailable(func(available bool) {
		transitions = append(transitions, available)
	})

	assert.False(f.Available())

	push(f, source, 1)
	require.Eventually(f.Available, time.Second, 10*time.Millisecond)

	var snapshot []bool
	home.DoSync(func() {
		snapshot = append([]bool{}, transitions...)
	})

	assert.Equal([]bool{true}, snapshot)

	home.DoSync(func() {
		f.ProduceNextValue()
		snapshot = append([]bool{}, transitions...)
	})

	assert.Equal([]bool{true, false}, snapshot)
	assert.NoError(f.Close())
}

// testGauge is a concurrency-safe xmetrics.Setter for assertions.
type testGauge struct {
	lock  sync.Mutex
	value float64
}

func (tg *testGauge) Set(value float64) {
	tg.lock.Lock()
	tg.value = value
	tg.lock.Unlock()
}

func (tg *testGauge) Value() float64 {
	tg.lock.Lock()
	defer tg.lock.Unlock()
	return tg.value
}

// testCounter is a concurrency-safe xmetrics.Adder for assertions.
type testCounter struct {
	lock  sync.Mutex
	value float64
}

func (tc *testCounter) Add(delta float64) {
	tc.lock.Lock()
	tc.value += delta
	tc.lock.Unlock()
}

func (tc *testCounter) Value() float64 {
	tc.lock.Lock()
	defer tc.lock.Unlock()
	return tc.value
}

// TestFIFOConservation checks the admission accounting: once the fifo is
// quiescent, values admitted minus slots retired equals the sequence depth.
func TestFIFOConservation(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		depth    = new(testGauge)
		admitted = new(testCounter)
		retired  = new(testCounter)

		source, home = newTestLoops(t)
		f            = New[int](
			source, home, 3,
			WithDepthGauge(depth),
			WithAdmitted(admitted),
			WithRetired(retired),
		)
	)

	for i := 0; i < 3; i++ {
		push(f, source, i)
	}

	require.Eventually(
		func() bool { return depth.Value() == 3.0 },
		time.Second,
		10*time.Millisecond,
	)

	assert.Equal(3.0, admitted.Value())
	assert.Zero(retired.Value())

	home.DoSync(func() {
		f.ProduceNextValue()
	})

	assert.Equal(2.0, depth.Value())
	assert.Equal(3.0, admitted.Value())
	assert.Equal(1.0, retired.Value())
	assert.Equal(admitted.Value()-retired.Value(), depth.Value())

	assert.NoError(f.Close())
}

func TestFIFOClose(t *testing.T) {
	t.Run("WithLeftoverValues", func(t *testing.T) {
		var (
			require = require.New(t)

			source, home = newTestLoops(t)
			f            = New[string](source, home, 1)
		)

		push(f, source, "A")
		require.Eventually(f.Available, time.Second, 10*time.Millisecond)

		// the destructor must compensate for A rather than wait forever
		closed := make(chan error, 1)
		go func() {
			closed <- f.Close()
		}()

		select {
		case err := <-closed:
			require.NoError(err)
		case <-time.After(2 * time.Second):
			require.FailNow("Close failed to drain with an unconsumed value")
		}

		require.False(f.Available())
	})

	t.Run("Idempotent", func(t *testing.T) {
		source, home := newTestLoops(t)
		f := New[int](source, home, 1)

		assert.NoError(t, f.Close())
		assert.ErrorIs(t, f.Close(), ErrClosed)
	})

	t.Run("DisablesOperations", func(t *testing.T) {
		var (
			assert = assert.New(t)

			source, home = newTestLoops(t)
			f            = New[int](source, home, 2)
		)

		push(f, source, 1)
		assert.NoError(f.Close())

		source.DoSync(func() {
			assert.Panics(func() {
				f.Push(2)
			})
		})

		home.DoSync(func() {
			assert.Panics(func() {
				f.ProduceNextValue()
			})
		})
	})

	t.Run("FromOwnedLoopPanics", func(t *testing.T) {
		var (
			assert = assert.New(t)

			source, home = newTestLoops(t)
			f            = New[int](source, home, 1)
		)

		source.DoSync(func() {
			assert.Panics(func() {
				f.Close()
			})
		})

		home.DoSync(func() {
			assert.Panics(func() {
				f.Close()
			})
		})

		assert.NoError(f.Close())
	})

	// stress the race between the dispatched append and the teardown flag:
	// whichever side wins, Close must balance the drain tracker and return
	t.Run("RacesDispatchedAppend", func(t *testing.T) {
		require := require.New(t)

		for i := 0; i < 50; i++ {
			source := dispatch.New("race.source")
			home := dispatch.New("race.home")
			f := New[int](source, home, 4)

			for v := 0; v < 4; v++ {
				v := v
				source.DoSync(func() {
					f.Push(v)
				})
			}

			closed := make(chan error, 1)
			go func() {
				closed <- f.Close()
			}()

			select {
			case err := <-closed:
				require.NoError(err)
			case <-time.After(2 * time.Second):
				require.FailNow("Close failed to drain during append race")
			}

			source.Stop()
			home.Stop()
		}
	})
}

// testSink is a concurrency-safe go-kit logger capturing every entry's
// key/value pairs for assertions.
type testSink struct {
	lock    sync.Mutex
	entries [][]interface{}
}

func (ts *testSink) Log(keyvals ...interface{}) error {
	ts.lock.Lock()
	ts.entries = append(ts.entries, append([]interface{}{}, keyvals...))
	ts.lock.Unlock()
	return nil
}

func (ts *testSink) contains(value interface{}) bool {
	ts.lock.Lock()
	defer ts.lock.Unlock()

	for _, entry := range ts.entries {
		for _, v := range entry {
			if v == value {
				return true
			}
		}
	}

	return false
}

func TestFIFOCloseLogging(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		sink         = new(testSink)
		source, home = newTestLoops(t)
		f            = New[int](source, home, 1, WithLogger(sink))
	)

	push(f, source, 1)
	require.Eventually(f.Available, time.Second, 10*time.Millisecond)

	assert.NoError(f.Close())
	assert.True(sink.contains("draining"))
	assert.True(sink.contains("drained"))
	assert.False(sink.contains(ErrClosed))

	assert.ErrorIs(f.Close(), ErrClosed)
	assert.True(sink.contains(ErrClosed))
}

func TestFIFOAffinity(t *testing.T) {
	var (
		assert = assert.New(t)

		source, home = newTestLoops(t)
		f            = New[int](source, home, 1)
	)

	// off-loop callers must be rejected before they can corrupt state
	assert.Panics(func() {
		f.Push(1)
	})

	assert.Panics(func() {
		f.ProduceNextValue()
	})

	home.DoSync(func() {
		assert.Panics(func() {
			f.Push(1)
		})
	})

	source.DoSync(func() {
		assert.Panics(func() {
			f.ProduceNextValue()
		})
	})

	// producing while unavailable is a protocol violation even on the home loop
	home.DoSync(func() {
		assert.Panics(func() {
			f.ProduceNextValue()
		})
	})

	assert.NoError(f.Close())
}

func TestFIFOTrickle(t *testing.T) {
	var (
		require = require.New(t)

		source, home = newTestLoops(t)
		f            = New[string](
			source, home, 1,
			WithTrickle(1.0),
			WithTrickleInterval(10*time.Millisecond),
		)
	)

	push(f, source, "A")
	require.Eventually(f.Available, time.Second, 10*time.Millisecond)

	var produced []string
	produceAll(f, home, &produced)
	require.Equal([]string{"A"}, produced)

	// the retired slot trickles back after the interval, not immediately
	pushed := make(chan struct{})
	source.Do(func() {
		f.Push("B")
		close(pushed)
	})

	select {
	case <-pushed:
		// passing
	case <-time.After(time.Second):
		require.FailNow("trickled capacity never came back")
	}

	require.Eventually(
		func() bool {
			produceAll(f, home, &produced)
			return len(produced) == 2
		},
		time.Second,
		10*time.Millisecond,
	)

	require.Equal([]string{"A", "B"}, produced)
	require.NoError(f.Close())
}

func TestFIFOProducerProtocol(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		source, home = newTestLoops(t)
		f            = New[int](source, home, 1)

		p Producer[int] = f
	)

	push(f, source, 42)
	require.Eventually(p.Available, time.Second, 10*time.Millisecond)

	var value int
	home.DoSync(func() {
		value = p.ProduceNextValue()
	})

	assert.Equal(42, value)
	assert.NoError(f.Close())
}
