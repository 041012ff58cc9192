package semaphore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// testAdder is a concurrency-safe xmetrics.Adder for assertions.
type testAdder struct {
	lock  sync.Mutex
	value float64
}

func (ta *testAdder) Add(delta float64) {
	ta.lock.Lock()
	ta.value += delta
	ta.lock.Unlock()
}

func (ta *testAdder) Value() float64 {
	ta.lock.Lock()
	defer ta.lock.Unlock()
	return ta.value
}

func TestInstrument(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		assert := assert.New(t)
		s := Instrument(NewAdjustable(1))

		assert.NotPanics(func() {
			s.Acquire()
			s.Release()
		})
	})

	t.Run("NilMetrics", func(t *testing.T) {
		assert := assert.New(t)
		s := Instrument(NewAdjustable(1), WithResources(nil), WithFailures(nil))

		assert.NotPanics(func() {
			s.Acquire()
			s.Release()
		})
	})

	t.Run("Resources", func(t *testing.T) {
		var (
			assert    = assert.New(t)
			resources = new(testAdder)
			s         = Instrument(NewAdjustable(2), WithResources(resources))
		)

		s.Acquire()
		assert.Equal(1.0, resources.Value())

		assert.True(s.TryAcquire())
		assert.Equal(2.0, resources.Value())

		assert.False(s.TryAcquire())
		assert.Equal(2.0, resources.Value())

		s.Release()
		s.Release()
		assert.Zero(resources.Value())
	})

	t.Run("Failures", func(t *testing.T) {
		var (
			assert   = assert.New(t)
			failures = new(testAdder)
			s        = Instrument(NewAdjustable(0), WithFailures(failures))
		)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.Error(s.AcquireCtx(ctx))
		assert.Equal(1.0, failures.Value())
	})
}
