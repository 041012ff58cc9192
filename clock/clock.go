package clock

import "time"

// Interface is the time source used by components that defer work, such as the
// trickle release policy on the adjustable semaphore.  Only the portion of the
// stdlib time package those components need is exposed, which keeps fakes small.
type Interface interface {
	Now() time.Time
	NewTimer(time.Duration) Timer
}

type systemClock struct{}

func (sc systemClock) Now() time.Time {
	return time.Now()
}

func (sc systemClock) NewTimer(d time.Duration) Timer {
	return systemTimer{time.NewTimer(d)}
}

// System returns a clock backed by the time package
func System() Interface {
	return systemClock{}
}
