// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fifo

import (
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/xmidt-org/xfifo/clock"
	"github.com/xmidt-org/xfifo/logging"
	"github.com/xmidt-org/xfifo/xmetrics"
)

// Option is a configuration option for a FIFO.
type Option func(*config)

// config carries everything about a FIFO that is not type-dependent, which
// keeps the options free of type parameters.
type config struct {
	trickleFraction float64
	trickleInterval time.Duration
	c               clock.Interface
	logger          log.Logger

	depth     xmetrics.Setter
	available xmetrics.Setter
	admitted  xmetrics.Adder
	retired   xmetrics.Adder
}

func newConfig(options ...Option) config {
	cfg := config{
		c:         clock.System(),
		logger:    logging.DefaultLogger(),
		depth:     discard.NewGauge(),
		available: discard.NewGauge(),
		admitted:  discard.NewCounter(),
		retired:   discard.NewCounter(),
	}

	for _, o := range options {
		o(&cfg)
	}

	return cfg
}

// WithTrickle sets the admission semaphore's trickle fraction, between 0.0 and
// 1.0.  The default of 0 releases retired capacity immediately.  See the
// semaphore package for the trickle policy itself.
func WithTrickle(fraction float64) Option {
	return func(cfg *config) {
		cfg.trickleFraction = fraction
	}
}

// WithTrickleInterval sets how long trickled capacity is held back before
// producers can reacquire it.
func WithTrickleInterval(d time.Duration) Option {
	return func(cfg *config) {
		cfg.trickleInterval = d
	}
}

// WithClock sets the time source for the trickle policy.  A nil clock
// restores the system clock.
func WithClock(c clock.Interface) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.c = c
		} else {
			cfg.c = clock.System()
		}
	}
}

// WithLogger sets the logger used for lifecycle diagnostics.  A nil logger
// restores the nop default.
func WithLogger(logger log.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		} else {
			cfg.logger = logging.DefaultLogger()
		}
	}
}

// WithDepthGauge establishes a metric tracking the number of values currently
// in the item sequence.  If a nil gauge is supplied, depth is discarded.
func WithDepthGauge(s xmetrics.Setter) Option {
	return func(cfg *config) {
		if s != nil {
			cfg.depth = s
		} else {
			cfg.depth = discard.NewGauge()
		}
	}
}

// WithAvailableGauge establishes a metric mirroring the availability flag:
// 1 while values can be produced, 0 otherwise.  If a nil gauge is supplied,
// availability is discarded.
func WithAvailableGauge(s xmetrics.Setter) Option {
	return func(cfg *config) {
		if s != nil {
			cfg.available = s
		} else {
			cfg.available = discard.NewGauge()
		}
	}
}

// WithAdmitted establishes a metric counting values admitted by a push.
// If a nil adder is supplied, admissions are discarded.
func WithAdmitted(a xmetrics.Adder) Option {
	return func(cfg *config) {
		if a != nil {
			cfg.admitted = a
		} else {
			cfg.admitted = discard.NewCounter()
		}
	}
}

// WithRetired establishes a metric counting slots fully retired, i.e. values
// produced to a consumer with their capacity released.  If a nil adder is
// supplied, retirements are discarded.
func WithRetired(a xmetrics.Adder) Option {
	return func(cfg *config) {
		if a != nil {
			cfg.retired = a
		} else {
			cfg.retired = discard.NewCounter()
		}
	}
}
