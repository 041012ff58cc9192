// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fifo

// Producer is the pull-based production protocol implemented by FIFO.
// Consumers watch for availability and pull one value at a time; they must
// never pull while the producer is unavailable.
type Producer[T any] interface {
	// Available tests whether at least one value can be produced.  Unlike
	// ProduceNextValue, this method is safe to call from any goroutine.
	Available() bool

	// ProduceNextValue removes and returns the next value.  It may only be
	// called on the producer's home loop, and only while Available returns
	// true.  Both violations are programmer errors and panic.
	ProduceNextValue() T
}
