// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package fifo provides a bounded FIFO channel between two cooperative run
loops: values are pushed on a designated source loop, land on the home loop
that owns the item sequence, and are pulled by a consumer running on the home
loop.  Admission is bounded by an adjustable semaphore, so pushers suspend
rather than overrun the consumer, and teardown drains every in-flight
cross-loop continuation before Close returns.

No mutex guards the item sequence.  Safety comes from thread affinity: the
sequence and the availability flag are mutated only by tasks on the home loop,
and every entry point asserts the affinity it requires.  Violating an
affinity contract is a programmer error and panics; it is never returned as a
recoverable error.
*/
package fifo
