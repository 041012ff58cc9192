// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package semaphore provides the admission-control primitives behind the
cross-thread FIFO: an adjustable counting semaphore with an optional trickle
release policy, and a drain tracker that blocks teardown until every in-flight
cross-loop operation has balanced.

Suspension is the only form of backpressure here.  Running out of capacity is
never an error; acquirers wait, in FIFO order, until a release or a capacity
increase makes room.
*/
package semaphore
