// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package dispatch provides cooperative run loops for thread-affine code.

A Loop owns exactly one goroutine.  State that is conventionally owned by a
loop must only be touched by tasks running on that loop; cross-loop interaction
happens through Do and DoSync rather than shared-memory mutation.  Tasks
submitted by a single goroutine execute in submission order.
*/
package dispatch
