// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fifo

import "github.com/xmidt-org/xfifo/xmetrics"

// Metric names published by an instrumented FIFO.
const (
	DepthGaugeName      = "fifo_depth"
	AvailableGaugeName  = "fifo_available"
	AdmittedCounterName = "fifo_admitted_total"
	RetiredCounterName  = "fifo_retired_total"
)

// Metrics is the metrics module for this package.  Hosts can preregister
// these descriptors and then wire the resulting collectors to a FIFO through
// the WithDepthGauge, WithAvailableGauge, WithAdmitted, and WithRetired
// options.
func Metrics() []xmetrics.Metric {
	return []xmetrics.Metric{
		{
			Name: DepthGaugeName,
			Type: xmetrics.GaugeType,
			Help: "the number of values currently in the item sequence",
		},
		{
			Name: AvailableGaugeName,
			Type: xmetrics.GaugeType,
			Help: "1 while at least one value can be produced, 0 otherwise",
		},
		{
			Name: AdmittedCounterName,
			Type: xmetrics.CounterType,
			Help: "the total count of values admitted by pushes",
		},
		{
			Name: RetiredCounterName,
			Type: xmetrics.CounterType,
			Help: "the total count of slots retired to consumers",
		},
	}
}

var _ xmetrics.Module = Metrics
