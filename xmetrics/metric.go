package xmetrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	CounterType = "counter"
	GaugeType   = "gauge"
)

// Module is a function type that returns prebuilt metrics.  Each instrumentable
// package exports one so that hosts can preregister everything it publishes.
type Module func() []Metric

// Metric describes a single metric that will be preregistered.  This type loosely
// corresponds with Prometheus' Opts struct, restricted to the metric types the
// queue primitives actually publish.
type Metric struct {
	// Name is the required name of this metric.
	Name string

	// Type is the required type of metric.  This value must be one of the constants defined in this package.
	Type string

	// Namespace is the optional namespace of this metric.
	Namespace string

	// Subsystem is the optional subsystem of this metric.
	Subsystem string

	// Help is the help string for this metric.  If not supplied, the metric's name is used.
	Help string

	// ConstLabels are the Prometheus ConstLabels for this metric.  This field is optional.
	ConstLabels map[string]string

	// LabelNames are the Prometheus label names for this metric.  This field is optional.
	LabelNames []string
}

// NewCollector creates a Prometheus metric from a Metric descriptor.  The name must not be empty.
func NewCollector(m Metric) (prometheus.Collector, error) {
	if len(m.Name) == 0 {
		return nil, errors.New("A name is required for a metric")
	}

	help := m.Help
	if len(help) == 0 {
		help = m.Name
	}

	switch m.Type {
	case CounterType:
		return prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        m.Name,
				Namespace:   m.Namespace,
				Subsystem:   m.Subsystem,
				Help:        help,
				ConstLabels: m.ConstLabels,
			},
			m.LabelNames,
		), nil

	case GaugeType:
		return prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        m.Name,
				Namespace:   m.Namespace,
				Subsystem:   m.Subsystem,
				Help:        help,
				ConstLabels: m.ConstLabels,
			},
			m.LabelNames,
		), nil

	default:
		return nil, fmt.Errorf("Unsupported metric type: %s", m.Type)
	}
}
