/*
Package xmetrics bridges the queue primitives to metrics backends.  The small
interfaces in basic.go are what instrumented components accept; both go-kit
metrics and several prometheus types satisfy them.  Metric descriptors and
NewCollector let hosts preregister the prometheus collectors a component
publishes without importing prometheus in the component itself.
*/
package xmetrics
