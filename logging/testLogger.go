package logging

import (
	"github.com/go-kit/kit/log"
)

// testSink matches the variadic Log method shared by testing.T and testing.B.
type testSink interface {
	Log(...interface{})
}

// testWriter adapts a testSink to io.Writer so the go-kit factories can
// target it.  One Write is one test log line.
type testWriter struct {
	testSink
}

func (tw testWriter) Write(data []byte) (int, error) {
	tw.testSink.Log(string(data))
	return len(data), nil
}

// NewTestLogger produces a logger that routes output through a testing.T or
// testing.B, so log lines show up interleaved with the test's own output.
// A nil Options allows everything through; suppressing diagnostics is rarely
// what a failing test wants.
func NewTestLogger(o *Options, t testSink) log.Logger {
	if o == nil {
		o = &Options{Level: "DEBUG"}
	}

	return NewFilter(
		log.With(
			o.loggerFactory()(testWriter{t}),
			TimestampKey(), log.DefaultTimestampUTC,
		),
		o,
	)
}
