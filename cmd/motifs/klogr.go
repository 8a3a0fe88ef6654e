package main

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/plan-systems/klog"
)

// klogSink routes logr output to klog; funcr.Formatter renders names, key/value pairs and verbosity.
type klogSink struct {
	funcr.Formatter
}

var (
	_ logr.LogSink          = (*klogSink)(nil)
	_ logr.CallDepthLogSink = (*klogSink)(nil)
)

func newKlogLogger(verbosity int) logr.Logger {
	noLevel := ""
	return logr.New(&klogSink{
		Formatter: funcr.NewFormatter(funcr.Options{
			Verbosity:    verbosity,
			LogInfoLevel: &noLevel, // klog marks severity itself
		}),
	})
}

func (sink klogSink) WithName(name string) logr.LogSink {
	sink.AddName(name)
	return &sink
}

func (sink klogSink) WithValues(keysAndValues ...any) logr.LogSink {
	sink.AddValues(keysAndValues)
	return &sink
}

func (sink klogSink) WithCallDepth(depth int) logr.LogSink {
	sink.AddCallDepth(depth)
	return &sink
}

func (sink *klogSink) Info(level int, msg string, keysAndValues ...any) {
	prefix, args := sink.FormatInfo(level, msg, keysAndValues)
	klog.InfoDepth(sink.GetDepth()+1, withPrefix(prefix, args))
}

func (sink *klogSink) Error(err error, msg string, keysAndValues ...any) {
	prefix, args := sink.FormatError(err, msg, keysAndValues)
	klog.ErrorDepth(sink.GetDepth()+1, withPrefix(prefix, args))
}

func withPrefix(prefix, args string) string {
	if len(prefix) == 0 {
		return args
	}
	return prefix + ": " + args
}
