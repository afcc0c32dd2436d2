package sqsconsumer

import "github.com/sirupsen/logrus"

// Logger is the logging seam used throughout the consumer, receive loop,
// batchers and extender. A *logrus.Logger or *logrus.Entry satisfies it
// directly.
type Logger interface {
	Printf(format string, args ...interface{})
}

// NoopLogger discards everything. It is the default so tests and
// fire-and-forget embedding stay quiet unless a Logger is supplied.
var NoopLogger Logger = noopLogger{}

type noopLogger struct{}

func (noopLogger) Printf(string, ...interface{}) {}

// logrusLogger adapts a *logrus.Logger to the Logger interface.
type logrusLogger struct {
	log *logrus.Logger
}

// NewLogrusLogger wraps log as a Logger.
func NewLogrusLogger(log *logrus.Logger) Logger {
	return logrusLogger{log: log}
}

func (l logrusLogger) Printf(format string, args ...interface{}) {
	l.log.Printf(format, args...)
}
