package logger

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	Log(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

type logger struct {
	entry *logrus.Entry
}

func NewLogger(username string) *logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &logger{
		entry: base.WithField("node", username),
	}
}

// WithLevel sets the minimal level, unknown names are rejected
func (l *logger) WithLevel(level string) (*logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	l.entry.Logger.SetLevel(lvl)
	return l, nil
}

func (l *logger) Log(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *logger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}
