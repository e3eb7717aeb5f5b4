package logging

import (
	"log"

	"socksmux/application"
)

// StdLogger adapts the standard library's log package to application.Logger.
type StdLogger struct{}

// NewStdLogger returns the default Logger used by both CLI entry points.
func NewStdLogger() application.Logger {
	return StdLogger{}
}

func (StdLogger) Printf(format string, v ...any) {
	log.Printf(format, v...)
}
