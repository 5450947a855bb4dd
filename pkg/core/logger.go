package core

import (
	"fmt"
	"io"
	"log"
	"os"
)

// DefaultLogger implements Logger on top of the standard library logger
type DefaultLogger struct {
	prefix string
	out    *log.Logger
}

// NewDefaultLogger creates a logger writing to stderr with an optional [prefix] tag
func NewDefaultLogger(prefix string) *DefaultLogger {
	return NewWriterLogger(os.Stderr, prefix)
}

// NewWriterLogger creates a logger writing to w
func NewWriterLogger(w io.Writer, prefix string) *DefaultLogger {
	return &DefaultLogger{
		prefix: prefix,
		out:    log.New(w, "", log.LstdFlags|log.Lmicroseconds),
	}
}

func (l *DefaultLogger) Printf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		msg = fmt.Sprintf("[%s] %s", l.prefix, msg)
	}
	l.out.Print(msg)
}

type nopLogger struct{}

func (nopLogger) Printf(format string, args ...interface{}) {}

// NopLogger returns a logger that discards everything
func NopLogger() Logger { return nopLogger{} }
