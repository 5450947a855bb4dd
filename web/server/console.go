package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by sending messages to a console channel
type WebLogger struct {
	requestID   string
	consoleChan chan<- ConsoleMessage
	server      core.Logger
}

// NewWebLogger creates a logger for one request. Messages go to the server
// log tagged with requestID and, when consoleChan is set, to the client.
func NewWebLogger(requestID string, consoleChan chan<- ConsoleMessage, server core.Logger) core.Logger {
	if server == nil {
		server = core.NopLogger()
	}
	return &WebLogger{
		requestID:   requestID,
		consoleChan: consoleChan,
		server:      server,
	}
}

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	wl.server.Printf("%s %s", wl.requestID, strings.TrimRight(message, "\n"))

	// Send to web console if channel is available (non-blocking)
	if wl.consoleChan != nil {
		select {
		case wl.consoleChan <- ConsoleMessage{
			Message:   message,
			Timestamp: time.Now(),
			Level:     levelOf(message),
		}:
		default:
			// Channel full, skip (don't block)
		}
	}
}

func levelOf(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "error"), strings.Contains(lower, "failed"):
		return "error"
	case strings.Contains(lower, "warning"):
		return "warning"
	default:
		return "info"
	}
}
