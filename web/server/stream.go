package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/df07/go-weekend-raytracer/pkg/renderer"
)

// SSEEvent is one Server-Sent Event
type SSEEvent struct {
	Type string `json:"type"` // "console", "progress", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// ProgressUpdate reports finished pixels
type ProgressUpdate struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// CompleteUpdate carries the finished image
type CompleteUpdate struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Stats     Stats  `json:"stats"`
}

type renderResult struct {
	img   *renderer.PixelBuffer
	stats renderer.RenderStats
	err   error
}

// handleRenderStream renders while streaming console output and progress as
// SSE, finishing with a complete or error event
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}
	sceneObj, config, err := s.setupRender(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	ctx := r.Context()

	consoleChan := make(chan ConsoleMessage, 50)
	progressChan := make(chan ProgressUpdate, 16)
	logger := NewWebLogger(w.Header().Get(requestIDHeader), consoleChan, s.logger)

	config.Progress = func(completed, total int) {
		select {
		case progressChan <- ProgressUpdate{Completed: completed, Total: total}:
		default:
			// Drop intermediate updates the client has not caught up with
		}
	}

	done := make(chan renderResult, 1)
	go func() {
		img, stats, err := renderer.New(config, req.Sequential, logger).Render(ctx, sceneObj.World, sceneObj.Camera)
		done <- renderResult{img: img, stats: stats, err: err}
	}()

	// Only this goroutine writes to w
	for {
		select {
		case msg := <-consoleChan:
			s.writeEvent(w, "console", msg)
		case update := <-progressChan:
			s.writeEvent(w, "progress", update)
		case result := <-done:
			s.drainConsole(w, consoleChan)
			s.finishStream(ctx, w, result)
			return
		case <-ctx.Done():
			// Client disconnected; the render stops on the same context
			<-done
			return
		}
	}
}

func (s *Server) finishStream(ctx context.Context, w http.ResponseWriter, result renderResult) {
	if result.err != nil {
		if !isClientGone(result.err) || ctx.Err() == nil {
			s.writeEvent(w, "error", map[string]string{"error": result.err.Error()})
		}
		return
	}

	data, err := encodePNG(result.img)
	if err != nil {
		s.writeEvent(w, "error", map[string]string{"error": fmt.Sprintf("Encode error: %v", err)})
		return
	}
	s.writeEvent(w, "progress", ProgressUpdate{Completed: result.stats.TotalPixels, Total: result.stats.TotalPixels})
	s.writeEvent(w, "complete", CompleteUpdate{
		Width:     result.img.Width,
		Height:    result.img.Height,
		ImageData: base64.StdEncoding.EncodeToString(data),
		Stats:     newStats(result.stats),
	})
}

func (s *Server) drainConsole(w http.ResponseWriter, consoleChan chan ConsoleMessage) {
	for {
		select {
		case msg := <-consoleChan:
			s.writeEvent(w, "console", msg)
		default:
			return
		}
	}
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// writeEvent writes a single SSE event and flushes it
func (s *Server) writeEvent(w http.ResponseWriter, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Printf("Failed to marshal %s event: %v", eventType, err)
		return
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data); err != nil {
		return
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
