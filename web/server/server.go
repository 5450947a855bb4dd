package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/loaders"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/df07/go-weekend-raytracer/pkg/scene"
)

// requestIDHeader carries the per-request uuid in both directions
const requestIDHeader = "X-Request-ID"

// Server handles web requests for the raytracer
type Server struct {
	port      int
	scenesDir string // searched for gltf:<file> scenes
	logger    core.Logger
	mux       *http.ServeMux
}

// NewServer creates a new web server serving built-in scenes and the glTF
// files in scenesDir
func NewServer(port int, scenesDir string, logger core.Logger) *Server {
	if logger == nil {
		logger = core.NopLogger()
	}
	s := &Server{port: port, scenesDir: scenesDir, logger: logger, mux: http.NewServeMux()}

	// API endpoints
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/scenes", s.handleScenes)
	s.mux.HandleFunc("GET /api/render", s.handleRender)
	s.mux.HandleFunc("GET /api/render/stream", s.handleRenderStream)
	s.mux.HandleFunc("GET /api/inspect", s.handleInspect)
	return s
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene      string              `json:"scene"`   // Built-in name or gltf:<file>
	Width      int                 `json:"width"`   // Image width; height follows the camera aspect
	Samples    int                 `json:"samples"` // Samples per pixel
	MaxDepth   int                 `json:"maxDepth"`
	Seed       int64               `json:"seed"`
	Sequential bool                `json:"sequential"`
	Format     loaders.ImageFormat `json:"format"`
}

// Stats represents render statistics
type Stats struct {
	RenderID     string  `json:"renderId"`
	Strategy     string  `json:"strategy"`
	Workers      int     `json:"workers"`
	TotalPixels  int     `json:"totalPixels"`
	TotalSamples int64   `json:"totalSamples"`
	ElapsedMs    int64   `json:"elapsedMs"`
	SamplesPerS  float64 `json:"samplesPerSecond"`
}

func newStats(stats renderer.RenderStats) Stats {
	return Stats{
		RenderID:     stats.RenderID.String(),
		Strategy:     string(stats.Strategy),
		Workers:      stats.Workers,
		TotalPixels:  stats.TotalPixels,
		TotalSamples: int64(stats.TotalSamples),
		ElapsedMs:    stats.Elapsed.Milliseconds(),
		SamplesPerS:  stats.SamplesPerSecond(),
	}
}

// Handler returns the server's routes wrapped with request IDs
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		w.Header().Set("Access-Control-Allow-Origin", "*")

		start := time.Now()
		s.mux.ServeHTTP(w, r)
		s.logger.Printf("%s %s %s (%v)", id, r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Printf("Starting web server on http://localhost%s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in and discovered scenes by group
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes(s.scenesDir, s.logger)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// handleRender renders synchronously and returns the encoded image
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
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

	logger := NewWebLogger(w.Header().Get(requestIDHeader), nil, s.logger)
	img, stats, err := renderer.New(config, req.Sequential, logger).Render(r.Context(), sceneObj.World, sceneObj.Camera)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Render error: %v", err))
		return
	}

	var buf bytes.Buffer
	if err := loaders.EncodeImage(&buf, img, req.Format); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Encode error: %v", err))
		return
	}

	w.Header().Set("Content-Type", contentType(req.Format))
	w.Header().Set("X-Render-ID", stats.RenderID.String())
	w.Header().Set("X-Render-Elapsed-Ms", strconv.FormatInt(stats.Elapsed.Milliseconds(), 10))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// setupRender builds the scene and renderer config for a request
func (s *Server) setupRender(req *RenderRequest) (*scene.Scene, renderer.Config, error) {
	sceneObj, err := scene.Resolve(req.Scene, req.Seed, s.scenesDir)
	if err != nil {
		return nil, renderer.Config{}, err
	}
	if req.Width > 0 {
		sceneObj.SamplingConfig.Width = req.Width
	}
	if req.Samples > 0 {
		sceneObj.SamplingConfig.SamplesPerPixel = req.Samples
	}
	if req.MaxDepth > 0 {
		sceneObj.SamplingConfig.MaxDepth = req.MaxDepth
	}

	config := sceneObj.RenderConfig(req.Seed)
	if err := config.Validate(); err != nil {
		return nil, renderer.Config{}, err
	}
	return sceneObj, config, nil
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{Scene: "final", Format: loaders.FormatPNG}

	if name := query.Get("scene"); name != "" {
		req.Scene = name
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 0, 2, 2000); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(query, "samples", 0, 1, 10000); err != nil {
		return nil, err
	}
	if req.MaxDepth, err = parseIntParam(query, "maxDepth", 0, 1, 1000); err != nil {
		return nil, err
	}
	seed, err := parseIntParam(query, "seed", int(renderer.DefaultConfig().Seed), 0, 1<<31-1)
	if err != nil {
		return nil, err
	}
	req.Seed = int64(seed)
	req.Sequential = query.Get("sequential") == "true"

	if format := query.Get("format"); format != "" {
		req.Format, err = loaders.FormatFromPath("image." + format)
		if err != nil {
			return nil, err
		}
	}

	// Performance warning
	if req.Width > 800 && req.Samples > 100 {
		s.logger.Printf("Render warning: Large image with high samples may render slowly")
	}

	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

func contentType(format loaders.ImageFormat) string {
	switch format {
	case loaders.FormatJPEG:
		return "image/jpeg"
	case loaders.FormatBMP:
		return "image/bmp"
	case loaders.FormatTIFF:
		return "image/tiff"
	default:
		return "image/png"
	}
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := loaders.EncodeImage(&buf, img, loaders.FormatPNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// isClientGone reports whether err only means the client went away
func isClientGone(err error) bool {
	return errors.Is(err, context.Canceled)
}
