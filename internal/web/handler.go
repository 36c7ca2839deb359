// Package web serves the medguide HTTP API and the bundled symptom form.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"

	"github.com/kamilpajak/medguide/internal/config"
	"github.com/kamilpajak/medguide/internal/diagnosis"
	"github.com/kamilpajak/medguide/internal/llm"
	"github.com/kamilpajak/medguide/internal/places"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

//go:embed static
var staticFiles embed.FS

// Diagnoser produces a diagnosis for a request. It must not fail.
type Diagnoser interface {
	Diagnose(ctx context.Context, req llm.Request) *diagnosis.Result
}

// HospitalFinder looks up hospitals and places.
type HospitalFinder interface {
	NearbyHospitals(ctx context.Context, lat, lon float64, radius int) ([]places.Hospital, error)
	Geocode(ctx context.Context, query string) (*places.Location, error)
}

// Config holds handler dependencies.
type Config struct {
	Diagnoser Diagnoser
	Places    HospitalFinder
	Status    func() config.Status
	Logger    *zap.Logger
}

// Handler serves the API and static UI.
type Handler struct {
	diagnoser Diagnoser
	places    HospitalFinder
	status    func() config.Status
	logger    *zap.Logger
	mux       *http.ServeMux
	root      http.Handler
}

// NewHandler creates a new web handler with all routes registered.
func NewHandler(cfg Config) *Handler {
	h := &Handler{
		diagnoser: cfg.Diagnoser,
		places:    cfg.Places,
		status:    cfg.Status,
		logger:    cfg.Logger,
		mux:       http.NewServeMux(),
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}

	staticFS, _ := fs.Sub(staticFiles, "static")
	h.mux.Handle("GET /{$}", http.FileServer(http.FS(staticFS)))
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.Handle("GET /metrics", promhttp.Handler())
	h.mux.HandleFunc("GET /api/status", h.handleStatus)
	h.mux.HandleFunc("POST /api/diagnose", h.handleDiagnose)
	h.mux.HandleFunc("GET /api/hospitals", h.handleHospitals)
	h.mux.HandleFunc("GET /api/geocode", h.handleGeocode)

	h.root = requestLogging(h.logger, h.mux)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	h.root.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		writeJSON(w, http.StatusOK, config.Status{})
		return
	}
	writeJSON(w, http.StatusOK, h.status())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
