// Package server exposes the execution service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/zinc-sig/kaas/internal/output"
	"github.com/zinc-sig/kaas/internal/schema"
)

const (
	healthText = "OK"
	infoText   = "Karate Test Service"

	defaultMaxBodyBytes = 1 << 20
)

// Executor is the part of the service the HTTP layer needs
type Executor interface {
	Execute(ctx context.Context, req output.ExecuteRequest) *output.ExecutionResponse
	Parse(req output.ParseRequest) *output.ExecutionResponse
	Versions(ctx context.Context) output.Versions
}

// Config wires dependencies for the HTTP handler.
type Config struct {
	Service      Executor
	CORSOrigins  []string
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// NewHandler builds the HTTP handler for the /karate API.
func NewHandler(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	h := &handler{
		service:      cfg.Service,
		maxBodyBytes: cfg.MaxBodyBytes,
		logger:       cfg.Logger.With("component", "http"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/karate/execute", h.handleExecute)
	mux.HandleFunc("/karate/parse", h.handleParse)
	mux.HandleFunc("/karate/versions", h.handleVersions)
	mux.HandleFunc("/karate/health", h.handleText(healthText))
	mux.HandleFunc("/karate/info", h.handleText(infoText))

	return withLogging(h.logger, withCORS(cfg.CORSOrigins, mux))
}

type handler struct {
	service      Executor
	maxBodyBytes int64
	logger       *slog.Logger
}

func (h *handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	if err := schema.ValidateExecute(body); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}

	var req output.ExecuteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.service.Execute(r.Context(), req))
}

func (h *handler) handleParse(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	if err := schema.ValidateParse(body); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}

	var req output.ParseRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.service.Parse(req))
}

func (h *handler) handleVersions(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.service.Versions(r.Context()))
}

func (h *handler) handleText(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, text)
	}
}

// readBody reads at most maxBodyBytes of the request body
func (h *handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errTooLarge, err.Error())
			return nil, false
		}
		writeError(w, http.StatusBadRequest, errInvalidRequest, err.Error())
		return nil, false
	}
	return body, true
}

// allowMethod writes 405 unless r uses method (GET also admits HEAD)
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method || (method == http.MethodGet && r.Method == http.MethodHead) {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed, "method "+r.Method+" not allowed")
	return false
}
