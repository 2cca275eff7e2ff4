// Package server exposes SQL generation and prompt context over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"text2sql/internal/observability"
	"text2sql/internal/schema"
	"text2sql/internal/text2sql"
	"text2sql/pkg/config"
)

type Generator interface {
	PromptInfo(ctx context.Context, query string, tables []string) (text2sql.Context, error)
	Run(ctx context.Context, query string, tables []string) (text2sql.Result, error)
}

type Dependencies struct {
	Generator Generator
	Readiness func(ctx context.Context) error
	Logger    *slog.Logger
}

type request struct {
	Query  string   `json:"query"`
	Tables []string `json:"tables"`
}

func NewHandler(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{deps: deps, logger: logger}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		observability.RequestMiddleware(logger),
	)
	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Post("/sql", h.sql)
		r.Post("/context", h.context)
	})
	return r
}

type handler struct {
	deps   Dependencies
	logger *slog.Logger
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.deps.Readiness != nil {
		if err := h.deps.Readiness(r.Context()); err != nil {
			writeError(w, r, http.StatusServiceUnavailable, "not_ready", err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) sql(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	res, err := h.deps.Generator.Run(r.Context(), req.Query, req.Tables)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) context(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	pc, err := h.deps.Generator.PromptInfo(r.Context(), req.Query, req.Tables)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pc)
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var dialectErr *schema.UnsupportedDialectError
	switch {
	case errors.Is(err, text2sql.ErrNoTranslator):
		writeError(w, r, http.StatusNotImplemented, "llm_not_configured", err.Error())
	case errors.As(err, &dialectErr):
		writeError(w, r, http.StatusUnprocessableEntity, "unsupported_dialect", err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "request failed", slog.String("error", err.Error()))
		writeError(w, r, http.StatusInternalServerError, "internal", err.Error())
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (request, bool) {
	var req request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return request{}, false
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "query is required")
		return request{}, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"request_id": middleware.GetReqID(r.Context()),
	})
}

// ListenAndServe serves handler until ctx is cancelled, then drains in-flight
// requests for up to ten seconds.
func ListenAndServe(ctx context.Context, cfg config.ServerConfig, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
