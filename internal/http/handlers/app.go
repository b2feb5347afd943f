package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"photofilter/internal/domain"
	"photofilter/internal/infra"
	"photofilter/internal/ingress"
)

// JobService is the ingress surface the handlers depend on.
type JobService interface {
	Submit(ctx context.Context, upload ingress.Upload, declaredStyle string) (*domain.Job, error)
	Status(ctx context.Context, id int64) (*domain.Job, error)
	MaxBytes() int64
}

// InFlightCounter reports how many orchestrations are running.
type InFlightCounter interface {
	Len() int
}

type App struct {
	Config   *infra.Config
	Logger   zerolog.Logger
	Service  JobService
	InFlight InFlightCounter
}

func NewApp(cfg *infra.Config, logger zerolog.Logger, svc JobService, inflight InFlightCounter) *App {
	return &App{Config: cfg, Logger: logger, Service: svc, InFlight: inflight}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorBody{Code: errCode, Message: message})
}

// writeServiceError maps service sentinels onto HTTP statuses.
func (a *App) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, ingress.ErrTooLarge):
		a.error(w, http.StatusRequestEntityTooLarge, "payload_too_large", "file exceeds upload limit")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "image not found")
	case errors.Is(err, ingress.ErrUnavailable):
		a.error(w, http.StatusServiceUnavailable, "unavailable", "service is shutting down")
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
