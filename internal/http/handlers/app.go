package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"stockmeta/internal/batch"
	"stockmeta/internal/domain"
	"stockmeta/internal/imaging"
	"stockmeta/internal/infra"
	"stockmeta/internal/infra/credentials"
	"stockmeta/internal/infra/settings"
	"stockmeta/internal/pipeline"
)

type App struct {
	Logger   *infra.Logger
	Config   *infra.Config
	Keys     *credentials.Pool
	Settings settings.Store
	Batches  *batch.Service

	started time.Time
}

func NewApp(cfg *infra.Config, logger *infra.Logger, keys *credentials.Pool, store settings.Store, batches *batch.Service) *App {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &App{Logger: logger, Config: cfg, Keys: keys, Settings: store, Batches: batches, started: time.Now()}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, errorBody{Error: errCode, Message: msg})
}

// fail maps service errors onto HTTP responses.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ge *domain.GenerationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, batch.ErrRunning):
		a.error(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, credentials.ErrEmptyKey), errors.Is(err, imaging.ErrUnsupportedImage):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case domain.IsKind(err, domain.KindConfiguration):
		a.error(w, http.StatusUnprocessableEntity, "configuration", pipeline.ErrorMessage(err))
	case errors.As(err, &ge):
		a.error(w, http.StatusBadGateway, "generation_failed", pipeline.ErrorMessage(err))
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
