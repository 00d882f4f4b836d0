package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stockmeta/internal/domain"
)

type addKeyRequest struct {
	Key string `json:"key"`
}

func (a *App) provider(w http.ResponseWriter, r *http.Request) (domain.Provider, bool) {
	p, ok := domain.ParseProvider(chi.URLParam(r, "provider"))
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported provider")
	}
	return p, ok
}

// ListKeys returns the masked credential pool for a provider.
func (a *App) ListKeys(w http.ResponseWriter, r *http.Request) {
	p, ok := a.provider(w, r)
	if !ok {
		return
	}
	entries, err := a.Keys.Entries(r.Context(), p)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"provider": p, "items": entries})
}

func (a *App) AddKey(w http.ResponseWriter, r *http.Request) {
	p, ok := a.provider(w, r)
	if !ok {
		return
	}
	var req addKeyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.Keys.Keyring().Add(r.Context(), p, req.Key); err != nil {
		a.fail(w, r, err)
		return
	}
	entries, err := a.Keys.Entries(r.Context(), p)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"provider": p, "items": entries})
}

func (a *App) RemoveKey(w http.ResponseWriter, r *http.Request) {
	p, ok := a.provider(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "index must be a number")
		return
	}
	if err := a.Keys.Keyring().Remove(r.Context(), p, index); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
