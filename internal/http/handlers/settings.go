package handlers

import (
	"io"
	"net/http"

	"stockmeta/internal/domain"
	"stockmeta/internal/domain/jsoncfg"
)

type categoriesResponse struct {
	Providers []providerInfo      `json:"providers"`
	Platforms []domain.Platform   `json:"platforms"`
	Slots     map[string][]string `json:"categories"`
}

type providerInfo struct {
	ID     domain.Provider      `json:"id"`
	Label  string               `json:"label"`
	Models []domain.ModelOption `json:"models"`
}

// Categories lists the closed vocabularies and the model catalog.
func (a *App) Categories(w http.ResponseWriter, _ *http.Request) {
	resp := categoriesResponse{Platforms: domain.Platforms(), Slots: map[string][]string{}}
	for _, p := range domain.Providers() {
		resp.Providers = append(resp.Providers, providerInfo{ID: p, Label: p.Label(), Models: domain.Models(p)})
	}
	for _, f := range domain.CategoryFields() {
		resp.Slots[string(f)] = f.Categories()
	}
	a.json(w, http.StatusOK, resp)
}

func (a *App) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := a.Settings.Load(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, s)
}

// PutSettings accepts any settings document, including ones from older
// releases, and stores the migrated result.
func (a *App) PutSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	in, err := jsoncfg.DecodeSettings(body)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := in.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	saved, err := a.Settings.Save(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, saved)
}

// runSettings returns the stored settings, replaced by the "settings" form
// field when the request carries one.
func (a *App) runSettings(r *http.Request) (jsoncfg.Settings, error) {
	if raw := r.FormValue("settings"); raw != "" {
		return jsoncfg.DecodeSettings([]byte(raw))
	}
	return a.Settings.Load(r.Context())
}
