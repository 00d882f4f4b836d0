package handlers

import (
	"net/http"
	"time"

	"stockmeta/internal/infra"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: infra.Version,
		Uptime:  time.Since(a.started).Round(time.Second).String(),
	})
}
