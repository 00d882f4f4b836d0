package handlers

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stockmeta/internal/batch"
	"stockmeta/internal/domain"
	"stockmeta/internal/export"
)

type createBatchResponse struct {
	batch.Snapshot
	Started bool `json:"started"`
}

func (a *App) maxUpload() int64 {
	if a.Config != nil && a.Config.MaxUploadBytes > 0 {
		return a.Config.MaxUploadBytes
	}
	return 64 << 20
}

// uploads reads every file sent under field.
func (a *App) uploads(w http.ResponseWriter, r *http.Request, field string) ([]batch.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, err
	}
	var out []batch.Upload
	for _, fh := range r.MultipartForm.File[field] {
		data, err := readPart(fh)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		out = append(out, batch.Upload{
			Filename: fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Data:     data,
		})
	}
	return out, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Describe generates metadata for one image sent as the "file" field.
func (a *App) Describe(w http.ResponseWriter, r *http.Request) {
	files, err := a.uploads(w, r, "file")
	if err != nil || len(files) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "multipart field \"file\" is required")
		return
	}
	cfg, err := a.runSettings(r)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid settings")
		return
	}
	md, err := a.Batches.Describe(r.Context(), files[0], cfg)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, md)
}

// CreateBatch registers the uploaded "files" and starts processing unless
// start=false is given.
func (a *App) CreateBatch(w http.ResponseWriter, r *http.Request) {
	files, err := a.uploads(w, r, "files")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	if len(files) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "multipart field \"files\" is required")
		return
	}
	cfg, err := a.runSettings(r)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid settings")
		return
	}

	b := a.Batches.Create(files, cfg)
	started := r.FormValue("start") != "false"
	if started {
		if err := a.Batches.Start(r.Context(), b); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	a.json(w, http.StatusAccepted, createBatchResponse{Snapshot: b.Snapshot(), Started: started})
}

func (a *App) batch(w http.ResponseWriter, r *http.Request) (*batch.Batch, bool) {
	b, err := a.Batches.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	return b, true
}

func (a *App) GetBatch(w http.ResponseWriter, r *http.Request) {
	b, ok := a.batch(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, b.Snapshot())
}

func (a *App) StartBatch(w http.ResponseWriter, r *http.Request) {
	b, ok := a.batch(w, r)
	if !ok {
		return
	}
	if err := a.Batches.Start(r.Context(), b); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, b.Snapshot())
}

// StopBatch lets in-flight attempts finish and requeues the rest.
func (a *App) StopBatch(w http.ResponseWriter, r *http.Request) {
	b, ok := a.batch(w, r)
	if !ok {
		return
	}
	if !a.Batches.Stop(b) {
		a.error(w, http.StatusConflict, "conflict", "batch is not running")
		return
	}
	a.json(w, http.StatusAccepted, b.Snapshot())
}

func (a *App) RetryBatch(w http.ResponseWriter, r *http.Request) {
	b, ok := a.batch(w, r)
	if !ok {
		return
	}
	n, err := a.Batches.Retry(r.Context(), b)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]any{"requeued": n, "batch": b.Snapshot()})
}

// ExportCSV writes one platform sheet. The platform defaults to the one in the
// batch settings.
func (a *App) ExportCSV(w http.ResponseWriter, r *http.Request) {
	b, ok := a.batch(w, r)
	if !ok {
		return
	}
	platform := b.Settings.Platform
	if raw := r.URL.Query().Get("platform"); raw != "" {
		p, ok := domain.ParsePlatform(raw)
		if !ok {
			a.error(w, http.StatusBadRequest, "bad_request", "unsupported platform")
			return
		}
		platform = p
	}
	var buf bytes.Buffer
	if err := export.CSV(&buf, b.Items(), platform, b.Settings.ExtensionMode); err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.SheetName(platform)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// ExportZIP bundles every platform sheet with the text report.
func (a *App) ExportZIP(w http.ResponseWriter, r *http.Request) {
	b, ok := a.batch(w, r)
	if !ok {
		return
	}
	data, err := export.Bundle(b.Items(), b.Settings, time.Now())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "metadata_"+b.ID+".zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
