package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/mudra/internal/accuracy"
)

// Ledger is the accuracy surface served by AccuracyHandler.
type Ledger interface {
	Metrics() accuracy.Metrics
	Export(format accuracy.Format) ([]byte, error)
	ExportFile(format accuracy.Format) (string, error)
	ResetAccuracy()
}

// AccuracyHandler exposes the accuracy metrics and their exports.
type AccuracyHandler struct {
	ledger Ledger
}

// NewAccuracyHandler creates an AccuracyHandler.
func NewAccuracyHandler(l Ledger) *AccuracyHandler {
	return &AccuracyHandler{ledger: l}
}

// Router returns the routes mounted under /api/accuracy.
func (h *AccuracyHandler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.metrics)
	r.Post("/reset", h.reset)
	r.Get("/export", h.export)
	r.Post("/export", h.exportFile)
	r.Get("/confusion.png", h.confusion(accuracy.FormatPNG))
	r.Get("/confusion.webp", h.confusion(accuracy.FormatWebP))
	return r
}

func (h *AccuracyHandler) metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.Metrics())
}

func (h *AccuracyHandler) reset(w http.ResponseWriter, r *http.Request) {
	h.ledger.ResetAccuracy()
	w.WriteHeader(http.StatusNoContent)
}

var contentTypes = map[accuracy.Format]string{
	accuracy.FormatJSON: "application/json",
	accuracy.FormatCSV:  "text/csv",
	accuracy.FormatPNG:  "image/png",
	accuracy.FormatWebP: "image/webp",
}

// export handles GET /api/accuracy/export?format=json|csv|png|webp.
func (h *AccuracyHandler) export(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(accuracy.FormatJSON)
	}
	format, err := accuracy.ParseFormat(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.ledger.Export(format)
	if err != nil {
		writeExportError(w, err)
		return
	}

	filename := fmt.Sprintf("accuracy-%s.%s", time.Now().Format("20060102-150405"), format)
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

type exportFileRequest struct {
	Format string `json:"format"`
}

type exportFileResponse struct {
	Path string `json:"path"`
}

// exportFile handles POST /api/accuracy/export, writing into the export directory.
func (h *AccuracyHandler) exportFile(w http.ResponseWriter, r *http.Request) {
	req := exportFileRequest{Format: string(accuracy.FormatJSON)}
	if r.ContentLength != 0 {
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	format, err := accuracy.ParseFormat(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	path, err := h.ledger.ExportFile(format)
	if err != nil {
		writeExportError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exportFileResponse{Path: path})
}

func (h *AccuracyHandler) confusion(format accuracy.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := h.ledger.Export(format)
		if err != nil {
			writeExportError(w, err)
			return
		}
		w.Header().Set("Content-Type", contentTypes[format])
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func writeExportError(w http.ResponseWriter, err error) {
	if errors.Is(err, accuracy.ErrNoConfusionData) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
