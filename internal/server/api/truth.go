package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/mudra/internal/gesture"
)

// GroundTruth is the ground-truth input served by TruthHandler.
type GroundTruth interface {
	DeclareGesture(sym gesture.Symbol) error
	SetHandPresent(present *bool)
	HandPresent() *bool
}

// TruthHandler lets the user declare ground truth over HTTP.
type TruthHandler struct {
	truth GroundTruth
}

// NewTruthHandler creates a TruthHandler.
func NewTruthHandler(g GroundTruth) *TruthHandler {
	return &TruthHandler{truth: g}
}

// Router returns the routes mounted under /api/truth.
func (h *TruthHandler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/gesture", h.declare)
	r.Get("/hand", h.getHand)
	r.Put("/hand", h.setHand)
	r.Delete("/hand", h.clearHand)
	return r
}

type declareRequest struct {
	Symbol string `json:"symbol"`
}

func (h *TruthHandler) declare(w http.ResponseWriter, r *http.Request) {
	var req declareRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sym, ok := gesture.ParseSymbol(req.Symbol)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown symbol: "+req.Symbol)
		return
	}
	if err := h.truth.DeclareGesture(sym); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type handResponse struct {
	Present *bool `json:"present"`
}

func (h *TruthHandler) getHand(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, handResponse{Present: h.truth.HandPresent()})
}

func (h *TruthHandler) setHand(w http.ResponseWriter, r *http.Request) {
	var req handResponse
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Present == nil {
		writeError(w, http.StatusBadRequest, "present is required")
		return
	}
	h.truth.SetHandPresent(req.Present)
	writeJSON(w, http.StatusOK, handResponse{Present: h.truth.HandPresent()})
}

func (h *TruthHandler) clearHand(w http.ResponseWriter, r *http.Request) {
	h.truth.SetHandPresent(nil)
	w.WriteHeader(http.StatusNoContent)
}
