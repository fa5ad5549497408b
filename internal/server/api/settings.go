package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/mudra/internal/config"
)

// SettingsStore reads and changes setting overrides.
type SettingsStore interface {
	Settings() (map[string]string, error)
	UpdateSetting(key, value string) error
	DeleteSetting(key string) error
}

// SettingsHandler serves setting overrides.
type SettingsHandler struct {
	settings SettingsStore
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(s SettingsStore) *SettingsHandler {
	return &SettingsHandler{settings: s}
}

// Router returns the routes mounted under /api/settings.
func (h *SettingsHandler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Put("/{key}", h.update)
	r.Delete("/{key}", h.delete)
	return r
}

type settingsResponse struct {
	Settings map[string]string `json:"settings"`
	Keys     []string          `json:"keys"`
}

func (h *SettingsHandler) list(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Settings()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read settings")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Settings: settings, Keys: config.SettingKeys})
}

type updateSettingRequest struct {
	Value string `json:"value"`
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	key := chi.URLParam(r, "key")
	if err := config.ValidateSetting(key, req.Value); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.settings.UpdateSetting(key, req.Value); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SettingsHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.DeleteSetting(chi.URLParam(r, "key")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
