package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/playback"
)

// Player is the playback surface served by PlaybackHandler.
type Player interface {
	Playback() playback.Snapshot
	Command(cmd gesture.Command) (app.Event, error)
	Seek(pos int) playback.Snapshot
}

// PlaybackHandler exposes the playback controller.
type PlaybackHandler struct {
	player Player
}

// NewPlaybackHandler creates a PlaybackHandler.
func NewPlaybackHandler(p Player) *PlaybackHandler {
	return &PlaybackHandler{player: p}
}

// Router returns the routes mounted under /api/playback.
func (h *PlaybackHandler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.get)
	r.Post("/toggle", h.command(gesture.CmdTogglePlayPause))
	r.Post("/advance", h.command(gesture.CmdAdvance))
	r.Post("/rewind", h.command(gesture.CmdRewind))
	r.Put("/position", h.seek)
	return r
}

func (h *PlaybackHandler) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.player.Playback())
}

func (h *PlaybackHandler) command(cmd gesture.Command) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev, err := h.player.Command(cmd)
		if err != nil {
			if errors.Is(err, playback.ErrNoContent) {
				writeError(w, http.StatusConflict, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, ev.Playback)
	}
}

type seekRequest struct {
	Position *int `json:"position"`
}

func (h *PlaybackHandler) seek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Position == nil {
		writeError(w, http.StatusBadRequest, "position is required")
		return
	}
	writeJSON(w, http.StatusOK, h.player.Seek(*req.Position))
}
