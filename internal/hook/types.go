// Package hook runs external executables when playback commands fire.
//
// A hook lives in its own directory under the hooks directory and is
// described by a hook.json manifest. It receives one JSON Request on stdin
// per command and answers with one JSON Response on stdout.
package hook

import (
	"encoding/json"
	"slices"
	"time"
)

// Manifest describes a hook and the commands it subscribes to.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Executable  string `json:"executable"`
	// Commands lists the command names the hook receives. Empty means all.
	Commands []string        `json:"commands,omitempty"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// Request is sent to a hook for every emitted command.
type Request struct {
	Command     string          `json:"command"`
	Symbol      string          `json:"symbol"`
	Position    int             `json:"position"`
	TotalLength int             `json:"total_length"`
	IsPlaying   bool            `json:"is_playing"`
	At          time.Time       `json:"at"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Response is the reply of a hook.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Wants reports whether the hook subscribes to command.
func (h *Hook) Wants(command string) bool {
	return len(h.Manifest.Commands) == 0 || slices.Contains(h.Manifest.Commands, command)
}
