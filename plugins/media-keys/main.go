// Package main provides a hook that forwards playback commands to the
// focused media player as key presses. It uses AppleScript on macOS and
// xdotool elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the hook executor.
type Request struct {
	Command     string          `json:"command"`
	Symbol      string          `json:"symbol"`
	Position    int             `json:"position"`
	TotalLength int             `json:"total_length"`
	IsPlaying   bool            `json:"is_playing"`
	Config      json.RawMessage `json:"config"`
}

// Response represents the output to the hook executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Binding is the key sent for a command.
type Binding struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// Config overrides the default bindings per command.
type Config struct {
	Bindings map[string]Binding `json:"bindings"`
}

var defaultBindings = map[string]Binding{
	"toggle_play_pause": {Key: "space"},
	"advance":           {Key: "right"},
	"rewind":            {Key: "left"},
}

// appleKeyCodes maps named keys to macOS virtual key codes.
var appleKeyCodes = map[string]int{
	"space": 49,
	"left":  123,
	"right": 124,
	"down":  125,
	"up":    126,
}

var xdotoolKeys = map[string]string{
	"space": "space",
	"left":  "Left",
	"right": "Right",
	"down":  "Down",
	"up":    "Up",
}

var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

var xdotoolModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	b, err := bindingFor(req.Command, req.Config)
	if err != nil {
		writeResponse(Response{Error: err.Error()})
		return
	}

	name, args := keyCommand(runtime.GOOS, b)
	if out, err := exec.Command(name, args...).CombinedOutput(); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("%s %s: %v: %s", req.Command, b.Key, err, out)})
		return
	}

	writeResponse(Response{Success: true})
}

// bindingFor resolves the key for command, preferring configured bindings.
func bindingFor(command string, raw json.RawMessage) (Binding, error) {
	if len(raw) > 0 {
		var cfg Config
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return Binding{}, fmt.Errorf("failed to parse config: %w", err)
		}
		if b, ok := cfg.Bindings[command]; ok && b.Key != "" {
			return b, nil
		}
	}
	if b, ok := defaultBindings[command]; ok {
		return b, nil
	}
	return Binding{}, fmt.Errorf("unknown command: %s", command)
}

// keyCommand builds the program and arguments that press b on goos.
func keyCommand(goos string, b Binding) (string, []string) {
	if goos == "darwin" {
		return "osascript", []string{"-e", appleScript(b)}
	}

	key := b.Key
	if k, ok := xdotoolKeys[strings.ToLower(key)]; ok {
		key = k
	}
	var parts []string
	for _, mod := range b.Modifiers {
		if m, ok := xdotoolModifiers[strings.ToLower(mod)]; ok {
			parts = append(parts, m)
		}
	}
	parts = append(parts, key)
	return "xdotool", []string{"key", strings.Join(parts, "+")}
}

func appleScript(b Binding) string {
	press := fmt.Sprintf(`keystroke "%s"`, b.Key)
	if code, ok := appleKeyCodes[strings.ToLower(b.Key)]; ok {
		press = fmt.Sprintf("key code %d", code)
	}

	var mods []string
	for _, mod := range b.Modifiers {
		if m, ok := modifierMap[strings.ToLower(mod)]; ok {
			mods = append(mods, m)
		}
	}
	if len(mods) == 0 {
		return fmt.Sprintf(`tell application "System Events" to %s`, press)
	}
	return fmt.Sprintf(`tell application "System Events" to %s using {%s}`, press, strings.Join(mods, ", "))
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
