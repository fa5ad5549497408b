package hook

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeHook creates dir/name with a hook.json manifest and an executable
// shell script.
func writeHook(t *testing.T, dir string, m Manifest, script string) *Hook {
	t.Helper()

	hookDir := filepath.Join(dir, m.Name)
	if err := os.MkdirAll(hookDir, 0755); err != nil {
		t.Fatalf("failed to create hook dir: %v", err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(hookDir, ManifestFile), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	exe := filepath.Join(hookDir, m.Executable)
	if err := os.WriteFile(exe, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return &Hook{Manifest: m, Path: hookDir, Executable: exe}
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}
}

func TestManager_Discover(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, Manifest{Name: "beta", Version: "1.0.0", Executable: "run.sh"}, "#!/bin/sh\n")
	writeHook(t, dir, Manifest{
		Name:       "alpha",
		Version:    "0.2.0",
		Executable: "run.sh",
		Commands:   []string{"toggle_play_pause"},
	}, "#!/bin/sh\n")

	// Ignored: no manifest, bad manifest, manifest without executable.
	os.MkdirAll(filepath.Join(dir, "empty"), 0755)
	os.MkdirAll(filepath.Join(dir, "broken"), 0755)
	os.WriteFile(filepath.Join(dir, "broken", ManifestFile), []byte("{"), 0644)
	os.MkdirAll(filepath.Join(dir, "noexec"), 0755)
	os.WriteFile(filepath.Join(dir, "noexec", ManifestFile), []byte(`{"name":"noexec"}`), 0644)
	os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0644)

	m := NewManager(dir)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	hooks := m.List()
	if len(hooks) != 2 {
		t.Fatalf("expected 2 hooks, got %d", len(hooks))
	}
	if hooks[0].Manifest.Name != "alpha" || hooks[1].Manifest.Name != "beta" {
		t.Errorf("List() order = %s, %s", hooks[0].Manifest.Name, hooks[1].Manifest.Name)
	}
	if hooks[0].Executable != filepath.Join(dir, "alpha", "run.sh") {
		t.Errorf("Executable = %s", hooks[0].Executable)
	}

	if _, err := m.Get("beta"); err != nil {
		t.Errorf("Get(beta) error = %v", err)
	}
	if _, err := m.Get("gamma"); !errors.Is(err, ErrHookNotFound) {
		t.Errorf("Get(gamma) error = %v, want ErrHookNotFound", err)
	}
	if m.Dir() != dir {
		t.Errorf("Dir() = %s", m.Dir())
	}
}

func TestManager_Discover_MissingDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "none"))
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() on missing dir error = %v", err)
	}
	if len(m.List()) != 0 {
		t.Error("expected no hooks")
	}
}

func TestManager_For(t *testing.T) {
	dir := t.TempDir()
	writeHook(t, dir, Manifest{Name: "all", Executable: "run.sh"}, "#!/bin/sh\n")
	writeHook(t, dir, Manifest{Name: "seek", Executable: "run.sh", Commands: []string{"advance", "rewind"}}, "#!/bin/sh\n")

	m := NewManager(dir)
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		command string
		want    []string
	}{
		{"advance", []string{"all", "seek"}},
		{"rewind", []string{"all", "seek"}},
		{"toggle_play_pause", []string{"all"}},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			var got []string
			for _, h := range m.For(tt.command) {
				got = append(got, h.Manifest.Name)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("For(%s) = %v, want %v", tt.command, got, tt.want)
			}
		})
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	skipOnWindows(t)

	h := writeHook(t, t.TempDir(), Manifest{
		Name:       "echo",
		Executable: "echo.sh",
		Config:     json.RawMessage(`{"volume":3}`),
	}, `#!/bin/sh
INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`)

	req := Request{
		Command:     "advance",
		Symbol:      "AVANCER",
		Position:    60,
		TotalLength: 300,
		IsPlaying:   true,
		At:          time.Unix(1700000000, 0).UTC(),
	}

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), h, req)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success")
	}

	var data struct {
		Received struct {
			Command  string         `json:"command"`
			Symbol   string         `json:"symbol"`
			Position int            `json:"position"`
			Config   map[string]int `json:"config"`
		} `json:"received"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data.Received.Command != "advance" || data.Received.Symbol != "AVANCER" || data.Received.Position != 60 {
		t.Errorf("received = %+v", data.Received)
	}
	if data.Received.Config["volume"] != 3 {
		t.Errorf("manifest config not forwarded: %+v", data.Received.Config)
	}
}

func TestExecutor_Execute_Failures(t *testing.T) {
	skipOnWindows(t)

	tests := []struct {
		name    string
		script  string
		timeout time.Duration
		errPart string
	}{
		{"timeout", "#!/bin/sh\nsleep 10\necho '{\"success\":true}'\n", 100 * time.Millisecond, "timed out"},
		{"non-zero exit", "#!/bin/sh\necho 'boom' >&2\nexit 1\n", time.Second * 5, "boom"},
		{"invalid json", "#!/bin/sh\necho 'not valid json'\n", time.Second * 5, "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := writeHook(t, t.TempDir(), Manifest{Name: "bad", Executable: "bad.sh"}, tt.script)

			_, err := NewExecutor(tt.timeout).Execute(context.Background(), h, Request{Command: "advance"})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("error %q does not mention %q", err, tt.errPart)
			}
		})
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	skipOnWindows(t)

	h := writeHook(t, t.TempDir(), Manifest{Name: "fail", Executable: "fail.sh"},
		"#!/bin/sh\necho '{\"success\":false,\"error\":\"no player\"}'\n")

	resp, err := NewExecutor(0).Execute(context.Background(), h, Request{Command: "rewind"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Success || resp.Error != "no player" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestNewExecutor_DefaultTimeout(t *testing.T) {
	if e := NewExecutor(0); e.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", e.timeout, DefaultTimeout)
	}
	if e := NewExecutor(time.Second); e.timeout != time.Second {
		t.Errorf("timeout = %v, want 1s", e.timeout)
	}
}

func TestDispatcher_DeliversToSubscribers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping hook dispatch test in short mode")
	}
	skipOnWindows(t)

	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "calls.log")
	script := "#!/bin/sh\nINPUT=$(cat)\necho \"$INPUT\" >> " + out + "\necho '{\"success\":true}'\n"
	writeHook(t, dir, Manifest{Name: "toggle-only", Executable: "run.sh", Commands: []string{"toggle_play_pause"}}, script)

	m := NewManager(dir)
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}
	d := NewDispatcher(m, NewExecutor(5*time.Second))

	if !d.Dispatch(Request{Command: "advance", Symbol: "AVANCER"}) {
		t.Fatal("Dispatch(advance) was not queued")
	}
	if !d.Dispatch(Request{Command: "toggle_play_pause", Symbol: "TOGGLE_PLAY_PAUSE"}) {
		t.Fatal("Dispatch(toggle) was not queued")
	}

	deadline := time.Now().Add(5 * time.Second)
	var data []byte
	for time.Now().Before(deadline) {
		data, _ = os.ReadFile(out)
		if strings.Contains(string(data), "toggle_play_pause") {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	d.Stop()

	if !strings.Contains(string(data), "toggle_play_pause") {
		t.Fatalf("toggle was not delivered, log = %q", data)
	}
	if strings.Contains(string(data), `"advance"`) {
		t.Errorf("unsubscribed command was delivered, log = %q", data)
	}
}

func TestDispatcher_StopRejectsRequests(t *testing.T) {
	d := NewDispatcher(NewManager(t.TempDir()), NewExecutor(0))
	d.Stop()
	d.Stop()

	if d.Dispatch(Request{Command: "advance"}) {
		t.Error("Dispatch() after Stop() should not queue")
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d := &Dispatcher{queue: make(chan Request, 1)}

	if !d.Dispatch(Request{Command: "advance"}) {
		t.Fatal("first request should be queued")
	}
	if d.Dispatch(Request{Command: "rewind"}) {
		t.Error("second request should be dropped")
	}
	if d.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", d.Dropped())
	}
}

func TestHook_Wants(t *testing.T) {
	all := &Hook{Manifest: Manifest{Name: "all"}}
	if !all.Wants("advance") {
		t.Error("hook without filter should want every command")
	}
	some := &Hook{Manifest: Manifest{Name: "some", Commands: []string{"rewind"}}}
	if some.Wants("advance") || !some.Wants("rewind") {
		t.Error("filtered hook matched wrong commands")
	}
}
