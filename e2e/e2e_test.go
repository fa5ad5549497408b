package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/accuracy"
	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
)

type harness struct {
	cfg   *config.Config
	store *store.Store
	app   *app.App
	det   *detector.MockDetector
	video *capture.MockVideo
	ts    *httptest.Server
}

func frames(t *testing.T, n int) []*gocv.Mat {
	t.Helper()
	out := make([]*gocv.Mat, n)
	for i := range out {
		m := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
		out[i] = &m
	}
	t.Cleanup(func() {
		for _, m := range out {
			m.Close()
		}
	})
	return out
}

func newHarness(t *testing.T, kind detector.Kind) *harness {
	t.Helper()
	dir := t.TempDir()

	s, err := store.New(filepath.Join(dir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	cfg := config.Default()
	cfg.DataDir = dir
	cfg.HooksDir = filepath.Join(dir, "hooks")
	cfg.Accuracy.ExportDir = filepath.Join(dir, "exports")
	cfg.Accuracy.AutosaveSchedule = ""
	cfg.Camera.FPS = 100
	cfg.Gesture.InferEvery = 1
	cfg.Gesture.StableFrames = 3
	cfg.Detector.Kind = kind

	a := app.New(app.Config{
		Settings: cfg,
		Store:    s,
		Camera:   capture.NewMockCamera(frames(t, 1), true),
	})
	det := detector.NewMockDetector(kind)
	a.SetDetector(det)

	video := capture.NewMockVideo(frames(t, 600), 30)
	a.LoadSource(video)

	ts := httptest.NewServer(server.New(server.Config{App: a, Store: s}))
	t.Cleanup(ts.Close)

	return &harness{cfg: cfg, store: s, app: a, det: det, video: video, ts: ts}
}

func (h *harness) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, h.ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	return resp
}

func waitEvent(t *testing.T, events <-chan app.Event, want func(app.Event) bool) app.Event {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-events:
			if want(ev) {
				return ev
			}
		case <-timeout:
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestE2E_LandmarkSessionWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	h := newHarness(t, detector.KindLandmarks)
	events, cancel := h.app.Subscribe()
	defer cancel()

	t.Run("DeclareGroundTruth", func(t *testing.T) {
		resp := h.do(t, http.MethodPut, "/api/truth/hand", `{"present":true}`)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("set hand status = %d", resp.StatusCode)
		}

		resp = h.do(t, http.MethodPost, "/api/truth/gesture", `{"symbol":"TOGGLE_PLAY_PAUSE"}`)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("declare status = %d", resp.StatusCode)
		}
	})

	// One open palm starts playback, then the hand leaves.
	h.det.Queue(detector.Result{Hands: []detector.Hand{detector.OpenPalmLandmarks()}})
	if err := h.app.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.app.Stop()

	t.Run("GestureStartsPlayback", func(t *testing.T) {
		ev := waitEvent(t, events, func(ev app.Event) bool { return ev.Type == app.EventCommand })
		if ev.Command != gesture.CmdTogglePlayPause || !ev.Playback.IsPlaying {
			t.Errorf("event = %+v", ev)
		}

		resp := h.do(t, http.MethodGet, "/api/playback", "")
		defer resp.Body.Close()
		var snap struct {
			IsPlaying bool `json:"is_playing"`
		}
		json.NewDecoder(resp.Body).Decode(&snap)
		if !snap.IsPlaying {
			t.Error("playback not running after gesture")
		}
	})

	t.Run("MetricsReflectGesture", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/api/accuracy", "")
		defer resp.Body.Close()

		var m accuracy.Metrics
		if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
			t.Fatalf("failed to decode metrics: %v", err)
		}
		if m.Gesture.TotalPredictions != 1 || m.Gesture.TotalDeclarations != 1 {
			t.Errorf("gesture metrics = %+v", m.Gesture)
		}
		if m.Gesture.Precision[gesture.TogglePlayPause] != 100 {
			t.Errorf("precision = %v", m.Gesture.Precision)
		}
		if m.Detection.FramesWithHand == 0 {
			t.Error("hand presence was not scored")
		}
	})

	t.Run("SaveAndExport", func(t *testing.T) {
		resp := h.do(t, http.MethodPost, "/api/sessions", `{"label":"e2e"}`)
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("save session status = %d", resp.StatusCode)
		}

		resp = h.do(t, http.MethodPost, "/api/accuracy/export", `{"format":"csv"}`)
		defer resp.Body.Close()
		var out struct {
			Path string `json:"path"`
		}
		json.NewDecoder(resp.Body).Decode(&out)
		data, err := os.ReadFile(out.Path)
		if err != nil {
			t.Fatalf("export not written: %v", err)
		}
		if !strings.Contains(string(data), "TOGGLE_PLAY_PAUSE") {
			t.Errorf("csv export missing gesture row:\n%s", data)
		}

		sessions, err := h.store.Sessions().List()
		if err != nil || len(sessions) != 1 {
			t.Fatalf("sessions = %v, err = %v", sessions, err)
		}
	})
}

func TestE2E_BoxStabilizationSeeks(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	h := newHarness(t, detector.KindBoxes)
	events, cancel := h.app.Subscribe()
	defer cancel()

	// A hand held on the right of the frame seeks forward once per episode.
	h.det.SetHands([]detector.Hand{detector.BoxHand(0.8, 0.7, 64, 48, 0.9)})
	if err := h.app.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.app.Stop()

	ev := waitEvent(t, events, func(ev app.Event) bool { return ev.Type == app.EventCommand })
	if ev.Command != gesture.CmdAdvance || ev.Playback.Position != 60 {
		t.Errorf("event = %+v, want advance to 60", ev)
	}

	time.Sleep(100 * time.Millisecond)
	if pos := h.app.Playback().Position; pos != 60 {
		t.Errorf("held hand seeked again: position = %d", pos)
	}
}

func TestE2E_HookReceivesCommands(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("shell script hooks not supported on Windows")
	}

	h := newHarness(t, detector.KindLandmarks)

	dir := filepath.Join(h.cfg.HooksDir, "recorder")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	logPath := filepath.Join(dir, "received.log")
	manifest := `{"name":"recorder","version":"1.0.0","executable":"run.sh","commands":["advance"]}`
	script := "#!/bin/sh\ncat >> " + logPath + "\necho >> " + logPath + "\necho '{\"success\":true}'\n"
	os.WriteFile(filepath.Join(dir, "hook.json"), []byte(manifest), 0644)
	os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0755)

	if err := h.app.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer h.app.Stop()

	for _, path := range []string{"/api/playback/toggle", "/api/playback/advance"} {
		resp := h.do(t, http.MethodPost, path, "")
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("POST %s status = %d", path, resp.StatusCode)
		}
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		data, _ := os.ReadFile(logPath)
		if len(data) > 0 {
			if !strings.Contains(string(data), `"command":"advance"`) {
				t.Errorf("hook received %s", data)
			}
			if strings.Contains(string(data), "toggle_play_pause") {
				t.Error("hook received a command it did not subscribe to")
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("hook was not invoked")
}
