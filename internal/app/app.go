// Package app wires the camera, the detector, the gesture stabilizer, the
// playback controller and the accuracy tracker into running loops.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/hook"
	"github.com/ayusman/mudra/internal/playback"
	"github.com/ayusman/mudra/internal/store"
)

// HookTimeout bounds a single hook run.
const HookTimeout = 2 * time.Second

// ErrNoVideo is returned when a video operation needs a loaded source.
var ErrNoVideo = errors.New("no video loaded")

// Config holds the dependencies of an App.
type Config struct {
	// Settings is the file and environment configuration. Store setting
	// overrides are merged on top of it.
	Settings *config.Config
	Store    *store.Store
	// Camera overrides the gocv camera built from Settings.
	Camera capture.Camera
}

// App runs the camera loop that turns gestures into playback commands and
// the playback loop that advances the loaded video.
type App struct {
	base    *config.Config
	cfg     *config.Config
	store   *store.Store
	session *Session
	events  *broadcaster
	frames  *frames

	camera      capture.Camera
	newDetector func(detector.Config) (detector.Detector, error)
	openVideo   func(string) (capture.Source, error)

	hooks    *hook.Manager
	dispatch *hook.Dispatcher
	autosave *autosaver

	mu       sync.RWMutex
	video    capture.Source
	detector detector.Detector
	enabled  bool
	stopCh   chan struct{}
	wg       sync.WaitGroup

	cameraReset   chan struct{}
	playbackReset chan struct{}
}

// New creates an App. Store setting overrides are merged into the
// configuration immediately.
func New(cfg Config) *App {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}

	cam := cfg.Camera
	if cam == nil {
		cam = capture.NewCamera(settings.Camera)
	}

	a := &App{
		base:          settings,
		cfg:           settings,
		store:         cfg.Store,
		events:        newBroadcaster(),
		frames:        &frames{},
		camera:        cam,
		newDetector:   detector.New,
		openVideo:     openVideoFile,
		hooks:         hook.NewManager(settings.HooksDir),
		enabled:       true,
		cameraReset:   make(chan struct{}, 1),
		playbackReset: make(chan struct{}, 1),
	}

	merged, err := a.merged()
	if err != nil {
		log.Printf("[app] ignoring stored settings: %v", err)
	} else {
		a.cfg = merged
	}

	a.session = NewSession(a.cfg.Detector.Kind, a.cfg.Gesture.StableFrames)
	a.session.SetSkip(a.cfg.Skip())
	a.autosave = newAutosaver(a)
	return a
}

func openVideoFile(path string) (capture.Source, error) {
	return capture.OpenVideoFile(path)
}

// SetDetector makes Start use d instead of the subprocess detector
// selected by the configuration.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.newDetector = func(detector.Config) (detector.Detector, error) { return d, nil }
}

// SetEnabled enables or disables gesture processing. Playback keeps running.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether gesture processing is enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// IsRunning reports whether the loops are running.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Config returns the effective configuration.
func (a *App) Config() config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return *a.cfg
}

// Session returns the core state shared by the loops.
func (a *App) Session() *Session {
	return a.session
}

// Hooks returns the hook manager.
func (a *App) Hooks() *hook.Manager {
	return a.hooks
}

// Subscribe returns a channel of emitted events and a function that
// cancels the subscription.
func (a *App) Subscribe() (<-chan Event, func()) {
	return a.events.subscribe()
}

// Start acquires the camera and the detector, discovers hooks, loads the
// configured video and starts the loops.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("failed to open camera: %w", err)
	}
	a.camera.SetFPS(a.cfg.Camera.FPS)

	det, err := a.newDetector(a.cfg.Detector)
	if err != nil {
		log.Printf("[app] detector not available (%v), using mock detector", err)
		det = detector.NewMockDetector(a.cfg.Detector.Kind)
	}
	a.detector = det

	if err := a.hooks.Discover(); err != nil {
		log.Printf("[app] hook discovery failed: %v", err)
	}
	a.dispatch = hook.NewDispatcher(a.hooks, hook.NewExecutor(HookTimeout))

	if a.video == nil && a.cfg.Playback.VideoPath != "" {
		if err := a.loadVideoLocked(a.cfg.Playback.VideoPath); err != nil {
			log.Printf("[app] %v", err)
		}
	}

	if err := a.autosave.start(a.cfg.Accuracy.AutosaveSchedule); err != nil {
		log.Printf("[app] autosave disabled: %v", err)
	}

	a.stopCh = make(chan struct{})
	a.wg.Add(2)
	go a.runCamera(det, a.stopCh)
	go a.runPlayback(a.stopCh)

	log.Printf("[app] started with %s detector at %d fps", det.Kind(), a.camera.FPS())
	return nil
}

// Stop halts the loops and releases the camera, the detector and the
// video source. In-flight detector calls complete first.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopCh == nil {
		a.mu.Unlock()
		return
	}
	close(a.stopCh)
	a.stopCh = nil
	a.mu.Unlock()

	a.wg.Wait()
	a.autosave.stop()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dispatch != nil {
		a.dispatch.Stop()
		a.dispatch = nil
	}
	if err := a.camera.Close(); err != nil {
		log.Printf("[app] error closing camera: %v", err)
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("[app] error closing detector: %v", err)
		}
		a.detector = nil
	}
	if a.video != nil {
		if err := a.video.Close(); err != nil {
			log.Printf("[app] error closing video: %v", err)
		}
		a.video = nil
	}
	a.frames.close()

	log.Println("[app] stopped")
}

// LoadVideo opens the video file at path and loads it into the player.
func (a *App) LoadVideo(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadVideoLocked(path)
}

func (a *App) loadVideoLocked(path string) error {
	src, err := a.openVideo(path)
	if err != nil {
		return fmt.Errorf("failed to load video %s: %w", path, err)
	}
	a.setSourceLocked(src)
	log.Printf("[app] loaded %s (%d frames at %.2f fps)", path, src.FrameCount(), src.FPS())
	return nil
}

// LoadSource loads src into the player, closing the previous source.
func (a *App) LoadSource(src capture.Source) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setSourceLocked(src)
}

func (a *App) setSourceLocked(src capture.Source) {
	if a.video != nil && a.video != src {
		a.video.Close()
	}
	a.video = src
	a.session.Load(src.FrameCount(), src.FPS(), a.cfg.Skip())
	a.frames.setVideo(nil)

	select {
	case a.playbackReset <- struct{}{}:
	default:
	}
}

// Command applies a playback command issued outside the camera loop and
// publishes it like a gesture command.
func (a *App) Command(cmd gesture.Command) (Event, error) {
	ev, err := a.session.Apply(cmd, time.Now())
	if err != nil {
		return Event{}, err
	}
	a.publish(ev)
	return ev, nil
}

// Seek moves playback to pos.
func (a *App) Seek(pos int) playback.Snapshot {
	return a.session.Seek(pos)
}

// Playback returns the playback state.
func (a *App) Playback() playback.Snapshot {
	return a.session.Playback()
}

// publish broadcasts ev and hands it to hooks.
func (a *App) publish(ev Event) {
	a.events.publish(ev)

	if ev.Type != EventCommand {
		return
	}

	a.mu.RLock()
	d := a.dispatch
	a.mu.RUnlock()
	if d == nil {
		return
	}
	d.Dispatch(hook.Request{
		Command:     string(ev.Command),
		Symbol:      string(ev.Symbol),
		Position:    ev.Playback.Position,
		TotalLength: ev.Playback.TotalLength,
		IsPlaying:   ev.Playback.IsPlaying,
		At:          ev.At,
	})
}
