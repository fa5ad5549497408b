package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/accuracy"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/playback"
)

// Event types.
const (
	// EventCommand reports an applied playback command.
	EventCommand = "command"
	// EventEnded reports that playback reached the end of the content.
	EventEnded = "ended"
)

// Event describes a command emitted by the stabilizer, or the end of
// content, with the playback state right after it.
type Event struct {
	Type     string            `json:"type"`
	Command  gesture.Command   `json:"command,omitempty"`
	Symbol   gesture.Symbol    `json:"symbol,omitempty"`
	At       time.Time         `json:"at"`
	Playback playback.Snapshot `json:"playback"`
	Error    string            `json:"error,omitempty"`
}

// Session owns the stabilizer, the playback controller and the accuracy
// tracker. Every access goes through its mutex.
type Session struct {
	mu         sync.Mutex
	kind       detector.Kind
	stable     int
	stabilizer gesture.Stabilizer
	controller *playback.Controller
	tracker    *accuracy.Tracker

	// pending collects what the stabilizer handlers produce during Process.
	pending *Event
}

// NewSession creates a session for detectors of the given kind.
func NewSession(kind detector.Kind, stableFrames int) *Session {
	s := &Session{
		kind:       kind,
		stable:     stableFrames,
		controller: playback.NewController(),
		tracker:    accuracy.NewTracker(),
	}
	s.stabilizer = s.newStabilizer()
	return s
}

func (s *Session) newStabilizer() gesture.Stabilizer {
	return gesture.NewStabilizer(s.kind, s.stable, gesture.Handlers{
		OnCommand:    s.applyCommand,
		OnPrediction: s.tracker.RecordPrediction,
	})
}

// applyCommand runs inside Process with the lock held.
func (s *Session) applyCommand(cmd gesture.Command) {
	ev := &Event{Type: EventCommand, Command: cmd, Symbol: cmd.Symbol()}
	if err := s.controller.Apply(cmd); err != nil {
		ev.Error = err.Error()
	}
	s.pending = ev
}

// Kind returns the detector kind the session classifies for.
func (s *Session) Kind() detector.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind
}

// ProcessDetection records one camera frame and feeds it through the
// stabilizer. It returns the emitted event, if any.
func (s *Session) ProcessDetection(res detector.Result, at time.Time) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Only box detectors report a comparable score, so landmark frames
	// record detection alone.
	switch {
	case res.Empty():
		s.tracker.RecordFrame(false, nil, nil, nil)
	case s.kind == detector.KindBoxes:
		score := res.BestScore()
		hands := len(res.Hands)
		s.tracker.RecordFrame(true, nil, &score, &hands)
	default:
		s.tracker.RecordFrame(true, nil, nil, nil)
	}

	s.pending = nil
	s.stabilizer.Process(res, at)
	if s.pending == nil {
		return Event{}, false
	}

	ev := *s.pending
	s.pending = nil
	ev.At = at
	ev.Playback = s.controller.State()
	return ev, true
}

// SetStableFrames changes the box stabilization threshold. The
// stabilizer restarts from a clean state.
func (s *Session) SetStableFrames(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n == s.stable {
		return
	}
	s.stable = n
	s.stabilizer = s.newStabilizer()
}

// Load prepares the controller for content of total frames.
func (s *Session) Load(total int, fps float64, skip time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.Load(total, fps, skip)
}

// SetSkip changes the seek step.
func (s *Session) SetSkip(skip time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.SetSkip(skip)
}

// Tick advances playback by one frame. It reports the position to show
// and whether content just ended.
func (s *Session) Tick() (pos int, ended bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ended = s.controller.Tick()
	return s.controller.Position(), ended
}

// Apply runs a command issued outside the stabilizer, such as an API call.
// It is not recorded as a prediction.
func (s *Session) Apply(cmd gesture.Command, at time.Time) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.controller.Apply(cmd); err != nil {
		return Event{}, err
	}
	return Event{Type: EventCommand, Command: cmd, Symbol: cmd.Symbol(), At: at, Playback: s.controller.State()}, nil
}

// Seek moves playback to pos, clamped to the content.
func (s *Session) Seek(pos int) playback.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.SetPosition(pos)
	return s.controller.State()
}

// Playback returns the playback state.
func (s *Session) Playback() playback.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.State()
}

// FrameInterval returns the playback tick interval.
func (s *Session) FrameInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.FrameInterval()
}

// DeclareGesture records a ground-truth gesture declaration.
func (s *Session) DeclareGesture(sym gesture.Symbol, at time.Time) error {
	if sym == gesture.None {
		return fmt.Errorf("cannot declare %s", sym)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.DeclareGroundTruthGesture(sym, at)
	return nil
}

// SetHandPresent sets or, with nil, clears ground-truth hand presence.
func (s *Session) SetHandPresent(present *bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.SetHandPresent(present)
}

// HandPresent returns the ground-truth hand presence.
func (s *Session) HandPresent() *bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.HandPresent()
}

// Metrics returns a snapshot of the accuracy metrics.
func (s *Session) Metrics() accuracy.Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Metrics()
}

// Report returns the exportable accuracy report.
func (s *Session) Report() accuracy.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Report()
}

// Export encodes the accuracy report in format.
func (s *Session) Export(format accuracy.Format) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Export(format)
}

// SaveFile writes the accuracy report to path.
func (s *Session) SaveFile(path string, format accuracy.Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.SaveFile(path, format)
}

// ResetAccuracy clears the accuracy ledger and the stabilizer.
func (s *Session) ResetAccuracy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.Reset()
	s.stabilizer.Reset()
}
