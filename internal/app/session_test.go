package app

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/playback"
)

func hands(h ...detector.Hand) detector.Result {
	return detector.Result{Hands: h, Width: 640, Height: 480}
}

func boxes(nx, ny float64) detector.Result {
	return hands(detector.BoxHand(nx, ny, 640, 480, 0.8))
}

func TestSession_LandmarkCommandsDrivePlayback(t *testing.T) {
	s := NewSession(detector.KindLandmarks, 10)
	s.Load(300, 30, 2*time.Second)
	now := time.Now()

	ev, ok := s.ProcessDetection(hands(detector.OpenPalmLandmarks()), now)
	if !ok {
		t.Fatal("open palm should emit a command")
	}
	if ev.Type != EventCommand || ev.Command != gesture.CmdTogglePlayPause || ev.Symbol != gesture.TogglePlayPause {
		t.Errorf("event = %+v", ev)
	}
	if !ev.Playback.IsPlaying || ev.Playback.State != playback.Playing {
		t.Errorf("playback after toggle = %+v", ev.Playback)
	}
	if !ev.At.Equal(now) {
		t.Errorf("At = %v, want %v", ev.At, now)
	}

	// Held palm does not toggle again.
	if _, ok := s.ProcessDetection(hands(detector.OpenPalmLandmarks()), now); ok {
		t.Error("held palm should not emit")
	}

	ev, ok = s.ProcessDetection(hands(detector.PointingLandmarks(-0.25)), now)
	if !ok || ev.Command != gesture.CmdAdvance {
		t.Fatalf("pointing = %+v, %v", ev, ok)
	}
	if ev.Playback.Position != 60 {
		t.Errorf("Position = %d, want 60", ev.Playback.Position)
	}

	m := s.Metrics()
	if m.Detection.TotalFrames != 3 || m.Detection.FramesDetected != 3 {
		t.Errorf("detection = %+v", m.Detection)
	}
	if m.Gesture.TotalPredictions != 2 {
		t.Errorf("TotalPredictions = %d, want 2", m.Gesture.TotalPredictions)
	}
	if m.Detection.AvgConfidence != 0 || m.Detection.MaxHandsDetected != 0 {
		t.Errorf("landmark frames recorded confidence %f, hands %d",
			m.Detection.AvgConfidence, m.Detection.MaxHandsDetected)
	}
}

func TestSession_ToggleWithoutContent(t *testing.T) {
	s := NewSession(detector.KindLandmarks, 10)

	ev, ok := s.ProcessDetection(hands(detector.OpenPalmLandmarks()), time.Now())
	if !ok {
		t.Fatal("expected an event")
	}
	if ev.Error == "" {
		t.Error("toggle without content should report an error")
	}
	if ev.Playback.IsPlaying {
		t.Error("player should stay paused")
	}

	if _, err := s.Apply(gesture.CmdTogglePlayPause, time.Now()); !errors.Is(err, playback.ErrNoContent) {
		t.Errorf("Apply() error = %v, want ErrNoContent", err)
	}
}

func TestSession_EmptyFramesAreCounted(t *testing.T) {
	s := NewSession(detector.KindLandmarks, 10)
	present := true
	s.SetHandPresent(&present)

	s.ProcessDetection(detector.Result{}, time.Now())
	s.ProcessDetection(hands(detector.FistLandmarks()), time.Now())

	m := s.Metrics().Detection
	if m.TotalFrames != 2 || m.FramesDetected != 1 || m.FramesWithHand != 2 {
		t.Errorf("detection = %+v", m)
	}
	if m.TruePositiveRate != 50 {
		t.Errorf("TruePositiveRate = %f, want 50", m.TruePositiveRate)
	}
	if m.MaxHandsDetected != 0 {
		t.Errorf("MaxHandsDetected = %d, want 0 for landmarks", m.MaxHandsDetected)
	}
}

func TestSession_BoxStabilization(t *testing.T) {
	s := NewSession(detector.KindBoxes, 3)
	s.Load(300, 30, time.Second)
	now := time.Now()

	var events []Event
	for i := 0; i < 6; i++ {
		if ev, ok := s.ProcessDetection(boxes(0.8, 0.6), now); ok {
			events = append(events, ev)
		}
	}
	if len(events) != 1 || events[0].Command != gesture.CmdAdvance {
		t.Fatalf("events = %+v, want one advance", events)
	}
	if events[0].Playback.Position != 30 {
		t.Errorf("Position = %d, want 30", events[0].Playback.Position)
	}

	d := s.Metrics().Detection
	if math.Abs(d.AvgConfidence-0.8) > 1e-9 {
		t.Errorf("AvgConfidence = %f, want 0.8", d.AvgConfidence)
	}
	if d.MaxHandsDetected != 1 || d.AvgHandsPerFrame != 1 {
		t.Errorf("hands = %d max, %f avg, want 1", d.MaxHandsDetected, d.AvgHandsPerFrame)
	}
}

func TestSession_SetStableFrames(t *testing.T) {
	s := NewSession(detector.KindBoxes, 10)
	s.SetStableFrames(2)

	s.ProcessDetection(boxes(0.1, 0.6), time.Now())
	ev, ok := s.ProcessDetection(boxes(0.1, 0.6), time.Now())
	if !ok || ev.Command != gesture.CmdRewind {
		t.Errorf("second frame = %+v, %v, want rewind", ev, ok)
	}
}

func TestSession_DeclarationScoresPrediction(t *testing.T) {
	s := NewSession(detector.KindLandmarks, 10)
	at := time.Now()

	if err := s.DeclareGesture(gesture.None, at); err == nil {
		t.Error("declaring NONE should fail")
	}
	if err := s.DeclareGesture(gesture.Avancer, at); err != nil {
		t.Fatalf("DeclareGesture() error = %v", err)
	}

	s.ProcessDetection(hands(detector.PointingLandmarks(-0.25)), at.Add(100*time.Millisecond))
	s.ProcessDetection(hands(detector.PointingLandmarks(0.25)), at.Add(700*time.Millisecond))

	g := s.Metrics().Gesture
	if g.Confusion[gesture.Avancer][gesture.Avancer] != 1 {
		t.Errorf("confusion = %v", g.Confusion)
	}
	if g.Confusion[gesture.Avancer][gesture.Reculer] != 0 {
		t.Error("prediction outside the window was scored")
	}
	if g.Precision[gesture.Avancer] != 100 {
		t.Errorf("precision = %v", g.Precision)
	}
}

func TestSession_ApplyIsNotAPrediction(t *testing.T) {
	s := NewSession(detector.KindLandmarks, 10)
	s.Load(100, 25, time.Second)

	ev, err := s.Apply(gesture.CmdAdvance, time.Now())
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if ev.Playback.Position != 25 {
		t.Errorf("Position = %d, want 25", ev.Playback.Position)
	}
	if s.Metrics().Gesture.TotalPredictions != 0 {
		t.Error("Apply() should not record predictions")
	}
}

func TestSession_TickAndSeek(t *testing.T) {
	s := NewSession(detector.KindLandmarks, 10)
	s.Load(3, 30, time.Second)

	if pos, ended := s.Tick(); pos != 0 || ended {
		t.Errorf("paused Tick() = %d, %v", pos, ended)
	}

	s.Apply(gesture.CmdTogglePlayPause, time.Now())
	s.Tick()
	s.Tick()
	pos, ended := s.Tick()
	if pos != 2 || !ended {
		t.Errorf("Tick() = %d, %v, want 2, true", pos, ended)
	}
	if s.Playback().State != playback.Ended {
		t.Errorf("State = %s, want ended", s.Playback().State)
	}

	if snap := s.Seek(-5); snap.Position != 0 {
		t.Errorf("Seek(-5) position = %d, want 0", snap.Position)
	}
	if s.FrameInterval() != time.Second/30 {
		t.Errorf("FrameInterval() = %v", s.FrameInterval())
	}
}

func TestSession_ResetAccuracy(t *testing.T) {
	s := NewSession(detector.KindBoxes, 2)
	present := false
	s.SetHandPresent(&present)

	s.ProcessDetection(boxes(0.1, 0.6), time.Now())
	s.ResetAccuracy()

	if s.Metrics().Detection.TotalFrames != 0 {
		t.Error("ledger not cleared")
	}
	if s.HandPresent() != nil {
		t.Error("hand presence not cleared")
	}
	// The stabilizer restarted too: one more frame is not enough.
	if _, ok := s.ProcessDetection(boxes(0.1, 0.6), time.Now()); ok {
		t.Error("stabilizer count survived reset")
	}
}
