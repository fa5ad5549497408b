package gesture

import (
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// DefaultStableFrames is how many consecutive identical symbols the
// bounding-box policy needs before acting.
const DefaultStableFrames = 10

// Stabilizer turns a per-frame stream of detections into edge-triggered
// commands. Process returns at most one command per frame, CmdNone otherwise.
// Implementations are not safe for concurrent use.
type Stabilizer interface {
	Process(res detector.Result, at time.Time) Command
	Reset()
}

// Handlers receive the output of a stabilizer.
type Handlers struct {
	// OnCommand is called with every emitted command.
	OnCommand func(Command)
	// OnPrediction is called with the symbol of every emitted command.
	OnPrediction func(Symbol, time.Time)
}

func (h Handlers) emit(cmd Command, at time.Time) {
	if cmd == CmdNone {
		return
	}
	if h.OnCommand != nil {
		h.OnCommand(cmd)
	}
	if h.OnPrediction != nil {
		h.OnPrediction(cmd.Symbol(), at)
	}
}

// NewStabilizer returns the stabilization policy for the detector kind.
// stableFrames only applies to bounding-box detectors.
func NewStabilizer(kind detector.Kind, stableFrames int, h Handlers) Stabilizer {
	if kind == detector.KindBoxes {
		s := NewBoxStabilizer(stableFrames)
		s.Handlers = h
		return s
	}
	s := NewLandmarkStabilizer()
	s.Handlers = h
	return s
}

// LandmarkStabilizer acts on every processed frame. A flat hand toggles
// playback only on its rising edge; directional gestures fire on every frame
// they persist.
type LandmarkStabilizer struct {
	Handlers

	classifier LandmarkClassifier
	lastPlate  bool
}

// NewLandmarkStabilizer creates a LandmarkStabilizer.
func NewLandmarkStabilizer() *LandmarkStabilizer {
	return &LandmarkStabilizer{}
}

// Process classifies every hand in frame order. The first command produced
// by any hand is emitted.
func (s *LandmarkStabilizer) Process(res detector.Result, at time.Time) Command {
	if res.Empty() {
		s.lastPlate = false
		return CmdNone
	}

	cmd := CmdNone
	for i := range res.Hands {
		sym := s.classifier.ClassifyHand(&res.Hands[i])
		plate := sym == TogglePlayPause

		var c Command
		switch {
		case plate && !s.lastPlate:
			c = CmdTogglePlayPause
		case sym == Avancer:
			c = CmdAdvance
		case sym == Reculer:
			c = CmdRewind
		}
		s.lastPlate = plate

		if cmd == CmdNone {
			cmd = c
		}
	}

	s.emit(cmd, at)
	return cmd
}

// Reset returns the stabilizer to its initial state.
func (s *LandmarkStabilizer) Reset() {
	s.lastPlate = false
}

// BoxStabilizer requires a symbol to repeat for a number of consecutive
// frames before acting on it. A stable toggle fires on its rising edge, a
// stable seek fires once per stabilization episode.
type BoxStabilizer struct {
	Handlers

	classifier BoxClassifier
	threshold  int

	last       Symbol
	count      int
	lastCenter bool
	fired      bool
}

// NewBoxStabilizer creates a BoxStabilizer. Thresholds below 1 fall back
// to DefaultStableFrames.
func NewBoxStabilizer(threshold int) *BoxStabilizer {
	if threshold < 1 {
		threshold = DefaultStableFrames
	}
	return &BoxStabilizer{threshold: threshold, last: None}
}

// Threshold returns the number of frames a symbol must persist.
func (s *BoxStabilizer) Threshold() int {
	return s.threshold
}

// Process feeds one frame.
func (s *BoxStabilizer) Process(res detector.Result, at time.Time) Command {
	if res.Empty() {
		s.Reset()
		return CmdNone
	}

	sym := s.classifier.Classify(res)
	if sym == s.last && s.count > 0 {
		if s.count < s.threshold {
			s.count++
		}
	} else {
		s.last = sym
		s.count = 1
		s.fired = false
	}

	stable := s.count >= s.threshold
	cmd := CmdNone
	if stable {
		switch sym {
		case TogglePlayPause:
			if !s.lastCenter {
				cmd = CmdTogglePlayPause
			}
		case Avancer, Reculer:
			if !s.fired {
				cmd = CommandFor(sym)
				s.fired = true
			}
		}
	}
	s.lastCenter = stable && sym == TogglePlayPause

	s.emit(cmd, at)
	return cmd
}

// Reset clears the consecutive counter, last symbol and edge state.
func (s *BoxStabilizer) Reset() {
	s.last = None
	s.count = 0
	s.lastCenter = false
	s.fired = false
}
