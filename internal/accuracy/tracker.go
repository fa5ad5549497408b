// Package accuracy measures detection and gesture-recognition quality
// against ground truth declared by the user.
package accuracy

import (
	"log"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// AssociationWindow is how long after a ground-truth declaration a
// prediction is scored against it.
const AssociationWindow = 500 * time.Millisecond

// Event is one timestamped gesture symbol.
type Event struct {
	Symbol gesture.Symbol `json:"symbol"`
	At     time.Time      `json:"at"`
}

// Confusion maps a declared symbol to predicted symbols and their counts.
type Confusion map[gesture.Symbol]map[gesture.Symbol]int

// Tracker accumulates the accuracy ledger. The zero value is not usable;
// call NewTracker.
//
// Tracker is not safe for concurrent use.
type Tracker struct {
	totalFrames               int
	framesWithHand            int
	framesWithoutHand         int
	framesDetected            int
	framesWithHandAndDetected int
	framesDetectedWithoutHand int

	confidences []float64
	handCounts  []int

	declarations []Event
	predictions  []Event
	confusion    Confusion

	declared    *Event
	handPresent *bool

	now func() time.Time
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		confusion: make(Confusion),
		now:       time.Now,
	}
}

// RecordFrame records one processed frame. A nil groundTruth falls back to
// the flag set with SetHandPresent; when that is unset too the frame counts
// only toward the totals. confidence and handCount are kept for detected
// frames when provided.
func (t *Tracker) RecordFrame(detected bool, groundTruth *bool, confidence *float64, handCount *int) {
	t.totalFrames++

	present := groundTruth
	if present == nil {
		present = t.handPresent
	}

	if present != nil {
		if *present {
			t.framesWithHand++
			if detected {
				t.framesWithHandAndDetected++
			}
		} else {
			t.framesWithoutHand++
			if detected {
				t.framesDetectedWithoutHand++
			}
		}
	}

	if detected {
		t.framesDetected++
		if confidence != nil {
			t.confidences = append(t.confidences, *confidence)
		}
		if handCount != nil {
			t.handCounts = append(t.handCounts, *handCount)
		}
	}
}

// DeclareGroundTruthGesture records the gesture the user says they are
// performing. It replaces the previous declaration.
func (t *Tracker) DeclareGroundTruthGesture(sym gesture.Symbol, at time.Time) {
	ev := Event{Symbol: sym, At: at}
	t.declared = &ev
	t.declarations = append(t.declarations, ev)
	log.Printf("[accuracy] declared %s", sym)
}

// RecordPrediction records a symbol predicted by the system. It is scored
// against the latest declaration when made strictly within
// AssociationWindow of it.
func (t *Tracker) RecordPrediction(sym gesture.Symbol, at time.Time) {
	t.predictions = append(t.predictions, Event{Symbol: sym, At: at})

	if t.declared == nil {
		return
	}
	if at.Sub(t.declared.At) >= AssociationWindow {
		return
	}

	row, ok := t.confusion[t.declared.Symbol]
	if !ok {
		row = make(map[gesture.Symbol]int)
		t.confusion[t.declared.Symbol] = row
	}
	row[sym]++
}

// SetHandPresent sets the ground-truth hand presence used by RecordFrame.
// nil clears it.
func (t *Tracker) SetHandPresent(present *bool) {
	if present == nil {
		t.handPresent = nil
		log.Println("[accuracy] hand presence cleared")
		return
	}
	v := *present
	t.handPresent = &v
	log.Printf("[accuracy] hand present: %v", v)
}

// HandPresent returns the ground-truth hand presence, or nil when unset.
func (t *Tracker) HandPresent() *bool {
	if t.handPresent == nil {
		return nil
	}
	v := *t.handPresent
	return &v
}

// Declared returns the latest declaration.
func (t *Tracker) Declared() (Event, bool) {
	if t.declared == nil {
		return Event{}, false
	}
	return *t.declared, true
}

// Reset clears the whole ledger, including ground-truth state.
func (t *Tracker) Reset() {
	now := t.now
	*t = Tracker{confusion: make(Confusion), now: now}
	log.Println("[accuracy] metrics reset")
}
