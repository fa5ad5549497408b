package gesture

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// Classification thresholds.
const (
	// MinExtendedForPlate is how many of index/middle/ring/pinky must be
	// extended for a flat hand.
	MinExtendedForPlate = 4
	// DirectionThreshold is the minimum horizontal index-to-wrist offset,
	// in normalized frame widths, for a directional gesture.
	DirectionThreshold = 0.15
)

// Classifier maps one frame's detection result to a gesture symbol.
// Implementations never panic on malformed input; they return None.
type Classifier interface {
	Classify(res detector.Result) Symbol
}

// NewClassifier returns the classifier matching the detector kind.
func NewClassifier(kind detector.Kind) Classifier {
	if kind == detector.KindBoxes {
		return BoxClassifier{}
	}
	return LandmarkClassifier{}
}

// LandmarkClassifier recognizes gestures from finger extension.
type LandmarkClassifier struct{}

// Classify classifies the first hand of the result.
func (c LandmarkClassifier) Classify(res detector.Result) Symbol {
	if res.Empty() {
		return None
	}
	return c.ClassifyHand(&res.Hands[0])
}

// ClassifyHand classifies a single hand.
//
// A hand with at least four extended fingers (thumb excluded) is a flat hand
// and toggles playback. Otherwise an extended index pointing sideways seeks;
// the camera view is mirrored, so pointing toward screen-right rewinds.
func (LandmarkClassifier) ClassifyHand(hand *detector.Hand) Symbol {
	if !hand.HasLandmarks() {
		return None
	}
	p := hand.Points

	indexUp := p[detector.IndexTip].Y < p[detector.IndexPIP].Y
	middleUp := p[detector.MiddleTip].Y < p[detector.MiddlePIP].Y
	ringUp := p[detector.RingTip].Y < p[detector.RingPIP].Y
	pinkyUp := p[detector.PinkyTip].Y < p[detector.PinkyPIP].Y

	count := 0
	for _, up := range []bool{indexUp, middleUp, ringUp, pinkyUp} {
		if up {
			count++
		}
	}

	if count >= MinExtendedForPlate {
		return TogglePlayPause
	}

	if indexUp {
		direction := p[detector.IndexTip].X - p[detector.Wrist].X
		if math.Abs(direction) > DirectionThreshold {
			if direction > 0 {
				return Reculer
			}
			return Avancer
		}
	}

	return None
}

// ThumbExtended reports whether the thumb points away from the palm.
// Hands without handedness are treated as right hands. Classify leaves the
// thumb out of the finger count.
func ThumbExtended(hand *detector.Hand) bool {
	if !hand.HasLandmarks() {
		return false
	}
	tip := hand.Points[detector.ThumbTip].X
	base := hand.Points[detector.ThumbMCP].X
	if hand.Handedness == detector.Left {
		return tip < base
	}
	return tip > base
}

// Zone bounds of the bounding-box classifier, in normalized frame units.
const (
	CenterMinX  = 0.3
	CenterMaxX  = 0.7
	CenterMaxY  = 0.5
	RewindMaxX  = 0.4
	AdvanceMinX = 0.6
)

// BoxClassifier recognizes gestures from where the largest hand box sits
// in the frame.
type BoxClassifier struct{}

// Classify classifies the largest box of the result.
//
// Top-center toggles playback, the left band rewinds and the right band
// advances. Boxes centered in 0.4..0.6 in the lower half fall in a dead
// zone and yield None.
func (BoxClassifier) Classify(res detector.Result) Symbol {
	if res.Width <= 0 || res.Height <= 0 {
		return None
	}

	box := LargestBox(res)
	if box == nil {
		return None
	}

	cx, cy := box.Center()
	nx := cx / float64(res.Width)
	ny := cy / float64(res.Height)

	switch {
	case nx >= CenterMinX && nx <= CenterMaxX && ny < CenterMaxY:
		return TogglePlayPause
	case nx < RewindMaxX:
		return Reculer
	case nx > AdvanceMinX:
		return Avancer
	}
	return None
}

// LargestBox returns the box with the largest positive area, or nil.
// Ties keep the earliest box.
func LargestBox(res detector.Result) *detector.Box {
	var best *detector.Box
	var bestArea float64
	for i := range res.Hands {
		b := res.Hands[i].Box
		if b == nil {
			continue
		}
		if area := b.Area(); area > bestArea {
			best = b
			bestArea = area
		}
	}
	return best
}
