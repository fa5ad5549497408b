package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels reported by the landmark detector.
const (
	Left  = "Left"
	Right = "Right"
)

// Point3D represents a 3D point in space with x, y, z coordinates.
// Landmark coordinates are normalized to the frame (0..1).
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Box is an axis-aligned bounding box in pixel coordinates.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Area returns the box area, or 0 for degenerate boxes.
func (b Box) Area() float64 {
	w := b.X2 - b.X1
	h := b.Y2 - b.Y1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Center returns the box center in pixel coordinates.
func (b Box) Center() (float64, float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Hand is one detected hand. Landmark detectors fill Points, bounding-box
// detectors fill Box; Score is the detection confidence.
type Hand struct {
	Points     []Point3D `json:"points,omitempty"`
	Box        *Box      `json:"box,omitempty"`
	Handedness string    `json:"handedness,omitempty"` // "Left", "Right" or empty
	Score      float64   `json:"score"`
}

// HasLandmarks reports whether the hand carries a complete landmark set.
func (h *Hand) HasLandmarks() bool {
	return h != nil && len(h.Points) >= NumLandmarks
}

// Result is the output of one Detect call.
// Width and Height are the frame size in pixels.
type Result struct {
	Hands  []Hand `json:"hands"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Empty reports whether no hand was detected.
func (r Result) Empty() bool {
	return len(r.Hands) == 0
}

// BestScore returns the highest hand score in the result.
func (r Result) BestScore() float64 {
	var best float64
	for _, h := range r.Hands {
		if h.Score > best {
			best = h.Score
		}
	}
	return best
}
