package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	kind   Kind
	hands  []Hand
	queue  []Result
	width  int
	height int
	err    error
	calls  int
	closed bool
	mu     sync.Mutex
}

// NewMockDetector creates a new MockDetector of the given kind.
func NewMockDetector(kind Kind) *MockDetector {
	return &MockDetector{
		kind:   kind,
		width:  640,
		height: 480,
	}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// Queue appends results that Detect returns one per call, before
// falling back to the hands set with SetHands.
func (m *MockDetector) Queue(results ...Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, results...)
}

// SetFrameSize sets the frame size reported when no frame is passed.
func (m *MockDetector) SetFrameSize(width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.width = width
	m.height = height
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Kind returns the configured kind.
func (m *MockDetector) Kind() Kind { return m.kind }

// Detect returns the pre-configured result or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return Result{}, m.err
	}

	width, height := m.width, m.height
	if frame != nil && !frame.Empty() {
		width, height = frame.Cols(), frame.Rows()
	}

	if len(m.queue) > 0 {
		res := m.queue[0]
		m.queue = m.queue[1:]
		if res.Width == 0 && res.Height == 0 {
			res.Width, res.Height = width, height
		}
		return res, nil
	}

	return Result{Hands: m.hands, Width: width, Height: height}, nil
}

// Calls returns how many times Detect was called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// OpenPalmLandmarks returns a right hand with all four fingers extended upward.
func OpenPalmLandmarks() Hand {
	h := Hand{Handedness: Right, Score: 0.95, Points: make([]Point3D, NumLandmarks)}

	h.Points[Wrist] = Point3D{X: 0.5, Y: 0.8}

	h.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	h.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	h.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	h.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	h.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68}
	h.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55}
	h.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45}
	h.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35}

	h.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66}
	h.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52}
	h.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40}
	h.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28}

	h.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68}
	h.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55}
	h.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45}
	h.Points[RingTip] = Point3D{X: 0.42, Y: 0.35}

	h.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70}
	h.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60}
	h.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50}
	h.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42}

	return h
}

// FistLandmarks returns a right hand with every finger curled.
func FistLandmarks() Hand {
	h := Hand{Handedness: Right, Score: 0.9, Points: make([]Point3D, NumLandmarks)}

	h.Points[Wrist] = Point3D{X: 0.5, Y: 0.8}

	h.Points[ThumbCMC] = Point3D{X: 0.54, Y: 0.76}
	h.Points[ThumbMCP] = Point3D{X: 0.56, Y: 0.72}
	h.Points[ThumbIP] = Point3D{X: 0.54, Y: 0.70}
	h.Points[ThumbTip] = Point3D{X: 0.52, Y: 0.69}

	fingers := [][4]int{
		{IndexMCP, IndexPIP, IndexDIP, IndexTip},
		{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
		{RingMCP, RingPIP, RingDIP, RingTip},
		{PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip},
	}
	for i, f := range fingers {
		x := 0.55 - float64(i)*0.05
		h.Points[f[0]] = Point3D{X: x, Y: 0.70}
		h.Points[f[1]] = Point3D{X: x, Y: 0.66}
		h.Points[f[2]] = Point3D{X: x, Y: 0.69}
		h.Points[f[3]] = Point3D{X: x, Y: 0.72}
	}

	return h
}

// PointingLandmarks returns a right fist with only the index extended and
// its tip offset horizontally from the wrist by dx (normalized units).
func PointingLandmarks(dx float64) Hand {
	h := FistLandmarks()
	wrist := h.Points[Wrist]

	h.Points[IndexMCP] = Point3D{X: wrist.X + dx*0.3, Y: 0.70}
	h.Points[IndexPIP] = Point3D{X: wrist.X + dx*0.6, Y: 0.64}
	h.Points[IndexDIP] = Point3D{X: wrist.X + dx*0.8, Y: 0.60}
	h.Points[IndexTip] = Point3D{X: wrist.X + dx, Y: 0.58}

	return h
}

// BoxHand returns a bounding-box hand centered at (nx, ny) in normalized
// coordinates of a width x height frame.
func BoxHand(nx, ny float64, width, height int, score float64) Hand {
	cx := nx * float64(width)
	cy := ny * float64(height)
	return Hand{
		Box:   &Box{X1: cx - 40, Y1: cy - 40, X2: cx + 40, Y2: cy + 40},
		Score: score,
	}
}
