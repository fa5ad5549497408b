package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera plays back pre-recorded frames for testing
type MockCamera struct {
	frames  []*gocv.Mat
	index   int
	loop    bool
	fps     int
	mu      sync.Mutex
	running bool
}

func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
		fps:    DefaultFPS,
	}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}

	if len(c.frames) == 0 {
		return nil, fmt.Errorf("no frames available")
	}

	if c.index >= len(c.frames) {
		if !c.loop {
			return nil, ErrEndOfStream
		}
		c.index = 0
	}

	// Clone the frame so the original isn't modified
	frame := c.frames[c.index].Clone()
	c.index++

	return &frame, nil
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = ClampFPS(fps)
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Reset restarts playback from the beginning
func (c *MockCamera) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
}

// MockVideo is an in-memory Source for testing.
type MockVideo struct {
	frames []*gocv.Mat
	fps    float64
	head   int
	seeks  []int
	closed bool
	mu     sync.Mutex
}

// NewMockVideo creates a source over frames at the given frame rate.
func NewMockVideo(frames []*gocv.Mat, fps float64) *MockVideo {
	return &MockVideo{frames: frames, fps: fps}
}

func (v *MockVideo) ReadFrame() (*gocv.Mat, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.head >= len(v.frames) {
		return nil, ErrEndOfStream
	}
	frame := v.frames[v.head].Clone()
	v.head++
	return &frame, nil
}

func (v *MockVideo) Seek(pos int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if pos < 0 || pos >= len(v.frames) {
		return fmt.Errorf("seek to frame %d outside [0, %d)", pos, len(v.frames))
	}
	v.head = pos
	v.seeks = append(v.seeks, pos)
	return nil
}

func (v *MockVideo) FrameCount() int { return len(v.frames) }
func (v *MockVideo) FPS() float64    { return v.fps }

func (v *MockVideo) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

// Seeks returns every position passed to Seek.
func (v *MockVideo) Seeks() []int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]int(nil), v.seeks...)
}

// Closed reports whether Close was called.
func (v *MockVideo) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}
