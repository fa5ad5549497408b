package capture

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// ErrEndOfStream is returned when a source has no more frames.
var ErrEndOfStream = errors.New("end of stream")

// Source is a seekable frame source used for file playback.
type Source interface {
	// ReadFrame reads the frame at the read head and advances it.
	// The caller is responsible for closing the returned Mat.
	ReadFrame() (*gocv.Mat, error)
	Seek(pos int) error
	FrameCount() int
	FPS() float64
	Close() error
}

// VideoFile reads frames from a video file.
type VideoFile struct {
	path       string
	capture    *gocv.VideoCapture
	fps        float64
	frameCount int
	width      int
	height     int
	mu         sync.Mutex
}

// OpenVideoFile opens the file at path and reads its properties.
func OpenVideoFile(path string) (*VideoFile, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("video file not found: %w", err)
	}

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("failed to open video %s", path)
	}

	return &VideoFile{
		path:       path,
		capture:    capture,
		fps:        capture.Get(gocv.VideoCaptureFPS),
		frameCount: int(capture.Get(gocv.VideoCaptureFrameCount)),
		width:      int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:     int(capture.Get(gocv.VideoCaptureFrameHeight)),
	}, nil
}

// Path returns the file path.
func (v *VideoFile) Path() string { return v.path }

// FPS returns the frame rate stored in the file, which may be 0.
func (v *VideoFile) FPS() float64 { return v.fps }

// FrameCount returns the number of frames reported by the container.
func (v *VideoFile) FrameCount() int { return v.frameCount }

// Size returns the frame size in pixels.
func (v *VideoFile) Size() (int, int) { return v.width, v.height }

// Seek moves the read head to frame pos.
func (v *VideoFile) Seek(pos int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return ErrCameraNotOpen
	}
	if pos < 0 || pos >= v.frameCount {
		return fmt.Errorf("seek to frame %d outside [0, %d)", pos, v.frameCount)
	}
	v.capture.Set(gocv.VideoCapturePosFrames, float64(pos))
	return nil
}

// ReadFrame reads the next frame. It returns ErrEndOfStream when the file
// is exhausted.
func (v *VideoFile) ReadFrame() (*gocv.Mat, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := v.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrEndOfStream
	}
	return &mat, nil
}

// Close releases the file.
func (v *VideoFile) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return nil
	}
	err := v.capture.Close()
	v.capture = nil
	return err
}

// FrameAt seeks to pos and reads that frame. Some containers seek
// inexactly, so a failed read retries by decoding forward from the start.
func FrameAt(src Source, pos int) (*gocv.Mat, error) {
	if err := src.Seek(pos); err != nil {
		return nil, err
	}
	mat, err := src.ReadFrame()
	if err == nil {
		return mat, nil
	}

	if err := src.Seek(0); err != nil {
		return nil, err
	}
	for i := 0; i <= pos; i++ {
		mat, err = src.ReadFrame()
		if err != nil {
			return nil, fmt.Errorf("failed to reach frame %d: %w", pos, err)
		}
		if i < pos {
			mat.Close()
		}
	}
	return mat, nil
}
