package app

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// FrameSource selects which latest frame to encode.
type FrameSource string

const (
	FrameCamera FrameSource = "camera"
	FrameVideo  FrameSource = "video"
)

// ErrNoFrame is returned when no frame has been captured yet.
var ErrNoFrame = errors.New("no frame available")

// frames keeps the most recent camera and video frames for streaming.
type frames struct {
	mu     sync.Mutex
	camera *gocv.Mat
	video  *gocv.Mat
}

func (f *frames) setCamera(m *gocv.Mat) {
	f.mu.Lock()
	defer f.mu.Unlock()
	replace(&f.camera, m)
}

func (f *frames) setVideo(m *gocv.Mat) {
	f.mu.Lock()
	defer f.mu.Unlock()
	replace(&f.video, m)
}

func replace(slot **gocv.Mat, m *gocv.Mat) {
	if *slot != nil {
		(*slot).Close()
	}
	*slot = m
}

func (f *frames) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	replace(&f.camera, nil)
	replace(&f.video, nil)
}

func (f *frames) jpeg(src FrameSource) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m := f.camera
	if src == FrameVideo {
		m = f.video
	}
	if m == nil || m.Empty() {
		return nil, ErrNoFrame
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *m)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

// FrameJPEG returns the latest frame of src encoded as JPEG.
func (a *App) FrameJPEG(src FrameSource) ([]byte, error) {
	return a.frames.jpeg(src)
}
