package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	// Create test frames
	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	// Read both frames
	f1, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	f1.Close()

	f2, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	f2.Close()

	// Third read should fail (no loop)
	_, err = cam.ReadFrame()
	if err == nil {
		t.Error("expected error after all frames consumed")
	}
}

func TestMockCamera_Loop(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	// Should loop indefinitely
	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_NotOpen(t *testing.T) {
	cam := NewMockCamera(nil, false)

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestMockCamera_SetFPS(t *testing.T) {
	cam := NewMockCamera(nil, false)

	cam.SetFPS(500)
	if got := cam.FPS(); got != MaxFPS {
		t.Errorf("FPS() = %d, want %d", got, MaxFPS)
	}
	cam.SetFPS(0)
	if got := cam.FPS(); got != MaxFPS {
		t.Errorf("FPS() = %d after SetFPS(0), want unchanged", got)
	}
}

func newMockVideo(t *testing.T, n int) *MockVideo {
	t.Helper()
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSize(4, 4+i, gocv.MatTypeCV8UC3)
		t.Cleanup(func() { m.Close() })
		frames[i] = &m
	}
	return NewMockVideo(frames, 25)
}

func TestMockVideo_ReadAndSeek(t *testing.T) {
	v := newMockVideo(t, 3)

	if v.FrameCount() != 3 || v.FPS() != 25 {
		t.Fatalf("FrameCount/FPS = %d/%f", v.FrameCount(), v.FPS())
	}

	if err := v.Seek(2); err != nil {
		t.Fatalf("Seek(2) error = %v", err)
	}
	f, err := v.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if f.Cols() != 6 {
		t.Errorf("read frame with %d cols, want frame 2", f.Cols())
	}
	f.Close()

	if _, err := v.ReadFrame(); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("ReadFrame() past end error = %v, want ErrEndOfStream", err)
	}
	if err := v.Seek(3); err == nil {
		t.Error("Seek past end should fail")
	}
}

func TestFrameAt(t *testing.T) {
	v := newMockVideo(t, 5)

	f, err := FrameAt(v, 3)
	if err != nil {
		t.Fatalf("FrameAt() error = %v", err)
	}
	defer f.Close()

	if f.Cols() != 7 {
		t.Errorf("FrameAt(3) returned frame with %d cols, want 7", f.Cols())
	}
	if seeks := v.Seeks(); len(seeks) != 1 || seeks[0] != 3 {
		t.Errorf("Seeks() = %v, want [3]", seeks)
	}

	if _, err := FrameAt(v, 9); err == nil {
		t.Error("FrameAt() outside the video should fail")
	}
}

func TestOpenVideoFile_Missing(t *testing.T) {
	if _, err := OpenVideoFile("/nonexistent/clip.mp4"); err == nil {
		t.Error("OpenVideoFile() should fail for a missing file")
	}
}
