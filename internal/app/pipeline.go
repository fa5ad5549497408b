package app

import (
	"errors"
	"log"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"gocv.io/x/gocv"
)

// runCamera is the gesture loop. On every tick it reads a camera frame,
// runs the detector and feeds the result to the session. Landmark
// detectors only run every InferEvery frames; the frames in between reuse
// the previous result. A slow detector drops ticks rather than queueing them.
func (a *App) runCamera(det detector.Detector, stop <-chan struct{}) {
	defer a.wg.Done()

	ticker := time.NewTicker(frameInterval(a.camera.FPS()))
	defer ticker.Stop()

	var (
		last    detector.Result
		hasLast bool
		counter int
	)

	for {
		select {
		case <-stop:
			return

		case <-a.cameraReset:
			ticker.Reset(frameInterval(a.camera.FPS()))
			log.Printf("[pipeline] camera loop now at %d fps", a.camera.FPS())

		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				if !errors.Is(err, capture.ErrEndOfStream) {
					log.Printf("[pipeline] error reading frame: %v", err)
				}
				continue
			}

			counter++
			res := last
			if !hasLast || det.Kind() != detector.KindLandmarks || counter%a.inferEvery() == 0 {
				res, err = det.Detect(frame)
				if err != nil {
					frame.Close()
					log.Printf("[pipeline] error detecting hands: %v", err)
					continue
				}
				last, hasLast = res, true
			}
			a.frames.setCamera(frame)

			if ev, ok := a.session.ProcessDetection(res, time.Now()); ok {
				if ev.Error != "" {
					log.Printf("[pipeline] %s: %s", ev.Command, ev.Error)
				} else {
					log.Printf("[pipeline] %s -> %s at frame %d", ev.Symbol, ev.Command, ev.Playback.Position)
				}
				a.publish(ev)
			}
		}
	}
}

// runPlayback is the player loop. It ticks at the content frame rate,
// advances the controller while playing and keeps the frame at the current
// position decoded for streaming.
func (a *App) runPlayback(stop <-chan struct{}) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.session.FrameInterval())
	defer ticker.Stop()

	shown := -1

	for {
		select {
		case <-stop:
			return

		case <-a.playbackReset:
			ticker.Reset(a.session.FrameInterval())
			shown = -1

		case <-ticker.C:
			pos, ended := a.session.Tick()
			if ended {
				snap := a.session.Playback()
				log.Printf("[pipeline] playback ended at frame %d", snap.Position)
				a.publish(Event{Type: EventEnded, At: time.Now(), Playback: snap})
			}
			if pos != shown && a.showFrame(pos, shown) {
				shown = pos
			}
		}
	}
}

// showFrame decodes the frame at pos. Sequential positions are read
// directly; jumps seek first.
func (a *App) showFrame(pos, shown int) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	src := a.video
	if src == nil || src.FrameCount() == 0 {
		return false
	}

	var (
		mat *gocv.Mat
		err error
	)
	if shown >= 0 && pos == shown+1 {
		mat, err = src.ReadFrame()
	} else {
		mat, err = capture.FrameAt(src, pos)
	}
	if err != nil {
		log.Printf("[pipeline] error reading video frame %d: %v", pos, err)
		return false
	}

	a.frames.setVideo(mat)
	return true
}

func (a *App) inferEvery() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return max(a.cfg.Gesture.InferEvery, 1)
}

func frameInterval(fps int) time.Duration {
	return time.Second / time.Duration(capture.ClampFPS(fps))
}
