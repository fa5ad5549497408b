package detector

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const mediaPipeScript = "mediapipe_service.py"

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
type MediaPipeDetector struct {
	config Config
	svc    *service
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	args := []string{
		"--max-hands", strconv.Itoa(config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(config.MinTrackingConf, 'f', -1, 64),
	}
	svc, err := newService(mediaPipeScript, args, config.IdleTimeout)
	if err != nil {
		return nil, err
	}
	return &MediaPipeDetector{config: config, svc: svc}, nil
}

// Kind returns KindLandmarks.
func (d *MediaPipeDetector) Kind() Kind { return KindLandmarks }

// Detect analyzes a frame and returns detected hand landmarks.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (Result, error) {
	line, err := d.svc.roundTrip(frame)
	if err != nil {
		return Result{}, err
	}
	return parseLandmarkReply(line, frame.Cols(), frame.Rows())
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	return d.svc.close()
}

func parseLandmarkReply(line []byte, width, height int) (Result, error) {
	var response struct {
		Hands []jsonHand `json:"hands"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return Result{}, errors.Wrap(err, "parse response")
	}

	res := Result{Width: width, Height: height}
	for _, h := range response.Hands {
		res.Hands = append(res.Hands, h.toHand())
	}
	return res, nil
}

// jsonHand represents the JSON structure from the Python service.
type jsonHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

func (h jsonHand) toHand() Hand {
	hand := Hand{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	if len(h.Points) >= NumLandmarks {
		hand.Points = make([]Point3D, NumLandmarks)
		copy(hand.Points, h.Points[:NumLandmarks])
	}
	return hand
}
