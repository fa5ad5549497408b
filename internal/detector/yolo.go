package detector

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const yoloScript = "yolo_service.py"

// YOLODetector implements Detector using an Ultralytics YOLO subprocess
// that answers with hand bounding boxes.
type YOLODetector struct {
	config Config
	svc    *service
}

// NewYOLODetector creates a new bounding-box detector.
// The Python process is started lazily on first detection.
func NewYOLODetector(config Config) (*YOLODetector, error) {
	if config.Weights == "" {
		return nil, errors.New("yolo weights not configured")
	}
	args := []string{
		"--weights", config.Weights,
		"--conf", strconv.FormatFloat(config.MinConfidence, 'f', -1, 64),
		"--iou", strconv.FormatFloat(config.IOU, 'f', -1, 64),
		"--imgsz", strconv.Itoa(config.ImageSize),
	}
	svc, err := newService(yoloScript, args, config.IdleTimeout)
	if err != nil {
		return nil, err
	}
	return &YOLODetector{config: config, svc: svc}, nil
}

// Kind returns KindBoxes.
func (d *YOLODetector) Kind() Kind { return KindBoxes }

// Detect analyzes a frame and returns detected hand boxes.
func (d *YOLODetector) Detect(frame *gocv.Mat) (Result, error) {
	line, err := d.svc.roundTrip(frame)
	if err != nil {
		return Result{}, err
	}
	return parseBoxReply(line, frame.Cols(), frame.Rows(), d.config.MaxHands)
}

// Close shuts down the Python process.
func (d *YOLODetector) Close() error {
	return d.svc.close()
}

type jsonBox struct {
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
	Conf float64 `json:"conf"`
}

// parseBoxReply decodes the service reply. Boxes are kept in descending
// confidence order and truncated to maxHands when maxHands > 0.
func parseBoxReply(line []byte, width, height, maxHands int) (Result, error) {
	var response struct {
		Boxes []jsonBox `json:"boxes"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return Result{}, errors.Wrap(err, "parse response")
	}

	sort.SliceStable(response.Boxes, func(i, j int) bool {
		return response.Boxes[i].Conf > response.Boxes[j].Conf
	})
	if maxHands > 0 && len(response.Boxes) > maxHands {
		response.Boxes = response.Boxes[:maxHands]
	}

	res := Result{Width: width, Height: height}
	for _, b := range response.Boxes {
		res.Hands = append(res.Hands, Hand{
			Box:   &Box{X1: b.X1, Y1: b.Y1, X2: b.X2, Y2: b.Y2},
			Score: b.Conf,
		})
	}
	return res, nil
}
