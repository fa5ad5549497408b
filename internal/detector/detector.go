// Package detector provides hand detection interfaces and types for gesture recognition.
package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// Kind identifies what a detector produces for each hand.
type Kind string

const (
	// KindLandmarks detectors report 21 normalized hand landmarks per hand.
	KindLandmarks Kind = "landmarks"
	// KindBoxes detectors report a pixel-space bounding box per hand.
	KindBoxes Kind = "boxes"
)

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the hands found in it.
	// A frame without hands yields an empty Result, not an error.
	Detect(frame *gocv.Mat) (Result, error)

	// Kind reports which kind of hand description Detect produces.
	Kind() Kind

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// Kind selects the landmark or the bounding-box detector.
	Kind Kind `json:"kind"`

	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int `json:"max_hands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `json:"min_confidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `json:"min_tracking_conf"`

	// Weights is the model file used by the bounding-box detector.
	Weights string `json:"weights"`

	// IOU is the non-maximum suppression threshold of the bounding-box detector.
	IOU float64 `json:"iou"`

	// ImageSize is the inference size of the bounding-box detector.
	ImageSize int `json:"image_size"`

	// IdleTimeout shuts the detector subprocess down after this long without frames.
	IdleTimeout time.Duration `json:"-"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Kind:            KindLandmarks,
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		Weights:         "models/hand.pt",
		IOU:             0.45,
		ImageSize:       640,
		IdleTimeout:     30 * time.Second,
	}
}

// New returns the subprocess-backed detector selected by cfg.Kind.
func New(cfg Config) (Detector, error) {
	if cfg.Kind == KindBoxes {
		return NewYOLODetector(cfg)
	}
	return NewMediaPipeDetector(cfg)
}
