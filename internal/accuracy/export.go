package accuracy

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Format is an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// ErrUnknownFormat is returned for an unsupported export format.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatPNG, FormatWebP:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Report is the JSON export layout.
type Report struct {
	Detection DetectionMetrics `json:"detection_metrics"`
	Gesture   GestureMetrics   `json:"gesture_metrics"`
	Timestamp float64          `json:"timestamp"`
}

// Report returns the current metrics stamped with the export time in
// epoch seconds.
func (t *Tracker) Report() Report {
	m := t.Metrics()
	return Report{
		Detection: m.Detection,
		Gesture:   m.Gesture,
		Timestamp: float64(t.now().UnixNano()) / 1e9,
	}
}

// Export serializes the metrics as JSON or CSV.
func (t *Tracker) Export(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(t.Report(), "", "  ")
	case FormatCSV:
		return encodeCSV(t.Metrics())
	case FormatPNG, FormatWebP:
		return t.ConfusionImage(format)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func encodeCSV(m Metrics) ([]byte, error) {
	d := m.Detection
	g := m.Gesture

	records := [][]string{
		{"metric", "value"},
		{"total_frames", strconv.Itoa(d.TotalFrames)},
		{"frames_detected", strconv.Itoa(d.FramesDetected)},
		{"frames_with_hand", strconv.Itoa(d.FramesWithHand)},
		{"true_positives", strconv.Itoa(d.FramesWithHandAndDetected)},
		{"frames_without_hand", strconv.Itoa(d.FramesWithoutHand)},
		{"false_positives", strconv.Itoa(d.FramesDetectedWithoutHand)},
		{"detection_rate_%", formatFloat(d.DetectionRate, 2)},
		{"false_positive_rate_%", formatFloat(d.FalsePositiveRate, 2)},
		{"true_positive_rate_%", formatFloat(d.TruePositiveRate, 2)},
		{"avg_confidence", formatFloat(d.AvgConfidence, 3)},
		{"avg_hands_per_frame", formatFloat(d.AvgHandsPerFrame, 2)},
		{"max_hands_detected", strconv.Itoa(d.MaxHandsDetected)},
		{"total_detections", strconv.Itoa(d.TotalDetections)},
		{},
		{"gesture", "correct", "total", "precision_%"},
	}
	for _, sym := range g.Gestures() {
		records = append(records, []string{
			string(sym),
			strconv.Itoa(g.Correct[sym]),
			strconv.Itoa(g.Counts[sym]),
			formatFloat(g.Precision[sym], 2),
		})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveFile writes an export to path. The ledger is never modified, even
// when writing fails.
func (t *Tracker) SaveFile(path string, format Format) error {
	data, err := t.Export(format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	log.Printf("[accuracy] exported %s to %s", format, path)
	return nil
}
