package accuracy

import (
	"sort"

	"github.com/ayusman/mudra/internal/gesture"
)

// DetectionMetrics summarizes hand detection against hand-presence truth.
// Rates are percentages and are 0 when their denominator is 0.
type DetectionMetrics struct {
	TotalFrames               int     `json:"total_frames"`
	FramesWithHand            int     `json:"frames_with_hand"`
	FramesDetected            int     `json:"frames_detected"`
	FramesWithHandAndDetected int     `json:"frames_with_hand_and_detected"`
	FramesWithoutHand         int     `json:"frames_without_hand"`
	FramesDetectedWithoutHand int     `json:"frames_detected_without_hand"`
	DetectionRate             float64 `json:"detection_rate"`
	FalsePositiveRate         float64 `json:"false_positive_rate"`
	TruePositiveRate          float64 `json:"true_positive_rate"`
	AvgConfidence             float64 `json:"avg_confidence"`
	AvgHandsPerFrame          float64 `json:"avg_hands_per_frame"`
	MaxHandsDetected          int     `json:"max_hands_detected"`
	TotalDetections           int     `json:"total_detections"`
}

// GestureMetrics summarizes recognition against declared gestures.
// Per-gesture maps are keyed by the declared symbol.
type GestureMetrics struct {
	TotalDeclarations int                        `json:"total_declarations"`
	TotalPredictions  int                        `json:"total_predictions"`
	Precision         map[gesture.Symbol]float64 `json:"gesture_precision"`
	Counts            map[gesture.Symbol]int     `json:"gesture_counts"`
	Correct           map[gesture.Symbol]int     `json:"gesture_correct"`
	Confusion         Confusion                  `json:"confusion_matrix"`
}

// Gestures returns the declared symbols present in the metrics, sorted.
func (g GestureMetrics) Gestures() []gesture.Symbol {
	out := make([]gesture.Symbol, 0, len(g.Counts))
	for sym := range g.Counts {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Metrics is a snapshot of the ledger.
type Metrics struct {
	Detection DetectionMetrics `json:"detection"`
	Gesture   GestureMetrics   `json:"gesture"`
}

// Metrics derives the current rates and per-gesture precision.
func (t *Tracker) Metrics() Metrics {
	return Metrics{
		Detection: t.detectionMetrics(),
		Gesture:   t.gestureMetrics(),
	}
}

func percent(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}

func (t *Tracker) detectionMetrics() DetectionMetrics {
	m := DetectionMetrics{
		TotalFrames:               t.totalFrames,
		FramesWithHand:            t.framesWithHand,
		FramesDetected:            t.framesDetected,
		FramesWithHandAndDetected: t.framesWithHandAndDetected,
		FramesWithoutHand:         t.framesWithoutHand,
		FramesDetectedWithoutHand: t.framesDetectedWithoutHand,
		DetectionRate:             percent(t.framesDetected, t.totalFrames),
		FalsePositiveRate:         percent(t.framesDetectedWithoutHand, t.framesWithoutHand),
		TruePositiveRate:          percent(t.framesWithHandAndDetected, t.framesWithHand),
		TotalDetections:           len(t.confidences),
	}

	if len(t.confidences) > 0 {
		var sum float64
		for _, c := range t.confidences {
			sum += c
		}
		m.AvgConfidence = sum / float64(len(t.confidences))
	}

	if len(t.handCounts) > 0 {
		sum := 0
		for _, n := range t.handCounts {
			sum += n
			if n > m.MaxHandsDetected {
				m.MaxHandsDetected = n
			}
		}
		m.AvgHandsPerFrame = float64(sum) / float64(len(t.handCounts))
	}

	return m
}

func (t *Tracker) gestureMetrics() GestureMetrics {
	m := GestureMetrics{
		TotalDeclarations: len(t.declarations),
		TotalPredictions:  len(t.predictions),
		Precision:         make(map[gesture.Symbol]float64, len(t.confusion)),
		Counts:            make(map[gesture.Symbol]int, len(t.confusion)),
		Correct:           make(map[gesture.Symbol]int, len(t.confusion)),
		Confusion:         make(Confusion, len(t.confusion)),
	}

	for truth, row := range t.confusion {
		total := 0
		copied := make(map[gesture.Symbol]int, len(row))
		for predicted, n := range row {
			total += n
			copied[predicted] = n
		}
		correct := row[truth]

		m.Counts[truth] = total
		m.Correct[truth] = correct
		m.Precision[truth] = percent(correct, total)
		m.Confusion[truth] = copied
	}

	return m
}

// DiagonalSum returns the number of correctly associated predictions.
func (c Confusion) DiagonalSum() int {
	sum := 0
	for truth, row := range c {
		sum += row[truth]
	}
	return sum
}

// Labels returns every symbol appearing on either axis, sorted.
func (c Confusion) Labels() []gesture.Symbol {
	seen := make(map[gesture.Symbol]bool)
	for truth, row := range c {
		seen[truth] = true
		for predicted := range row {
			seen[predicted] = true
		}
	}
	out := make([]gesture.Symbol, 0, len(seen))
	for sym := range seen {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
