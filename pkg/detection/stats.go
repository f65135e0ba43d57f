package detection

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

//Stats summarises the most recent detection run.
type Stats struct {
	TotalDetections   int            `json:"total_detections"`
	DetectionsByClass map[string]int `json:"detections_per_class"`
	AverageConfidence float64        `json:"average_confidence"`
	FPS               int            `json:"fps"`
}

func computeStats(objects []TrackedDetection, fps int) Stats {
	s := Stats{
		TotalDetections:   len(objects),
		DetectionsByClass: make(map[string]int),
		FPS:               fps,
	}
	if len(objects) == 0 {
		return s
	}

	scores := make([]float64, len(objects))
	for i, o := range objects {
		s.DetectionsByClass[o.Class]++
		scores[i] = o.Score
	}
	s.AverageConfidence = stat.Mean(scores, nil)
	return s
}

//fpsMeter counts runs and publishes the count once per second.
type fpsMeter struct {
	window  time.Time
	count   int
	current int
}

func (m *fpsMeter) tick(now time.Time) int {
	if now.Sub(m.window) > time.Second {
		m.current = m.count
		m.count = 0
		m.window = now
	}
	m.count++
	return m.current
}
