//Package decode turns raw DNN outputs into detections and predictions.
//It has no OpenCV dependency.
package decode

import (
	"bufio"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/chenBenjamin97/point-field/pkg/video"
)

//SSDRow is one row of an SSD detection output:
//[batch, class, confidence, left, top, right, bottom], coordinates as
//fractions of the input.
type SSDRow [7]float32

const unknownLabel = "unknown"

//SSD converts rows scoring at least minScore into detections in a
//width x height frame. Boxes are clamped to the frame.
func SSD(rows []SSDRow, labels []string, width, height int, minScore float64) []video.Detection {
	out := make([]video.Detection, 0, len(rows))
	for _, r := range rows {
		score := float64(r[2])
		if score < minScore {
			continue
		}

		w, h := float64(width), float64(height)
		left := clamp(float64(r[3])*w, w)
		top := clamp(float64(r[4])*h, h)
		right := clamp(float64(r[5])*w, w)
		bottom := clamp(float64(r[6])*h, h)
		if right <= left || bottom <= top {
			continue
		}

		out = append(out, video.Detection{
			Class: Label(labels, int(r[1])),
			Score: score,
			BBox: video.BoundingBox{
				X:      left,
				Y:      top,
				Width:  right - left,
				Height: bottom - top,
			},
		})
	}
	return out
}

//clamp keeps v within frame's range
func clamp(v, limit float64) float64 {
	if v < 0 {
		return 0
	} else if v > limit {
		return limit
	}
	return v
}

//Label returns labels[id], or "unknown" when id is out of range.
func Label(labels []string, id int) string {
	if id < 0 || id >= len(labels) {
		return unknownLabel
	}
	return labels[id]
}

//Softmax normalises scores in place unless they already are probabilities.
func Softmax(scores []float32) {
	var sum float64
	probabilities := true
	for _, s := range scores {
		if s < 0 || s > 1 {
			probabilities = false
		}
		sum += float64(s)
	}
	if probabilities && math.Abs(sum-1) < 1e-3 {
		return
	}

	maxScore := float32(math.Inf(-1))
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	sum = 0
	exp := make([]float64, len(scores))
	for i, s := range scores {
		exp[i] = math.Exp(float64(s - maxScore))
		sum += exp[i]
	}
	for i := range scores {
		scores[i] = float32(exp[i] / sum)
	}
}

//TopK returns the k most probable labels, best first.
func TopK(probs []float32, labels []string, k int) []video.Prediction {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return probs[idx[a]] > probs[idx[b]]
	})
	if k < len(idx) {
		idx = idx[:k]
	}

	out := make([]video.Prediction, len(idx))
	for i, id := range idx {
		out[i] = video.Prediction{Label: Label(labels, id), Probability: float64(probs[id])}
	}
	return out
}

//LoadLabels reads a labels file, one label per line.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open labels file '%s'", path)
	}
	defer f.Close()
	return ParseLabels(f)
}

//ParseLabels reads one label per line. A leading ImageNet synset id
//("n01440764 tench, Tinca tinca") is dropped. Empty lines are kept so ids
//stay aligned with line numbers.
func ParseLabels(r io.Reader) ([]string, error) {
	var labels []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if id, rest, ok := strings.Cut(line, " "); ok && isSynset(id) {
			line = strings.TrimSpace(rest)
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "could not read labels")
	}
	return labels, nil
}

func isSynset(s string) bool {
	if len(s) != 9 || s[0] != 'n' {
		return false
	}
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
