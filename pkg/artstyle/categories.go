package artstyle

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/chenBenjamin97/point-field/pkg/video"
)

//Category is an art style recognised through keywords in classifier labels.
type Category struct {
	Name     string
	Keywords []string
}

//DefaultCategories map common classifier labels onto coarse art styles.
var DefaultCategories = []Category{
	{Name: "Portrait", Keywords: []string{"face", "person", "head", "eye", "hair"}},
	{Name: "Landscape", Keywords: []string{"mountain", "tree", "sky", "sea", "beach", "cloud"}},
	{Name: "Still Life", Keywords: []string{"bottle", "vase", "fruit", "flower", "table"}},
	{Name: "Architecture", Keywords: []string{"building", "house", "church", "tower", "bridge"}},
	{Name: "Nature", Keywords: []string{"flower", "bird", "cat", "dog", "plant", "tree"}},
	{Name: "Urban", Keywords: []string{"street", "car", "building", "traffic", "shop"}},
	{Name: "Abstract", Keywords: []string{"pattern", "line", "circle", "square", "triangle"}},
}

//StyleScore is a recognised style with its confidence.
type StyleScore struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

//ProcessPredictions scores each category by the highest probability of any
//prediction whose label contains one of its keywords. Scores not above
//minScore are dropped; the rest are sorted best first, ties keep category
//order.
func ProcessPredictions(predictions []video.Prediction, categories []Category, minScore float64) []StyleScore {
	scores := make(map[string]float64)
	for _, pred := range predictions {
		label := strings.ToLower(pred.Label)
		for _, cat := range categories {
			matched := lo.SomeBy(cat.Keywords, func(k string) bool {
				return strings.Contains(label, strings.ToLower(k))
			})
			if !matched {
				continue
			}
			if current, ok := scores[cat.Name]; !ok || pred.Probability > current {
				scores[cat.Name] = pred.Probability
			}
		}
	}

	out := make([]StyleScore, 0, len(scores))
	for _, cat := range categories {
		score, ok := scores[cat.Name]
		if !ok || score <= minScore {
			continue
		}
		out = append(out, StyleScore{Category: cat.Name, Score: score})
		delete(scores, cat.Name) // categories may repeat a name
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
