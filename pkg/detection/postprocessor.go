package detection

import (
	"github.com/samber/lo"

	"github.com/chenBenjamin97/point-field/pkg/video"
)

//Postprocessor filters or modifies a frame's detections.
type Postprocessor func([]video.Detection) []video.Detection

//NewScoreFilter drops detections scored below conf.
func NewScoreFilter(conf float64) Postprocessor {
	return func(in []video.Detection) []video.Detection {
		return lo.Filter(in, func(d video.Detection, _ int) bool {
			return d.Score >= conf
		})
	}
}

//NewClassFilter keeps detections whose class is in classes. An empty set
//keeps everything.
func NewClassFilter(classes map[string]struct{}) Postprocessor {
	return func(in []video.Detection) []video.Detection {
		if len(classes) == 0 {
			return in
		}
		return lo.Filter(in, func(d video.Detection, _ int) bool {
			_, ok := classes[d.Class]
			return ok
		})
	}
}

//NewScaler multiplies every bounding box by factor.
func NewScaler(factor float64) Postprocessor {
	return func(in []video.Detection) []video.Detection {
		return lo.Map(in, func(d video.Detection, _ int) video.Detection {
			d.BBox = d.BBox.Scale(factor)
			return d
		})
	}
}

//Chain applies processors in order.
func Chain(processors ...Postprocessor) Postprocessor {
	return func(in []video.Detection) []video.Detection {
		out := in
		for _, p := range processors {
			out = p(out)
		}
		return out
	}
}
