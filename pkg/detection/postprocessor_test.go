package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chenBenjamin97/point-field/pkg/video"
)

func TestScoreFilter(t *testing.T) {
	in := []video.Detection{{Class: "a", Score: 0.49}, {Class: "b", Score: 0.5}, {Class: "c", Score: 0.9}}

	out := NewScoreFilter(0.5)(in)
	assert.Equal(t, []video.Detection{in[1], in[2]}, out)
}

func TestClassFilter(t *testing.T) {
	in := []video.Detection{{Class: "car"}, {Class: "dog"}, {Class: "car"}}

	assert.Equal(t, in, NewClassFilter(nil)(in))
	assert.Equal(t, []video.Detection{in[1]}, NewClassFilter(map[string]struct{}{"dog": {}})(in))
}

func TestScalerDoesNotMutateInput(t *testing.T) {
	in := []video.Detection{{Class: "car", BBox: box(1, 2, 3, 4)}}

	out := NewScaler(2)(in)
	assert.Equal(t, box(2, 4, 6, 8), out[0].BBox)
	assert.Equal(t, box(1, 2, 3, 4), in[0].BBox)
}

func TestChainKeepsOrder(t *testing.T) {
	in := []video.Detection{
		{Class: "car", Score: 0.9, BBox: box(1, 1, 1, 1)},
		{Class: "car", Score: 0.1, BBox: box(2, 2, 2, 2)},
		{Class: "dog", Score: 0.8, BBox: box(3, 3, 3, 3)},
	}

	out := Chain(NewScoreFilter(0.5), NewScaler(10))(in)
	assert.Len(t, out, 2)
	assert.Equal(t, "car", out[0].Class)
	assert.Equal(t, "dog", out[1].Class)
	assert.Equal(t, box(30, 30, 30, 30), out[1].BBox)
}
