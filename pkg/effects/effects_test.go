package effects

import (
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pixel(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, c)
	return img
}

func TestParse(t *testing.T) {
	for _, e := range All {
		got, err := Parse(string(e))
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}

	got, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, None, got)

	_, err = Parse("sepia")
	assert.True(t, errors.Is(err, ErrUnknownEffect))
}

func TestInvert(t *testing.T) {
	out := Apply(pixel(color.NRGBA{R: 10, G: 100, B: 255, A: 255}), Invert)
	assert.Equal(t, color.NRGBA{R: 245, G: 155, B: 0, A: 255}, out.NRGBAAt(0, 0))
}

func TestThreshold(t *testing.T) {
	bright := Apply(pixel(color.NRGBA{R: 10, G: 200, B: 10, A: 255}), Threshold)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, bright.NRGBAAt(0, 0))

	dark := Apply(pixel(color.NRGBA{R: 250, G: 10, B: 250, A: 255}), Threshold)
	assert.Equal(t, color.NRGBA{A: 255}, dark.NRGBAAt(0, 0))
}

func TestPosterize(t *testing.T) {
	out := Apply(pixel(color.NRGBA{R: 0, G: 100, B: 255, A: 255}), Posterize)
	assert.Equal(t, color.NRGBA{R: 0, G: 85, B: 255, A: 255}, out.NRGBAAt(0, 0))

	assert.Equal(t, uint8(0), level(63))
	assert.Equal(t, uint8(85), level(64))
	assert.Equal(t, uint8(170), level(128))
	assert.Equal(t, uint8(255), level(192))
}

func TestApplyLeavesSourceUntouched(t *testing.T) {
	src := pixel(color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	for _, e := range All {
		out := Apply(src, e)
		assert.NotSame(t, src, out)
	}
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, src.NRGBAAt(0, 0))
}
