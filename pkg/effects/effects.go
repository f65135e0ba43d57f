//Package effects holds the image filters applied before points are sampled.
package effects

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

var ErrUnknownEffect = errors.New("unknown effect")

type Effect string

const (
	None      Effect = "none"
	Invert    Effect = "invert"
	Threshold Effect = "threshold"
	Posterize Effect = "posterize"
)

//All lists the effects in menu order.
var All = []Effect{None, Invert, Threshold, Posterize}

const (
	thresholdLevel  = 0.5
	posterizeLevels = 4
)

//Parse maps a name onto an Effect. The empty name is None.
func Parse(name string) (Effect, error) {
	if name == "" {
		return None, nil
	}
	for _, e := range All {
		if string(e) == name {
			return e, nil
		}
	}
	return None, errors.Wrapf(ErrUnknownEffect, "'%s'", name)
}

//Apply returns a filtered copy of img. The source is never modified.
func Apply(img image.Image, e Effect) *image.NRGBA {
	switch e {
	case Invert:
		return imaging.Invert(img)
	case Threshold:
		return imaging.AdjustFunc(img, threshold)
	case Posterize:
		return imaging.AdjustFunc(img, posterize)
	default:
		return imaging.Clone(img)
	}
}

func threshold(c color.NRGBA) color.NRGBA {
	lum := 0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)
	v := uint8(0)
	if lum >= 255*thresholdLevel {
		v = 255
	}
	return color.NRGBA{R: v, G: v, B: v, A: c.A}
}

func posterize(c color.NRGBA) color.NRGBA {
	return color.NRGBA{R: level(c.R), G: level(c.G), B: level(c.B), A: c.A}
}

func level(v uint8) uint8 {
	step := (int(v) * posterizeLevels) >> 8
	return uint8(step * 255 / (posterizeLevels - 1))
}
