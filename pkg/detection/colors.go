package detection

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/chenBenjamin97/point-field/pkg/utils"
)

var classColors = parseScheme(utils.ClassColorsHex)
var defaultClassColor = mustHex(utils.DefaultClassColorHex)

func parseScheme(hex map[string]string) map[string]color.RGBA {
	out := make(map[string]color.RGBA, len(hex))
	for class, h := range hex {
		out[class] = mustHex(h)
	}
	return out
}

func mustHex(h string) color.RGBA {
	c, err := colorful.Hex(h)
	if err != nil {
		panic(err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

//ClassColor returns the colour boxes of class are drawn with.
func ClassColor(class string) color.RGBA {
	if c, ok := classColors[class]; ok {
		return c
	}
	return defaultClassColor
}
