//Package render draws the point field and its overlays with gg.
package render

import (
	"fmt"
	"image"
	"math"

	"github.com/fogleman/gg"

	"github.com/chenBenjamin97/point-field/pkg/artstyle"
	"github.com/chenBenjamin97/point-field/pkg/config"
	"github.com/chenBenjamin97/point-field/pkg/detection"
	"github.com/chenBenjamin97/point-field/pkg/points"
)

const (
	labelPadding = 6
	labelHeight  = 24
	boxLineWidth = 2

	panelPadding    = 20
	panelWidth      = 300
	panelItemHeight = 30
	panelMaxHeight  = 400
	panelMaxRows    = 9
	panelTitle      = "Artistic Elements"
)

//Options configure the midpoint shapes.
type Options struct {
	CircleSize float64
	RectSize   float64
	Opacity    uint8
}

func OptionsFromConfig(cfg config.ShapesConfig) Options {
	return Options{CircleSize: cfg.CircleSize, RectSize: cfg.RectSize, Opacity: cfg.Opacity}
}

//Canvas is one frame being drawn.
type Canvas struct {
	dc   *gg.Context
	opts Options
}

//NewCanvas returns a black width x height canvas.
func NewCanvas(width, height int, opts Options) *Canvas {
	dc := gg.NewContext(width, height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	return &Canvas{dc: dc, opts: opts}
}

//NewCanvasForImage draws on top of a copy of img.
func NewCanvasForImage(img image.Image, opts Options) *Canvas {
	return &Canvas{dc: gg.NewContextForImage(img), opts: opts}
}

//Connections draws the lines between points and their midpoint shapes.
func (c *Canvas) Connections(conns []points.Connection) {
	dc := c.dc
	dc.SetLineWidth(1)
	for _, conn := range conns {
		dc.SetColor(conn.Line)
		dc.DrawLine(conn.X1, conn.Y1, conn.X2, conn.Y2)
		dc.Stroke()

		switch conn.Shape {
		case points.Circle:
			dc.SetRGBA255(int(conn.Fill.R), int(conn.Fill.G), int(conn.Fill.B), int(c.opts.Opacity))
			dc.DrawCircle(conn.MidX, conn.MidY, c.opts.CircleSize/2)
			dc.Fill()
		case points.Square:
			dc.SetColor(conn.Line)
			s := c.opts.RectSize
			dc.DrawRectangle(conn.MidX-s/2, conn.MidY-s/2, s, s)
			dc.Stroke()
		}
	}
}

//Points draws every point as a filled dot of its own size.
func (c *Canvas) Points(pts []points.Point) {
	for _, p := range pts {
		c.dc.SetColor(p.Color)
		c.dc.DrawCircle(p.X, p.Y, p.Size/2)
		c.dc.Fill()
	}
}

//Detections draws a box per object with a "#id class (NN%)" tab above it.
func (c *Canvas) Detections(objs []detection.TrackedDetection) {
	dc := c.dc
	for _, obj := range objs {
		col := detection.ClassColor(obj.Class)
		b := obj.BBox

		dc.SetColor(col)
		dc.SetLineWidth(boxLineWidth)
		dc.DrawRectangle(b.X, b.Y, b.Width, b.Height)
		dc.Stroke()

		text := Label(obj)
		w, _ := dc.MeasureString(text)
		dc.SetRGBA255(int(col.R), int(col.G), int(col.B), 200)
		dc.DrawRectangle(b.X, b.Y-labelHeight-5, w+labelPadding*2, labelHeight)
		dc.Fill()

		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(text, b.X+labelPadding, b.Y-labelHeight/2-5, 0, 0.5)
	}
}

//Label is the tab text of a detection.
func Label(obj detection.TrackedDetection) string {
	return fmt.Sprintf("#%d %s (%d%%)", obj.ID, obj.Class, int(math.Round(obj.Score*100)))
}

//ArtPanel draws the style panel in the top right corner. Nothing is drawn
//without results.
func (c *Canvas) ArtPanel(styles []artstyle.StyleScore) {
	if len(styles) == 0 {
		return
	}
	if len(styles) > panelMaxRows {
		styles = styles[:panelMaxRows]
	}

	dc := c.dc
	left := float64(dc.Width() - panelWidth - panelPadding)
	right := float64(dc.Width() - panelPadding)

	dc.SetRGBA255(0, 0, 0, 200)
	dc.DrawRoundedRectangle(left, panelPadding, panelWidth, PanelHeight(len(styles)), 12)
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(panelTitle, left+15, panelPadding+15, 0, 1)

	barWidth := float64(panelWidth - 30)
	for i, s := range styles {
		y := float64(panelPadding + 45 + i*panelItemHeight)
		score := math.Round(s.Score * 100)

		dc.SetRGBA255(155, 89, 182, 30)
		dc.DrawRoundedRectangle(left+15, y, barWidth, panelItemHeight-8, 5)
		dc.Fill()

		if score > 0 {
			dc.SetRGBA255(155, 89, 182, 100)
			dc.DrawRoundedRectangle(left+15, y, barWidth*score/100, panelItemHeight-8, 5)
			dc.Fill()
		}

		dc.SetRGB(1, 1, 1)
		mid := y + (panelItemHeight-8)/2
		dc.DrawStringAnchored(s.Category, left+25, mid, 0, 0.5)
		dc.DrawStringAnchored(fmt.Sprintf("%d%%", int(score)), right-25, mid, 1, 0.5)
	}
}

//PanelHeight is the art panel height for n rows.
func PanelHeight(n int) float64 {
	return math.Min(float64(n*panelItemHeight+panelPadding*2+40), panelMaxHeight)
}

//Image returns the drawn frame.
func (c *Canvas) Image() image.Image {
	return c.dc.Image()
}
