//Package points samples bright pixels of a frame into an animated point
//field.
package points

import (
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"

	"github.com/chenBenjamin97/point-field/pkg/config"
)

//Shape is drawn at the midpoint of a connection.
type Shape int

const (
	Circle Shape = iota
	Square
)

func (s Shape) String() string {
	if s == Circle {
		return "circle"
	}
	return "square"
}

//Point is a sampled pixel. X and Y move around OriginalX and OriginalY.
type Point struct {
	OriginalX, OriginalY float64
	X, Y                 float64
	Size                 float64
	Color                color.RGBA
	NoiseSeed            float64
	VelocityX, VelocityY float64
}

//Connection joins two points closer than the connection distance.
type Connection struct {
	X1, Y1, X2, Y2 float64
	//Line is the colour of the first point with a distance based alpha.
	Line color.NRGBA
	//Fill is the colour of the second point, alpha left to the renderer.
	Fill       color.RGBA
	MidX, MidY float64
	Shape      Shape
}

//Mouse is the pointer state used to push points away.
type Mouse struct {
	X, Y    float64
	Pressed bool
	Enabled bool
}

//Options configure a Manager.
type Options struct {
	Count               int
	MinSize             float64
	MaxSize             float64
	BrightnessThreshold float64
	ConnectionDistance  float64
	MaxDisplacement     float64
	MouseForce          float64
	MouseRadius         float64
	Dampening           float64
}

//OptionsFromConfig merges the points and animation sections.
func OptionsFromConfig(p config.PointsConfig, a config.AnimationConfig) Options {
	return Options{
		Count:               p.Count,
		MinSize:             p.MinSize,
		MaxSize:             p.MaxSize,
		BrightnessThreshold: p.BrightnessThreshold,
		ConnectionDistance:  p.ConnectionDistance,
		MaxDisplacement:     a.MaxDisplacement,
		MouseForce:          a.MouseForce,
		MouseRadius:         a.MouseRadius,
		Dampening:           a.Dampening,
	}
}

//Manager owns the point field. It is not safe for concurrent use.
type Manager struct {
	opts   Options
	rnd    *rand.Rand
	noise  *perlin.Perlin
	points []Point
}

//NewManager seeds both the sampler and the noise field with seed.
func NewManager(opts Options, seed int64) *Manager {
	return &Manager{
		opts:  opts,
		rnd:   rand.New(rand.NewSource(seed)),
		noise: perlin.NewPerlin(2, 2, 3, seed),
	}
}

//Generate replaces the field with up to Count samples of img whose
//brightness is above the threshold, mapped onto a width x height canvas.
func (m *Manager) Generate(img image.Image, width, height int) {
	m.points = m.points[:0]
	if img == nil {
		return
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return
	}

	for i := 0; i < m.opts.Count; i++ {
		x := m.rnd.Intn(b.Dx())
		y := m.rnd.Intn(b.Dy())
		c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)

		brightness := (float64(c.R) + float64(c.G) + float64(c.B)) / 3
		if brightness <= m.opts.BrightnessThreshold {
			continue
		}

		mx := float64(x) * float64(width) / float64(b.Dx())
		my := float64(y) * float64(height) / float64(b.Dy())
		m.points = append(m.points, Point{
			OriginalX: mx,
			OriginalY: my,
			X:         mx,
			Y:         my,
			Size:      m.opts.MinSize + m.rnd.Float64()*(m.opts.MaxSize-m.opts.MinSize),
			Color:     color.RGBA{R: c.R, G: c.G, B: c.B, A: 255},
			NoiseSeed: m.rnd.Float64() * 1000,
		})
	}
}

//Update advances every point one animation step.
func (m *Manager) Update(noiseOffset float64, mouse Mouse) {
	for i := range m.points {
		p := &m.points[i]

		if mouse.Enabled && mouse.Pressed {
			dx, dy := p.X-mouse.X, p.Y-mouse.Y
			d := math.Hypot(dx, dy)
			if d < m.opts.MouseRadius && d > 0 {
				p.VelocityX += dx / d * m.opts.MouseForce
				p.VelocityY += dy / d * m.opts.MouseForce
			}
		}

		nx := m.displacement(p.NoiseSeed, noiseOffset)
		ny := m.displacement(p.NoiseSeed+1000, noiseOffset)

		p.X = p.OriginalX + nx + p.VelocityX
		p.Y = p.OriginalY + ny + p.VelocityY

		p.VelocityX *= m.opts.Dampening
		p.VelocityY *= m.opts.Dampening
	}
}

//displacement maps smooth noise onto [-MaxDisplacement, MaxDisplacement].
func (m *Manager) displacement(seed, offset float64) float64 {
	n := (m.noise.Noise2D(seed, offset) + 1) / 2
	n = math.Max(0, math.Min(1, n))
	return -m.opts.MaxDisplacement + n*2*m.opts.MaxDisplacement
}

//Connections lists every pair of points closer than the connection
//distance. The midpoint shape is picked at random on each call.
func (m *Manager) Connections() []Connection {
	var out []Connection
	maxDist := m.opts.ConnectionDistance
	for i := 0; i < len(m.points); i++ {
		a := m.points[i]
		for j := i + 1; j < len(m.points); j++ {
			b := m.points[j]
			d := math.Hypot(a.X-b.X, a.Y-b.Y)
			if d >= maxDist {
				continue
			}

			line := color.NRGBA{R: a.Color.R, G: a.Color.G, B: a.Color.B}
			line.A = uint8(math.Round(255 - d/maxDist*(255-50)))

			shape := Square
			if m.rnd.Float64() > 0.5 {
				shape = Circle
			}
			out = append(out, Connection{
				X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y,
				Line:  line,
				Fill:  b.Color,
				MidX:  (a.X + b.X) / 2,
				MidY:  (a.Y + b.Y) / 2,
				Shape: shape,
			})
		}
	}
	return out
}

//Points returns a copy of the field.
func (m *Manager) Points() []Point {
	out := make([]Point, len(m.points))
	copy(out, m.points)
	return out
}

func (m *Manager) Len() int {
	return len(m.points)
}
