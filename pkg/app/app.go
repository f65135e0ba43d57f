//Package app ties the frame source, the point field and the detection
//overlays into one drawable piece.
package app

import (
	"context"
	"image"
	"io"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/chenBenjamin97/point-field/pkg/artstyle"
	"github.com/chenBenjamin97/point-field/pkg/config"
	"github.com/chenBenjamin97/point-field/pkg/detection"
	"github.com/chenBenjamin97/point-field/pkg/effects"
	"github.com/chenBenjamin97/point-field/pkg/logger"
	"github.com/chenBenjamin97/point-field/pkg/points"
	"github.com/chenBenjamin97/point-field/pkg/render"
	"github.com/chenBenjamin97/point-field/pkg/video"
)

//Options wire the app to its collaborators. Nil loaders leave the
//matching component without a model.
type Options struct {
	Config           *config.Config
	OpenCamera       video.Opener
	DetectorLoader   detection.Loader
	ClassifierLoader artstyle.Loader
	Clock            clock.Clock
	Seed             int64
}

//State is a snapshot of the user toggles.
type State struct {
	Animating        bool           `json:"animating"`
	MouseInteractive bool           `json:"mouseInteractive"`
	UseCamera        bool           `json:"useCamera"`
	HasSource        bool           `json:"hasSource"`
	Effect           effects.Effect `json:"effect"`
	Points           int            `json:"points"`
}

type App struct {
	cfg        *config.Config
	open       video.Opener
	loadDet    detection.Loader
	loadCls    artstyle.Loader
	detector   *detection.ObjectDetector
	recognizer *artstyle.Recognizer
	shapes     render.Options

	mu               sync.Mutex
	points           *points.Manager
	source           video.FrameSource
	useCamera        bool
	animating        bool
	mouseInteractive bool
	mouse            points.Mouse
	effect           effects.Effect
	noiseOffset      float64
	regenerate       bool
}

func New(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = clk.Now().UnixNano()
	}

	detOpts := detection.OptionsFromConfig(cfg.Detection)
	detOpts.Clock = clk
	artOpts := artstyle.OptionsFromConfig(cfg.Art)
	artOpts.Clock = clk

	return &App{
		cfg:              cfg,
		open:             opts.OpenCamera,
		loadDet:          opts.DetectorLoader,
		loadCls:          opts.ClassifierLoader,
		detector:         detection.NewObjectDetector(detOpts),
		recognizer:       artstyle.NewRecognizer(artOpts),
		shapes:           render.OptionsFromConfig(cfg.Shapes),
		points:           points.NewManager(points.OptionsFromConfig(cfg.Points, cfg.Animation), seed),
		animating:        true,
		mouseInteractive: true,
		effect:           effects.None,
	}
}

//Setup loads both models concurrently. A model that fails to load leaves
//its component in the error state; the app keeps working without it.
func (a *App) Setup(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if a.loadDet != nil {
		g.Go(func() error {
			if err := a.detector.Init(gctx, a.loadDet); err != nil {
				logger.WithError(err).Warn("Setup: object detection disabled")
			}
			return nil
		})
	}
	if a.loadCls != nil {
		g.Go(func() error {
			if err := a.recognizer.Init(gctx, a.loadCls); err != nil {
				logger.WithError(err).Warn("Setup: art recognition disabled")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

//Draw renders one frame. Without a source the frame is black.
func (a *App) Draw(ctx context.Context) (image.Image, error) {
	width, height := a.cfg.Canvas.Width, a.cfg.Canvas.Height
	canvas := render.NewCanvas(width, height, a.shapes)

	a.mu.Lock()
	src := a.source
	if src == nil {
		a.mu.Unlock()
		return canvas.Image(), nil
	}

	frame, err := src.Frame()
	if err != nil {
		a.mu.Unlock()
		logger.WithError(err).Error("Draw: could not read frame")
		return canvas.Image(), errors.Wrap(err, "could not read frame")
	}

	if a.regenerate || src.Live() {
		a.points.Generate(effects.Apply(frame, a.effect), width, height)
		a.regenerate = false
	}
	if a.animating {
		a.noiseOffset += a.cfg.Animation.NoiseSpeed
		mouse := a.mouse
		mouse.Enabled = a.mouseInteractive
		a.points.Update(a.noiseOffset, mouse)
	}
	canvas.Connections(a.points.Connections())
	canvas.Points(a.points.Points())
	a.mu.Unlock()

	if a.detector.Enabled() {
		if _, err := a.detector.Detect(ctx, frame); err != nil {
			logger.WithError(err).Warn("Draw: keeping previous detections")
		}
		canvas.Detections(toCanvas(a.detector.Objects(), frame.Bounds(), width, height))
	}

	if a.recognizer.Enabled() {
		if _, err := a.recognizer.Recognize(ctx, frame); err != nil {
			logger.WithError(err).Warn("Draw: keeping previous art recognition")
		}
		canvas.ArtPanel(a.recognizer.Results())
	}

	return canvas.Image(), nil
}

//toCanvas maps boxes from frame coordinates onto the canvas.
func toCanvas(objs []detection.TrackedDetection, frame image.Rectangle, width, height int) []detection.TrackedDetection {
	if frame.Dx() == 0 || frame.Dy() == 0 {
		return objs
	}
	sx := float64(width) / float64(frame.Dx())
	sy := float64(height) / float64(frame.Dy())
	for i := range objs {
		b := &objs[i].BBox
		b.X *= sx
		b.Width *= sx
		b.Y *= sy
		b.Height *= sy
	}
	return objs
}

func (a *App) ToggleAnimation() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.animating = !a.animating
	return a.animating
}

func (a *App) ToggleMouseInteraction() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mouseInteractive = !a.mouseInteractive
	return a.mouseInteractive
}

//SetMouse records the pointer position in canvas coordinates.
func (a *App) SetMouse(x, y float64, pressed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mouse = points.Mouse{X: x, Y: y, Pressed: pressed}
}

//SetEffect switches the filter applied before points are sampled.
func (a *App) SetEffect(name string) error {
	e, err := effects.Parse(name)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if e != a.effect {
		a.effect = e
		a.regenerate = true
	}
	return nil
}

//ToggleInputSource starts the camera, or stops it and releases the device.
//It returns whether the camera is in use afterwards.
func (a *App) ToggleInputSource(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.useCamera {
		a.stopCamera()
		return false, nil
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}
	if a.open == nil {
		return false, errors.New("no camera configured")
	}
	src, err := a.open(a.cfg.Canvas.Width, a.cfg.Canvas.Height)
	if err != nil {
		logger.WithError(err).Error("ToggleInputSource: could not access camera")
		return false, errors.Wrap(err, "could not access camera")
	}
	a.replaceSource(src)
	a.useCamera = true
	return true, nil
}

//LoadImage makes the image read from r the source, stopping the camera
//first. Data that is not an image is rejected with video.ErrNotImage and
//leaves the current source in place.
func (a *App) LoadImage(r io.Reader) error {
	src, err := video.NewImageSource(r, a.cfg.Canvas.MaxWidth, a.cfg.Canvas.MaxHeight)
	if err != nil {
		return err
	}
	a.setStill(src)
	return nil
}

//SelectImage makes the image file at path the source.
func (a *App) SelectImage(path string) error {
	src, err := video.OpenImageFile(path, a.cfg.Canvas.MaxWidth, a.cfg.Canvas.MaxHeight)
	if err != nil {
		return err
	}
	a.setStill(src)
	return nil
}

func (a *App) setStill(src video.FrameSource) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.useCamera {
		a.stopCamera()
	}
	a.replaceSource(src)
}

//stopCamera must be called with mu held.
func (a *App) stopCamera() {
	if a.source != nil {
		if err := a.source.Close(); err != nil {
			logger.WithError(err).Warn("stopCamera: could not release camera")
		}
	}
	a.source = nil
	a.useCamera = false
	a.points.Generate(nil, 0, 0)
}

//replaceSource must be called with mu held.
func (a *App) replaceSource(src video.FrameSource) {
	if a.source != nil {
		if err := a.source.Close(); err != nil {
			logger.WithError(err).Warn("replaceSource: could not close previous source")
		}
	}
	a.source = src
	a.regenerate = true
}

func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return State{
		Animating:        a.animating,
		MouseInteractive: a.mouseInteractive,
		UseCamera:        a.useCamera,
		HasSource:        a.source != nil,
		Effect:           a.effect,
		Points:           a.points.Len(),
	}
}

func (a *App) Detector() *detection.ObjectDetector {
	return a.detector
}

func (a *App) Recognizer() *artstyle.Recognizer {
	return a.recognizer
}

//Close releases the source and both models.
func (a *App) Close() error {
	a.mu.Lock()
	var result error
	if a.source != nil {
		result = a.source.Close()
		a.source = nil
		a.useCamera = false
	}
	a.mu.Unlock()

	if err := a.detector.Close(); err != nil && result == nil {
		result = err
	}
	if err := a.recognizer.Close(); err != nil && result == nil {
		result = err
	}
	return result
}
