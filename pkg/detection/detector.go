//Package detection runs an object detector over frames, filters its output
//and hands each detection to a tracker for a stable identity.
package detection

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/time/rate"

	"github.com/chenBenjamin97/point-field/pkg/config"
	"github.com/chenBenjamin97/point-field/pkg/logger"
	"github.com/chenBenjamin97/point-field/pkg/tracker"
	"github.com/chenBenjamin97/point-field/pkg/utils"
	"github.com/chenBenjamin97/point-field/pkg/video"
)

//Detector is the object-detection black box.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]video.Detection, error)
	Close() error
}

//Loader builds a Detector, typically by reading model files.
type Loader func(ctx context.Context) (Detector, error)

//TrackedDetection is a detection with the identity the tracker gave it.
type TrackedDetection struct {
	ID int `json:"id"`
	video.Detection
}

//Status is the user facing state of a component.
type Status struct {
	Message string `json:"message"`
	State   string `json:"state"`
}

//Options configure an ObjectDetector.
type Options struct {
	Width               int
	Height              int
	Scale               float64
	Throttle            time.Duration
	ConfidenceThreshold float64
	EvictionTimeout     time.Duration
	Classes             []string
	Clock               clock.Clock
}

//OptionsFromConfig maps the detection section of the config.
func OptionsFromConfig(cfg config.DetectionConfig) Options {
	return Options{
		Width:               cfg.Width,
		Height:              cfg.Height,
		Scale:               cfg.Scale,
		Throttle:            cfg.Throttle,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		EvictionTimeout:     cfg.EvictionTimeout,
		Classes:             cfg.Classes,
	}
}

//ObjectDetector owns a detector and the tracker fed by it. Detect calls are
//serialized, so a frame's Track calls and its eviction always complete
//before the next frame starts.
type ObjectDetector struct {
	opts    Options
	clock   clock.Clock
	limiter *rate.Limiter
	busy    sync.Mutex

	mu         sync.RWMutex
	detector   Detector
	tracker    *tracker.Tracker
	enabled    bool
	confidence float64
	classes    map[string]struct{}
	objects    []TrackedDetection
	stats      Stats
	fps        fpsMeter
	status     Status
}

//NewObjectDetector creates a paused detector without a model.
func NewObjectDetector(opts Options) *ObjectDetector {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.EvictionTimeout <= 0 {
		opts.EvictionTimeout = tracker.DefaultEvictionTimeout
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}

	limit := rate.Inf
	if opts.Throttle > 0 {
		limit = rate.Every(opts.Throttle)
	}

	o := &ObjectDetector{
		opts:       opts,
		clock:      opts.Clock,
		limiter:    rate.NewLimiter(limit, 1),
		tracker:    tracker.New(opts.Clock),
		confidence: opts.ConfidenceThreshold,
		status:     Status{Message: "Model not loaded", State: utils.StatusLoading},
		stats:      Stats{DetectionsByClass: map[string]int{}},
	}
	o.SetClasses(opts.Classes)
	return o
}

//Init loads the detector. A failed load leaves the component in the error
//state; the rest of the piece keeps working without boxes.
func (o *ObjectDetector) Init(ctx context.Context, load Loader) error {
	o.setStatus("Loading model...", utils.StatusLoading)

	d, err := load(ctx)
	if err != nil {
		o.setStatus("Error: "+err.Error(), utils.StatusError)
		logger.WithError(err).Error("ObjectDetector: could not load model")
		return errors.Wrap(err, "could not load detection model")
	}

	o.mu.Lock()
	o.detector = d
	o.mu.Unlock()

	o.setStatus("Model loaded. Click Detect Objects to start", utils.StatusReady)
	logger.Logger.Info("ObjectDetector: model loaded")
	return nil
}

//Toggle flips between active and paused and returns the new state.
func (o *ObjectDetector) Toggle() bool {
	o.mu.Lock()
	o.enabled = !o.enabled
	enabled := o.enabled
	o.mu.Unlock()

	if enabled {
		o.setStatus("Detection active", utils.StatusActive)
	} else {
		o.setStatus("Detection paused", utils.StatusPaused)
	}
	return enabled
}

//Enabled reports whether detection is active.
func (o *ObjectDetector) Enabled() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.enabled
}

//SetConfidenceThreshold sets the minimum score from a 0..100 percentage.
func (o *ObjectDetector) SetConfidenceThreshold(percent float64) error {
	if percent < 0 || percent > 100 {
		return errors.Errorf("confidence threshold must be within [0,100], got %v", percent)
	}
	o.mu.Lock()
	o.confidence = percent / 100
	o.mu.Unlock()
	return nil
}

//ConfidenceThreshold returns the minimum score within [0,1].
func (o *ObjectDetector) ConfidenceThreshold() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.confidence
}

//SetClasses restricts detection to the given classes; none means all.
func (o *ObjectDetector) SetClasses(classes []string) {
	set := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		set[c] = struct{}{}
	}
	o.mu.Lock()
	o.classes = set
	o.mu.Unlock()
}

//Classes returns the selected classes.
func (o *ObjectDetector) Classes() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]string, 0, len(o.classes))
	for c := range o.classes {
		out = append(out, c)
	}
	return out
}

//Detect runs one detection over frame and reports whether it ran. It is a
//no-op while paused, while another run is in progress and within the
//throttle interval of the previous run.
func (o *ObjectDetector) Detect(ctx context.Context, frame image.Image) (bool, error) {
	o.mu.RLock()
	d, enabled := o.detector, o.enabled
	o.mu.RUnlock()
	if !enabled || d == nil {
		return false, nil
	}

	if !o.busy.TryLock() {
		return false, nil
	}
	defer o.busy.Unlock()

	if !o.limiter.AllowN(o.clock.Now(), 1) {
		return false, nil
	}

	input, scale := o.prepare(frame)
	raw, err := d.Detect(ctx, input)
	if err != nil {
		o.setStatus("Detection error: "+err.Error(), utils.StatusError)
		logger.WithError(err).Error("ObjectDetector: detection failed")
		return true, errors.Wrap(err, "detection failed")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	process := Chain(
		NewScoreFilter(o.confidence),
		NewClassFilter(o.classes),
		NewScaler(1/scale),
	)

	kept := process(raw)
	objects := make([]TrackedDetection, 0, len(kept))
	for _, det := range kept {
		objects = append(objects, TrackedDetection{ID: o.tracker.Track(det), Detection: det})
	}
	now := o.clock.Now()
	evicted := o.tracker.EvictStale(now, o.opts.EvictionTimeout)

	o.objects = objects
	o.stats = computeStats(objects, o.fps.tick(now))

	logger.WithFields(logrus.Fields{
		"raw":     len(raw),
		"kept":    len(objects),
		"tracked": o.tracker.Len(),
		"evicted": evicted,
	}).Debug("ObjectDetector: frame processed")

	return true, nil
}

//prepare draws frame scaled by the detection scale onto a blank canvas of
//the detection size. It returns the scale applied, 1 when the frame is
//passed through untouched.
func (o *ObjectDetector) prepare(frame image.Image) (image.Image, float64) {
	if o.opts.Width <= 0 || o.opts.Height <= 0 {
		return frame, 1
	}
	canvas := image.NewRGBA(image.Rect(0, 0, o.opts.Width, o.opts.Height))

	b := frame.Bounds()
	target := image.Rect(0, 0,
		int(float64(b.Dx())*o.opts.Scale),
		int(float64(b.Dy())*o.opts.Scale),
	)
	xdraw.ApproxBiLinear.Scale(canvas, target, frame, b, xdraw.Src, nil)
	return canvas, o.opts.Scale
}

//Objects returns the detections of the latest run with their identities.
func (o *ObjectDetector) Objects() []TrackedDetection {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]TrackedDetection, len(o.objects))
	copy(out, o.objects)
	return out
}

//Tracked returns the tracker's live objects.
func (o *ObjectDetector) Tracked() []tracker.TrackedObject {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.tracker.Objects()
}

//Stats returns the statistics of the latest run.
func (o *ObjectDetector) Stats() Stats {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s := o.stats
	s.DetectionsByClass = make(map[string]int, len(o.stats.DetectionsByClass))
	for k, v := range o.stats.DetectionsByClass {
		s.DetectionsByClass[k] = v
	}
	return s
}

//Status returns the current status message and state.
func (o *ObjectDetector) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

func (o *ObjectDetector) setStatus(msg, state string) {
	o.mu.Lock()
	o.status = Status{Message: msg, State: state}
	o.mu.Unlock()
}

//Close releases the detector.
func (o *ObjectDetector) Close() error {
	o.mu.Lock()
	d := o.detector
	o.detector = nil
	o.mu.Unlock()
	if d == nil {
		return nil
	}
	return d.Close()
}
