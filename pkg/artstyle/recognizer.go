//Package artstyle turns ranked classifier labels into a coarse art style
//panel.
package artstyle

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/chenBenjamin97/point-field/pkg/config"
	"github.com/chenBenjamin97/point-field/pkg/logger"
	"github.com/chenBenjamin97/point-field/pkg/utils"
	"github.com/chenBenjamin97/point-field/pkg/video"
)

//Classifier is the image-classification black box.
type Classifier interface {
	Classify(ctx context.Context, img image.Image, topK int) ([]video.Prediction, error)
	Close() error
}

//Loader builds a Classifier.
type Loader func(ctx context.Context) (Classifier, error)

//Status is the user facing state of the recognizer.
type Status struct {
	Message string `json:"message"`
	State   string `json:"state"`
}

//Options configure a Recognizer.
type Options struct {
	Throttle   time.Duration
	TopK       int
	MinScore   float64
	Categories []Category
	Clock      clock.Clock
}

//OptionsFromConfig maps the art section of the config.
func OptionsFromConfig(cfg config.ArtConfig) Options {
	return Options{
		Throttle: cfg.Throttle,
		TopK:     cfg.TopK,
		MinScore: cfg.MinScore,
	}
}

//Recognizer classifies frames at a throttled rate and keeps the latest
//style scores.
type Recognizer struct {
	opts    Options
	clock   clock.Clock
	limiter *rate.Limiter

	mu         sync.RWMutex
	classifier Classifier
	enabled    bool
	results    []StyleScore
	status     Status
}

func NewRecognizer(opts Options) *Recognizer {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	if opts.Categories == nil {
		opts.Categories = DefaultCategories
	}
	limit := rate.Inf
	if opts.Throttle > 0 {
		limit = rate.Every(opts.Throttle)
	}
	return &Recognizer{
		opts:    opts,
		clock:   opts.Clock,
		limiter: rate.NewLimiter(limit, 1),
		status:  Status{Message: "Model not loaded", State: utils.StatusLoading},
	}
}

//Init loads the classifier.
func (r *Recognizer) Init(ctx context.Context, load Loader) error {
	r.setStatus("Loading art recognition model...", utils.StatusLoading)

	c, err := load(ctx)
	if err != nil {
		r.setStatus("Error loading model: "+err.Error(), utils.StatusError)
		logger.WithError(err).Error("Recognizer: could not load model")
		return errors.Wrap(err, "could not load art recognition model")
	}

	r.mu.Lock()
	r.classifier = c
	r.mu.Unlock()

	r.setStatus("Art recognition ready", utils.StatusReady)
	logger.Logger.Info("Recognizer: model loaded")
	return nil
}

//Toggle flips between active and paused and returns the new state.
func (r *Recognizer) Toggle() bool {
	r.mu.Lock()
	r.enabled = !r.enabled
	enabled := r.enabled
	r.mu.Unlock()

	if enabled {
		r.setStatus("Art recognition active", utils.StatusActive)
	} else {
		r.setStatus("Art recognition paused", utils.StatusPaused)
	}
	return enabled
}

func (r *Recognizer) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

//Recognize classifies img unless paused or throttled, and reports whether
//it ran. A failed classification keeps the previous results.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) (bool, error) {
	r.mu.RLock()
	c, enabled := r.classifier, r.enabled
	r.mu.RUnlock()
	if !enabled || c == nil {
		return false, nil
	}

	if !r.limiter.AllowN(r.clock.Now(), 1) {
		return false, nil
	}

	predictions, err := c.Classify(ctx, img, r.opts.TopK)
	if err != nil {
		r.setStatus("Recognition error: "+err.Error(), utils.StatusError)
		logger.WithError(err).Error("Recognizer: classification failed")
		return true, errors.Wrap(err, "classification failed")
	}

	results := ProcessPredictions(predictions, r.opts.Categories, r.opts.MinScore)

	r.mu.Lock()
	r.results = results
	r.status = Status{
		Message: fmt.Sprintf("Recognized %d artistic elements", len(results)),
		State:   utils.StatusActive,
	}
	r.mu.Unlock()

	logger.WithField("styles", len(results)).Debug("Recognizer: frame classified")
	return true, nil
}

//Results returns the latest style scores, best first.
func (r *Recognizer) Results() []StyleScore {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]StyleScore, len(r.results))
	copy(out, r.results)
	return out
}

func (r *Recognizer) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *Recognizer) setStatus(msg, state string) {
	r.mu.Lock()
	r.status = Status{Message: msg, State: state}
	r.mu.Unlock()
}

//Close releases the classifier.
func (r *Recognizer) Close() error {
	r.mu.Lock()
	c := r.classifier
	r.classifier = nil
	r.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.Close()
}
