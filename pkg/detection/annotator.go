package detection

import (
	"context"
	"image"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/chenBenjamin97/point-field/pkg/tracker"
)

//Annotator detects and tracks on every frame of a recorded video. It keeps
//its own tracker whose clock follows the video timeline, so eviction is in
//video time and no frame is throttled away.
type Annotator struct {
	detector Detector
	clock    *clock.Mock
	start    time.Time
	tracker  *tracker.Tracker
	process  Postprocessor
	timeout  time.Duration
}

func NewAnnotator(d Detector, confidence float64, classes []string, timeout time.Duration) *Annotator {
	mock := clock.NewMock()
	set := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		set[c] = struct{}{}
	}
	if timeout <= 0 {
		timeout = tracker.DefaultEvictionTimeout
	}
	return &Annotator{
		detector: d,
		clock:    mock,
		start:    mock.Now(),
		tracker:  tracker.New(mock),
		process:  Chain(NewScoreFilter(confidence), NewClassFilter(set)),
		timeout:  timeout,
	}
}

//Annotate returns the tracked detections of the frame shown at offset
//from the start of the video. Offsets must not go backwards.
func (a *Annotator) Annotate(ctx context.Context, frame image.Image, offset time.Duration) ([]TrackedDetection, error) {
	raw, err := a.detector.Detect(ctx, frame)
	if err != nil {
		return nil, errors.Wrap(err, "detection failed")
	}

	now := a.start.Add(offset)
	if now.After(a.clock.Now()) {
		a.clock.Set(now)
	}

	kept := a.process(raw)
	out := make([]TrackedDetection, 0, len(kept))
	for _, det := range kept {
		out = append(out, TrackedDetection{ID: a.tracker.Track(det), Detection: det})
	}
	a.tracker.EvictStale(a.clock.Now(), a.timeout)
	return out, nil
}

//Tracked is the number of objects the annotator currently tracks.
func (a *Annotator) Tracked() int {
	return a.tracker.Len()
}
