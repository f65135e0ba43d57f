package artstyle

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenBenjamin97/point-field/pkg/utils"
	"github.com/chenBenjamin97/point-field/pkg/video"
)

type fakeClassifier struct {
	predictions []video.Prediction
	err         error
	calls       int
	topK        int
}

func (f *fakeClassifier) Classify(_ context.Context, _ image.Image, topK int) ([]video.Prediction, error) {
	f.calls++
	f.topK = topK
	return f.predictions, f.err
}

func (f *fakeClassifier) Close() error { return nil }

func TestProcessPredictions(t *testing.T) {
	preds := []video.Prediction{
		{Label: "Tabby Cat", Probability: 0.6},
		{Label: "sports car, sport car", Probability: 0.3},
		{Label: "church, church building", Probability: 0.2},
		{Label: "hair slide", Probability: 0.05},
		{Label: "toaster", Probability: 0.9},
	}

	got := ProcessPredictions(preds, DefaultCategories, 0.1)

	assert.Equal(t, []StyleScore{
		{Category: "Nature", Score: 0.6},
		{Category: "Urban", Score: 0.3},
		{Category: "Architecture", Score: 0.2},
	}, got)
}

func TestProcessPredictionsTakesMaxPerCategory(t *testing.T) {
	preds := []video.Prediction{
		{Label: "flowerpot", Probability: 0.2},
		{Label: "vase", Probability: 0.5},
	}

	got := ProcessPredictions(preds, DefaultCategories, 0.1)

	require.Len(t, got, 2)
	//Still Life from vase (0.5), Nature from flowerpot (0.2)
	assert.Equal(t, StyleScore{Category: "Still Life", Score: 0.5}, got[0])
	assert.Equal(t, StyleScore{Category: "Nature", Score: 0.2}, got[1])
}

func TestProcessPredictionsTiesKeepCategoryOrder(t *testing.T) {
	preds := []video.Prediction{{Label: "tree frog", Probability: 0.4}}

	got := ProcessPredictions(preds, DefaultCategories, 0.1)

	require.Len(t, got, 2)
	assert.Equal(t, "Landscape", got[0].Category)
	assert.Equal(t, "Nature", got[1].Category)
}

func TestProcessPredictionsMinScoreIsExclusive(t *testing.T) {
	preds := []video.Prediction{{Label: "beach wagon", Probability: 0.1}}
	assert.Empty(t, ProcessPredictions(preds, DefaultCategories, 0.1))
}

func newTestRecognizer(t *testing.T, mock *clock.Mock, fake *fakeClassifier) *Recognizer {
	r := NewRecognizer(Options{Throttle: time.Second, TopK: 10, MinScore: 0.1, Clock: mock})
	require.NoError(t, r.Init(context.Background(), func(context.Context) (Classifier, error) {
		return fake, nil
	}))
	require.True(t, r.Toggle())
	return r
}

func TestProcessPredictionsMatchesSubstrings(t *testing.T) {
	preds := []video.Prediction{{Label: "street sign", Probability: 0.8}}

	got := ProcessPredictions(preds, DefaultCategories, 0.1)
	assert.Equal(t, []StyleScore{
		{Category: "Landscape", Score: 0.8},
		{Category: "Nature", Score: 0.8},
		{Category: "Urban", Score: 0.8},
	}, got)
}

func TestRecognize(t *testing.T) {
	mock := clock.NewMock()
	fake := &fakeClassifier{predictions: []video.Prediction{{Label: "mountain bike", Probability: 0.7}}}
	r := newTestRecognizer(t, mock, fake)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))

	ran, err := r.Recognize(context.Background(), img)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 10, fake.topK)
	assert.Equal(t, []StyleScore{{Category: "Landscape", Score: 0.7}}, r.Results())
	assert.Equal(t, "Recognized 1 artistic elements", r.Status().Message)

	mock.Add(500 * time.Millisecond)
	ran, _ = r.Recognize(context.Background(), img)
	assert.False(t, ran)

	mock.Add(600 * time.Millisecond)
	ran, _ = r.Recognize(context.Background(), img)
	assert.True(t, ran)
	assert.Equal(t, 2, fake.calls)
}

func TestRecognizePaused(t *testing.T) {
	fake := &fakeClassifier{}
	r := newTestRecognizer(t, clock.NewMock(), fake)
	r.Toggle()

	ran, err := r.Recognize(context.Background(), image.NewRGBA(image.Rect(0, 0, 1, 1)))
	assert.NoError(t, err)
	assert.False(t, ran)
	assert.Zero(t, fake.calls)
	assert.Equal(t, utils.StatusPaused, r.Status().State)
}

func TestRecognizeErrorKeepsResults(t *testing.T) {
	mock := clock.NewMock()
	fake := &fakeClassifier{predictions: []video.Prediction{{Label: "traffic light", Probability: 0.8}}}
	r := newTestRecognizer(t, mock, fake)
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))

	_, err := r.Recognize(context.Background(), img)
	require.NoError(t, err)

	fake.err = errors.New("bad tensor")
	mock.Add(2 * time.Second)
	_, err = r.Recognize(context.Background(), img)
	assert.ErrorContains(t, err, "bad tensor")
	assert.Equal(t, utils.StatusError, r.Status().State)
	assert.Len(t, r.Results(), 1)
}

func TestInitFailure(t *testing.T) {
	r := NewRecognizer(Options{})
	err := r.Init(context.Background(), func(context.Context) (Classifier, error) {
		return nil, errors.New("no labels")
	})
	assert.Error(t, err)
	assert.Equal(t, utils.StatusError, r.Status().State)
	assert.NoError(t, r.Close())
}
