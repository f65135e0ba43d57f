package models

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/chenBenjamin97/point-field/pkg/artstyle"
	"github.com/chenBenjamin97/point-field/pkg/models/decode"
	"github.com/chenBenjamin97/point-field/pkg/video"
)

//MobileNetBlob fits Caffe MobileNet ImageNet classifiers.
var MobileNetBlob = BlobOptions{
	Size:   image.Pt(224, 224),
	Scale:  0.017,
	Mean:   gocv.NewScalar(103.94, 116.78, 123.68, 0),
	SwapRB: false,
}

//MobileNetClassifier is an ImageNet classifier with a single score vector
//output.
type MobileNetClassifier struct {
	mu     sync.Mutex
	net    gocv.Net
	labels []string
	blob   BlobOptions
}

func NewMobileNetClassifier(model, config, labelsPath string) (*MobileNetClassifier, error) {
	labels, err := decode.LoadLabels(labelsPath)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNet(model, config)
	if net.Empty() {
		return nil, errors.Wrapf(ErrModelNotLoaded, "could not read network '%s'", model)
	}
	return &MobileNetClassifier{net: net, labels: labels, blob: MobileNetBlob}, nil
}

//MobileNetLoader adapts NewMobileNetClassifier to artstyle.Loader.
func MobileNetLoader(model, config, labelsPath string) artstyle.Loader {
	return func(ctx context.Context) (artstyle.Classifier, error) {
		c, err := NewMobileNetClassifier(model, config, labelsPath)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

//Classify returns the topK most probable labels for img.
func (m *MobileNetClassifier) Classify(ctx context.Context, img image.Image, topK int) ([]video.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(err, "could not convert frame")
	}
	defer mat.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	blob := gocv.BlobFromImage(mat, m.blob.Scale, m.blob.Size, m.blob.Mean, m.blob.SwapRB, false)
	defer blob.Close()

	m.net.SetInput(blob, "")
	out := m.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "unexpected classifier output")
	}
	probs := make([]float32, len(data))
	copy(probs, data)

	decode.Softmax(probs)
	return decode.TopK(probs, m.labels, topK), nil
}

func (m *MobileNetClassifier) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.net.Close()
}
