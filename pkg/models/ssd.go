//Package models wraps OpenCV DNN networks behind the detector and
//classifier interfaces.
package models

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/chenBenjamin97/point-field/pkg/detection"
	"github.com/chenBenjamin97/point-field/pkg/logger"
	"github.com/chenBenjamin97/point-field/pkg/models/decode"
	"github.com/chenBenjamin97/point-field/pkg/video"
)

var ErrModelNotLoaded = errors.New("model not loaded")

//BlobOptions describe how a frame is turned into a network input.
type BlobOptions struct {
	Size   image.Point
	Scale  float64
	Mean   gocv.Scalar
	SwapRB bool
}

//SSDBlob fits TensorFlow SSD MobileNet COCO graphs.
var SSDBlob = BlobOptions{
	Size:   image.Pt(300, 300),
	Scale:  1.0 / 127.5,
	Mean:   gocv.NewScalar(127.5, 127.5, 127.5, 0),
	SwapRB: true,
}

//SSDDetector runs a single shot detector with a [1,1,N,7] output.
type SSDDetector struct {
	mu     sync.Mutex
	net    gocv.Net
	labels []string
	blob   BlobOptions
}

//NewSSDDetector reads the network from model (and config for frameworks
//that split weights and graph) and the class names from labelsPath.
func NewSSDDetector(model, config, labelsPath string) (*SSDDetector, error) {
	labels, err := decode.LoadLabels(labelsPath)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNet(model, config)
	if net.Empty() {
		return nil, errors.Wrapf(ErrModelNotLoaded, "could not read network '%s'", model)
	}
	return &SSDDetector{net: net, labels: labels, blob: SSDBlob}, nil
}

//SSDLoader adapts NewSSDDetector to detection.Loader.
func SSDLoader(model, config, labelsPath string) detection.Loader {
	return func(ctx context.Context) (detection.Detector, error) {
		d, err := NewSSDDetector(model, config, labelsPath)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}

//Detect returns every box the network reports, in img coordinates.
//Score filtering is left to the caller.
func (d *SSDDetector) Detect(ctx context.Context, img image.Image) ([]video.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(err, "could not convert frame")
	}
	defer mat.Close()

	rows, err := d.forward(mat)
	if err != nil {
		return nil, err
	}
	return decode.SSD(rows, d.labels, mat.Cols(), mat.Rows(), 0), nil
}

func (d *SSDDetector) forward(mat gocv.Mat) ([]decode.SSDRow, error) {
	if mat.Empty() {
		return nil, errors.New("SSDDetector: empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	blob := gocv.BlobFromImage(mat, d.blob.Scale, d.blob.Size, d.blob.Mean, d.blob.SwapRB, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	detections := gocv.GetBlobChannel(out, 0, 0)
	defer detections.Close()

	rows := make([]decode.SSDRow, detections.Rows())
	for r := range rows {
		for c := 0; c < 7; c++ {
			rows[r][c] = detections.GetFloatAt(r, c)
		}
	}
	logger.WithField("rows", len(rows)).Debug("SSDDetector: forward pass done")
	return rows, nil
}

func (d *SSDDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
