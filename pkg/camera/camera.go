//Package camera reads live and recorded video through OpenCV.
package camera

import (
	"image"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/chenBenjamin97/point-field/pkg/logger"
	"github.com/chenBenjamin97/point-field/pkg/video"
)

//ErrNoCamera is returned when the capture device cannot be opened or delivers no frames
var ErrNoCamera = errors.New("no camera available")

//Source is a live capture device
type Source struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	frame   gocv.Mat
	bounds  image.Rectangle
	closed  bool
}

//Open returns an Opener for the capture device with given id
func Open(deviceID int) video.Opener {
	return func(width, height int) (video.FrameSource, error) {
		return NewSource(deviceID, width, height)
	}
}

//NewSource opens device deviceID and asks it for width x height frames. Devices may answer with another size,
//Bounds reports what they actually deliver.
func NewSource(deviceID, width, height int) (*Source, error) {
	capture, err := gocv.VideoCaptureDevice(deviceID)
	if err != nil {
		logger.WithError(err).Error("NewSource: could not open capture device")
		return nil, errors.Wrap(ErrNoCamera, err.Error())
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(height))

	s := &Source{
		capture: capture,
		frame:   gocv.NewMat(),
		bounds: image.Rect(0, 0,
			int(capture.Get(gocv.VideoCaptureFrameWidth)),
			int(capture.Get(gocv.VideoCaptureFrameHeight)),
		),
	}
	if s.bounds.Empty() {
		s.bounds = image.Rect(0, 0, width, height)
	}

	logger.WithField("device", deviceID).Info("NewSource: camera opened")
	return s, nil
}

//Frame grabs the next frame from the device
func (s *Source) Frame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.Wrap(ErrNoCamera, "source closed")
	}
	if ok := s.capture.Read(&s.frame); !ok || s.frame.Empty() {
		return nil, errors.Wrap(ErrNoCamera, "device returned no frame")
	}

	img, err := s.frame.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "could not convert camera frame")
	}
	return img, nil
}

func (s *Source) Bounds() image.Rectangle {
	return s.bounds
}

func (s *Source) Live() bool {
	return true
}

//Close releases the capture device, calling it more than once is fine
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.frame.Close(); err != nil {
		logger.WithError(err).Warn("Close: could not release frame buffer")
	}
	return s.capture.Close()
}
