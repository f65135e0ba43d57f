package video

import (
	"bytes"
	"image"
	_ "image/gif" //register decoders for image.Decode
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

//ErrNotImage is returned when a dropped or uploaded file is not a decodable image
var ErrNotImage = errors.New("not an image")

//FrameSource delivers the pixels the piece is built from
type FrameSource interface {
	//Frame returns the current frame, live sources grab a new one on each call
	Frame() (image.Image, error)
	Bounds() image.Rectangle
	//Live is true for sources whose frames change by themselves (camera)
	Live() bool
	Close() error
}

//Opener opens a live source sized to given width and height
type Opener func(width, height int) (FrameSource, error)

//ImageSource is a still image
type ImageSource struct {
	img image.Image
}

//NewImageSource decodes an image from r. Images larger than maxWidth x maxHeight are shrunk to fit.
//Data whose content type is not image/* results in ErrNotImage.
func NewImageSource(r io.Reader, maxWidth, maxHeight int) (*ImageSource, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "NewImageSource: could not read data")
	}

	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return nil, ErrNotImage
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(ErrNotImage, err.Error())
	}

	b := img.Bounds()
	if maxWidth > 0 && maxHeight > 0 && (b.Dx() > maxWidth || b.Dy() > maxHeight) {
		img = imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	}

	return &ImageSource{img: img}, nil
}

//OpenImageFile opens and decodes the image at given path
func OpenImageFile(path string, maxWidth, maxHeight int) (*ImageSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "OpenImageFile: could not open '%s'", path)
	}
	defer f.Close()

	return NewImageSource(f, maxWidth, maxHeight)
}

//NewStaticSource wraps an already decoded image
func NewStaticSource(img image.Image) *ImageSource {
	return &ImageSource{img: img}
}

func (s *ImageSource) Frame() (image.Image, error) {
	return s.img, nil
}

func (s *ImageSource) Bounds() image.Rectangle {
	return s.img.Bounds()
}

func (s *ImageSource) Live() bool {
	return false
}

func (s *ImageSource) Close() error {
	return nil
}
