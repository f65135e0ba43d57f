package camera

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/chenBenjamin97/point-field/pkg/detection"
	"github.com/chenBenjamin97/point-field/pkg/logger"
	"github.com/chenBenjamin97/point-field/pkg/render"
)

//TagCodec is the fourcc of tagged videos ('.avi' container)
const TagCodec = "MJPG"

const defaultFPS = 25

//TagVideo reads the video at srcPath, runs detection and tracking on each of its frames and writes a copy with
//labelled boxes plotted above the objects to dstPath.
func TagVideo(ctx context.Context, annotator *detection.Annotator, srcPath, dstPath string, shapes render.Options) error {
	capture, err := gocv.VideoCaptureFile(srcPath)
	if err != nil {
		return errors.Wrapf(err, "TagVideo: could not open '%s'", srcPath)
	}
	defer capture.Close()

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = defaultFPS
	}
	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))

	writer, err := gocv.VideoWriterFile(dstPath, TagCodec, fps, width, height, true)
	if err != nil {
		return errors.Wrapf(err, "TagVideo: could not create '%s'", dstPath)
	}
	defer writer.Close()

	frameMat := gocv.NewMat()
	defer frameMat.Close()

	frameInterval := time.Duration(float64(time.Second) / fps)
	writtenFramesCounter := 0
	objectsCounter := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ok := capture.Read(&frameMat); !ok || frameMat.Empty() {
			break
		}

		frame, err := frameMat.ToImage()
		if err != nil {
			return errors.Wrapf(err, "TagVideo: could not convert frame %d", writtenFramesCounter)
		}

		offset := time.Duration(writtenFramesCounter) * frameInterval
		objects, err := annotator.Annotate(ctx, frame, offset)
		if err != nil {
			//keep the untagged frame so the output stays in sync with the source
			logger.WithError(err).WithField("frame", writtenFramesCounter).Warn("TagVideo: skipping detection")
			objects = nil
		}
		objectsCounter += len(objects)

		canvas := render.NewCanvasForImage(frame, shapes)
		canvas.Detections(objects)

		tagged, err := gocv.ImageToMatRGB(canvas.Image())
		if err != nil {
			return errors.Wrapf(err, "TagVideo: could not convert tagged frame %d", writtenFramesCounter)
		}
		err = writer.Write(tagged)
		tagged.Close()
		if err != nil {
			return errors.Wrapf(err, "TagVideo: could not write frame %d", writtenFramesCounter)
		}
		writtenFramesCounter++
	}

	logger.WithFields(logrus.Fields{
		"src":     srcPath,
		"dst":     dstPath,
		"frames":  writtenFramesCounter,
		"objects": objectsCounter,
	}).Info("TagVideo: done")
	return nil
}
