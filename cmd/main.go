package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/chenBenjamin97/point-field/pkg/api"
	"github.com/chenBenjamin97/point-field/pkg/app"
	"github.com/chenBenjamin97/point-field/pkg/camera"
	"github.com/chenBenjamin97/point-field/pkg/config"
	"github.com/chenBenjamin97/point-field/pkg/detection"
	"github.com/chenBenjamin97/point-field/pkg/logger"
	"github.com/chenBenjamin97/point-field/pkg/models"
	"github.com/chenBenjamin97/point-field/pkg/render"
	"github.com/chenBenjamin97/point-field/pkg/utils"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to the yaml configuration file (default ./config.yaml)")
	tagSrc := flag.String("tag", "", "tag the given video file with tracked detections and exit")
	tagDst := flag.String("out", "", "where the tagged video is written (default '<video>_tagged.avi')")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("main: could not read configuration")
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *tagSrc != "" {
		if err := tagVideo(ctx, cfg, *tagSrc, *tagDst); err != nil {
			logger.WithError(err).Fatal("main: tagging failed")
		}
		return
	}

	//create missing directories from config file, root first
	for _, dir := range []string{cfg.Directory.Root, cfg.Directory.Uploads, cfg.Directory.Gallery} {
		if err := utils.EnsureDir(dir); err != nil {
			logger.WithError(err).Error("main: could not create data directory")
		}
	}

	opts := app.Options{
		Config:     cfg,
		OpenCamera: camera.Open(cfg.Camera.DeviceID),
	}
	if cfg.Detection.Model != "" {
		opts.DetectorLoader = models.SSDLoader(cfg.Detection.Model, cfg.Detection.ModelConfig, cfg.Detection.Labels)
	} else {
		logger.Logger.Warn("main: no detection model configured")
	}
	if cfg.Art.Model != "" {
		opts.ClassifierLoader = models.MobileNetLoader(cfg.Art.Model, cfg.Art.ModelConfig, cfg.Art.Labels)
	} else {
		logger.Logger.Warn("main: no art recognition model configured")
	}

	a := app.New(opts)
	defer a.Close()

	if err := a.Setup(ctx); err != nil {
		logger.WithError(err).Error("main: setup interrupted")
		return
	}

	srv := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: api.SetRouter(a, cfg),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("main: unclean shutdown")
		}
	}()

	logger.WithField("port", cfg.HTTP.Port).Info("main: listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("main: server stopped")
	}
}

//tagVideo runs the offline tagging pipeline over src, dst defaults to src's name with a '_tagged.avi' suffix
func tagVideo(ctx context.Context, cfg *config.Config, src, dst string) error {
	if cfg.Detection.Model == "" {
		return errors.New("tagging needs detection.model in the configuration")
	}
	if dst == "" {
		dst = strings.TrimSuffix(src, filepath.Ext(src)) + "_tagged.avi"
	}

	det, err := models.NewSSDDetector(cfg.Detection.Model, cfg.Detection.ModelConfig, cfg.Detection.Labels)
	if err != nil {
		return err
	}
	defer det.Close()

	annotator := detection.NewAnnotator(det, cfg.Detection.ConfidenceThreshold, cfg.Detection.Classes, cfg.Detection.EvictionTimeout)
	return camera.TagVideo(ctx, annotator, src, dst, render.OptionsFromConfig(cfg.Shapes))
}
