package api

import (
	"bytes"
	"image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/chenBenjamin97/point-field/pkg/app"
	"github.com/chenBenjamin97/point-field/pkg/config"
	"github.com/chenBenjamin97/point-field/pkg/effects"
	"github.com/chenBenjamin97/point-field/pkg/logger"
	"github.com/chenBenjamin97/point-field/pkg/utils"
	"github.com/chenBenjamin97/point-field/pkg/video"
)

//maxUploadSize limits the body of an upload request to 32MB
const maxUploadSize = 32 << 20

//extensionsByContentType names stored uploads whose own extension is not an image one
var extensionsByContentType = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
}

type mouseRequest struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Pressed bool    `json:"pressed"`
}

type confidenceRequest struct {
	//Value is a percentage, 0 to 100
	Value *float64 `json:"value" binding:"required"`
}

type classesRequest struct {
	Classes []string `json:"classes"`
}

//SetRouter registers every route of the piece on a new gin engine
func SetRouter(a *app.App, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	//serve html pages to client
	r.Static("/client", cfg.Frontend.StaticFilesPath)
	r.StaticFile("/", path.Join(cfg.Frontend.StaticFilesPath, "index.html"))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiRoutes := r.Group("/api")

	apiRoutes.GET("/frame", func(ctx *gin.Context) {
		img, err := a.Draw(ctx.Request.Context())
		if err != nil {
			ctx.Status(http.StatusServiceUnavailable)
			return
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			logger.WithError(err).Error("api/frame: could not encode frame")
			ctx.Status(http.StatusInternalServerError)
			return
		}
		ctx.Data(http.StatusOK, "image/png", buf.Bytes())
	})

	apiRoutes.GET("/state", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, a.State())
	})

	apiRoutes.POST("/animation/toggle", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"animating": a.ToggleAnimation()})
	})

	apiRoutes.POST("/mouse/toggle", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"mouseInteractive": a.ToggleMouseInteraction()})
	})

	apiRoutes.POST("/mouse", func(ctx *gin.Context) {
		var req mouseRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a.SetMouse(req.X, req.Y, req.Pressed)
		ctx.Status(http.StatusNoContent)
	})

	apiRoutes.POST("/effect/:name", func(ctx *gin.Context) {
		name := ctx.Param("name")
		if err := a.SetEffect(name); err != nil {
			if errors.Is(err, effects.ErrUnknownEffect) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusInternalServerError)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"effect": name})
	})

	apiRoutes.POST("/source/toggle", func(ctx *gin.Context) {
		useCamera, err := a.ToggleInputSource(ctx.Request.Context())
		if err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "useCamera": useCamera})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"useCamera": useCamera})
	})

	apiRoutes.POST("/Upload", func(ctx *gin.Context) {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxUploadSize)
		file, fHeader, err := ctx.Request.FormFile("image")
		if err != nil {
			ctx.Status(http.StatusBadRequest)
			return
		}
		defer file.Close()

		fileBytes, err := io.ReadAll(file)
		if err != nil {
			logger.WithError(err).Error("api/Upload: could not read request's body")
			ctx.Status(http.StatusInternalServerError)
			return
		}

		if err := a.LoadImage(bytes.NewReader(fileBytes)); err != nil {
			if errors.Is(err, video.ErrNotImage) {
				ctx.Status(http.StatusNotAcceptable)
				return
			}
			ctx.Status(http.StatusInternalServerError)
			return
		}

		name := uuid.NewString() + uploadExtension(fHeader.Filename, fileBytes)
		dstPath := filepath.Join(cfg.Directory.Uploads, name)
		if err := os.WriteFile(dstPath, fileBytes, 0444); err != nil {
			logger.WithError(err).WithField("path", dstPath).Error("api/Upload: could not write file")
			ctx.Status(http.StatusInternalServerError)
			return
		}

		logger.WithFields(logrus.Fields{
			"original": fHeader.Filename,
			"stored":   name,
			"size":     fHeader.Size,
		}).Info("api/Upload: received new image")
		ctx.JSON(http.StatusOK, gin.H{"name": name})
	})

	apiRoutes.GET("/images", func(ctx *gin.Context) {
		names := make([]string, 0)
		for _, dir := range []string{cfg.Directory.Uploads, cfg.Directory.Gallery} {
			images, err := utils.ListImages(dir)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				ctx.Status(http.StatusInternalServerError)
				return
			}
			names = append(names, images...)
		}
		ctx.JSON(http.StatusOK, names)
	})

	apiRoutes.POST("/images/:name", func(ctx *gin.Context) {
		name := filepath.Base(ctx.Param("name"))
		imagePath, ok := findImage(name, cfg.Directory.Uploads, cfg.Directory.Gallery)
		if !ok {
			ctx.Status(http.StatusNotFound)
			return
		}

		if err := a.SelectImage(imagePath); err != nil {
			if errors.Is(err, video.ErrNotImage) {
				ctx.Status(http.StatusNotAcceptable)
				return
			}
			ctx.Status(http.StatusInternalServerError)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"name": name})
	})

	detectionRoutes := apiRoutes.Group("/detection")

	detectionRoutes.POST("/toggle", func(ctx *gin.Context) {
		d := a.Detector()
		ctx.JSON(http.StatusOK, gin.H{"enabled": d.Toggle(), "status": d.Status()})
	})

	detectionRoutes.POST("/confidence", func(ctx *gin.Context) {
		var req confidenceRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := a.Detector().SetConfidenceThreshold(*req.Value); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"confidence": a.Detector().ConfidenceThreshold()})
	})

	detectionRoutes.POST("/classes", func(ctx *gin.Context) {
		var req classesRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a.Detector().SetClasses(req.Classes)
		ctx.JSON(http.StatusOK, gin.H{"classes": a.Detector().Classes()})
	})

	apiRoutes.GET("/detections", func(ctx *gin.Context) {
		d := a.Detector()
		ctx.JSON(http.StatusOK, gin.H{"objects": d.Objects(), "status": d.Status()})
	})

	apiRoutes.GET("/stats", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, a.Detector().Stats())
	})

	apiRoutes.POST("/art/toggle", func(ctx *gin.Context) {
		rec := a.Recognizer()
		ctx.JSON(http.StatusOK, gin.H{"enabled": rec.Toggle(), "status": rec.Status()})
	})

	apiRoutes.GET("/art", func(ctx *gin.Context) {
		rec := a.Recognizer()
		ctx.JSON(http.StatusOK, gin.H{"results": rec.Results(), "status": rec.Status()})
	})

	return r
}

//uploadExtension keeps the uploaded file's extension when it is an image one, otherwise derives it from the data
func uploadExtension(filename string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if utils.InSlice(ext, utils.ImageExtensions) {
		return ext
	}
	if ext, ok := extensionsByContentType[http.DetectContentType(data)]; ok {
		return ext
	}
	return ".png"
}

//findImage returns the path of the first directory holding an image named name
func findImage(name string, dirs ...string) (string, bool) {
	if name == "." || name == string(filepath.Separator) {
		return "", false
	}
	for _, dir := range dirs {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}
