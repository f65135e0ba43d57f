//Package config loads the service configuration from a yaml file and
//POINTFIELD_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

//Config is the typed view of the yaml configuration.
type Config struct {
	LogLevel  string          `mapstructure:"log-level"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Frontend  FrontendConfig  `mapstructure:"frontend"`
	Canvas    CanvasConfig    `mapstructure:"canvas"`
	Points    PointsConfig    `mapstructure:"points"`
	Animation AnimationConfig `mapstructure:"animation"`
	Shapes    ShapesConfig    `mapstructure:"shapes"`
	Detection DetectionConfig `mapstructure:"detection"`
	Art       ArtConfig       `mapstructure:"art"`
	Camera    CameraConfig    `mapstructure:"camera"`
}

type HTTPConfig struct {
	Port string `mapstructure:"port"`
}

type DirectoryConfig struct {
	Root    string `mapstructure:"root"`
	Uploads string `mapstructure:"uploads"`
	Gallery string `mapstructure:"gallery"`
}

type FrontendConfig struct {
	StaticFilesPath string `mapstructure:"static-files-path"`
}

type CanvasConfig struct {
	Width     int `mapstructure:"width"`
	Height    int `mapstructure:"height"`
	MaxWidth  int `mapstructure:"max-width"`
	MaxHeight int `mapstructure:"max-height"`
	Padding   int `mapstructure:"padding"`
}

type PointsConfig struct {
	Count               int     `mapstructure:"count"`
	MinSize             float64 `mapstructure:"min-size"`
	MaxSize             float64 `mapstructure:"max-size"`
	BrightnessThreshold float64 `mapstructure:"brightness-threshold"`
	ConnectionDistance  float64 `mapstructure:"connection-distance"`
}

type AnimationConfig struct {
	NoiseSpeed      float64 `mapstructure:"noise-speed"`
	MaxDisplacement float64 `mapstructure:"max-displacement"`
	MouseForce      float64 `mapstructure:"mouse-force"`
	MouseRadius     float64 `mapstructure:"mouse-radius"`
	Dampening       float64 `mapstructure:"dampening"`
}

type ShapesConfig struct {
	CircleSize float64 `mapstructure:"circle-size"`
	RectSize   float64 `mapstructure:"rect-size"`
	Opacity    uint8   `mapstructure:"opacity"`
}

type DetectionConfig struct {
	Width               int           `mapstructure:"width"`
	Height              int           `mapstructure:"height"`
	Scale               float64       `mapstructure:"scale"`
	Throttle            time.Duration `mapstructure:"throttle"`
	ConfidenceThreshold float64       `mapstructure:"confidence-threshold"`
	EvictionTimeout     time.Duration `mapstructure:"eviction-timeout"`
	Classes             []string      `mapstructure:"classes"`
	Model               string        `mapstructure:"model"`
	ModelConfig         string        `mapstructure:"model-config"`
	Labels              string        `mapstructure:"labels"`
}

type ArtConfig struct {
	Throttle    time.Duration `mapstructure:"throttle"`
	TopK        int           `mapstructure:"top-k"`
	MinScore    float64       `mapstructure:"min-score"`
	Model       string        `mapstructure:"model"`
	ModelConfig string        `mapstructure:"model-config"`
	Labels      string        `mapstructure:"labels"`
}

type CameraConfig struct {
	DeviceID int `mapstructure:"device-id"`
}

//SetDefaults registers every key with its default value. Keys must be known
//to viper for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log-level", "info")
	v.SetDefault("http.port", "8080")

	v.SetDefault("directory.root", "./data/")
	v.SetDefault("directory.uploads", "./data/uploads/")
	v.SetDefault("directory.gallery", "./data/gallery/")
	v.SetDefault("frontend.static-files-path", "./frontend/")

	v.SetDefault("canvas.width", 1200)
	v.SetDefault("canvas.height", 900)
	v.SetDefault("canvas.max-width", 3000)
	v.SetDefault("canvas.max-height", 2000)
	v.SetDefault("canvas.padding", 10)

	v.SetDefault("points.count", 500)
	v.SetDefault("points.min-size", 3.0)
	v.SetDefault("points.max-size", 8.0)
	v.SetDefault("points.brightness-threshold", 150.0)
	v.SetDefault("points.connection-distance", 100.0)

	v.SetDefault("animation.noise-speed", 0.01)
	v.SetDefault("animation.max-displacement", 20.0)
	v.SetDefault("animation.mouse-force", 3.0)
	v.SetDefault("animation.mouse-radius", 100.0)
	v.SetDefault("animation.dampening", 0.95)

	v.SetDefault("shapes.circle-size", 8.0)
	v.SetDefault("shapes.rect-size", 10.0)
	v.SetDefault("shapes.opacity", 50)

	v.SetDefault("detection.width", 640)
	v.SetDefault("detection.height", 480)
	v.SetDefault("detection.scale", 0.5)
	v.SetDefault("detection.throttle", "500ms")
	v.SetDefault("detection.confidence-threshold", 0.5)
	v.SetDefault("detection.eviction-timeout", "1s")
	v.SetDefault("detection.classes", []string{})
	v.SetDefault("detection.model", "")
	v.SetDefault("detection.model-config", "")
	v.SetDefault("detection.labels", "")

	v.SetDefault("art.throttle", "1s")
	v.SetDefault("art.top-k", 10)
	v.SetDefault("art.min-score", 0.1)
	v.SetDefault("art.model", "")
	v.SetDefault("art.model-config", "")
	v.SetDefault("art.labels", "")

	v.SetDefault("camera.device-id", 0)
}

//Default returns the configuration with every default applied.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg := &Config{}
	//defaults alone always decode
	_ = v.Unmarshal(cfg)
	return cfg
}

//Load reads the yaml file at path. An empty path looks for config.yaml in
//the working directory and falls back to defaults when there is none.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("POINTFIELD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "could not read config file '%s'", path)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.Wrap(err, "could not read config file")
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "could not decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

//Validate rejects values the pipeline cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.HTTP.Port == "":
		return errors.New("missing http.port")
	case c.Canvas.Width <= 0 || c.Canvas.Height <= 0:
		return errors.Errorf("canvas size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	case c.Canvas.MaxWidth < c.Canvas.Width || c.Canvas.MaxHeight < c.Canvas.Height:
		return errors.New("canvas max size is smaller than canvas size")
	case c.Points.Count < 0:
		return errors.New("points.count must not be negative")
	case c.Points.MaxSize < c.Points.MinSize:
		return errors.New("points.max-size is smaller than points.min-size")
	case c.Detection.Width <= 0 || c.Detection.Height <= 0:
		return errors.Errorf("detection size must be positive, got %dx%d", c.Detection.Width, c.Detection.Height)
	case c.Detection.Scale <= 0:
		return errors.Errorf("detection.scale must be positive, got %v", c.Detection.Scale)
	case c.Detection.ConfidenceThreshold < 0 || c.Detection.ConfidenceThreshold > 1:
		return errors.Errorf("detection.confidence-threshold must be within [0,1], got %v", c.Detection.ConfidenceThreshold)
	case c.Detection.EvictionTimeout <= 0:
		return errors.New("detection.eviction-timeout must be positive")
	case c.Art.TopK <= 0:
		return errors.New("art.top-k must be positive")
	}
	return nil
}
