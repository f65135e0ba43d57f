package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 1200, cfg.Canvas.Width)
	assert.Equal(t, 900, cfg.Canvas.Height)
	assert.Equal(t, 500, cfg.Points.Count)
	assert.Equal(t, 150.0, cfg.Points.BrightnessThreshold)
	assert.Equal(t, 0.95, cfg.Animation.Dampening)
	assert.Equal(t, uint8(50), cfg.Shapes.Opacity)
	assert.Equal(t, 0.5, cfg.Detection.Scale)
	assert.Equal(t, 500*time.Millisecond, cfg.Detection.Throttle)
	assert.Equal(t, time.Second, cfg.Detection.EvictionTimeout)
	assert.Equal(t, time.Second, cfg.Art.Throttle)
	assert.Equal(t, 10, cfg.Art.TopK)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
http:
  port: "9090"
detection:
  throttle: 250ms
  confidence-threshold: 0.7
  classes: [person, dog]
points:
  count: 42
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Detection.Throttle)
	assert.Equal(t, 0.7, cfg.Detection.ConfidenceThreshold)
	assert.Equal(t, []string{"person", "dog"}, cfg.Detection.Classes)
	assert.Equal(t, 42, cfg.Points.Count)
	//untouched keys keep defaults
	assert.Equal(t, 640, cfg.Detection.Width)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("POINTFIELD_HTTP_PORT", "7070")
	t.Setenv("POINTFIELD_DETECTION_EVICTION_TIMEOUT", "2s")

	cfg, err := Load(filepath.Join(writeEmpty(t), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.HTTP.Port)
	assert.Equal(t, 2*time.Second, cfg.Detection.EvictionTimeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("detection:\n  scale: 0\n"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "detection.scale")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty port", func(c *Config) { c.HTTP.Port = "" }, "http.port"},
		{"zero canvas", func(c *Config) { c.Canvas.Width = 0 }, "canvas size"},
		{"max below canvas", func(c *Config) { c.Canvas.MaxWidth = 10 }, "max size"},
		{"sizes swapped", func(c *Config) { c.Points.MinSize = 9 }, "points.max-size"},
		{"confidence above one", func(c *Config) { c.Detection.ConfidenceThreshold = 1.5 }, "confidence-threshold"},
		{"no eviction", func(c *Config) { c.Detection.EvictionTimeout = 0 }, "eviction-timeout"},
		{"no top-k", func(c *Config) { c.Art.TopK = 0 }, "top-k"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func writeEmpty(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{}\n"), 0644))
	return dir
}
