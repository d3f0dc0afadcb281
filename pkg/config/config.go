// Package config loads the zeo settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chazu/zeo/pkg/logging"
)

// Filename is the settings file looked up next to a model script.
const Filename = "zeo.yml"

// maxSize bounds the settings file read by Load.
const maxSize = 1 << 20

// Config holds the scene, meshing and evaluation settings.
type Config struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// OpeningAngle is the camera field of view in degrees. Zero is an
	// orthographic view.
	OpeningAngle float64 `yaml:"opening_angle"`
	// WindowSize is the model extent visible across the smaller window
	// dimension.
	WindowSize      float64       `yaml:"window_size"`
	PickRadius      int           `yaml:"pick_radius"`
	SelectionBuffer int           `yaml:"selection_buffer"`
	MeshCells       int           `yaml:"mesh_cells"`
	EvalTimeout     time.Duration `yaml:"eval_timeout"`
	LogLevel        string        `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Width:           640,
		Height:          480,
		OpeningAngle:    60,
		WindowSize:      25,
		PickRadius:      3,
		SelectionBuffer: 4096,
		MeshCells:       24,
		EvalTimeout:     5 * time.Second,
		LogLevel:        "warn",
	}
}

// Validate reports the first setting out of range.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("config: window %dx%d must be positive", c.Width, c.Height)
	case c.OpeningAngle < 0 || c.OpeningAngle >= 180:
		return fmt.Errorf("config: opening_angle %g must be in [0, 180)", c.OpeningAngle)
	case c.WindowSize <= 0:
		return fmt.Errorf("config: window_size %g must be positive", c.WindowSize)
	case c.PickRadius < 0:
		return fmt.Errorf("config: pick_radius %d must not be negative", c.PickRadius)
	case c.SelectionBuffer <= 0:
		return fmt.Errorf("config: selection_buffer %d must be positive", c.SelectionBuffer)
	case c.MeshCells < 0:
		return fmt.Errorf("config: mesh_cells %d must not be negative", c.MeshCells)
	case c.EvalTimeout < 0:
		return fmt.Errorf("config: eval_timeout %s must not be negative", c.EvalTimeout)
	}
	return nil
}

// Parse decodes YAML over the defaults. Unknown keys are an error.
func Parse(data []byte) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads the settings file at path. A missing file yields the
// defaults.
func Load(path string) (Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Logger().Debug("no config file, using defaults", "path", path)
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if info.Size() > maxSize {
		return Config{}, fmt.Errorf("config: %s is too large (%d bytes)", path, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	logging.Logger().Info("loaded config", "path", path, "size", info.Size())
	return c, nil
}

// Marshal encodes c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
