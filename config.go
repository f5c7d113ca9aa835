package cvatconv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for a configuration that fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Defaults applied by Config.WithDefaults.
const (
	DefaultOutput       = "backup.zip"
	DefaultImageQuality = 70
	stagingSuffix       = ".staging"
)

var validate = validator.New()

// Config holds all parameters of a conversion run. It is passed by value and not modified during
// the run.
type Config struct {
	Format       Format   `yaml:"converter" validate:"required,oneof=yolo-bbox yolo-segm mask"`
	InputDir     string   `yaml:"input_dir" validate:"required"`
	Output       string   `yaml:"output" validate:"required"`      // The archive path.
	StagingDir   string   `yaml:"staging_dir" validate:"required"` // Removed after a successful run.
	TaskName     string   `yaml:"task_name" validate:"required"`
	ImageQuality int      `yaml:"image_quality" validate:"min=1,max=100"`
	Classes      ClassMap `yaml:"class_map" validate:"required,min=1,dive"`
}

// LoadConfig reads the YAML (or JSON) configuration file at path. Defaults are not applied.
func LoadConfig(path string) (Config, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(enc, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse the configuration %q: %w", path, err)
	}

	return cfg, nil
}

// WithDefaults returns a copy of c with defaults for all unset optional values.
func (c Config) WithDefaults() Config {
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.StagingDir == "" {
		c.StagingDir = c.Output + stagingSuffix
	}
	if c.ImageQuality == 0 {
		c.ImageQuality = DefaultImageQuality
	}
	return c
}

// Validate checks that all values are set and in range and that the class map is consistent.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	within, err := isWithin(c.StagingDir, c.InputDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if within {
		return fmt.Errorf("%w: the staging directory %q is deleted on every run and must not "+
			"contain the input directory %q", ErrInvalidConfig, c.StagingDir, c.InputDir)
	}
	return c.Classes.Check()
}

// isWithin reports whether path is dir or lies below it, after resolving both to absolute
// paths.
func isWithin(dir, path string) (bool, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}

	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		// Different volumes.
		return false, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}
