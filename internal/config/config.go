package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TurntableConfig describes how to reach and pace the turntable.
type TurntableConfig struct {
	Port         string  `yaml:"port"`          // serial device of the BLE/UART bridge, e.g. /dev/ttyUSB0
	BaudRate     int     `yaml:"baud_rate"`     // serial baud rate
	RotationPace float64 `yaml:"rotation_pace"` // device speed units for rotation (e.g. 35.64 to 131)
	TiltPace     float64 `yaml:"tilt_pace"`     // device speed units for tilt (e.g. 9 to 35)
	Mock         bool    `yaml:"mock"`          // use mock link (true=dev/test, false=real hardware)
}

// CameraConfig describes which camera driver to use.
// Type selects a concrete implementation (e.g., "gphoto2", "sim").
type CameraConfig struct {
	Type         string `yaml:"type"`           // e.g., "gphoto2" or "sim"
	ExtraDelayMs int    `yaml:"extra_delay_ms"` // stabilization delay before each capture (ms)
}

// PreviewConfig bounds the thumbnail dimensions produced by the decode pool.
type PreviewConfig struct {
	MaxWidth  int `yaml:"max_width"`  // e.g., 320
	MaxHeight int `yaml:"max_height"` // e.g., 240
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	Directory string `yaml:"directory"` // default destination for exported images
}

// DefaultsConfig contains generic sequence parameters.
type DefaultsConfig struct {
	RotationSteps int     `yaml:"rotation_steps"` // captures per full rotation
	TiltLowerDeg  float64 `yaml:"tilt_lower_deg"` // lowest tilt level (deg)
	TiltUpperDeg  float64 `yaml:"tilt_upper_deg"` // highest tilt level (deg)
	TiltSteps     int     `yaml:"tilt_steps"`     // number of tilt levels
	DebugLevel    int     `yaml:"debug_level"`    // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
}

// Config aggregates all application configuration.
type Config struct {
	Turntable TurntableConfig `yaml:"turntable"`
	Camera    CameraConfig    `yaml:"camera"`
	Preview   PreviewConfig   `yaml:"preview"`
	Export    ExportConfig    `yaml:"export"`
	Defaults  DefaultsConfig  `yaml:"defaults"`
}

// ValidateConfigPath rejects config paths that escape the configs/ directory
// or do not look like a YAML file.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("config path must not contain '..': %q", path)
	}
	if filepath.Ext(path) != ".yaml" {
		return fmt.Errorf("config file must have a .yaml extension: %q", path)
	}
	clean := filepath.Clean(path)
	if filepath.Base(filepath.Dir(clean)) != "configs" {
		return fmt.Errorf("config file must live in a configs/ directory: %q", path)
	}
	return nil
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	// Basic validation
	if cfg.Camera.Type == "" {
		return nil, fmt.Errorf("camera.type is required")
	}
	if cfg.Camera.Type != "gphoto2" && cfg.Camera.Type != "sim" {
		return nil, fmt.Errorf("camera.type must be \"gphoto2\" or \"sim\", got %q", cfg.Camera.Type)
	}
	if !cfg.Turntable.Mock && cfg.Turntable.Port == "" {
		return nil, fmt.Errorf("turntable.port is required unless turntable.mock is set")
	}
	if cfg.Turntable.BaudRate <= 0 {
		cfg.Turntable.BaudRate = 115200 // HM-10 style UART bridge default
	}
	if cfg.Turntable.RotationPace <= 0 {
		cfg.Turntable.RotationPace = 35.64 // slowest documented rotation pace
	}
	if cfg.Turntable.TiltPace <= 0 {
		cfg.Turntable.TiltPace = 9.0 // slowest documented tilt pace
	}
	if cfg.Camera.ExtraDelayMs < 0 {
		return nil, fmt.Errorf("camera.extra_delay_ms must be >= 0, got %d", cfg.Camera.ExtraDelayMs)
	}
	if cfg.Preview.MaxWidth <= 0 {
		cfg.Preview.MaxWidth = 320
	}
	if cfg.Preview.MaxHeight <= 0 {
		cfg.Preview.MaxHeight = 240
	}
	if cfg.Defaults.RotationSteps <= 0 {
		cfg.Defaults.RotationSteps = 24
	}
	if cfg.Defaults.TiltSteps <= 0 {
		cfg.Defaults.TiltSteps = 1
	}
	if cfg.Defaults.TiltUpperDeg < cfg.Defaults.TiltLowerDeg {
		return nil, fmt.Errorf("defaults.tilt_upper_deg (%.2f) must be >= defaults.tilt_lower_deg (%.2f)",
			cfg.Defaults.TiltUpperDeg, cfg.Defaults.TiltLowerDeg)
	}
	if cfg.Defaults.DebugLevel < 0 || cfg.Defaults.DebugLevel > 4 {
		return nil, fmt.Errorf("defaults.debug_level must be between 0 and 4, got %d", cfg.Defaults.DebugLevel)
	}
	if cfg.Export.Directory == "" {
		cfg.Export.Directory = "export"
	}

	return &cfg, nil
}

// ExtraDelay returns the pre-capture stabilization delay.
func (c *Config) ExtraDelay() time.Duration {
	return time.Duration(c.Camera.ExtraDelayMs) * time.Millisecond
}
