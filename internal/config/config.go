// Package config handles sktransfer configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all transfer settings.
type Config struct {
	Transfer TransferConfig `yaml:"transfer"`
	Debug    DebugConfig    `yaml:"debug"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TransferConfig holds pipeline settings.
type TransferConfig struct {
	BufferSize     int  `yaml:"buffer_size"`     // Delta buffer side length in cells
	NormalRelative bool `yaml:"normal_relative"` // Store displacements relative to the vertex normal
	Workers        int  `yaml:"workers"`         // Concurrent shape keys for multi-key transfers
}

// DebugConfig holds debug image settings.
type DebugConfig struct {
	SaveImages bool   `yaml:"save_images"`
	OutputDir  string `yaml:"output_dir"`
	Scale      int    `yaml:"scale"` // Nearest-neighbour upscale factor
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Transfer: TransferConfig{
			BufferSize:     256,
			NormalRelative: false,
			Workers:        4,
		},
		Debug: DebugConfig{
			SaveImages: false,
			OutputDir:  ".",
			Scale:      1,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Transfer.BufferSize < 2 {
		return fmt.Errorf("%w: transfer.buffer_size must be at least 2, got %d", ErrInvalid, c.Transfer.BufferSize)
	}
	if c.Transfer.Workers < 1 {
		return fmt.Errorf("%w: transfer.workers must be at least 1, got %d", ErrInvalid, c.Transfer.Workers)
	}
	if c.Debug.Scale < 1 {
		return fmt.Errorf("%w: debug.scale must be at least 1, got %d", ErrInvalid, c.Debug.Scale)
	}
	return nil
}
