// Package config loads and validates the counting pipeline's YAML
// configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// validate is a singleton validator instance
var validate = validator.New()

// Config describes one counting pipeline run.
type Config struct {
	// Order is the top n-gram order being counted.
	Order int `yaml:"order" validate:"required,min=1,max=8"`
	// BlockRecords is how many records one chain block holds.
	BlockRecords int `yaml:"block_records" validate:"min=1"`
	// BufferBlocks is how many blocks a chain buffers before the
	// producer blocks.
	BufferBlocks int `yaml:"buffer_blocks" validate:"min=1"`
	// SpillDir, when set, is where intermediate chains are parked on
	// disk. Empty keeps everything in memory.
	SpillDir string `yaml:"spill_dir"`
	// LogLevel overrides the LOG_LEVEL environment variable.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Order:        3,
		BlockRecords: 8192,
		BufferBlocks: 2,
	}
}

// Load reads a YAML config file, applying defaults for absent keys.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("validate config: %w", err)
		}
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			f := fields[0]
			return fmt.Errorf("config field %s: failed %q constraint (value %v)", f.Field(), f.Tag(), f.Value())
		}
		return fmt.Errorf("validate config: %w", err)
	}

	if c.SpillDir != "" {
		info, err := os.Stat(c.SpillDir)
		if err != nil {
			return fmt.Errorf("spill_dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("spill_dir: %s is not a directory", c.SpillDir)
		}
	}
	return nil
}
