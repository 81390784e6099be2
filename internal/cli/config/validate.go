package config

import (
	"fmt"
	"os"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("input_dir is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	switch c.OutputFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("output must be text or json, got %q", c.OutputFormat)
	}
	return nil
}

// ValidateInputDir checks that the input directory exists. Kept out of
// Validate so help and version commands work without one.
func (c *Config) ValidateInputDir() error {
	if _, err := os.Stat(c.InputDir); os.IsNotExist(err) {
		return fmt.Errorf("input directory does not exist: %s\nHint: Create the directory or use --input-dir to specify a different path", c.InputDir)
	}
	return nil
}
