// Package config provides configuration management for the schemaport CLI.
//
// Configuration merges four layers with fixed precedence: flags over
// environment variables over the schemaport.yaml file over built-in
// defaults.
package config

// Default configuration values.
const (
	DefaultInputDir    = "source"
	DefaultOutputDir   = "converted"
	DefaultStateFile   = ".schemaport/history.db"
	DefaultOutput      = "text"
	DefaultConcurrency = 4
)

// Config holds all CLI configuration options.
type Config struct {
	InputDir     string `koanf:"input_dir"`
	OutputDir    string `koanf:"output_dir"`
	StatePath    string `koanf:"state_path"`
	Concurrency  int    `koanf:"concurrency"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`
	NoHistory    bool   `koanf:"no_history"`

	// ProjectRoot is the directory relative paths resolve against. It is
	// derived, never read from the config file.
	ProjectRoot string `koanf:"-"`
}
