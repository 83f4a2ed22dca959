// Package config implements the engine's YAML-backed configuration tree,
// following the struct-with-defaults pattern of the teacher's
// server/config.go (NewConfig/ParseArgs): a root Config embeds sub-configs
// for logging and segment behavior, plus a per-index map describing each
// index's posting.Format, all unmarshaled with gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LogConfig controls the engine logger, mirroring the teacher's LogConfig.
type LogConfig struct {
	Verbose bool `yaml:"verbose"`
	Stdout  bool `yaml:"stdout"`
}

// NewLogConfig returns the default log configuration.
func NewLogConfig() *LogConfig {
	return &LogConfig{Verbose: false, Stdout: false}
}

// SegmentConfig controls when the writer seals the tail building segment
// into a persistent one.
type SegmentConfig struct {
	// MaxBuildingDocs is the doc count threshold that triggers a seal.
	MaxBuildingDocs uint32 `yaml:"max_building_docs"`
}

// NewSegmentConfig returns the default segment configuration.
func NewSegmentConfig() *SegmentConfig {
	return &SegmentConfig{MaxBuildingDocs: 1_000_000}
}

// IndexConfig describes one index's posting channels, the YAML-facing
// twin of posting.Format.
type IndexConfig struct {
	HasTf        bool `yaml:"tf"`
	HasFieldmask bool `yaml:"fieldmask"`
	HasPositions bool `yaml:"positions"`
}

// Config is the engine's root configuration.
type Config struct {
	Name    string                  `yaml:"name"`
	DataDir string                  `yaml:"data_dir"`
	Log     *LogConfig              `yaml:"log"`
	Segment *SegmentConfig          `yaml:"segment"`
	Indexes map[string]*IndexConfig `yaml:"indexes"`
}

// NewConfig returns a Config populated with defaults, the way the
// teacher's NewConfig does for the server.
func NewConfig() *Config {
	cwd, _ := os.Getwd()
	return &Config{
		Name:    "tansakuu",
		DataDir: cwd,
		Log:     NewLogConfig(),
		Segment: NewSegmentConfig(),
		Indexes: make(map[string]*IndexConfig),
	}
}

// Load reads and parses a YAML config file, starting from the defaults and
// overlaying whatever the file specifies, following ParseArgs's
// "defaults, then overlay the parsed file" order in the teacher.
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}
