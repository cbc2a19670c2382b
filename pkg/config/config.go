// Package config holds the tracksmith configuration: assembly thresholds,
// point-file column mapping, output, storage and logging settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Assembler AssemblerConfig `yaml:"assembler"`
	Reader    ReaderConfig    `yaml:"reader"`
	Portal    PortalConfig    `yaml:"portal"`
	Log       LogConfig       `yaml:"log"`
	DB        DBConfig        `yaml:"db"`
	Server    ServerConfig    `yaml:"server"`
}

// AssemblerConfig mirrors the assemble CLI flags.
type AssemblerConfig struct {
	SeparationDistance Distance `yaml:"separation_distance"`
	SeparationTime     Duration `yaml:"separation_time"`
	MinPoints          int      `yaml:"min_points"`
	CleanupInterval    int      `yaml:"cleanup_interval"`
}

// ColumnMap maps delimited-text columns to point fields. A negative index
// marks an absent column.
type ColumnMap struct {
	ObjectID  int `yaml:"object_id"`
	Timestamp int `yaml:"timestamp"`
	X         int `yaml:"x"` // longitude for terrestrial input
	Y         int `yaml:"y"` // latitude for terrestrial input
	Z         int `yaml:"z"`
}

// ReaderConfig describes the delimited-text point format.
type ReaderConfig struct {
	Delimiter  string         `yaml:"delimiter"`
	Comment    string         `yaml:"comment"`
	TimeLayout string         `yaml:"time_layout"`
	Columns    ColumnMap      `yaml:"columns"`
	Properties map[string]int `yaml:"properties"` // property name -> column
	Strict     bool           `yaml:"strict"`     // fail on malformed lines instead of skipping
}

// PortalConfig controls grid-refinement portal detection.
type PortalConfig struct {
	BaseResolution int `yaml:"base_resolution"` // coarse H3 resolution
	MaxResolution  int `yaml:"max_resolution"`  // refinement floor
	MinObjects     int `yaml:"min_objects"`     // distinct objects for a cell to qualify
}

// LogSettings holds settings for one logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Main LogSettings `yaml:"main"`
}

// DBConfig holds trajectory database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Assembler: AssemblerConfig{
			SeparationDistance: Distance(100),
			SeparationTime:     Duration(1200 * time.Second),
			MinPoints:          10,
			CleanupInterval:    10000,
		},
		Reader: ReaderConfig{
			Delimiter:  ",",
			Comment:    "#",
			TimeLayout: "2006-01-02 15:04:05",
			Columns: ColumnMap{
				ObjectID:  0,
				Timestamp: 1,
				X:         2,
				Y:         3,
				Z:         -1,
			},
		},
		Portal: PortalConfig{
			BaseResolution: 5,
			MaxResolution:  8,
			MinObjects:     10,
		},
		Log: LogConfig{
			Main: LogSettings{
				Path:  "./logs/tracksmith.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/tracksmith.db",
		},
		Server: ServerConfig{
			Address: "localhost:1851",
		},
	}
}

// Load loads the configuration from the given path. If the file does not
// exist it is created with default values. If it exists, defaults are
// merged with its contents without saving back, preserving user formatting.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		return cfg, nil
	}

	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Tracksmith Configuration
# ------------------------
# Supported units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
#   Distance: m (meters), km (kilometers), nm (nautical miles)

`)
	data = append(header, data...)

	// Annotate the column-mapping block in the generated file.
	reCols := regexp.MustCompile(`(?m)^(\s+)columns:`)
	data = reCols.ReplaceAll(data, []byte("${1}# Zero-based column indexes; -1 marks an absent column\n${1}columns:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path. It is a
// no-op if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return Save(path, DefaultConfig())
}
