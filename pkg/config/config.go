// Package config provides configuration loading and management for
// wsipatch. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Extraction parameters
	Extraction struct {
		// PatchSize is the side length, in full-resolution pixels, of
		// the square patches to extract
		PatchSize int `yaml:"patchSize"`

		// Stride is the sliding-window step; equal to PatchSize for
		// non-overlapping patches
		Stride int `yaml:"stride"`

		// CoverageThreshold is the minimum tissue fraction, on [0, 1],
		// a patch must contain to be written
		CoverageThreshold float64 `yaml:"coverageThreshold"`

		// EdgePolicy is "clip" or "drop" for tiles at the slide boundary
		EdgePolicy string `yaml:"edgePolicy"`

		// MinEdgeFraction is the smallest clipped-tile fraction kept
		// under the drop policy
		MinEdgeFraction float64 `yaml:"minEdgeFraction"`

		// Workers is the number of parallel patch writers
		Workers int `yaml:"workers"`
	} `yaml:"extraction"`

	// Masking parameters
	Masking struct {
		// Method is the tissue-masking strategy name
		Method string `yaml:"method"`

		// ElementSize is the structuring-element side, in overview
		// pixels, for morphology and the entropy window
		ElementSize int `yaml:"elementSize"`

		// MinObjectSize is the smallest connected-component area, in
		// overview pixels, kept in the mask
		MinObjectSize int `yaml:"minObjectSize"`

		// Clusters is the cluster count for the kmeans method
		Clusters int `yaml:"clusters"`

		// InvertForeground flips the foreground convention for
		// inverted-contrast slides
		InvertForeground bool `yaml:"invertForeground"`
	} `yaml:"masking"`

	// Overview parameters
	Overview struct {
		// TargetSize is the longest side, in pixels, of the masking
		// overview
		TargetSize int `yaml:"targetSize"`

		// SaveImages writes the overview, mask and masked overview as
		// PNGs alongside the patches
		SaveImages bool `yaml:"saveImages"`
	} `yaml:"overview"`

	// Output parameters
	Output struct {
		// ZipPatches archives the patches directory after extraction
		ZipPatches bool `yaml:"zipPatches"`

		// FileTypes lists the slide file extensions accepted when the
		// source is a directory
		FileTypes []string `yaml:"fileTypes"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default extraction parameters
	cfg.Extraction.PatchSize = 512
	cfg.Extraction.Stride = 512
	cfg.Extraction.CoverageThreshold = 0.5
	cfg.Extraction.EdgePolicy = "clip"
	cfg.Extraction.MinEdgeFraction = 0.25
	cfg.Extraction.Workers = runtime.NumCPU()

	// Set default masking parameters
	cfg.Masking.Method = "otsu"
	cfg.Masking.ElementSize = 8
	cfg.Masking.MinObjectSize = 64
	cfg.Masking.Clusters = 2
	cfg.Masking.InvertForeground = false

	// Set default overview parameters
	cfg.Overview.TargetSize = 2048
	cfg.Overview.SaveImages = true

	// Set default output parameters
	cfg.Output.ZipPatches = false
	cfg.Output.FileTypes = []string{".tif", ".tiff", ".png", ".jpg", ".jpeg", ".bmp"}

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
