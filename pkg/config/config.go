// Package config provides configuration loading and management for depthpyr.
// It handles loading configuration from YAML files and provides default values.
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
	// Depth axis parameters
	Depth struct {
		// Min is the nearest depth covered by the volume
		Min float64 `yaml:"min"`

		// Max is the farthest depth covered by the volume
		Max float64 `yaml:"max"`

		// Sigma is the depth bin width and smoothing bandwidth; the bin
		// count is floor((max-min)/sigma)+1
		Sigma float64 `yaml:"sigma"`

		// ZeroMeansMissing treats black depth samples as missing readings
		ZeroMeansMissing bool `yaml:"zeroMeansMissing"`

		// Scale and Offset map normalized depth samples to physical depth
		Scale  float64 `yaml:"scale"`
		Offset float64 `yaml:"offset"`
	} `yaml:"depth"`

	// Pyramid decomposition parameters
	Pyramid struct {
		// Height is the number of recursive levels; -1 selects the maximum
		// the input size supports
		Height int `yaml:"height"`

		// Orientations is the number of oriented band filters
		Orientations int `yaml:"orientations"`

		// FilterSize is the square side length of the generated filters
		FilterSize int `yaml:"filterSize"`

		// FilterSigma is the spatial sigma of the generated lowpass filters
		FilterSigma float64 `yaml:"filterSigma"`

		// Complex selects the complex-valued oriented bank
		Complex bool `yaml:"complex"`

		// Edges selects the border rule: reflect1, reflect2, repeat, zero
		// or circular
		Edges string `yaml:"edges"`
	} `yaml:"pyramid"`

	// Smoothing parameters for the densify pass
	Smoothing struct {
		// SpatialSpread is the Student's t spread of the spatial kernel
		SpatialSpread float64 `yaml:"spatialSpread"`

		// SpatialNu is the degrees of freedom of the spatial kernel
		SpatialNu float64 `yaml:"spatialNu"`

		// SpatialRadius is the spatial kernel half-width in pixels
		SpatialRadius int `yaml:"spatialRadius"`

		// DepthSigma is the depth-axis Gaussian bandwidth in bin units
		DepthSigma float64 `yaml:"depthSigma"`
	} `yaml:"smoothing"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for parallel processing
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// SaveBands determines whether band images are written after the build
		SaveBands bool `yaml:"saveBands"`

		// BandsDir is the directory band and depth-map images are written to
		BandsDir string `yaml:"bandsDir"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default depth axis parameters
	cfg.Depth.Min = 0.0
	cfg.Depth.Max = 1.0
	cfg.Depth.Sigma = 0.1
	cfg.Depth.ZeroMeansMissing = true
	cfg.Depth.Scale = 1.0
	cfg.Depth.Offset = 0.0

	// Set default pyramid parameters
	cfg.Pyramid.Height = -1
	cfg.Pyramid.Orientations = 4
	cfg.Pyramid.FilterSize = 9
	cfg.Pyramid.FilterSigma = 2.0
	cfg.Pyramid.Complex = false
	cfg.Pyramid.Edges = "reflect1"

	// Set default smoothing parameters
	cfg.Smoothing.SpatialSpread = 0.75
	cfg.Smoothing.SpatialNu = 3.0
	cfg.Smoothing.SpatialRadius = 2
	cfg.Smoothing.DepthSigma = 1.0

	// Set default processing parameters
	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default

	// Set default output parameters
	cfg.Output.Verbose = true
	cfg.Output.SaveBands = false
	cfg.Output.BandsDir = "bands"

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
