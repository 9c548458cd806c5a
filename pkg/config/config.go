// Package config provides configuration loading and management for
// curvedmpr. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"curvedmpr/pkg/mpr"
	"curvedmpr/pkg/voxelize"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Path construction parameters
	Path struct {
		// Curvature in [0,1] controls how strongly a two-point path
		// bulges out of the straight line
		Curvature float64 `yaml:"curvature"`

		// PreviewSamples is the resolution of the overlay preview curve
		PreviewSamples int `yaml:"previewSamples"`

		// ReconstructionSamples is the resolution of the curve the
		// volume is resampled along
		ReconstructionSamples int `yaml:"reconstructionSamples"`
	} `yaml:"path"`

	// Reconstruction parameters
	MPR struct {
		// CrossSectionHeight is the number of samples taken across the
		// path at each curve position
		CrossSectionHeight int `yaml:"crossSectionHeight"`

		// Gamma is the display gamma applied after contrast stretching
		Gamma float64 `yaml:"gamma"`
	} `yaml:"mpr"`

	// Volume loading parameters
	Volume struct {
		// DownsampleFactor shrinks the volume by this factor before
		// reconstruction; values below 2 disable downsampling
		DownsampleFactor int `yaml:"downsampleFactor"`

		// Normalize rescales intensities into [0,1] after loading
		Normalize bool `yaml:"normalize"`
	} `yaml:"volume"`

	// Mesh voxelization parameters, used when the input is an STL mesh
	// rather than a scan file
	Voxelize struct {
		// Resolution is the number of voxels along the longest extent
		// of the mesh bounding box
		Resolution int `yaml:"resolution"`

		// SamplesPerVoxel scales surface sampling density
		SamplesPerVoxel int `yaml:"samplesPerVoxel"`

		// DilationIterations is the number of dilation passes after
		// hole filling
		DilationIterations int `yaml:"dilationIterations"`
	} `yaml:"voxelize"`

	// Output parameters
	Output struct {
		// Scale is the integer display upscaling factor for saved
		// reconstructions
		Scale int `yaml:"scale"`

		// PreviewDir is where per-axis overlay previews are written;
		// empty disables previews
		PreviewDir string `yaml:"previewDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	mp := mpr.DefaultParams()
	cfg.Path.Curvature = mp.Curvature
	cfg.Path.PreviewSamples = mp.PreviewSamples
	cfg.Path.ReconstructionSamples = mp.ReconstructionSamples

	cfg.MPR.CrossSectionHeight = mp.CrossSectionHeight
	cfg.MPR.Gamma = mp.Gamma

	cfg.Volume.DownsampleFactor = 2
	cfg.Volume.Normalize = true

	vp := voxelize.DefaultParams()
	cfg.Voxelize.Resolution = vp.Resolution
	cfg.Voxelize.SamplesPerVoxel = vp.SamplesPerVoxel
	cfg.Voxelize.DilationIterations = vp.DilationIterations

	cfg.Output.Scale = 2
	cfg.Output.PreviewDir = ""
	cfg.Output.Verbose = true

	return cfg
}

// SessionParams converts the configuration into reconstruction session
// parameters.
func (cfg *Config) SessionParams() mpr.Params {
	return mpr.Params{
		PreviewSamples:        cfg.Path.PreviewSamples,
		ReconstructionSamples: cfg.Path.ReconstructionSamples,
		CrossSectionHeight:    cfg.MPR.CrossSectionHeight,
		Curvature:             cfg.Path.Curvature,
		Gamma:                 cfg.MPR.Gamma,
	}
}

// VoxelizeParams converts the configuration into mesh conversion
// parameters.
func (cfg *Config) VoxelizeParams() voxelize.Params {
	return voxelize.Params{
		Resolution:         cfg.Voxelize.Resolution,
		SamplesPerVoxel:    cfg.Voxelize.SamplesPerVoxel,
		DilationIterations: cfg.Voxelize.DilationIterations,
	}
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

// CreateDefaultConfigFile creates a default configuration file at the
// specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
