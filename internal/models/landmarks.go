// Package models holds the data types shared between the command line
// tool and the reconstruction packages.
package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// LandmarkSet is a named, ordered list of picked path points in voxel
// coordinates. It is the on-disk format the command line tool reads
// traced paths from.
type LandmarkSet struct {
	// Name labels the traced structure (e.g. "aorta")
	Name string `yaml:"name"`

	// Points are the picked coordinates in (x, y, z) voxel order
	Points [][3]float64 `yaml:"points"`
}

// Vecs returns the points as vectors in pick order.
func (ls *LandmarkSet) Vecs() []r3.Vec {
	out := make([]r3.Vec, len(ls.Points))
	for i, p := range ls.Points {
		out[i] = r3.Vec{X: p[0], Y: p[1], Z: p[2]}
	}
	return out
}

// LoadLandmarks reads a landmark set from a YAML file.
func LoadLandmarks(path string) (*LandmarkSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading landmarks file: %w", err)
	}

	ls := &LandmarkSet{}
	if err := yaml.Unmarshal(data, ls); err != nil {
		return nil, fmt.Errorf("error parsing landmarks file: %w", err)
	}

	return ls, nil
}

// SaveLandmarks writes a landmark set to a YAML file.
func SaveLandmarks(ls *LandmarkSet, path string) error {
	data, err := yaml.Marshal(ls)
	if err != nil {
		return fmt.Errorf("error marshaling landmarks: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing landmarks file: %w", err)
	}

	return nil
}
