package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r3"

	"curvedmpr/internal/models"
	"curvedmpr/pkg/config"
	"curvedmpr/pkg/mpr"
	"curvedmpr/pkg/visualization"
	"curvedmpr/pkg/volume"
	"curvedmpr/pkg/voxelize"
)

func main() {
	// Parse command line arguments
	volumePath := flag.String("volume", "", "Input NIfTI volume (.nii or .nii.gz)")
	meshPath := flag.String("mesh", "", "Input binary STL mesh, voxelized before reconstruction")
	landmarksPath := flag.String("landmarks", "", "YAML file with the traced path landmarks")
	configPath := flag.String("config", "curvedmpr.yaml", "Configuration file")
	outputName := flag.String("out", "mpr.png", "Output image filename")
	previewDir := flag.String("preview-dir", "", "Directory for per-axis overlay previews (overrides config)")
	curvature := flag.Float64("curvature", -1, "Curvature override in [0,1]; negative keeps the config value")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	// Validate inputs
	if (*volumePath == "") == (*meshPath == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -volume or -mesh is required")
		flag.Usage()
		os.Exit(1)
	}
	if *landmarksPath == "" {
		fmt.Fprintln(os.Stderr, "-landmarks is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if !cfg.Output.Verbose {
		log = log.Level(zerolog.WarnLevel)
	}
	if *previewDir != "" {
		cfg.Output.PreviewDir = *previewDir
	}

	fmt.Println("================================")
	fmt.Println("CURVED MULTIPLANAR RECONSTRUCTION")
	fmt.Println("================================")

	// Stage 1: load the source volume.
	startTime := time.Now()
	vol, err := loadVolume(*volumePath, *meshPath, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load input volume")
	}
	loadTime := time.Since(startTime)

	// Landmarks are picked in full-resolution voxel coordinates, so a
	// downsampled volume needs them scaled to match.
	scale := 1.0
	if *volumePath != "" && cfg.Volume.DownsampleFactor >= 2 {
		full := vol
		vol = vol.Downsample(cfg.Volume.DownsampleFactor)
		scale = 1 / float64(cfg.Volume.DownsampleFactor)
		log.Info().
			Str("from", fmt.Sprintf("%dx%dx%d", full.Nx, full.Ny, full.Nz)).
			Str("to", fmt.Sprintf("%dx%dx%d", vol.Nx, vol.Ny, vol.Nz)).
			Msg("downsampled volume")
	}
	if cfg.Volume.Normalize {
		vol.Normalize()
	}

	// Stage 2: load the traced path and set up the session.
	set, err := models.LoadLandmarks(*landmarksPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load landmarks")
	}

	params := cfg.SessionParams()
	if *curvature >= 0 {
		params.Curvature = *curvature
	}
	session := mpr.NewSession(vol, params, log)
	for _, p := range set.Vecs() {
		session.AddLandmark(r3.Scale(scale, p))
	}
	log.Info().
		Str("name", set.Name).
		Int("landmarks", len(set.Points)).
		Str("state", session.State().String()).
		Msg("session ready")

	// Stage 3: reconstruct.
	fmt.Println("Starting curved reconstruction...")
	reconStart := time.Now()
	img, err := session.Reconstruct()
	if err != nil {
		if errors.Is(err, mpr.ErrInsufficientLandmarks) {
			fmt.Fprintf(os.Stderr, "Cannot reconstruct %q: pick at least 2 landmark points (got %d)\n",
				set.Name, len(set.Points))
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("reconstruction failed")
	}
	reconTime := time.Since(reconStart)

	// Stage 4: render and save.
	rendered := visualization.Upscale(visualization.Render(img), cfg.Output.Scale)
	if err := visualization.SaveImage(rendered, *outputName); err != nil {
		log.Fatal().Err(err).Msg("failed to save output image")
	}

	fmt.Printf("\nReconstruction completed in %.2f seconds (load: %.2f s)\n",
		reconTime.Seconds(), loadTime.Seconds())
	fmt.Printf("Output image saved to: %s\n", *outputName)
	fmt.Printf("Path length: %.1f voxels\n", session.PathLength())
	fmt.Printf("Image resolution: %d x %d (cross-section x path)\n", img.Height, img.Width)

	// Stage 5: optional per-axis overlay previews at the volume center.
	if cfg.Output.PreviewDir != "" {
		if err := savePreviews(cfg.Output.PreviewDir, vol, session); err != nil {
			log.Warn().Err(err).Msg("failed to save overlay previews")
		} else {
			fmt.Printf("Overlay previews saved to: %s\n", cfg.Output.PreviewDir)
		}
	}
}

// loadVolume reads either a NIfTI scan or an STL mesh, voxelizing the
// latter into an occupancy volume.
func loadVolume(volumePath, meshPath string, cfg *config.Config, log zerolog.Logger) (*volume.Volume, error) {
	if volumePath != "" {
		log.Info().Str("file", volumePath).Msg("loading NIfTI volume")
		return volume.LoadNIfTI(volumePath)
	}

	if !strings.EqualFold(filepath.Ext(meshPath), ".stl") {
		return nil, fmt.Errorf("mesh file %s is not an STL file", meshPath)
	}
	log.Info().Str("file", meshPath).Msg("voxelizing STL mesh")
	return voxelize.FromSTLFile(meshPath, cfg.VoxelizeParams())
}

// savePreviews writes the preview curve and landmarks over the middle
// slice of each orientation.
func savePreviews(dir string, vol *volume.Volume, session *mpr.Session) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	curve := session.PreviewCurve()
	landmarks := session.Landmarks()

	positions := map[visualization.Axis]int{
		visualization.Axial:    vol.Nz / 2,
		visualization.Coronal:  vol.Ny / 2,
		visualization.Sagittal: vol.Nx / 2,
	}
	for axis, pos := range positions {
		slice, err := visualization.ExtractSlice(vol, axis, pos)
		if err != nil {
			return err
		}
		overlaid := visualization.Overlay(slice, curve, landmarks, axis)
		filename := filepath.Join(dir, fmt.Sprintf("preview_%s_%03d.png", axis, pos))
		if err := visualization.SaveImage(overlaid, filename); err != nil {
			return err
		}
	}
	return nil
}
