package voxelize

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"
)

// Triangle represents a single facet of a binary STL mesh.
type Triangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
}

// stlHeaderSize is the fixed binary STL preamble: an 80-byte comment
// block followed by a uint32 facet count.
const stlHeaderSize = 80

// ReadSTL parses a binary STL file into its triangle list.
func ReadSTL(path string) ([]Triangle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open STL file: %w", err)
	}
	defer file.Close()

	header := make([]byte, stlHeaderSize)
	if _, err := file.Read(header); err != nil {
		return nil, fmt.Errorf("failed to read STL header: %w", err)
	}

	var count uint32
	if err := binary.Read(file, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read triangle count: %w", err)
	}

	// ASCII STL starts with "solid" and has no meaningful facet
	// count; verify against the file size before trusting it.
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	expected := int64(stlHeaderSize) + 4 + int64(count)*50
	if info.Size() != expected {
		if strings.HasPrefix(strings.TrimSpace(string(header)), "solid") {
			return nil, fmt.Errorf("%s looks like an ASCII STL file, only binary STL is supported", path)
		}
		return nil, fmt.Errorf("%s: size %d does not match %d triangles", path, info.Size(), count)
	}

	triangles := make([]Triangle, count)
	var attr uint16
	for i := range triangles {
		if err := binary.Read(file, binary.LittleEndian, &triangles[i]); err != nil {
			return nil, fmt.Errorf("failed to read triangle %d: %w", i, err)
		}
		if err := binary.Read(file, binary.LittleEndian, &attr); err != nil {
			return nil, fmt.Errorf("failed to read triangle %d attributes: %w", i, err)
		}
	}

	return triangles, nil
}

// SaveToSTL writes triangles to a binary STL file.
func SaveToSTL(path string, triangles []Triangle) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create STL file: %w", err)
	}
	defer file.Close()

	header := make([]byte, stlHeaderSize)
	copy(header, []byte("curvedmpr voxelizer mesh"))
	if _, err := file.Write(header); err != nil {
		return fmt.Errorf("failed to write STL header: %w", err)
	}

	if err := binary.Write(file, binary.LittleEndian, uint32(len(triangles))); err != nil {
		return fmt.Errorf("failed to write triangle count: %w", err)
	}

	for i, tri := range triangles {
		if err := binary.Write(file, binary.LittleEndian, tri); err != nil {
			return fmt.Errorf("failed to write triangle %d: %w", i, err)
		}
		if err := binary.Write(file, binary.LittleEndian, uint16(0)); err != nil {
			return fmt.Errorf("failed to write triangle %d attributes: %w", i, err)
		}
	}

	return nil
}
