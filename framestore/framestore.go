// Package framestore saves and loads frame sets as a JSON array of integer
// arrays, the format dark-reference captures are exchanged in.
package framestore

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kevmo314/go-bomc1"
)

// Save writes frames to w as [[...],[...]].
func Save(w io.Writer, frames []bomc1.Frame) error {
	if frames == nil {
		frames = []bomc1.Frame{}
	}
	if err := json.NewEncoder(w).Encode(frames); err != nil {
		return fmt.Errorf("failed to encode frames: %w", err)
	}
	return nil
}

// Load reads a frame set written by Save. Every frame must hold exactly
// bomc1.DataCount samples.
func Load(r io.Reader) ([]bomc1.Frame, error) {
	var frames []bomc1.Frame
	if err := json.NewDecoder(r).Decode(&frames); err != nil {
		return nil, fmt.Errorf("failed to decode frames: %w", err)
	}
	return frames, nil
}

// SaveFile writes frames to path, replacing it atomically.
func SaveFile(path string, frames []bomc1.Frame) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".frames-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Save(tmp, frames); err != nil {
		tmp.Close()
		return err
	}
	// CreateTemp makes the file 0600
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func LoadFile(path string) ([]bomc1.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	frames, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frames, nil
}
