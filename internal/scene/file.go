package scene

import (
	"fmt"

	"github.com/tensorplex-labs/clevr-action/internal/dataset"
)

// LoadFile reads a scene file and normalizes every scene in it.
func LoadFile(path string) (*File, error) {
	var f File
	if err := dataset.ReadJSON(path, &f); err != nil {
		return nil, fmt.Errorf("load scenes: %w", err)
	}
	for i := range f.Scenes {
		if err := f.Scenes[i].Normalize(); err != nil {
			return nil, fmt.Errorf("load scenes %s: %w", path, err)
		}
	}
	return &f, nil
}

// LoadScene reads a single per-image scene record.
func LoadScene(path string) (*Scene, error) {
	var s Scene
	if err := dataset.ReadJSON(path, &s); err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	if err := s.Normalize(); err != nil {
		return nil, fmt.Errorf("load scene %s: %w", path, err)
	}
	return &s, nil
}

// WriteFile writes a scene file.
func WriteFile(path string, f *File) error {
	return dataset.WriteJSON(path, f)
}
