package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSource reads resources from a local directory. Used when the data files
// are shipped alongside the binary.
type FileSource struct {
	dir string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

func (s *FileSource) Fetch(_ context.Context, name string) ([]byte, error) {
	path := filepath.Join(s.dir, filepath.FromSlash(name))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
