package query

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSaver writes exports into Dir.
type FileSaver struct {
	Dir string
}

// Save writes body under the base name of filename, so a server supplied
// name can never escape Dir.
func (s FileSaver) Save(filename string, body []byte) (string, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "", fmt.Errorf("invalid export filename %q", filename)
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
