// Package uploadstore persists uploaded source documents on disk.
package uploadstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Store writes uploads under Dir. The directory is created on first use.
type Store struct {
	Dir string
}

// New creates a store rooted at dir.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

// Save writes data under a fresh unique name derived from the original
// filename and returns the file ID and the stored name.
func (s *Store) Save(originalName string, data []byte) (fileID, savedName string, err error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create upload dir: %w", err)
	}

	fileID = uuid.New().String()
	savedName = fileID + "_" + sanitizeName(originalName)

	if err := os.WriteFile(filepath.Join(s.Dir, savedName), data, 0o644); err != nil {
		return "", "", fmt.Errorf("write upload: %w", err)
	}
	return fileID, savedName, nil
}

// sanitizeName keeps letters, digits, underscores, hyphens and dots;
// everything else, path separators included, is dropped.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
