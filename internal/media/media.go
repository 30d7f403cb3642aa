// Package media owns uploaded files on disk. Database rows for media
// live in the handlers' transactions; this package only touches the
// filesystem.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeFilename reduces a client-supplied filename to a safe base
// name: path components dropped, anything outside [A-Za-z0-9._-]
// replaced with underscores.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	return strings.Trim(name, "._")
}

// Storage saves and removes files under a single upload directory.
type Storage struct {
	Dir string
}

// NewStorage ensures the upload directory exists.
func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &Storage{Dir: dir}, nil
}

// NewName derives a stored filename from the client's: a random uuid
// prefix avoids collisions between same-named uploads.
func (s *Storage) NewName(original string) string {
	base := SanitizeFilename(original)
	if base == "" {
		base = "upload"
	}
	return uuid.NewString() + "_" + base
}

// Path resolves a stored filename inside the upload directory.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.Dir, filepath.Base(name))
}

// Remove deletes a stored file. A missing file is not an error; the
// row is the source of truth and cleanup is best-effort.
func (s *Storage) Remove(name string) error {
	err := os.Remove(s.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
