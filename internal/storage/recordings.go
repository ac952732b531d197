package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"crm-platform/internal/activity"
)

var (
	ErrUnsupportedFormat = errors.New("storage: unsupported recording format")
	ErrInvalidInput      = errors.New("storage: invalid input")
)

// Recordings stores call recordings on local disk under one base directory.
// Filenames are derived from lead and session ids. Session ids are client
// correlation strings, so both ids are restricted to a safe character set
// before any path is built.
type Recordings struct {
	dir string
}

func NewRecordings(dir string) (*Recordings, error) {
	if dir == "" {
		return nil, ErrInvalidInput
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create dir: %w", err)
	}
	return &Recordings{dir: dir}, nil
}

// Save writes one recording and returns the stored relative path.
// Only wav and mp3 are accepted.
func (r *Recordings) Save(leadID string, sessionID activity.SessionID, ext string, src io.Reader) (string, error) {
	if !validID(leadID) || !validID(string(sessionID)) {
		return "", ErrInvalidInput
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext != "wav" && ext != "mp3" {
		return "", ErrUnsupportedFormat
	}

	name := fmt.Sprintf("recording_%s_%s.%s", leadID, sessionID, ext)
	full := filepath.Join(r.dir, name)

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return name, nil
}

// Open returns the stored recording for download. The name must be one Save
// produced; path separators are rejected.
func (r *Recordings) Open(name string) (*os.File, error) {
	if name == "" || name != filepath.Base(name) {
		return nil, ErrInvalidInput
	}
	return os.Open(filepath.Join(r.dir, name))
}

// validID reports whether id is safe to embed in a filename. Only letters,
// digits, hyphen and underscore are accepted; dots and path separators never
// reach filepath.Join.
func validID(id string) bool {
	if id == "" {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
