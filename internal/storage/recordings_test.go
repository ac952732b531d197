package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crm-platform/internal/activity"
)

func TestSave_WavAndMp3(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRecordings(dir)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	name, err := r.Save("l1", "sess-1", ".wav", strings.NewReader("RIFFdata"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if name != "recording_l1_sess-1.wav" {
		t.Fatalf("unexpected stored name %q", name)
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil || string(data) != "RIFFdata" {
		t.Fatalf("stored bytes mismatch: %v", err)
	}

	if _, err := r.Save("l1", "sess-2", "MP3", strings.NewReader("x")); err != nil {
		t.Fatalf("mp3 with odd casing must pass: %v", err)
	}
}

func TestSave_RejectsOtherFormats(t *testing.T) {
	r, err := NewRecordings(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := r.Save("l1", "sess-1", ".pdf", strings.NewReader("x")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := r.Save("", "sess-1", ".wav", strings.NewReader("x")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSave_RejectsPathTraversalIDs(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRecordings(dir)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	for _, bad := range []struct{ lead, session string }{
		{"l1", "../../../escaped"},
		{"l1", "../escaped"},
		{"../l1", "sess-1"},
		{"l1", "sess/1"},
		{"l1", ".."},
		{"l1", "sess.1"},
	} {
		if _, err := r.Save(bad.lead, activity.SessionID(bad.session), ".mp3", strings.NewReader("x")); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Save(%q, %q) must reject unsafe id, got %v", bad.lead, bad.session, err)
		}
	}

	// Nothing may have been written, inside the uploads dir or above it.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("uploads dir must stay empty, found %d entries", len(entries))
	}
	if _, err := os.Stat(filepath.Join(dir, "..", "escaped.mp3")); err == nil {
		t.Fatalf("file escaped the uploads dir")
	}
}

func TestOpen_RejectsPathTraversal(t *testing.T) {
	r, err := NewRecordings(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := r.Open("../etc/passwd"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestOpen_RoundTrip(t *testing.T) {
	r, err := NewRecordings(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	name, err := r.Save("l1", "sess-1", "wav", strings.NewReader("audio"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	f, err := r.Open(name)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil || string(data) != "audio" {
		t.Fatalf("round trip mismatch: %v", err)
	}
}
