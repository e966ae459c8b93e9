package imagestore

import (
	"encoding/base64"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/sakif/mentor-match/internal/apperror"
)

// tiny valid payload; the store validates the declared type, not the bytes.
func pngDataURL(payload []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)
}

func TestSaveAndLookup(t *testing.T) {
	store := New(t.TempDir())

	url, err := store.Save("mentor", 7, pngDataURL([]byte("fake png bytes")))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if url != "/images/mentor/7" {
		t.Errorf("Save() url = %q, want /images/mentor/7", url)
	}

	path, contentType, err := store.Lookup("mentor", 7)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if contentType != "image/png" {
		t.Errorf("contentType = %q, want image/png", contentType)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "fake png bytes" {
		t.Errorf("stored bytes = %q", data)
	}
}

// A re-upload with a different type replaces the old file instead of leaving
// two images for the same user.
func TestSave_ReplacesPreviousUpload(t *testing.T) {
	store := New(t.TempDir())

	if _, err := store.Save("mentee", 3, pngDataURL([]byte("first"))); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	jpeg := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("second"))
	if _, err := store.Save("mentee", 3, jpeg); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	path, contentType, err := store.Lookup("mentee", 3)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if contentType != "image/jpeg" {
		t.Errorf("contentType = %q, want image/jpeg", contentType)
	}
	if !strings.HasSuffix(path, "3.jpeg") {
		t.Errorf("path = %q, want 3.jpeg suffix", path)
	}
}

func TestSave_RejectsNonDataURL(t *testing.T) {
	store := New(t.TempDir())

	_, err := store.Save("mentor", 1, "https://example.com/avatar.png")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Save() error = %v, want ErrValidation", err)
	}
}

func TestSave_RejectsUnsupportedType(t *testing.T) {
	store := New(t.TempDir())

	_, err := store.Save("mentor", 1, "data:image/webp;base64,Zm9v")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Save() webp error = %v, want ErrValidation", err)
	}
}

func TestSave_RejectsBadBase64(t *testing.T) {
	store := New(t.TempDir())

	_, err := store.Save("mentor", 1, "data:image/png;base64,!!!not-base64!!!")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Save() bad base64 error = %v, want ErrValidation", err)
	}
}

func TestSave_RejectsOversizedImage(t *testing.T) {
	store := New(t.TempDir())

	big := make([]byte, MaxImageBytes+1)
	_, err := store.Save("mentor", 1, pngDataURL(big))
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Save() oversized error = %v, want ErrValidation", err)
	}
}

func TestLookup_NeverUploaded(t *testing.T) {
	store := New(t.TempDir())

	_, _, err := store.Lookup("mentor", 42)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Lookup() error = %v, want ErrNotFound", err)
	}
}
