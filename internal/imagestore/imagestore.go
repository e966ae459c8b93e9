// Package imagestore persists uploaded profile images on the local
// filesystem.
//
// Clients send images as base64 data URLs inside the profile update payload
// (no multipart uploads). The store decodes, validates and writes them under
// <dir>/<role>/<id>.<ext>, one image per user; a re-upload replaces the
// previous file.
package imagestore

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sakif/mentor-match/internal/apperror"
)

// MaxImageBytes caps decoded image size at 5 MB.
const MaxImageBytes = 5 * 1024 * 1024

// dataURLPattern matches "data:image/<type>;base64,<payload>".
var dataURLPattern = regexp.MustCompile(`^data:image/([a-zA-Z]+);base64,(.+)$`)

var allowedTypes = map[string]bool{
	"jpeg": true,
	"jpg":  true,
	"png":  true,
	"gif":  true,
}

// Store writes profile images beneath a root directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. Directories are created lazily on the
// first save, so callers don't need dir to exist up front.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Save decodes a base64 data URL and writes it as the user's profile image.
// It returns the public URL path ("/images/<role>/<id>") stored on the user
// record. Malformed input, unsupported types and oversized images all come
// back as validation errors.
func (s *Store) Save(role string, userID int64, dataURL string) (string, error) {
	groups := dataURLPattern.FindStringSubmatch(dataURL)
	if groups == nil {
		return "", apperror.ValidationFailed("image", "image must be a base64 data URL")
	}

	imageType := strings.ToLower(groups[1])
	if !allowedTypes[imageType] {
		return "", apperror.ValidationFailed("image",
			fmt.Sprintf("unsupported image type %q (want jpeg, jpg, png or gif)", imageType))
	}

	decoded, err := base64.StdEncoding.DecodeString(groups[2])
	if err != nil {
		return "", apperror.ValidationFailed("image", "image payload is not valid base64")
	}
	if len(decoded) > MaxImageBytes {
		return "", apperror.ValidationFailed("image", "image file too large (max 5MB)")
	}

	roleDir := filepath.Join(s.dir, role)
	if err := os.MkdirAll(roleDir, 0o755); err != nil {
		return "", fmt.Errorf("imagestore: creating %s: %w", roleDir, err)
	}

	// One image per user: drop any previously uploaded file with a
	// different extension before writing the new one.
	s.removeExisting(roleDir, userID)

	path := filepath.Join(roleDir, fmt.Sprintf("%d.%s", userID, imageType))
	if err := os.WriteFile(path, decoded, 0o644); err != nil {
		return "", fmt.Errorf("imagestore: writing %s: %w", path, err)
	}

	return fmt.Sprintf("/images/%s/%d", role, userID), nil
}

// Lookup returns the filesystem path and content type of a user's stored
// image. Returns apperror.ErrNotFound when the user has never uploaded one.
func (s *Store) Lookup(role string, userID int64) (path, contentType string, err error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, role, fmt.Sprintf("%d.*", userID)))
	if err != nil || len(matches) == 0 {
		return "", "", apperror.NotFound("image")
	}

	path = matches[0]
	switch strings.TrimPrefix(filepath.Ext(path), ".") {
	case "jpeg", "jpg":
		contentType = "image/jpeg"
	case "png":
		contentType = "image/png"
	case "gif":
		contentType = "image/gif"
	default:
		contentType = "application/octet-stream"
	}
	return path, contentType, nil
}

func (s *Store) removeExisting(roleDir string, userID int64) {
	matches, err := filepath.Glob(filepath.Join(roleDir, fmt.Sprintf("%d.*", userID)))
	if err != nil {
		return
	}
	for _, m := range matches {
		os.Remove(m)
	}
}
