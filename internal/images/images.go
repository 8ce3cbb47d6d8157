// Package images stores base64 data-URI image payloads on disk and hands
// back media-relative references.
package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/plateful/recipe-api/internal/domain"
)

// Store writes decoded images under a media root directory.
type Store struct {
	root string
}

// NewStore creates a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the media root directory.
func (s *Store) Root() string {
	return s.root
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/bmp":  ".bmp",
}

// SaveDataURI decodes a "data:<mime>;base64,<bytes>" payload, verifies it is
// a readable image, and writes it under subdir. It returns the
// media-relative reference. Malformed payloads surface as ErrInvalidInput.
func (s *Store) SaveDataURI(payload, subdir string) (string, error) {
	raw, ext, err := decodeDataURI(payload)
	if err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: undecodable image", domain.ErrInvalidInput)
	}

	if err := os.MkdirAll(filepath.Join(s.root, subdir), 0755); err != nil {
		return "", err
	}
	ref := filepath.Join(subdir, uuid.New().String()+ext)
	if err := imaging.Save(img, filepath.Join(s.root, ref)); err != nil {
		return "", err
	}
	return filepath.ToSlash(ref), nil
}

// Delete removes a stored image. A missing file is not an error.
func (s *Store) Delete(ref string) error {
	if ref == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(ref)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func decodeDataURI(payload string) (data []byte, ext string, err error) {
	if !strings.HasPrefix(payload, "data:") {
		return nil, "", fmt.Errorf("%w: expected a data URI", domain.ErrInvalidInput)
	}
	meta, encoded, ok := strings.Cut(payload[len("data:"):], ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: malformed data URI", domain.ErrInvalidInput)
	}
	mime, found := strings.CutSuffix(meta, ";base64")
	if !found {
		return nil, "", fmt.Errorf("%w: data URI must be base64 encoded", domain.ErrInvalidInput)
	}
	ext, ok = extensions[mime]
	if !ok {
		return nil, "", fmt.Errorf("%w: unsupported image type %q", domain.ErrInvalidInput, mime)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid base64 payload", domain.ErrInvalidInput)
	}
	return raw, ext, nil
}
