package imagestore

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Local writes images to a directory served under urlPrefix.
type Local struct {
	dir       string
	urlPrefix string
}

var _ Store = (*Local)(nil)

// NewLocal creates dir if needed.
func NewLocal(dir, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// Dir is the directory the files are written to.
func (l *Local) Dir() string {
	return l.dir
}

// Upload accepts a base64 data URI or bare base64 image.
func (l *Local) Upload(ctx context.Context, payload string) (string, error) {
	data, err := decodePayload(payload)
	if err != nil {
		return "", err
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrInvalidImage, mt.String())
	}
	name := uuid.NewString() + mt.Extension()
	if err := os.WriteFile(filepath.Join(l.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return l.urlPrefix + "/" + name, nil
}

// Destroy removes a file previously returned by Upload. Foreign urls are ignored.
func (l *Local) Destroy(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, l.urlPrefix+"/") {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(url, l.urlPrefix+"/"))
	err := os.Remove(filepath.Join(l.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func decodePayload(payload string) ([]byte, error) {
	raw := payload
	if strings.HasPrefix(raw, "data:") {
		comma := strings.Index(raw, ",")
		if comma < 0 || !strings.Contains(raw[:comma], ";base64") {
			return nil, ErrInvalidImage
		}
		raw = raw[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}
	return data, nil
}
