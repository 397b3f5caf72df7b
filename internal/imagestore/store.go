package imagestore

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// ErrInvalidImage is returned when the payload is not a decodable image.
var ErrInvalidImage = errors.New("invalid image payload")

// Store uploads user images and returns their public URL.
type Store interface {
	Upload(ctx context.Context, payload string) (string, error)
	Destroy(ctx context.Context, url string) error
}

// New returns a Cloudinary store when cloudinaryURL is set, otherwise a local disk store under uploadDir.
func New(cloudinaryURL, uploadDir string) (Store, error) {
	if cloudinaryURL != "" {
		store, err := NewCloudinary(cloudinaryURL, "connext")
		if err != nil {
			return nil, err
		}
		log.Info().Msg("image store: cloudinary")
		return store, nil
	}
	log.Info().Str("dir", uploadDir).Msg("image store: local disk")
	return NewLocal(uploadDir, "/uploads")
}
