package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"connext-backend/internal/imagestore"
	"connext-backend/internal/models"
	"connext-backend/internal/repositories"
	"connext-backend/internal/ws"
)

// Notifier delivers events to whichever targets are online.
type Notifier interface {
	Deliver(ctx context.Context, event models.Event, audience ws.Audience) ws.Report
}

func notify(ctx context.Context, n Notifier, name string, payload interface{}, audience ws.Audience) {
	report := n.Deliver(ctx, models.Event{Name: name, Payload: payload}, audience)
	log.Debug().Str("event", name).Int("delivered", report.Delivered).Int("dropped", report.Dropped).Msg("event fanned out")
}

func upload(ctx context.Context, images imagestore.Store, payload string) (string, error) {
	url, err := images.Upload(ctx, payload)
	if err != nil {
		log.Error().Err(err).Msg("image upload failed")
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return url, nil
}

// destroyImage removes an image nothing references anymore; failures only leave an orphan behind.
func destroyImage(ctx context.Context, images imagestore.Store, url string) {
	if url == "" {
		return
	}
	if err := images.Destroy(ctx, url); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("destroy unreferenced image")
	}
}

func mapUserErr(err error) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}

func mapGroupErr(err error) error {
	if errors.Is(err, repositories.ErrGroupNotFound) {
		return ErrGroupNotFound
	}
	return err
}
