package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"connext-backend/internal/imagestore"
)

// ImageLister enumerates stored image urls.
type ImageLister func(ctx context.Context) ([]string, error)

// PurgeService wipes all user data, destroying stored images first.
type PurgeService struct {
	images  imagestore.Store
	listers []ImageLister
	wipe    func(ctx context.Context) error
}

func NewPurgeService(images imagestore.Store, wipe func(ctx context.Context) error, listers ...ImageLister) *PurgeService {
	return &PurgeService{images: images, listers: listers, wipe: wipe}
}

// PurgeReport counts what Purge did.
type PurgeReport struct {
	ImagesDestroyed int
	ImagesFailed    int
}

// Purge destroys every image it can find, then wipes the data. Image failures are
// counted and logged but do not stop the wipe.
func (s *PurgeService) Purge(ctx context.Context) (PurgeReport, error) {
	var report PurgeReport
	for _, list := range s.listers {
		urls, err := list(ctx)
		if err != nil {
			return report, err
		}
		for _, url := range urls {
			if err := s.images.Destroy(ctx, url); err != nil {
				report.ImagesFailed++
				log.Warn().Err(err).Str("url", url).Msg("destroy image")
				continue
			}
			report.ImagesDestroyed++
		}
	}
	if err := s.wipe(ctx); err != nil {
		return report, err
	}
	log.Info().Int("destroyed", report.ImagesDestroyed).Int("failed", report.ImagesFailed).Msg("all user data purged")
	return report, nil
}
