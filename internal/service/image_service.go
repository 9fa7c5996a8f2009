package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"kintone-catalog/internal/imageproxy"
	"kintone-catalog/internal/model"

	"github.com/rs/zerolog"
)

// imageService implements ImageService.
type imageService struct {
	fetcher imageproxy.Fetcher
	logger  zerolog.Logger
}

// NewImageService creates a new image relay service.
func NewImageService(fetcher imageproxy.Fetcher, logger zerolog.Logger) ImageService {
	return &imageService{
		fetcher: fetcher,
		logger:  logger.With().Str("service", "image").Logger(),
	}
}

// Fetch validates rawURL, retrieves the image from its direct content URL and
// resolves the type and filename it is served with. Nothing is fetched when
// validation fails.
func (s *imageService) Fetch(ctx context.Context, rawURL string) (*model.Image, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, model.ErrMissingImageURL
	}

	target, ok := imageproxy.DirectURL(rawURL)
	if !ok {
		s.logger.Warn().Str("url", rawURL).Msg("rejected image URL")
		return nil, model.ErrUnsupportedImgURL
	}

	// DirectURL accepted it, so it parses.
	original, _ := url.Parse(rawURL)

	fetched, err := s.fetcher.Fetch(ctx, target)
	if err != nil {
		s.logger.Error().Err(err).Str("target", target.String()).Msg("failed to fetch image")
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}

	return &model.Image{
		ContentType: imageproxy.ResolveContentType(fetched.ContentType, original),
		Filename:    imageproxy.Filename(original),
		Data:        fetched.Data,
	}, nil
}
