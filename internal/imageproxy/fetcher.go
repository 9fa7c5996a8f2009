package imageproxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"kintone-catalog/internal/model"

	"github.com/rs/zerolog"
)

// Request headers sent to image hosts.
const (
	AcceptHeader = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"
	UserAgent    = "kintone-image-proxy/1.0"
)

// ErrImageTooLarge is returned when the image exceeds the configured size cap.
var ErrImageTooLarge = errors.New("image exceeds size limit")

// Fetched is the raw result of an image fetch.
type Fetched struct {
	ContentType string
	Data        []byte
}

// Fetcher retrieves image bytes from an image host.
type Fetcher interface {
	// Fetch performs one GET against target. Failures are reported as
	// *model.UpstreamError.
	Fetch(ctx context.Context, target *url.URL) (*Fetched, error)
}

// FetcherConfig holds image fetch limits.
type FetcherConfig struct {
	Timeout  time.Duration
	MaxBytes int64
}

// httpFetcher implements Fetcher over HTTP.
type httpFetcher struct {
	client *http.Client
	config FetcherConfig
	logger zerolog.Logger
}

// NewFetcher creates a new HTTP image fetcher.
func NewFetcher(client *http.Client, config FetcherConfig, logger zerolog.Logger) Fetcher {
	return &httpFetcher{
		client: client,
		config: config,
		logger: logger.With().Str("component", "image-fetcher").Logger(),
	}
}

// Fetch retrieves target within the configured timeout. The body is buffered
// in full so that a failed read never produces a truncated image.
func (f *httpFetcher) Fetch(ctx context.Context, target *url.URL) (*Fetched, error) {
	if f.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	req.Header.Set("Accept", AcceptHeader)
	req.Header.Set("User-Agent", UserAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn().Err(err).Str("host", target.Host).Msg("image fetch failed")
		return nil, &model.UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Warn().
			Int("status", resp.StatusCode).
			Str("host", target.Host).
			Msg("image host returned an error")
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &model.UpstreamError{
			Status: resp.StatusCode,
			Err:    errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	reader := io.Reader(resp.Body)
	if f.config.MaxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.config.MaxBytes+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, &model.UpstreamError{Err: fmt.Errorf("reading image body: %w", err)}
	}
	if f.config.MaxBytes > 0 && int64(len(data)) > f.config.MaxBytes {
		return nil, &model.UpstreamError{Err: ErrImageTooLarge}
	}

	f.logger.Debug().
		Str("host", target.Host).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("image fetched")

	return &Fetched{
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
