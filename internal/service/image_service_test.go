package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"kintone-catalog/internal/imageproxy"
	"kintone-catalog/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockFetcher is a mock implementation of imageproxy.Fetcher.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, target *url.URL) (*imageproxy.Fetched, error) {
	args := m.Called(ctx, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*imageproxy.Fetched), args.Error(1)
}

func TestImageService_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("Fetches the direct content URL", func(t *testing.T) {
		fetcher := new(MockFetcher)
		service := NewImageService(fetcher, zerolog.Nop())

		var target *url.URL
		fetcher.On("Fetch", ctx, mock.AnythingOfType("*url.URL")).
			Run(func(args mock.Arguments) { target = args.Get(1).(*url.URL) }).
			Return(&imageproxy.Fetched{ContentType: "application/octet-stream", Data: []byte("png")}, nil)

		img, err := service.Fetch(ctx, "https://www.dropbox.com/s/abc/photo.png?dl=1")

		require.NoError(t, err)
		assert.Equal(t, "image/png", img.ContentType)
		assert.Equal(t, "photo.png", img.Filename)
		assert.Equal(t, []byte("png"), img.Data)

		require.NotNil(t, target)
		assert.Equal(t, "dl.dropboxusercontent.com", target.Host)
		assert.False(t, target.Query().Has("dl"))
		assert.Equal(t, "1", target.Query().Get("raw"))
		fetcher.AssertExpectations(t)
	})

	t.Run("Upstream content type is kept", func(t *testing.T) {
		fetcher := new(MockFetcher)
		service := NewImageService(fetcher, zerolog.Nop())

		fetcher.On("Fetch", ctx, mock.Anything).
			Return(&imageproxy.Fetched{ContentType: "image/webp", Data: []byte("w")}, nil)

		img, err := service.Fetch(ctx, "https://dl.dropboxusercontent.com/s/abc/photo.png")

		require.NoError(t, err)
		assert.Equal(t, "image/webp", img.ContentType)
	})

	rejected := []struct {
		name     string
		url      string
		expected error
	}{
		{name: "Missing URL", url: "", expected: model.ErrMissingImageURL},
		{name: "Lookalike domain", url: "https://notdropbox.com/a.png", expected: model.ErrUnsupportedImgURL},
		{name: "Suffix trick", url: "https://dropbox.com.evil.net/a.png", expected: model.ErrUnsupportedImgURL},
		{name: "Internal address", url: "http://127.0.0.1/a.png", expected: model.ErrUnsupportedImgURL},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := new(MockFetcher)
			service := NewImageService(fetcher, zerolog.Nop())

			img, err := service.Fetch(ctx, tt.url)

			assert.Equal(t, tt.expected, err)
			assert.Nil(t, img)
			fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
		})
	}

	t.Run("Fetch failure is wrapped", func(t *testing.T) {
		fetcher := new(MockFetcher)
		service := NewImageService(fetcher, zerolog.Nop())

		fetcher.On("Fetch", ctx, mock.Anything).
			Return(nil, &model.UpstreamError{Status: http.StatusForbidden, Err: errors.New("Forbidden")})

		img, err := service.Fetch(ctx, "https://www.dropbox.com/s/abc/photo.png")

		assert.Nil(t, img)
		var upstreamErr *model.UpstreamError
		require.True(t, errors.As(err, &upstreamErr))
		assert.Equal(t, http.StatusForbidden, upstreamErr.Status)
	})
}
