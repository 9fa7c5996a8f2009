package handler

import (
	"errors"
	"net/http"
	"strconv"

	"kintone-catalog/internal/imageproxy"
	"kintone-catalog/internal/middleware"
	"kintone-catalog/internal/model"
	"kintone-catalog/internal/service"

	"github.com/rs/zerolog"
)

// ImageCacheControl is sent with every relayed image.
const ImageCacheControl = "public, max-age=86400"

const msgImageFetchFailed = "image fetch failed"

// ImageHandler relays images from trusted hosts.
type ImageHandler struct {
	service service.ImageService
	logger  zerolog.Logger
}

// NewImageHandler creates a new image handler.
func NewImageHandler(service service.ImageService, logger zerolog.Logger) *ImageHandler {
	return &ImageHandler{
		service: service,
		logger:  logger.With().Str("handler", "image").Logger(),
	}
}

// Relay handles GET /img?url=... requests. Errors are reported as plain
// text since the response is consumed by <img> elements.
func (h *ImageHandler) Relay(w http.ResponseWriter, r *http.Request) {
	img, err := h.service.Fetch(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", ImageCacheControl)
	w.Header().Set("Content-Disposition", imageproxy.ContentDisposition(img.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Data); err != nil {
		h.logger.Debug().Err(err).Msg("client went away during image write")
	}
}

func (h *ImageHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	message := msgImageFetchFailed

	var domainErr *model.DomainError
	var upstreamErr *model.UpstreamError
	switch {
	case errors.As(err, &domainErr):
		status = http.StatusBadRequest
		message = domainErr.Message
	case errors.As(err, &upstreamErr):
		status = upstreamErr.StatusOr(http.StatusBadGateway)
	}

	h.logger.Warn().
		Err(err).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Int("status", status).
		Msg("image relay failed")

	http.Error(w, message, status)
}
