package router

import (
	"io/fs"
	"net/http"

	"kintone-catalog/internal/handler"
	"kintone-catalog/internal/imageproxy"
	"kintone-catalog/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
// static is served for every path outside /api and the image relay; it may
// be nil.
func New(
	catalogHandler *handler.CatalogHandler,
	imageHandler *handler.ImageHandler,
	static fs.FS,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware order: RequestID -> RealIP -> Recovery -> Logging -> CORS
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", catalogHandler.Ping)
		r.Get("/search", catalogHandler.Search)
		r.Get("/record", catalogHandler.GetRecord)
		r.Get("/layout", catalogHandler.Layout)

		// Unknown API paths must not fall through to the frontend.
		r.NotFound(handler.NotFound)
		r.MethodNotAllowed(handler.MethodNotAllowed)
	})

	r.Get(imageproxy.RelayPath, imageHandler.Relay)

	if static != nil {
		r.Handle("/*", http.FileServer(http.FS(static)))
	}

	return r
}
