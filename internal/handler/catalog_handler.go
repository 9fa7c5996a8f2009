package handler

import (
	"net/http"
	"strconv"
	"strings"

	"kintone-catalog/internal/config"
	"kintone-catalog/internal/model"
	"kintone-catalog/internal/service"

	"github.com/rs/zerolog"
)

// layoutResponse tells the frontend which fields to render and how.
type layoutResponse struct {
	OK bool `json:"ok"`
	config.Layout
	Fields model.FieldMapping `json:"fields"`
}

// CatalogHandler handles product search and detail requests.
type CatalogHandler struct {
	service service.CatalogService
	layout  layoutResponse
	logger  zerolog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(
	service service.CatalogService,
	layout config.Layout,
	fields model.FieldMapping,
	logger zerolog.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		layout:  layoutResponse{OK: true, Layout: layout, Fields: fields},
		logger:  logger.With().Str("handler", "catalog").Logger(),
	}
}

// Ping handles GET /api/ping requests.
func (h *CatalogHandler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Layout handles GET /api/layout requests.
func (h *CatalogHandler) Layout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.layout)
}

// Search handles GET /api/search requests.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := model.NewSearchRequest(query.Get("keyword"))

	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(strings.TrimSpace(limitStr))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid limit parameter", h.logger)
			return
		}
		req.Limit = limit
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(strings.TrimSpace(offsetStr))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid offset parameter", h.logger)
			return
		}
		req.Offset = offset
	}

	if order := query.Get("order"); order != "" {
		req.Order = order
	}

	resp, err := h.service.Search(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, http.StatusInternalServerError, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetRecord handles GET /api/record requests.
func (h *CatalogHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	resp, err := h.service.GetRecord(r.Context(), query.Get("id"), parseFields(query["fields"]))
	if err != nil {
		writeServiceError(w, r, err, http.StatusInternalServerError, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseFields accepts fields as repeated parameters, comma separated lists,
// or a mix of both. Blank entries are dropped; nil means no projection.
func parseFields(values []string) []string {
	var fields []string
	for _, v := range values {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
	}
	return fields
}
