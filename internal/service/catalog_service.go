package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"kintone-catalog/internal/imageproxy"
	"kintone-catalog/internal/model"
	"kintone-catalog/internal/repository"

	"github.com/rs/zerolog"
)

// catalogService implements CatalogService.
type catalogService struct {
	recordRepo  repository.RecordRepository
	imageFields []string
	logger      zerolog.Logger
}

// NewCatalogService creates a new catalog service. imageFields name the
// fields checked first for image references on record lookups.
func NewCatalogService(recordRepo repository.RecordRepository, imageFields []string, logger zerolog.Logger) CatalogService {
	return &catalogService{
		recordRepo:  recordRepo,
		imageFields: imageFields,
		logger:      logger.With().Str("service", "catalog").Logger(),
	}
}

// Search runs a keyword search and returns one page of card records.
func (s *catalogService) Search(ctx context.Context, req model.SearchRequest) (*model.SearchResponse, error) {
	if req.Limit < 0 || req.Limit > model.MaxSearchLimit {
		return nil, model.ErrInvalidLimit
	}
	if req.Offset < 0 || req.Offset > model.MaxSearchOffset {
		return nil, model.ErrInvalidOffset
	}

	req.Keyword = strings.TrimSpace(req.Keyword)
	if strings.TrimSpace(req.Order) == "" {
		req.Order = model.DefaultSearchOrder
	}

	page, err := s.recordRepo.Search(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).
			Str("keyword", req.Keyword).
			Int("limit", req.Limit).
			Int("offset", req.Offset).
			Msg("failed to search records")
		return nil, fmt.Errorf("failed to search records: %w", err)
	}

	s.logger.Debug().
		Int("count", len(page.Records)).
		Str("keyword", req.Keyword).
		Msg("search completed")

	return &model.SearchResponse{
		OK:         true,
		TotalCount: page.TotalCount,
		Records:    page.Records,
		NextOffset: req.Offset + req.Limit,
	}, nil
}

// GetRecord retrieves a single record by its $id.
func (s *catalogService) GetRecord(ctx context.Context, id string, fields []string) (*model.RecordResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		s.logger.Warn().Msg("record ID is empty")
		return nil, model.ErrMissingRecordID
	}

	recordID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || recordID < 1 {
		s.logger.Warn().Str("record_id", id).Msg("record ID is not numeric")
		return nil, model.ErrInvalidRecordID
	}

	record, err := s.recordRepo.GetByID(ctx, recordID, fields)
	if err != nil {
		s.logger.Error().Err(err).Int64("record_id", recordID).Msg("failed to get record by ID")
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	if record == nil {
		s.logger.Debug().Int64("record_id", recordID).Msg("record not found")
		return &model.RecordResponse{OK: true}, nil
	}

	return &model.RecordResponse{
		OK:     true,
		Record: record,
		Images: s.imageURLs(record),
	}, nil
}

// imageURLs collects the image references of a record. The configured image
// fields are checked first; only when none of them holds an image is every
// cell scanned. Trusted references are rewritten to the local relay.
func (s *catalogService) imageURLs(record model.Record) []string {
	found := collectImages(record, s.imageFields)
	if len(found) == 0 {
		all := make([]string, 0, len(record))
		for field := range record {
			all = append(all, field)
		}
		sort.Strings(all)
		found = collectImages(record, all)
	}

	urls := make([]string, 0, len(found))
	for _, raw := range found {
		if _, ok := imageproxy.DirectURL(raw); ok {
			urls = append(urls, imageproxy.RelayURL(raw))
			continue
		}
		urls = append(urls, raw)
	}
	return urls
}

func collectImages(record model.Record, fields []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, field := range fields {
		v := strings.TrimSpace(record.Value(field))
		if v == "" || seen[v] || !imageproxy.LooksLikeImage(v) {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
