package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"kintone-catalog/internal/model"

	"github.com/rs/zerolog"
)

// apiTokenHeader carries the kintone API token.
const apiTokenHeader = "X-Cybozu-API-Token"

// maxErrorBodyBytes bounds how much of an upstream error body is read.
const maxErrorBodyBytes = 64 << 10

// recordsResponse is the body of a records.json reply.
type recordsResponse struct {
	Records    []model.Record `json:"records"`
	TotalCount any            `json:"totalCount"`
}

// recordRepository implements RecordRepository against the kintone REST API.
type recordRepository struct {
	client   *http.Client
	endpoint string
	appID    string
	token    string
	fields   model.FieldMapping
	logger   zerolog.Logger
}

// NewRecordRepository creates a new kintone-backed record repository.
// endpoint is the full records.json URL.
func NewRecordRepository(
	client *http.Client,
	endpoint, appID, token string,
	fields model.FieldMapping,
	logger zerolog.Logger,
) RecordRepository {
	return &recordRepository{
		client:   client,
		endpoint: endpoint,
		appID:    appID,
		token:    token,
		fields:   fields,
		logger:   logger.With().Str("repository", "record").Logger(),
	}
}

// Search retrieves one page of card records matching the request.
func (r *recordRepository) Search(ctx context.Context, req model.SearchRequest) (*model.RecordPage, error) {
	order, err := sortClause(r.fields, req.Order)
	if err != nil {
		r.logger.Warn().Str("order", req.Order).Msg("rejected sort order")
		return nil, err
	}
	req.Order = order
	query := buildSearchQuery(r.fields, req)

	params := r.params(query, r.fields.CardFields())
	params.Set("totalCount", "true")

	resp, err := r.fetch(ctx, params)
	if err != nil {
		r.logger.Error().Err(err).
			Str("query", query).
			Msg("failed to search records")
		return nil, fmt.Errorf("failed to search records: %w", err)
	}

	records := resp.Records
	if records == nil {
		records = []model.Record{}
	}

	return &model.RecordPage{
		TotalCount: resp.TotalCount,
		Records:    records,
	}, nil
}

// GetByID retrieves a single record by its $id.
func (r *recordRepository) GetByID(ctx context.Context, id int64, fields []string) (model.Record, error) {
	query := buildRecordQuery(id)

	resp, err := r.fetch(ctx, r.params(query, fields))
	if err != nil {
		r.logger.Error().Err(err).
			Int64("record_id", id).
			Msg("failed to get record by ID")
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	if len(resp.Records) == 0 {
		return nil, nil
	}

	return resp.Records[0], nil
}

// params builds the records.json query parameters. Field projection is
// omitted when fields is empty so that upstream returns every field.
func (r *recordRepository) params(query string, fields []string) url.Values {
	params := url.Values{}
	params.Set("app", r.appID)
	params.Set("query", query)
	for i, f := range fields {
		params.Set("fields["+strconv.Itoa(i)+"]", f)
	}
	return params
}

// fetch issues one authenticated GET against records.json. Non-2xx replies
// and transport failures are returned as *model.UpstreamError.
func (r *recordRepository) fetch(ctx context.Context, params url.Values) (*recordsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set(apiTokenHeader, r.token)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &model.UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		r.logger.Warn().
			Int("status", resp.StatusCode).
			Msg("record API returned an error")
		return nil, model.NewUpstreamError(resp.StatusCode, body)
	}

	var out recordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode records response: %w", err)
	}

	r.logger.Debug().
		Int("count", len(out.Records)).
		Msg("retrieved records")

	return &out, nil
}
