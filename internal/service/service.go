package service

import (
	"context"

	"kintone-catalog/internal/model"
)

// CatalogService defines the product search and detail operations.
type CatalogService interface {
	// Search runs a keyword search and returns one page of card records.
	Search(ctx context.Context, req model.SearchRequest) (*model.SearchResponse, error)

	// GetRecord retrieves a single record by its $id. fields optionally
	// restricts the fields requested from upstream.
	GetRecord(ctx context.Context, id string, fields []string) (*model.RecordResponse, error)
}

// ImageService defines the image relay operation.
type ImageService interface {
	// Fetch validates rawURL against the trusted hosts, retrieves the image
	// and resolves the headers it is served with.
	Fetch(ctx context.Context, rawURL string) (*model.Image, error)
}
