package repository

import (
	"context"

	"kintone-catalog/internal/model"
)

// RecordRepository defines read access to the product records held by the
// upstream kintone app.
type RecordRepository interface {
	// Search retrieves one page of card records matching the request.
	Search(ctx context.Context, req model.SearchRequest) (*model.RecordPage, error)

	// GetByID retrieves a single record by its $id. When fields is empty every
	// field is returned. A nil record with a nil error means no match.
	GetByID(ctx context.Context, id int64, fields []string) (model.Record, error)
}
