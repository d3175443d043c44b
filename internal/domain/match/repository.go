package match

import (
	"context"
	"time"
)

// ListFilter narrows List results. Zero-valued fields are not applied.
type ListFilter struct {
	Status     string
	SourceType string
	StartFrom  *time.Time
	StartTo    *time.Time
	Limit      int
}

// Repository exposes match read operations.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Match, bool, error)
	GetBySource(ctx context.Context, sourceType string, sourceID int64) (Match, bool, error)
	List(ctx context.Context, filter ListFilter) ([]Match, error)
}
