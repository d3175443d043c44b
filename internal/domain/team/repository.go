package team

import "context"

// Repository describes team read needs from use cases.
type Repository interface {
	GetBySource(ctx context.Context, sourceType string, sourceID int64) (Team, bool, error)
	GetByID(ctx context.Context, id int64) (Team, bool, error)
}
