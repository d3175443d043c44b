package tournament

import "context"

// Repository describes tournament read needs from use cases.
type Repository interface {
	GetBySource(ctx context.Context, sourceType string, sourceID int64) (Tournament, bool, error)
	GetByID(ctx context.Context, id int64) (Tournament, bool, error)
}
