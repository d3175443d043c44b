package datasource

import (
	"context"
	"time"
)

type Repository interface {
	List(ctx context.Context) ([]DataSource, error)
	GetByType(ctx context.Context, sourceType string) (DataSource, bool, error)
	TouchLastSync(ctx context.Context, sourceType string, at time.Time) error
}
