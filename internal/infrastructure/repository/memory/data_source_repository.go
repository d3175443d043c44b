package memory

import (
	"context"
	"sort"
	"time"

	"github.com/fadhlirmn/esports-sync/internal/domain/datasource"
)

type DataSourceRepository struct {
	store *Store
}

func NewDataSourceRepository(store *Store, seed []datasource.DataSource) *DataSourceRepository {
	store.mu.Lock()
	defer store.mu.Unlock()

	now := time.Now().UTC()
	for idx, item := range seed {
		if item.SourceType == "" {
			continue
		}
		if item.ID == 0 {
			item.ID = int64(idx + 1)
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		if item.UpdatedAt.IsZero() {
			item.UpdatedAt = now
		}
		store.dataSources[item.SourceType] = item
	}

	return &DataSourceRepository{store: store}
}

func (r *DataSourceRepository) List(_ context.Context) ([]datasource.DataSource, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]datasource.DataSource, 0, len(r.store.dataSources))
	for _, item := range r.store.dataSources {
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SourceType < out[j].SourceType
	})
	return out, nil
}

func (r *DataSourceRepository) GetByType(_ context.Context, sourceType string) (datasource.DataSource, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.dataSources[sourceType]
	if !ok {
		return datasource.DataSource{}, false, nil
	}
	return item, true, nil
}

func (r *DataSourceRepository) TouchLastSync(_ context.Context, sourceType string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	item, ok := r.store.dataSources[sourceType]
	if !ok {
		return nil
	}

	at = at.UTC()
	item.LastSyncAt = &at
	item.UpdatedAt = at
	r.store.dataSources[sourceType] = item
	return nil
}
