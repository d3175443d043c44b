package memory

import (
	"context"
	"sort"

	"github.com/fadhlirmn/esports-sync/internal/domain/rawdata"
)

type RawDataRepository struct {
	store *Store
}

func NewRawDataRepository(store *Store) *RawDataRepository {
	return &RawDataRepository{store: store}
}

func (r *RawDataRepository) UpsertMany(_ context.Context, items []rawdata.Payload) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, item := range items {
		if item.Source == "" || item.EntityType == "" || item.EntityKey == "" {
			continue
		}
		key := payloadKey{source: item.Source, entityType: item.EntityType, entityKey: item.EntityKey}
		r.store.rawPayloads[key] = item
	}
	return nil
}

// Payloads returns a snapshot of the archive ordered by entity key.
func (r *RawDataRepository) Payloads() []rawdata.Payload {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]rawdata.Payload, 0, len(r.store.rawPayloads))
	for _, item := range r.store.rawPayloads {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityKey < out[j].EntityKey })
	return out
}
