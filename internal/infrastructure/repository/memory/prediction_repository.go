package memory

import (
	"context"
	"sort"

	"github.com/fadhlirmn/esports-sync/internal/domain/prediction"
)

type PredictionRepository struct {
	store *Store
}

func NewPredictionRepository(store *Store) *PredictionRepository {
	return &PredictionRepository{store: store}
}

func (r *PredictionRepository) ListByMatch(_ context.Context, matchID int64) ([]prediction.AIPrediction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]prediction.AIPrediction, 0, 1)
	for _, item := range r.store.predictions {
		if item.MatchID != matchID {
			continue
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out, nil
}
