package memory

import (
	"context"
	"sort"

	"github.com/fadhlirmn/esports-sync/internal/domain/odds"
)

type OddsRepository struct {
	store *Store
}

func NewOddsRepository(store *Store) *OddsRepository {
	return &OddsRepository{store: store}
}

func (r *OddsRepository) ListByMatch(_ context.Context, matchID int64, provider *string) ([]odds.BettingOdds, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]odds.BettingOdds, 0, 2)
	for _, item := range r.store.oddsRows {
		if item.MatchID != matchID {
			continue
		}
		if provider != nil && item.Provider != *provider {
			continue
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out, nil
}
