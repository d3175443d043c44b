package memory

import (
	"context"
	"sort"

	"github.com/fadhlirmn/esports-sync/internal/domain/match"
)

type MatchRepository struct {
	store *Store
}

func NewMatchRepository(store *Store) *MatchRepository {
	return &MatchRepository{store: store}
}

func (r *MatchRepository) GetByID(_ context.Context, id int64) (match.Match, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.matches[id]
	if !ok {
		return match.Match{}, false, nil
	}
	return item, true, nil
}

func (r *MatchRepository) GetBySource(_ context.Context, sourceType string, sourceID int64) (match.Match, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.matchIDsBySource[sourceKey{sourceType: sourceType, sourceID: sourceID}]
	if !ok {
		return match.Match{}, false, nil
	}
	return r.store.matches[id], true, nil
}

func (r *MatchRepository) List(_ context.Context, filter match.ListFilter) ([]match.Match, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]match.Match, 0, len(r.store.matches))
	for _, item := range r.store.matches {
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.SourceType != "" && item.SourceType != filter.SourceType {
			continue
		}
		// Range filters only apply to rows with a known start date.
		if filter.StartFrom != nil && (item.StartDate == nil || item.StartDate.Before(*filter.StartFrom)) {
			continue
		}
		if filter.StartTo != nil && (item.StartDate == nil || item.StartDate.After(*filter.StartTo)) {
			continue
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		left, right := out[i].StartDate, out[j].StartDate
		switch {
		case left == nil && right == nil:
			return out[i].ID < out[j].ID
		case left == nil:
			return false
		case right == nil:
			return true
		case left.Equal(*right):
			return out[i].ID < out[j].ID
		default:
			return left.Before(*right)
		}
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
