package memory

import (
	"context"

	"github.com/fadhlirmn/esports-sync/internal/domain/tournament"
)

type TournamentRepository struct {
	store *Store
}

func NewTournamentRepository(store *Store) *TournamentRepository {
	return &TournamentRepository{store: store}
}

func (r *TournamentRepository) GetBySource(_ context.Context, sourceType string, sourceID int64) (tournament.Tournament, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.tournamentIDsBySource[sourceKey{sourceType: sourceType, sourceID: sourceID}]
	if !ok {
		return tournament.Tournament{}, false, nil
	}
	return r.store.tournaments[id], true, nil
}

func (r *TournamentRepository) GetByID(_ context.Context, id int64) (tournament.Tournament, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.tournaments[id]
	if !ok {
		return tournament.Tournament{}, false, nil
	}
	return item, true, nil
}
