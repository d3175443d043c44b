package memory

import (
	"context"

	"github.com/fadhlirmn/esports-sync/internal/domain/team"
)

type TeamRepository struct {
	store *Store
}

func NewTeamRepository(store *Store) *TeamRepository {
	return &TeamRepository{store: store}
}

func (r *TeamRepository) GetBySource(_ context.Context, sourceType string, sourceID int64) (team.Team, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.teamIDsBySource[sourceKey{sourceType: sourceType, sourceID: sourceID}]
	if !ok {
		return team.Team{}, false, nil
	}
	return r.store.teams[id], true, nil
}

func (r *TeamRepository) GetByID(_ context.Context, id int64) (team.Team, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.teams[id]
	if !ok {
		return team.Team{}, false, nil
	}
	return item, true, nil
}
