package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fadhlirmn/esports-sync/internal/domain/jobscheduler"
)

type JobDispatchRepository struct {
	store *Store
}

func NewJobDispatchRepository(store *Store) *JobDispatchRepository {
	return &JobDispatchRepository{store: store}
}

// UpsertEvent keeps the latest event per dispatch id; earlier statuses for
// the same dispatch are overwritten like the relational upsert does.
func (r *JobDispatchRepository) UpsertEvent(_ context.Context, event jobscheduler.DispatchEvent) error {
	dispatchID := strings.TrimSpace(event.DispatchID)
	if dispatchID == "" {
		return fmt.Errorf("dispatch id is required")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	event.DispatchID = dispatchID
	r.store.jobDispatches[dispatchID] = event
	return nil
}

// Events returns a snapshot ordered by dispatch id.
func (r *JobDispatchRepository) Events() []jobscheduler.DispatchEvent {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]jobscheduler.DispatchEvent, 0, len(r.store.jobDispatches))
	for _, event := range r.store.jobDispatches {
		out = append(out, event)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DispatchID < out[j].DispatchID
	})
	return out
}
