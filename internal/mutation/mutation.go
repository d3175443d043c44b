// Package mutation maps parsed domain records onto storage-ready field
// sets. Each upstream source registers one Mutation implementation; the
// registry selects it by the source-type tag carried on every record.
package mutation

import (
	"fmt"

	"github.com/fadhlirmn/esports-sync/internal/domain/match"
	"github.com/fadhlirmn/esports-sync/internal/domain/odds"
	"github.com/fadhlirmn/esports-sync/internal/domain/prediction"
	"github.com/fadhlirmn/esports-sync/internal/domain/team"
	"github.com/fadhlirmn/esports-sync/internal/domain/tournament"
)

// FieldSet is a flat set of storage-ready values keyed by column name.
// JSON blob columns carry their value pre-marshaled as a string.
type FieldSet map[string]any

// MatchFieldSet is the mutation output for a match. Fields holds the
// match's own columns; the nested records and source-space winner/loser
// ids ride alongside so the persistence layer can resolve internal ids
// without the mutation ever touching storage.
type MatchFieldSet struct {
	Fields         FieldSet
	Team1          *team.Team
	Team2          *team.Team
	Tournament     *tournament.Tournament
	WinnerSourceID *int64
	LoserSourceID  *int64
}

// Mutation converts one source's domain records into field sets. The
// matchID arguments are internal match row ids resolved by the caller.
type Mutation interface {
	SourceType() string
	TeamFields(t team.Team) (FieldSet, error)
	TournamentFields(t tournament.Tournament) (FieldSet, error)
	MatchFields(m match.Match) (MatchFieldSet, error)
	PredictionFields(p prediction.AIPrediction, matchID int64) (FieldSet, error)
	OddsFields(o odds.BettingOdds, matchID int64) (FieldSet, error)
}

// Registry resolves mutations by source type.
type Registry struct {
	bySource map[string]Mutation
}

// NewRegistry builds a registry with the built-in sources registered.
func NewRegistry() *Registry {
	r := &Registry{bySource: map[string]Mutation{}}
	r.Register(NewBO3())
	return r
}

func (r *Registry) Register(m Mutation) {
	r.bySource[m.SourceType()] = m
}

func (r *Registry) ForSource(sourceType string) (Mutation, error) {
	m, ok := r.bySource[sourceType]
	if !ok {
		return nil, fmt.Errorf("no mutation registered for source type %q", sourceType)
	}
	return m, nil
}

// matchUpdateColumns are the only match columns a repeated save or an
// explicit update may change. Everything else on an existing row is kept.
var matchUpdateColumns = map[string]struct{}{
	"team1_score":    {},
	"team2_score":    {},
	"status":         {},
	"winner_team_id": {},
	"loser_team_id":  {},
	"raw_data":       {},
}

// FilterMatchUpdate returns the subset of fields allowed on a match
// update. Unknown keys are dropped silently.
func FilterMatchUpdate(fields FieldSet) FieldSet {
	filtered := FieldSet{}
	for key, value := range fields {
		if _, ok := matchUpdateColumns[key]; ok {
			filtered[key] = value
		}
	}
	return filtered
}
