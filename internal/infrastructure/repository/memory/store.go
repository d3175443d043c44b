package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/fadhlirmn/esports-sync/internal/domain/datasource"
	"github.com/fadhlirmn/esports-sync/internal/domain/jobscheduler"
	"github.com/fadhlirmn/esports-sync/internal/domain/match"
	"github.com/fadhlirmn/esports-sync/internal/domain/odds"
	"github.com/fadhlirmn/esports-sync/internal/domain/prediction"
	"github.com/fadhlirmn/esports-sync/internal/domain/rawdata"
	"github.com/fadhlirmn/esports-sync/internal/domain/team"
	"github.com/fadhlirmn/esports-sync/internal/domain/tournament"
	"github.com/fadhlirmn/esports-sync/internal/mutation"
)

type sourceKey struct {
	sourceType string
	sourceID   int64
}

type predictionKey struct {
	matchID    int64
	sourceType string
}

type oddsKey struct {
	matchID    int64
	sourceType string
	provider   string
}

type payloadKey struct {
	source     string
	entityType string
	entityKey  string
}

// Store keeps the whole relational model in process memory. It backs tests
// and the no-database dev mode with the same upsert semantics the Postgres
// store has; one lock per call stands in for one transaction per call.
type Store struct {
	mu sync.RWMutex

	teamSeq       int64
	tournamentSeq int64
	matchSeq      int64
	predictionSeq int64
	oddsSeq       int64

	teams                 map[int64]team.Team
	teamIDsBySource       map[sourceKey]int64
	tournaments           map[int64]tournament.Tournament
	tournamentIDsBySource map[sourceKey]int64
	matches               map[int64]match.Match
	matchIDsBySource      map[sourceKey]int64
	predictions           map[int64]prediction.AIPrediction
	predictionIDsByKey    map[predictionKey]int64
	oddsRows              map[int64]odds.BettingOdds
	oddsIDsByKey          map[oddsKey]int64

	dataSources   map[string]datasource.DataSource
	rawPayloads   map[payloadKey]rawdata.Payload
	jobDispatches map[string]jobscheduler.DispatchEvent
}

func NewStore() *Store {
	return &Store{
		teams:                 make(map[int64]team.Team),
		teamIDsBySource:       make(map[sourceKey]int64),
		tournaments:           make(map[int64]tournament.Tournament),
		tournamentIDsBySource: make(map[sourceKey]int64),
		matches:               make(map[int64]match.Match),
		matchIDsBySource:      make(map[sourceKey]int64),
		predictions:           make(map[int64]prediction.AIPrediction),
		predictionIDsByKey:    make(map[predictionKey]int64),
		oddsRows:              make(map[int64]odds.BettingOdds),
		oddsIDsByKey:          make(map[oddsKey]int64),
		dataSources:           make(map[string]datasource.DataSource),
		rawPayloads:           make(map[payloadKey]rawdata.Payload),
		jobDispatches:         make(map[string]jobscheduler.DispatchEvent),
	}
}

// SaveMatch resolves both teams and the tournament before touching the
// match row, then updates the existing row through the column filter or
// inserts a fresh one. The bool reports an insert.
func (s *Store) SaveMatch(_ context.Context, up mutation.MatchUpsert) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	team1ID := s.getOrCreateTeamLocked(up.SourceType, up.Team1)
	team2ID := s.getOrCreateTeamLocked(up.SourceType, up.Team2)

	var tournamentID *int64
	if up.Tournament != nil {
		id := s.getOrCreateTournamentLocked(up.SourceType, *up.Tournament)
		tournamentID = &id
	}

	winnerID := resolveSideTeamID(up.WinnerSourceID, up.Team1.SourceID, up.Team2.SourceID, team1ID, team2ID)
	loserID := resolveSideTeamID(up.LoserSourceID, up.Team1.SourceID, up.Team2.SourceID, team1ID, team2ID)

	key := sourceKey{sourceType: up.SourceType, sourceID: up.SourceID}
	if matchID, ok := s.matchIDsBySource[key]; ok {
		row := s.matches[matchID]

		fields := make(mutation.FieldSet, len(up.Match)+2)
		for col, value := range up.Match {
			fields[col] = value
		}
		if up.WinnerSourceID != nil {
			fields["winner_team_id"] = winnerID
		}
		if up.LoserSourceID != nil {
			fields["loser_team_id"] = loserID
		}

		applyMatchColumns(&row, mutation.FilterMatchUpdate(fields))
		row.UpdatedAt = now
		row.LastFetchedAt = &now
		s.matches[matchID] = row
		return matchID, false, nil
	}

	row := match.Match{
		SourceType: up.SourceType,
		SourceID:   up.SourceID,
		Status:     match.StatusUpcoming,
	}
	applyMatchColumns(&row, up.Match)

	s.matchSeq++
	row.ID = s.matchSeq
	row.Team1ID = team1ID
	row.Team2ID = team2ID
	row.TournamentID = tournamentID
	row.WinnerTeamID = winnerID
	row.LoserTeamID = loserID
	row.CreatedAt = now
	row.UpdatedAt = now
	row.LastFetchedAt = &now

	s.matches[row.ID] = row
	s.matchIDsBySource[key] = row.ID
	return row.ID, true, nil
}

// UpdateMatch applies already-filtered columns to one match row. A missing
// row is a no-op, matching an UPDATE that touches zero rows.
func (s *Store) UpdateMatch(_ context.Context, matchID int64, fields mutation.FieldSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.matches[matchID]
	if !ok {
		return nil
	}

	filtered := mutation.FilterMatchUpdate(fields)
	if len(filtered) == 0 {
		return nil
	}

	now := time.Now().UTC()
	applyMatchColumns(&row, filtered)
	row.UpdatedAt = now
	row.LastFetchedAt = &now
	s.matches[matchID] = row
	return nil
}

func (s *Store) SavePrediction(_ context.Context, up mutation.PredictionUpsert) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[up.MatchID]; !ok {
		return 0, false, fmt.Errorf("prediction references missing match id=%d", up.MatchID)
	}

	now := time.Now().UTC()
	row := prediction.AIPrediction{
		MatchID:    up.MatchID,
		SourceType: up.SourceType,
	}
	applyPredictionColumns(&row, up.Fields)

	key := predictionKey{matchID: up.MatchID, sourceType: up.SourceType}
	if id, ok := s.predictionIDsByKey[key]; ok {
		existing := s.predictions[id]
		row.ID = id
		row.CreatedAt = existing.CreatedAt
		row.UpdatedAt = now
		s.predictions[id] = row
		return id, false, nil
	}

	s.predictionSeq++
	row.ID = s.predictionSeq
	row.CreatedAt = now
	row.UpdatedAt = now
	s.predictions[row.ID] = row
	s.predictionIDsByKey[key] = row.ID
	return row.ID, true, nil
}

func (s *Store) SaveOdds(_ context.Context, up mutation.OddsUpsert) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[up.MatchID]; !ok {
		return 0, false, fmt.Errorf("odds reference missing match id=%d", up.MatchID)
	}

	now := time.Now().UTC()
	row := odds.BettingOdds{
		MatchID:    up.MatchID,
		SourceType: up.SourceType,
		Provider:   up.Provider,
	}
	applyOddsColumns(&row, up.Fields)

	key := oddsKey{matchID: up.MatchID, sourceType: up.SourceType, provider: up.Provider}
	if id, ok := s.oddsIDsByKey[key]; ok {
		existing := s.oddsRows[id]
		row.ID = id
		row.CreatedAt = existing.CreatedAt
		row.UpdatedAt = now
		s.oddsRows[id] = row
		return id, false, nil
	}

	s.oddsSeq++
	row.ID = s.oddsSeq
	row.CreatedAt = now
	row.UpdatedAt = now
	s.oddsRows[row.ID] = row
	s.oddsIDsByKey[key] = row.ID
	return row.ID, true, nil
}

// getOrCreateTeamLocked returns the internal id for a source team, creating
// the row on first sight. An existing row keeps its stored identity; repeat
// saves never rewrite it.
func (s *Store) getOrCreateTeamLocked(sourceType string, up mutation.TeamUpsert) int64 {
	key := sourceKey{sourceType: sourceType, sourceID: up.SourceID}
	if id, ok := s.teamIDsBySource[key]; ok {
		return id
	}

	row := team.Team{
		SourceType: sourceType,
		SourceID:   up.SourceID,
	}
	applyTeamColumns(&row, up.Fields)

	s.teamSeq++
	row.ID = s.teamSeq
	s.teams[row.ID] = row
	s.teamIDsBySource[key] = row.ID
	return row.ID
}

func (s *Store) getOrCreateTournamentLocked(sourceType string, up mutation.TournamentUpsert) int64 {
	key := sourceKey{sourceType: sourceType, sourceID: up.SourceID}
	if id, ok := s.tournamentIDsBySource[key]; ok {
		return id
	}

	row := tournament.Tournament{
		SourceType: sourceType,
		SourceID:   up.SourceID,
	}
	applyTournamentColumns(&row, up.Fields)

	s.tournamentSeq++
	row.ID = s.tournamentSeq
	s.tournaments[row.ID] = row
	s.tournamentIDsBySource[key] = row.ID
	return row.ID
}

// resolveSideTeamID maps a source-space winner or loser id onto the internal
// id of whichever match side it names. Ids naming neither side resolve to nil.
func resolveSideTeamID(sourceID *int64, team1SourceID, team2SourceID, team1ID, team2ID int64) *int64 {
	if sourceID == nil {
		return nil
	}
	switch *sourceID {
	case team1SourceID:
		id := team1ID
		return &id
	case team2SourceID:
		id := team2ID
		return &id
	}
	return nil
}

func applyTeamColumns(row *team.Team, fields mutation.FieldSet) {
	for col, value := range fields {
		switch col {
		case "name":
			if name, ok := asString(value); ok {
				row.Name = name
			}
		case "slug":
			row.Slug = asStringPtr(value)
		case "country_code":
			row.CountryCode = asStringPtr(value)
		case "logo_url":
			row.LogoURL = asStringPtr(value)
		}
	}
}

func applyTournamentColumns(row *tournament.Tournament, fields mutation.FieldSet) {
	for col, value := range fields {
		switch col {
		case "name":
			if name, ok := asString(value); ok {
				row.Name = name
			}
		case "slug":
			row.Slug = asStringPtr(value)
		case "tier":
			row.Tier = asStringPtr(value)
		case "tier_rank":
			row.TierRank = asIntPtr(value)
		case "prize_pool":
			row.PrizePool = asInt64Ptr(value)
		case "discipline_id":
			row.DisciplineID = asIntPtr(value)
		case "status":
			row.Status = asStringPtr(value)
		case "start_date":
			row.StartDate = asTimePtr(value)
		case "end_date":
			row.EndDate = asTimePtr(value)
		}
	}
}

func applyMatchColumns(row *match.Match, fields mutation.FieldSet) {
	for col, value := range fields {
		switch col {
		case "slug":
			row.Slug = asStringPtr(value)
		case "status":
			if status, ok := asString(value); ok {
				row.Status = match.NormalizeStatus(status)
			}
		case "start_date":
			row.StartDate = asTimePtr(value)
		case "bo_type":
			row.BoType = asIntPtr(value)
		case "tier":
			row.Tier = asStringPtr(value)
		case "team1_score":
			row.Team1Score = asIntPtr(value)
		case "team2_score":
			row.Team2Score = asIntPtr(value)
		case "winner_team_id":
			row.WinnerTeamID = asInt64Ptr(value)
		case "loser_team_id":
			row.LoserTeamID = asInt64Ptr(value)
		case "raw_data":
			if blob, ok := asString(value); ok && blob != "" {
				var raw map[string]any
				if err := sonic.UnmarshalString(blob, &raw); err == nil {
					row.Raw = raw
				}
			}
		}
	}
}

type predictionBlob struct {
	ID           int64                `json:"id"`
	MatchID      int64                `json:"match_id"`
	Team1Score   int                  `json:"prediction_team1_score"`
	Team2Score   int                  `json:"prediction_team2_score"`
	WinnerTeamID int64                `json:"prediction_winner_team_id"`
	Scores       predictionBlobScores `json:"prediction_scores_data"`
}

type predictionBlobScores struct {
	PredictedScore          float64            `json:"predicted_score"`
	ProximityFactors        map[string]float64 `json:"proximity_factors"`
	ClosestValidScore       []int              `json:"closest_valid_score"`
	OverallProximityFactor  float64            `json:"overall_proximity_factor"`
	NeighborProximityFactor float64            `json:"neighbor_proximity_factor"`
}

func applyPredictionColumns(row *prediction.AIPrediction, fields mutation.FieldSet) {
	for col, value := range fields {
		switch col {
		case "source_id":
			if id, ok := asInt64(value); ok {
				row.SourceID = id
			}
		case "prediction_data":
			blobJSON, ok := asString(value)
			if !ok || blobJSON == "" {
				continue
			}
			var blob predictionBlob
			if err := sonic.UnmarshalString(blobJSON, &blob); err != nil {
				continue
			}
			if row.SourceID == 0 {
				row.SourceID = blob.ID
			}
			row.SourceMatchID = blob.MatchID
			row.Team1Score = blob.Team1Score
			row.Team2Score = blob.Team2Score
			row.WinnerSourceID = blob.WinnerTeamID
			row.Scores = prediction.ScoresData{
				PredictedScore:          blob.Scores.PredictedScore,
				ProximityFactors:        blob.Scores.ProximityFactors,
				ClosestValidScore:       blob.Scores.ClosestValidScore,
				OverallProximityFactor:  blob.Scores.OverallProximityFactor,
				NeighborProximityFactor: blob.Scores.NeighborProximityFactor,
			}
		}
	}
}

type oddsBlob struct {
	Path              *string        `json:"path"`
	Provider          string         `json:"provider"`
	Team1             oddsBlobSide   `json:"team_1"`
	Team2             oddsBlobSide   `json:"team_2"`
	MarketsCount      *int           `json:"markets_count"`
	AdditionalMarkets map[string]any `json:"additional_markets"`
}

// oddsBlobSide mirrors one side of the stored blob, including the upstream
// "aggrement_score" spelling.
type oddsBlobSide struct {
	Name           string  `json:"name"`
	Coeff          float64 `json:"coeff"`
	Active         bool    `json:"active"`
	TeamID         int64   `json:"team_id"`
	MaxCoeff       float64 `json:"max_coeff"`
	AgreementScore float64 `json:"aggrement_score"`
}

func applyOddsColumns(row *odds.BettingOdds, fields mutation.FieldSet) {
	for col, value := range fields {
		switch col {
		case "team1_odds":
			if coeff, ok := asFloat(value); ok {
				row.Team1.Coeff = coeff
			}
		case "team2_odds":
			if coeff, ok := asFloat(value); ok {
				row.Team2.Coeff = coeff
			}
		case "odds_data":
			blobJSON, ok := asString(value)
			if !ok || blobJSON == "" {
				continue
			}
			var blob oddsBlob
			if err := sonic.UnmarshalString(blobJSON, &blob); err != nil {
				continue
			}
			row.Path = blob.Path
			row.MarketsCount = blob.MarketsCount
			row.AdditionalMarkets = blob.AdditionalMarkets
			row.Team1 = odds.Side{
				Name:           blob.Team1.Name,
				Coeff:          blob.Team1.Coeff,
				Active:         blob.Team1.Active,
				TeamSourceID:   blob.Team1.TeamID,
				MaxCoeff:       blob.Team1.MaxCoeff,
				AgreementScore: blob.Team1.AgreementScore,
			}
			row.Team2 = odds.Side{
				Name:           blob.Team2.Name,
				Coeff:          blob.Team2.Coeff,
				Active:         blob.Team2.Active,
				TeamSourceID:   blob.Team2.TeamID,
				MaxCoeff:       blob.Team2.MaxCoeff,
				AgreementScore: blob.Team2.AgreementScore,
			}
		}
	}
}

func asString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	}
	return "", false
}

func asStringPtr(value any) *string {
	s, ok := asString(value)
	if !ok {
		return nil
	}
	return &s
}

func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case *int64:
		if v == nil {
			return 0, false
		}
		return *v, true
	case *int:
		if v == nil {
			return 0, false
		}
		return int64(*v), true
	}
	return 0, false
}

func asInt64Ptr(value any) *int64 {
	n, ok := asInt64(value)
	if !ok {
		return nil
	}
	return &n
}

func asIntPtr(value any) *int {
	n, ok := asInt64(value)
	if !ok {
		return nil
	}
	out := int(n)
	return &out
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case *float64:
		if v == nil {
			return 0, false
		}
		return *v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func asTimePtr(value any) *time.Time {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return nil
		}
		out := v
		return &out
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil
		}
		out := *v
		return &out
	}
	return nil
}
