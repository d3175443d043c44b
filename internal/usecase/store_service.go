package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/fadhlirmn/esports-sync/internal/domain/match"
	"github.com/fadhlirmn/esports-sync/internal/domain/odds"
	"github.com/fadhlirmn/esports-sync/internal/domain/prediction"
	"github.com/fadhlirmn/esports-sync/internal/domain/rawdata"
	"github.com/fadhlirmn/esports-sync/internal/domain/team"
	"github.com/fadhlirmn/esports-sync/internal/domain/tournament"
	"github.com/fadhlirmn/esports-sync/internal/mutation"
)

const (
	defaultMatchListLimit = 50
	maxMatchListLimit     = 200
)

// Store is the write side of the relational store. Each call runs in its own
// transaction; a returned error means the whole call rolled back.
type Store interface {
	SaveMatch(ctx context.Context, up mutation.MatchUpsert) (int64, bool, error)
	UpdateMatch(ctx context.Context, matchID int64, fields mutation.FieldSet) error
	SavePrediction(ctx context.Context, up mutation.PredictionUpsert) (int64, bool, error)
	SaveOdds(ctx context.Context, up mutation.OddsUpsert) (int64, bool, error)
}

// MatchInclude selects related collections loaded alongside a match read.
type MatchInclude struct {
	Predictions bool
	Odds        bool
}

// StoreService coordinates upserts: it selects the source mutation, maps
// domain entities to column sets and hands them to the store as one bundle
// per call. Reads go straight to the domain repositories.
type StoreService struct {
	store          Store
	registry       *mutation.Registry
	matchRepo      match.Repository
	teamRepo       team.Repository
	tournamentRepo tournament.Repository
	predictionRepo prediction.Repository
	oddsRepo       odds.Repository
	rawDataRepo    rawdata.Repository
}

func NewStoreService(
	store Store,
	registry *mutation.Registry,
	matchRepo match.Repository,
	teamRepo team.Repository,
	tournamentRepo tournament.Repository,
	predictionRepo prediction.Repository,
	oddsRepo odds.Repository,
	rawDataRepo rawdata.Repository,
) *StoreService {
	return &StoreService{
		store:          store,
		registry:       registry,
		matchRepo:      matchRepo,
		teamRepo:       teamRepo,
		tournamentRepo: tournamentRepo,
		predictionRepo: predictionRepo,
		oddsRepo:       oddsRepo,
		rawDataRepo:    rawDataRepo,
	}
}

// SaveMatch upserts a match keyed by (source_type, source_id). Both teams are
// resolved first, then the tournament when present, so the match row never
// references a missing team. The bool reports whether a new row was created.
func (s *StoreService) SaveMatch(ctx context.Context, item match.Match) (int64, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StoreService.SaveMatch")
	defer span.End()

	item.SourceType = strings.ToLower(strings.TrimSpace(item.SourceType))
	if item.SourceType == "" {
		return 0, false, fmt.Errorf("%w: match source type is required", ErrInvalidInput)
	}
	if item.SourceID <= 0 {
		return 0, false, fmt.Errorf("%w: match source id is required", ErrInvalidInput)
	}

	mut, err := s.registry.ForSource(item.SourceType)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	bundle, err := mut.MatchFields(item)
	if err != nil {
		return 0, false, fmt.Errorf("%w: map match source_id=%d: %v", ErrInvalidInput, item.SourceID, err)
	}
	if bundle.Team1 == nil || bundle.Team2 == nil {
		return 0, false, fmt.Errorf("%w: match source_id=%d is missing team data", ErrInvalidInput, item.SourceID)
	}

	team1, err := buildTeamUpsert(mut, item.SourceType, *bundle.Team1)
	if err != nil {
		return 0, false, err
	}
	team2, err := buildTeamUpsert(mut, item.SourceType, *bundle.Team2)
	if err != nil {
		return 0, false, err
	}

	up := mutation.MatchUpsert{
		SourceType:     item.SourceType,
		SourceID:       item.SourceID,
		Match:          bundle.Fields,
		Team1:          team1,
		Team2:          team2,
		WinnerSourceID: bundle.WinnerSourceID,
		LoserSourceID:  bundle.LoserSourceID,
	}

	// An unusable tournament degrades to a match without one; the row keeps
	// a NULL tournament reference instead of failing the whole save.
	if bundle.Tournament != nil {
		tournamentItem := *bundle.Tournament
		tournamentItem.SourceType = item.SourceType
		if err := tournamentItem.Validate(); err == nil {
			fields, mapErr := mut.TournamentFields(tournamentItem)
			if mapErr != nil {
				return 0, false, fmt.Errorf("%w: map tournament source_id=%d: %v", ErrInvalidInput, tournamentItem.SourceID, mapErr)
			}
			up.Tournament = &mutation.TournamentUpsert{
				SourceID: tournamentItem.SourceID,
				Fields:   fields,
			}
		}
	}

	matchID, created, err := s.store.SaveMatch(ctx, up)
	if err != nil {
		return 0, false, fmt.Errorf("%w: save match source_id=%d: %w", ErrPersistence, item.SourceID, err)
	}
	return matchID, created, nil
}

// UpdateMatch applies a partial update to an existing match row. Only the
// updatable columns survive filtering; a payload without any of them is a
// no-op and never reaches the store.
func (s *StoreService) UpdateMatch(ctx context.Context, matchID int64, fields mutation.FieldSet) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.StoreService.UpdateMatch")
	defer span.End()

	if matchID <= 0 {
		return fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	filtered := mutation.FilterMatchUpdate(fields)
	if len(filtered) == 0 {
		return nil
	}

	if err := s.store.UpdateMatch(ctx, matchID, filtered); err != nil {
		return fmt.Errorf("%w: update match id=%d: %w", ErrPersistence, matchID, err)
	}
	return nil
}

// SaveAIPrediction upserts a prediction keyed by (match_id, source_type), so
// a source keeps exactly one prediction per match and refreshes overwrite it.
func (s *StoreService) SaveAIPrediction(ctx context.Context, matchID int64, item prediction.AIPrediction) (int64, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StoreService.SaveAIPrediction")
	defer span.End()

	if matchID <= 0 {
		return 0, false, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	item.SourceType = strings.ToLower(strings.TrimSpace(item.SourceType))
	if err := item.Validate(); err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	mut, err := s.registry.ForSource(item.SourceType)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fields, err := mut.PredictionFields(item, matchID)
	if err != nil {
		return 0, false, fmt.Errorf("%w: map prediction match_id=%d: %v", ErrInvalidInput, matchID, err)
	}

	id, created, err := s.store.SavePrediction(ctx, mutation.PredictionUpsert{
		MatchID:    matchID,
		SourceType: item.SourceType,
		Fields:     fields,
	})
	if err != nil {
		return 0, false, fmt.Errorf("%w: save prediction match_id=%d: %w", ErrPersistence, matchID, err)
	}
	return id, created, nil
}

// SaveBettingOdds upserts odds keyed by (match_id, source_type, provider);
// distinct providers keep their own rows under the same match.
func (s *StoreService) SaveBettingOdds(ctx context.Context, matchID int64, item odds.BettingOdds) (int64, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StoreService.SaveBettingOdds")
	defer span.End()

	if matchID <= 0 {
		return 0, false, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	item.SourceType = strings.ToLower(strings.TrimSpace(item.SourceType))
	item.Provider = strings.TrimSpace(item.Provider)
	if err := item.Validate(); err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	mut, err := s.registry.ForSource(item.SourceType)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fields, err := mut.OddsFields(item, matchID)
	if err != nil {
		return 0, false, fmt.Errorf("%w: map odds match_id=%d provider=%s: %v", ErrInvalidInput, matchID, item.Provider, err)
	}

	id, created, err := s.store.SaveOdds(ctx, mutation.OddsUpsert{
		MatchID:    matchID,
		SourceType: item.SourceType,
		Provider:   item.Provider,
		Fields:     fields,
	})
	if err != nil {
		return 0, false, fmt.Errorf("%w: save odds match_id=%d provider=%s: %w", ErrPersistence, matchID, item.Provider, err)
	}
	return id, created, nil
}

func (s *StoreService) SaveRawPayloads(ctx context.Context, source string, items []rawdata.Payload) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.StoreService.SaveRawPayloads")
	defer span.End()

	if s.rawDataRepo == nil {
		return nil
	}

	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" {
		source = mutation.SourceBO3
	}

	cleaned := make([]rawdata.Payload, 0, len(items))
	for _, item := range items {
		item.Source = source
		item.EntityType = strings.ToLower(strings.TrimSpace(item.EntityType))
		item.EntityKey = strings.TrimSpace(item.EntityKey)
		item.PayloadJSON = strings.TrimSpace(item.PayloadJSON)
		if item.EntityType == "" || item.EntityKey == "" || item.PayloadJSON == "" {
			return fmt.Errorf("%w: entity_type, entity_key and payload are required", ErrInvalidInput)
		}

		hash := sha256.Sum256([]byte(item.PayloadJSON))
		item.PayloadHash = hex.EncodeToString(hash[:])
		cleaned = append(cleaned, item)
	}
	if len(cleaned) == 0 {
		return nil
	}

	if err := s.rawDataRepo.UpsertMany(ctx, cleaned); err != nil {
		return fmt.Errorf("%w: upsert raw payloads: %w", ErrPersistence, err)
	}
	return nil
}

func (s *StoreService) GetMatch(ctx context.Context, matchID int64, include MatchInclude) (match.Match, error) {
	if matchID <= 0 {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	item, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match by id: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%d", ErrNotFound, matchID)
	}

	if include.Predictions {
		items, err := s.predictionRepo.ListByMatch(ctx, matchID)
		if err != nil {
			return match.Match{}, fmt.Errorf("list match predictions: %w", err)
		}
		item.Predictions = items
	}
	if include.Odds {
		items, err := s.oddsRepo.ListByMatch(ctx, matchID, nil)
		if err != nil {
			return match.Match{}, fmt.Errorf("list match odds: %w", err)
		}
		item.Odds = items
	}

	return item, nil
}

func (s *StoreService) ListMatches(ctx context.Context, filter match.ListFilter) ([]match.Match, error) {
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	filter.SourceType = strings.ToLower(strings.TrimSpace(filter.SourceType))
	switch filter.Status {
	case "", match.StatusUpcoming, match.StatusCurrent, match.StatusFinished:
	default:
		return nil, fmt.Errorf("%w: unsupported status=%s", ErrInvalidInput, filter.Status)
	}
	if filter.StartFrom != nil && filter.StartTo != nil && filter.StartTo.Before(*filter.StartFrom) {
		return nil, fmt.Errorf("%w: to must not be before from", ErrInvalidInput)
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultMatchListLimit
	}
	if filter.Limit > maxMatchListLimit {
		filter.Limit = maxMatchListLimit
	}

	items, err := s.matchRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return items, nil
}

func (s *StoreService) ListPredictions(ctx context.Context, matchID int64) ([]prediction.AIPrediction, error) {
	if err := s.ensureMatch(ctx, matchID); err != nil {
		return nil, err
	}

	items, err := s.predictionRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list match predictions: %w", err)
	}
	return items, nil
}

func (s *StoreService) ListOdds(ctx context.Context, matchID int64, provider string) ([]odds.BettingOdds, error) {
	if err := s.ensureMatch(ctx, matchID); err != nil {
		return nil, err
	}

	var providerFilter *string
	provider = strings.TrimSpace(provider)
	if provider != "" {
		providerFilter = &provider
	}

	items, err := s.oddsRepo.ListByMatch(ctx, matchID, providerFilter)
	if err != nil {
		return nil, fmt.Errorf("list match odds: %w", err)
	}
	return items, nil
}

func (s *StoreService) GetTeamBySource(ctx context.Context, sourceType string, sourceID int64) (team.Team, error) {
	sourceType = strings.ToLower(strings.TrimSpace(sourceType))
	if sourceType == "" {
		return team.Team{}, fmt.Errorf("%w: source type is required", ErrInvalidInput)
	}
	if sourceID <= 0 {
		return team.Team{}, fmt.Errorf("%w: source id is required", ErrInvalidInput)
	}

	item, exists, err := s.teamRepo.GetBySource(ctx, sourceType, sourceID)
	if err != nil {
		return team.Team{}, fmt.Errorf("get team by source: %w", err)
	}
	if !exists {
		return team.Team{}, fmt.Errorf("%w: team source=%s source_id=%d", ErrNotFound, sourceType, sourceID)
	}
	return item, nil
}

func (s *StoreService) GetTournamentBySource(ctx context.Context, sourceType string, sourceID int64) (tournament.Tournament, error) {
	sourceType = strings.ToLower(strings.TrimSpace(sourceType))
	if sourceType == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: source type is required", ErrInvalidInput)
	}
	if sourceID <= 0 {
		return tournament.Tournament{}, fmt.Errorf("%w: source id is required", ErrInvalidInput)
	}

	item, exists, err := s.tournamentRepo.GetBySource(ctx, sourceType, sourceID)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("get tournament by source: %w", err)
	}
	if !exists {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament source=%s source_id=%d", ErrNotFound, sourceType, sourceID)
	}
	return item, nil
}

func (s *StoreService) ensureMatch(ctx context.Context, matchID int64) error {
	if matchID <= 0 {
		return fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	_, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("get match by id: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: match=%d", ErrNotFound, matchID)
	}
	return nil
}

func buildTeamUpsert(mut mutation.Mutation, sourceType string, item team.Team) (mutation.TeamUpsert, error) {
	item.SourceType = sourceType
	if err := item.Validate(); err != nil {
		return mutation.TeamUpsert{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fields, err := mut.TeamFields(item)
	if err != nil {
		return mutation.TeamUpsert{}, fmt.Errorf("%w: map team source_id=%d: %v", ErrInvalidInput, item.SourceID, err)
	}
	return mutation.TeamUpsert{SourceID: item.SourceID, Fields: fields}, nil
}
