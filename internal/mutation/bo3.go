package mutation

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/fadhlirmn/esports-sync/internal/domain/match"
	"github.com/fadhlirmn/esports-sync/internal/domain/odds"
	"github.com/fadhlirmn/esports-sync/internal/domain/prediction"
	"github.com/fadhlirmn/esports-sync/internal/domain/team"
	"github.com/fadhlirmn/esports-sync/internal/domain/tournament"
)

// SourceBO3 tags every record that came from the bo3.gg API.
const SourceBO3 = "bo3"

type bo3Mutation struct{}

// NewBO3 returns the mutation for bo3.gg payloads.
func NewBO3() Mutation { return bo3Mutation{} }

func (bo3Mutation) SourceType() string { return SourceBO3 }

func (bo3Mutation) TeamFields(t team.Team) (FieldSet, error) {
	metadata, err := sonic.MarshalString(map[string]any{
		"id":           t.SourceID,
		"name":         t.Name,
		"slug":         t.Slug,
		"country_code": t.CountryCode,
		"logo_url":     t.LogoURL,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal team metadata: %w", err)
	}

	return FieldSet{
		"source_type":  SourceBO3,
		"source_id":    t.SourceID,
		"name":         t.Name,
		"slug":         t.Slug,
		"country_code": t.CountryCode,
		"logo_url":     t.LogoURL,
		"metadata":     metadata,
	}, nil
}

func (bo3Mutation) TournamentFields(t tournament.Tournament) (FieldSet, error) {
	metadata, err := sonic.MarshalString(map[string]any{
		"id":            t.SourceID,
		"name":          t.Name,
		"slug":          t.Slug,
		"tier":          t.Tier,
		"tier_rank":     t.TierRank,
		"prize":         t.PrizePool,
		"discipline_id": t.DisciplineID,
		"status":        t.Status,
		"start_date":    isoTime(t.StartDate),
		"end_date":      isoTime(t.EndDate),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tournament metadata: %w", err)
	}

	return FieldSet{
		"source_type":   SourceBO3,
		"source_id":     t.SourceID,
		"name":          t.Name,
		"slug":          t.Slug,
		"tier":          t.Tier,
		"tier_rank":     t.TierRank,
		"prize_pool":    t.PrizePool,
		"discipline_id": t.DisciplineID,
		"status":        t.Status,
		"start_date":    t.StartDate,
		"end_date":      t.EndDate,
		"metadata":      metadata,
	}, nil
}

func (bo3Mutation) MatchFields(m match.Match) (MatchFieldSet, error) {
	raw := m.Raw
	if raw == nil {
		raw = matchRawFallback(m)
	}
	rawJSON, err := sonic.MarshalString(raw)
	if err != nil {
		return MatchFieldSet{}, fmt.Errorf("marshal match raw data: %w", err)
	}

	return MatchFieldSet{
		Fields: FieldSet{
			"source_type": SourceBO3,
			"source_id":   m.SourceID,
			"slug":        m.Slug,
			"status":      m.Status,
			"start_date":  m.StartDate,
			"bo_type":     m.BoType,
			"tier":        m.Tier,
			"team1_score": m.Team1Score,
			"team2_score": m.Team2Score,
			"raw_data":    rawJSON,
		},
		Team1:          m.Team1,
		Team2:          m.Team2,
		Tournament:     m.Tournament,
		WinnerSourceID: m.WinnerSourceID,
		LoserSourceID:  m.LoserSourceID,
	}, nil
}

func (bo3Mutation) PredictionFields(p prediction.AIPrediction, matchID int64) (FieldSet, error) {
	blob, err := sonic.MarshalString(map[string]any{
		"id":                        p.SourceID,
		"match_id":                  p.SourceMatchID,
		"prediction_team1_score":    p.Team1Score,
		"prediction_team2_score":    p.Team2Score,
		"prediction_winner_team_id": p.WinnerSourceID,
		"prediction_scores_data": map[string]any{
			"predicted_score":           p.Scores.PredictedScore,
			"proximity_factors":         p.Scores.ProximityFactors,
			"closest_valid_score":       p.Scores.ClosestValidScore,
			"overall_proximity_factor":  p.Scores.OverallProximityFactor,
			"neighbor_proximity_factor": p.Scores.NeighborProximityFactor,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal prediction data: %w", err)
	}

	return FieldSet{
		"match_id":        matchID,
		"source_type":     SourceBO3,
		"source_id":       p.SourceID,
		"prediction_data": blob,
	}, nil
}

func (bo3Mutation) OddsFields(o odds.BettingOdds, matchID int64) (FieldSet, error) {
	blob, err := sonic.MarshalString(map[string]any{
		"path":               o.Path,
		"provider":           o.Provider,
		"team_1":             oddsSideBlob(o.Team1),
		"team_2":             oddsSideBlob(o.Team2),
		"markets_count":      o.MarketsCount,
		"additional_markets": o.AdditionalMarkets,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal odds data: %w", err)
	}

	fields := FieldSet{
		"match_id":           matchID,
		"source_type":        SourceBO3,
		"provider":           o.Provider,
		"team1_odds":         o.Team1.Coeff,
		"team2_odds":         o.Team2.Coeff,
		"team1_implied_prob": (*float64)(nil),
		"team2_implied_prob": (*float64)(nil),
		"odds_data":          blob,
	}
	if prob, ok := o.Team1.ImpliedProbability(); ok {
		fields["team1_implied_prob"] = &prob
	}
	if prob, ok := o.Team2.ImpliedProbability(); ok {
		fields["team2_implied_prob"] = &prob
	}

	return fields, nil
}

// oddsSideBlob echoes one side into the stored blob. The upstream API
// spells the agreement field "aggrement_score"; the blob keeps that
// spelling so stored rows match what the source sent.
func oddsSideBlob(s odds.Side) map[string]any {
	return map[string]any{
		"name":            s.Name,
		"coeff":           s.Coeff,
		"active":          s.Active,
		"team_id":         s.TeamSourceID,
		"max_coeff":       s.MaxCoeff,
		"aggrement_score": s.AgreementScore,
	}
}

// matchRawFallback reconstructs an audit payload for matches built
// without one, echoing source-space ids.
func matchRawFallback(m match.Match) map[string]any {
	var team1ID, team2ID, tournamentID any
	if m.Team1 != nil {
		team1ID = m.Team1.SourceID
	}
	if m.Team2 != nil {
		team2ID = m.Team2.SourceID
	}
	if m.Tournament != nil {
		tournamentID = m.Tournament.SourceID
	}

	return map[string]any{
		"id":             m.SourceID,
		"slug":           m.Slug,
		"team1_id":       team1ID,
		"team2_id":       team2ID,
		"status":         m.Status,
		"start_date":     isoTime(m.StartDate),
		"bo_type":        m.BoType,
		"tier":           m.Tier,
		"team1_score":    m.Team1Score,
		"team2_score":    m.Team2Score,
		"winner_team_id": m.WinnerSourceID,
		"loser_team_id":  m.LoserSourceID,
		"tournament_id":  tournamentID,
	}
}

func isoTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
