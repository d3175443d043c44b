package bo3gg

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fadhlirmn/esports-sync/internal/domain/match"
	"github.com/fadhlirmn/esports-sync/internal/domain/odds"
	"github.com/fadhlirmn/esports-sync/internal/domain/prediction"
	"github.com/fadhlirmn/esports-sync/internal/domain/team"
	"github.com/fadhlirmn/esports-sync/internal/domain/tournament"
	"github.com/fadhlirmn/esports-sync/internal/mutation"
	"github.com/fadhlirmn/esports-sync/internal/usecase"
)

// ParseMatch converts one raw bo3.gg match payload into a domain match.
// A payload without a positive id is rejected; every nested object is
// optional and parses leniently, so an invalid team, tournament,
// prediction, or odds entry degrades to absent instead of failing the
// match. The full payload is kept on the returned record for auditing.
func ParseMatch(payload map[string]any) (match.Match, error) {
	sourceID := getInt64(payload, "id")
	if sourceID <= 0 {
		return match.Match{}, fmt.Errorf("%w: match payload missing id", usecase.ErrInvalidInput)
	}

	m := match.Match{
		SourceType:     mutation.SourceBO3,
		SourceID:       sourceID,
		Slug:           getStringPtr(payload, "slug"),
		Status:         match.NormalizeStatus(getString(payload, "status")),
		StartDate:      parseDateTime(getString(payload, "start_date")),
		BoType:         getIntPtr(payload, "bo_type"),
		Tier:           getStringPtr(payload, "tier"),
		Team1Score:     getIntPtr(payload, "team1_score"),
		Team2Score:     getIntPtr(payload, "team2_score"),
		WinnerSourceID: getInt64Ptr(payload, "winner_team_id"),
		LoserSourceID:  getInt64Ptr(payload, "loser_team_id"),
		Team1:          parseTeam(childMap(payload, "team1")),
		Team2:          parseTeam(childMap(payload, "team2")),
		Tournament:     parseTournament(childMap(payload, "tournament")),
		Raw:            payload,
	}

	for _, raw := range childSlice(payload, "ai_predictions") {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if parsed := parsePrediction(entry); parsed != nil {
			m.Predictions = append(m.Predictions, *parsed)
		}
	}

	for _, raw := range childSlice(payload, "bet_updates") {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if parsed := parseOdds(entry); parsed != nil {
			m.Odds = append(m.Odds, *parsed)
		}
	}

	return m, nil
}

func parseTeam(raw map[string]any) *team.Team {
	if raw == nil {
		return nil
	}

	id := getInt64(raw, "id")
	name := getString(raw, "name")
	if id <= 0 || name == "" {
		return nil
	}

	return &team.Team{
		SourceType:  mutation.SourceBO3,
		SourceID:    id,
		Name:        name,
		Slug:        getStringPtr(raw, "slug"),
		CountryCode: getStringPtr(raw, "country_code"),
		LogoURL:     getStringPtr(raw, "logo_url"),
	}
}

func parseTournament(raw map[string]any) *tournament.Tournament {
	if raw == nil {
		return nil
	}

	id := getInt64(raw, "id")
	name := getString(raw, "name")
	if id <= 0 || name == "" {
		return nil
	}

	return &tournament.Tournament{
		SourceType:   mutation.SourceBO3,
		SourceID:     id,
		Name:         name,
		Slug:         getStringPtr(raw, "slug"),
		Tier:         getStringPtr(raw, "tier"),
		TierRank:     getIntPtr(raw, "tier_rank"),
		PrizePool:    getInt64Ptr(raw, "prize"),
		DisciplineID: getIntPtr(raw, "discipline_id"),
		Status:       getStringPtr(raw, "status"),
		StartDate:    parseDateTime(getString(raw, "start_date")),
		EndDate:      parseDateTime(getString(raw, "end_date")),
	}
}

// parsePrediction requires id, match_id and a scores-data object;
// anything else degrades to zero values matching what the source emits
// for unsettled forecasts.
func parsePrediction(raw map[string]any) *prediction.AIPrediction {
	id := getInt64(raw, "id")
	matchID := getInt64(raw, "match_id")
	if id <= 0 || matchID <= 0 {
		return nil
	}
	scoresRaw := childMap(raw, "prediction_scores_data")
	if len(scoresRaw) == 0 {
		return nil
	}

	return &prediction.AIPrediction{
		SourceType:     mutation.SourceBO3,
		SourceID:       id,
		SourceMatchID:  matchID,
		Team1Score:     int(getInt64(raw, "prediction_team1_score")),
		Team2Score:     int(getInt64(raw, "prediction_team2_score")),
		WinnerSourceID: getInt64(raw, "prediction_winner_team_id"),
		Scores:         parseScoresData(scoresRaw),
	}
}

func parseScoresData(raw map[string]any) prediction.ScoresData {
	out := prediction.ScoresData{
		PredictedScore:          getFloat(raw, "predicted_score"),
		ProximityFactors:        map[string]float64{},
		ClosestValidScore:       []int{},
		OverallProximityFactor:  getFloat(raw, "overall_proximity_factor"),
		NeighborProximityFactor: getFloat(raw, "neighbor_proximity_factor"),
	}

	if factors, ok := raw["proximity_factors"].(map[string]any); ok {
		for key, value := range factors {
			if v, ok := toFloat(value); ok {
				out.ProximityFactors[key] = v
			}
		}
	}
	for _, value := range childSlice(raw, "closest_valid_score") {
		if v, ok := toFloat(value); ok {
			out.ClosestValidScore = append(out.ClosestValidScore, int(v))
		}
	}

	return out
}

// parseOdds requires a provider and both sides; a side the source left
// out makes the whole entry unusable.
func parseOdds(raw map[string]any) *odds.BettingOdds {
	provider := getString(raw, "provider")
	team1 := childMap(raw, "team_1")
	team2 := childMap(raw, "team_2")
	if provider == "" || len(team1) == 0 || len(team2) == 0 {
		return nil
	}

	entry := &odds.BettingOdds{
		SourceType:   mutation.SourceBO3,
		Provider:     provider,
		Team1:        parseBettingSide(team1),
		Team2:        parseBettingSide(team2),
		Path:         getStringPtr(raw, "path"),
		MarketsCount: getIntPtr(raw, "markets_count"),
	}
	if markets, ok := raw["additional_markets"].(map[string]any); ok {
		entry.AdditionalMarkets = markets
	}

	return entry
}

func parseBettingSide(raw map[string]any) odds.Side {
	return odds.Side{
		Name:         getString(raw, "name"),
		Coeff:        getFloat(raw, "coeff"),
		Active:       getBool(raw, "active"),
		TeamSourceID: getInt64(raw, "team_id"),
		MaxCoeff:     getFloat(raw, "max_coeff"),
		// Upstream spells the key "aggrement_score".
		AgreementScore: getFloat(raw, "aggrement_score"),
	}
}

func parseDateTime(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	return nil
}

func getString(src map[string]any, key string) string {
	if src == nil {
		return ""
	}
	raw, ok := src[key]
	if !ok || raw == nil {
		return ""
	}
	value, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func getStringPtr(src map[string]any, key string) *string {
	value := getString(src, key)
	if value == "" {
		return nil
	}
	return &value
}

func getInt64(src map[string]any, key string) int64 {
	if src == nil {
		return 0
	}
	raw, ok := src[key]
	if !ok || raw == nil {
		return 0
	}
	switch typed := raw.(type) {
	case float64:
		return int64(typed)
	case float32:
		return int64(typed)
	case int:
		return int64(typed)
	case int64:
		return typed
	case string:
		v, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return 0
		}
		return v
	default:
		return 0
	}
}

func getInt64Ptr(src map[string]any, key string) *int64 {
	if src == nil {
		return nil
	}
	if raw, ok := src[key]; !ok || raw == nil {
		return nil
	}
	value := getInt64(src, key)
	return &value
}

func getIntPtr(src map[string]any, key string) *int {
	if src == nil {
		return nil
	}
	if raw, ok := src[key]; !ok || raw == nil {
		return nil
	}
	value := int(getInt64(src, key))
	return &value
}

func getFloat(src map[string]any, key string) float64 {
	if src == nil {
		return 0
	}
	value, ok := toFloat(src[key])
	if !ok {
		return 0
	}
	return value
}

func toFloat(raw any) (float64, bool) {
	switch typed := raw.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case string:
		v, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

func getBool(src map[string]any, key string) bool {
	if src == nil {
		return false
	}
	value, ok := src[key].(bool)
	if !ok {
		return false
	}
	return value
}

func childMap(src map[string]any, key string) map[string]any {
	if src == nil {
		return nil
	}
	value, ok := src[key].(map[string]any)
	if !ok {
		return nil
	}
	return value
}

func childSlice(src map[string]any, key string) []any {
	if src == nil {
		return nil
	}
	value, ok := src[key].([]any)
	if !ok {
		return nil
	}
	return value
}
