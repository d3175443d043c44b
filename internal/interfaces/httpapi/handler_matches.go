package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fadhlirmn/esports-sync/internal/domain/match"
	"github.com/fadhlirmn/esports-sync/internal/domain/odds"
	"github.com/fadhlirmn/esports-sync/internal/domain/prediction"
	"github.com/fadhlirmn/esports-sync/internal/usecase"
)

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	filter, err := parseMatchListFilter(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.storeService.ListMatches(ctx, filter)
	if err != nil {
		h.logger.WarnContext(ctx, "list matches failed", "status", filter.Status, "source_type", filter.SourceType, "error", err)
		writeError(ctx, w, err)
		return
	}

	dtos := make([]matchDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, matchToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, dtos)
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	matchID, err := parseMatchID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	include, err := parseMatchInclude(r.URL.Query().Get("include"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.storeService.GetMatch(ctx, matchID, include)
	if err != nil {
		h.logger.WarnContext(ctx, "get match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(item))
}

func (h *Handler) ListMatchPredictions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchPredictions")
	defer span.End()

	matchID, err := parseMatchID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.storeService.ListPredictions(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "list match predictions failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	dtos := make([]predictionDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, predictionToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, dtos)
}

func (h *Handler) ListMatchOdds(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchOdds")
	defer span.End()

	matchID, err := parseMatchID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	provider := strings.TrimSpace(r.URL.Query().Get("provider"))
	items, err := h.storeService.ListOdds(ctx, matchID, provider)
	if err != nil {
		h.logger.WarnContext(ctx, "list match odds failed", "match_id", matchID, "provider", provider, "error", err)
		writeError(ctx, w, err)
		return
	}

	dtos := make([]oddsDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, oddsToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, dtos)
}

func parseMatchID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("matchID"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid match id %q", usecase.ErrInvalidInput, raw)
	}
	return id, nil
}

func parseMatchListFilter(r *http.Request) (match.ListFilter, error) {
	query := r.URL.Query()
	filter := match.ListFilter{
		Status:     strings.ToLower(strings.TrimSpace(query.Get("status"))),
		SourceType: strings.ToLower(strings.TrimSpace(query.Get("source_type"))),
	}

	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return match.ListFilter{}, fmt.Errorf("%w: from must be RFC3339, got %q", usecase.ErrInvalidInput, raw)
		}
		filter.StartFrom = &ts
	}
	if raw := strings.TrimSpace(query.Get("to")); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return match.ListFilter{}, fmt.Errorf("%w: to must be RFC3339, got %q", usecase.ErrInvalidInput, raw)
		}
		filter.StartTo = &ts
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return match.ListFilter{}, fmt.Errorf("%w: limit must be a non-negative integer, got %q", usecase.ErrInvalidInput, raw)
		}
		filter.Limit = limit
	}

	return filter, nil
}

func parseMatchInclude(raw string) (usecase.MatchInclude, error) {
	include := usecase.MatchInclude{}
	for _, part := range strings.Split(raw, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "":
		case "predictions":
			include.Predictions = true
		case "odds":
			include.Odds = true
		default:
			return usecase.MatchInclude{}, fmt.Errorf("%w: unknown include %q", usecase.ErrInvalidInput, part)
		}
	}
	return include, nil
}

type matchDTO struct {
	ID            int64           `json:"id"`
	SourceType    string          `json:"sourceType"`
	SourceID      int64           `json:"sourceId"`
	Slug          string          `json:"slug,omitempty"`
	Status        string          `json:"status"`
	StartDate     string          `json:"startDate,omitempty"`
	BoType        int             `json:"boType,omitempty"`
	Tier          string          `json:"tier,omitempty"`
	Team1ID       int64           `json:"team1Id"`
	Team2ID       int64           `json:"team2Id"`
	Team1Score    *int            `json:"team1Score,omitempty"`
	Team2Score    *int            `json:"team2Score,omitempty"`
	TournamentID  int64           `json:"tournamentId,omitempty"`
	WinnerTeamID  int64           `json:"winnerTeamId,omitempty"`
	LoserTeamID   int64           `json:"loserTeamId,omitempty"`
	UpdatedAt     string          `json:"updatedAt,omitempty"`
	LastFetchedAt string          `json:"lastFetchedAt,omitempty"`
	Predictions   []predictionDTO `json:"predictions,omitempty"`
	Odds          []oddsDTO       `json:"odds,omitempty"`
}

type predictionDTO struct {
	ID             int64               `json:"id"`
	MatchID        int64               `json:"matchId"`
	SourceType     string              `json:"sourceType"`
	SourceID       int64               `json:"sourceId"`
	Team1Score     int                 `json:"team1Score"`
	Team2Score     int                 `json:"team2Score"`
	WinnerSourceID int64               `json:"winnerSourceId,omitempty"`
	Scores         predictionScoresDTO `json:"scores"`
	UpdatedAt      string              `json:"updatedAt,omitempty"`
}

type predictionScoresDTO struct {
	PredictedScore          float64            `json:"predictedScore"`
	ProximityFactors        map[string]float64 `json:"proximityFactors,omitempty"`
	ClosestValidScore       []int              `json:"closestValidScore,omitempty"`
	OverallProximityFactor  float64            `json:"overallProximityFactor,omitempty"`
	NeighborProximityFactor float64            `json:"neighborProximityFactor,omitempty"`
}

type oddsDTO struct {
	ID           int64       `json:"id"`
	MatchID      int64       `json:"matchId"`
	SourceType   string      `json:"sourceType"`
	Provider     string      `json:"provider"`
	Team1        oddsSideDTO `json:"team1"`
	Team2        oddsSideDTO `json:"team2"`
	MarketsCount int         `json:"marketsCount,omitempty"`
	FetchedAt    string      `json:"fetchedAt,omitempty"`
}

type oddsSideDTO struct {
	Name               string  `json:"name,omitempty"`
	Coeff              float64 `json:"coeff"`
	ImpliedProbability float64 `json:"impliedProbability,omitempty"`
	Active             bool    `json:"active"`
	TeamSourceID       int64   `json:"teamSourceId,omitempty"`
	MaxCoeff           float64 `json:"maxCoeff,omitempty"`
}

func matchToDTO(item match.Match) matchDTO {
	dto := matchDTO{
		ID:         item.ID,
		SourceType: item.SourceType,
		SourceID:   item.SourceID,
		Status:     item.Status,
		Team1ID:    item.Team1ID,
		Team2ID:    item.Team2ID,
		Team1Score: item.Team1Score,
		Team2Score: item.Team2Score,
	}
	if item.Slug != nil {
		dto.Slug = *item.Slug
	}
	if item.StartDate != nil {
		dto.StartDate = item.StartDate.UTC().Format(time.RFC3339)
	}
	if item.BoType != nil {
		dto.BoType = *item.BoType
	}
	if item.Tier != nil {
		dto.Tier = *item.Tier
	}
	if item.TournamentID != nil {
		dto.TournamentID = *item.TournamentID
	}
	if item.WinnerTeamID != nil {
		dto.WinnerTeamID = *item.WinnerTeamID
	}
	if item.LoserTeamID != nil {
		dto.LoserTeamID = *item.LoserTeamID
	}
	if !item.UpdatedAt.IsZero() {
		dto.UpdatedAt = item.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if item.LastFetchedAt != nil {
		dto.LastFetchedAt = item.LastFetchedAt.UTC().Format(time.RFC3339)
	}

	for _, pred := range item.Predictions {
		dto.Predictions = append(dto.Predictions, predictionToDTO(pred))
	}
	for _, line := range item.Odds {
		dto.Odds = append(dto.Odds, oddsToDTO(line))
	}

	return dto
}

func predictionToDTO(item prediction.AIPrediction) predictionDTO {
	dto := predictionDTO{
		ID:             item.ID,
		MatchID:        item.MatchID,
		SourceType:     item.SourceType,
		SourceID:       item.SourceID,
		Team1Score:     item.Team1Score,
		Team2Score:     item.Team2Score,
		WinnerSourceID: item.WinnerSourceID,
		Scores: predictionScoresDTO{
			PredictedScore:          item.Scores.PredictedScore,
			ProximityFactors:        item.Scores.ProximityFactors,
			ClosestValidScore:       item.Scores.ClosestValidScore,
			OverallProximityFactor:  item.Scores.OverallProximityFactor,
			NeighborProximityFactor: item.Scores.NeighborProximityFactor,
		},
	}
	if !item.UpdatedAt.IsZero() {
		dto.UpdatedAt = item.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func oddsToDTO(item odds.BettingOdds) oddsDTO {
	dto := oddsDTO{
		ID:         item.ID,
		MatchID:    item.MatchID,
		SourceType: item.SourceType,
		Provider:   item.Provider,
		Team1:      oddsSideToDTO(item.Team1),
		Team2:      oddsSideToDTO(item.Team2),
	}
	if item.MarketsCount != nil {
		dto.MarketsCount = *item.MarketsCount
	}
	if item.FetchedAt != nil {
		dto.FetchedAt = item.FetchedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func oddsSideToDTO(side odds.Side) oddsSideDTO {
	dto := oddsSideDTO{
		Name:         side.Name,
		Coeff:        side.Coeff,
		Active:       side.Active,
		TeamSourceID: side.TeamSourceID,
		MaxCoeff:     side.MaxCoeff,
	}
	if prob, ok := side.ImpliedProbability(); ok {
		dto.ImpliedProbability = prob
	}
	return dto
}
