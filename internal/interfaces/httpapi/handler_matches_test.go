package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/fadhlirmn/esports-sync/external/bo3gg"
	"github.com/fadhlirmn/esports-sync/internal/infrastructure/repository/memory"
	"github.com/fadhlirmn/esports-sync/internal/mutation"
	"github.com/fadhlirmn/esports-sync/internal/platform/logging"
	"github.com/fadhlirmn/esports-sync/internal/usecase"
)

const testJobToken = "test-job-token"

type apiFixture struct {
	storeService    *usecase.StoreService
	syncService     *usecase.SyncService
	provider        *stubJobProvider
	jobDispatchRepo *memory.JobDispatchRepository
	router          http.Handler
}

type stubJobProvider struct {
	bundle        usecase.MatchSyncBundle
	err           error
	upcomingCalls int
	resultsCalls  int
}

func (s *stubJobProvider) FetchUpcomingWeek(_ context.Context, _ int) (usecase.MatchSyncBundle, error) {
	s.upcomingCalls++
	return s.bundle, s.err
}

func (s *stubJobProvider) FetchFinishedSince(_ context.Context, _ int) (usecase.MatchSyncBundle, error) {
	s.resultsCalls++
	return s.bundle, s.err
}

func newAPIFixture(t *testing.T, syncCfg usecase.MatchSyncConfig) *apiFixture {
	t.Helper()

	store := memory.NewStore()
	storeService := usecase.NewStoreService(
		store,
		mutation.NewRegistry(),
		memory.NewMatchRepository(store),
		memory.NewTeamRepository(store),
		memory.NewTournamentRepository(store),
		memory.NewPredictionRepository(store),
		memory.NewOddsRepository(store),
		memory.NewRawDataRepository(store),
	)
	dataSourceRepo := memory.NewDataSourceRepository(store, memory.SeedDataSources())
	provider := &stubJobProvider{}
	syncService := usecase.NewSyncService(provider, storeService, dataSourceRepo, syncCfg, logging.NewNop())
	jobDispatchRepo := memory.NewJobDispatchRepository(store)

	handler := NewHandler(storeService, syncService, dataSourceRepo, jobDispatchRepo, bo3gg.ParseMatch, logging.NewNop())

	return &apiFixture{
		storeService:    storeService,
		syncService:     syncService,
		provider:        provider,
		jobDispatchRepo: jobDispatchRepo,
		router:          NewRouter(handler, logging.NewNop(), false, nil, testJobToken),
	}
}

// rawMatchPayload is shaped like one bo3.gg match record, including the
// nested prediction and odds entries.
func rawMatchPayload() map[string]any {
	return map[string]any{
		"id":         float64(103084),
		"slug":       "the-mongolz-vs-passion-ua",
		"status":     "upcoming",
		"start_date": "2025-01-28T10:00:00Z",
		"bo_type":    float64(3),
		"tier":       "s",
		"team1": map[string]any{
			"id":   float64(736),
			"name": "The MongolZ",
			"slug": "the-mongolz",
		},
		"team2": map[string]any{
			"id":   float64(7631),
			"name": "Passion UA",
			"slug": "passion-ua",
		},
		"tournament": map[string]any{
			"id":   float64(3578),
			"name": "BLAST Rivals Fall 2025",
			"slug": "blast-rivals-fall-2025",
			"tier": "s",
		},
		"ai_predictions": []any{
			map[string]any{
				"id":                        float64(110222),
				"match_id":                  float64(103084),
				"prediction_team1_score":    float64(2),
				"prediction_team2_score":    float64(0),
				"prediction_winner_team_id": float64(736),
				"prediction_scores_data": map[string]any{
					"predicted_score":          2.39,
					"overall_proximity_factor": 0.5102,
				},
			},
		},
		"bet_updates": []any{
			map[string]any{
				"provider": "1xbit",
				"team_1": map[string]any{
					"name":    "The MongolZ",
					"coeff":   1.25,
					"active":  true,
					"team_id": float64(736),
				},
				"team_2": map[string]any{
					"name":    "Passion UA",
					"coeff":   3.8,
					"active":  true,
					"team_id": float64(7631),
				},
				"markets_count": float64(36),
			},
		},
	}
}

func (fx *apiFixture) seedMatch(t *testing.T) int64 {
	t.Helper()

	parsed, err := bo3gg.ParseMatch(rawMatchPayload())
	if err != nil {
		t.Fatalf("parse seed payload: %v", err)
	}

	matchID, created, err := fx.storeService.SaveMatch(context.Background(), parsed)
	if err != nil {
		t.Fatalf("seed match: %v", err)
	}
	if !created {
		t.Fatalf("expected seed match to create a row")
	}
	for _, pred := range parsed.Predictions {
		if _, _, err := fx.storeService.SaveAIPrediction(context.Background(), matchID, pred); err != nil {
			t.Fatalf("seed prediction: %v", err)
		}
	}
	for _, line := range parsed.Odds {
		if _, _, err := fx.storeService.SaveBettingOdds(context.Background(), matchID, line); err != nil {
			t.Fatalf("seed odds: %v", err)
		}
	}
	return matchID
}

func (fx *apiFixture) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("X-Internal-Job-Token", token)
	}

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

func fmtMatchPath(matchID int64) string {
	return "/v1/matches/" + strconv.FormatInt(matchID, 10)
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var envelope struct {
		APIVersion string `json:"apiVersion"`
		Data       T      `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response envelope: %v body=%s", err, rec.Body.String())
	}
	if envelope.APIVersion != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %q", envelope.APIVersion)
	}
	return envelope.Data
}

func TestRouter_ListMatches(t *testing.T) {
	fx := newAPIFixture(t, usecase.MatchSyncConfig{Enabled: true})
	fx.seedMatch(t)

	rec := fx.do(t, http.MethodGet, "/v1/matches?status=upcoming&source_type=bo3", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	items := decodeData[[]matchDTO](t, rec)
	if len(items) != 1 {
		t.Fatalf("expected one match, got %d", len(items))
	}
	got := items[0]
	if got.SourceID != 103084 || got.SourceType != "bo3" || got.Status != "upcoming" {
		t.Fatalf("unexpected match: %+v", got)
	}
	if got.Team1ID == 0 || got.Team2ID == 0 || got.TournamentID == 0 {
		t.Fatalf("expected resolved internal ids, got %+v", got)
	}
	if len(got.Predictions) != 0 || len(got.Odds) != 0 {
		t.Fatalf("list must not attach related collections: %+v", got)
	}
}

func TestRouter_ListMatchesRejectsBadFilter(t *testing.T) {
	fx := newAPIFixture(t, usecase.MatchSyncConfig{Enabled: true})

	for _, target := range []string{
		"/v1/matches?status=paused",
		"/v1/matches?from=notatime",
		"/v1/matches?limit=-2",
	} {
		rec := fx.do(t, http.MethodGet, target, "", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", target, rec.Code)
		}
	}
}

func TestRouter_GetMatchWithIncludes(t *testing.T) {
	fx := newAPIFixture(t, usecase.MatchSyncConfig{Enabled: true})
	matchID := fx.seedMatch(t)

	rec := fx.do(t, http.MethodGet, fmtMatchPath(matchID)+"?include=predictions,odds", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	got := decodeData[matchDTO](t, rec)
	if got.ID != matchID {
		t.Fatalf("expected match id %d, got %d", matchID, got.ID)
	}
	if len(got.Predictions) != 1 {
		t.Fatalf("expected one prediction, got %d", len(got.Predictions))
	}
	if got.Predictions[0].Scores.PredictedScore != 2.39 {
		t.Fatalf("unexpected prediction scores: %+v", got.Predictions[0].Scores)
	}
	if len(got.Odds) != 1 || got.Odds[0].Provider != "1xbit" {
		t.Fatalf("unexpected odds: %+v", got.Odds)
	}
	if got.Odds[0].Team1.ImpliedProbability != 1.0/1.25 {
		t.Fatalf("unexpected implied probability: %v", got.Odds[0].Team1.ImpliedProbability)
	}
}

func TestRouter_GetMatchErrors(t *testing.T) {
	fx := newAPIFixture(t, usecase.MatchSyncConfig{Enabled: true})
	matchID := fx.seedMatch(t)

	if rec := fx.do(t, http.MethodGet, "/v1/matches/notanumber", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
	if rec := fx.do(t, http.MethodGet, "/v1/matches/999999", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rec.Code)
	}
	if rec := fx.do(t, http.MethodGet, fmtMatchPath(matchID)+"?include=lineups", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown include, got %d", rec.Code)
	}
}

func TestRouter_ListMatchOddsFiltersProvider(t *testing.T) {
	fx := newAPIFixture(t, usecase.MatchSyncConfig{Enabled: true})
	matchID := fx.seedMatch(t)

	rec := fx.do(t, http.MethodGet, fmtMatchPath(matchID)+"/odds?provider=ggbet", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if items := decodeData[[]oddsDTO](t, rec); len(items) != 0 {
		t.Fatalf("expected no ggbet odds, got %d", len(items))
	}

	rec = fx.do(t, http.MethodGet, fmtMatchPath(matchID)+"/odds?provider=1xbit", "", "")
	items := decodeData[[]oddsDTO](t, rec)
	if len(items) != 1 || items[0].Team2.Coeff != 3.8 {
		t.Fatalf("unexpected 1xbit odds: %+v", items)
	}
}

func TestRouter_ListDataSources(t *testing.T) {
	fx := newAPIFixture(t, usecase.MatchSyncConfig{Enabled: true})

	rec := fx.do(t, http.MethodGet, "/v1/data-sources", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	items := decodeData[[]dataSourceDTO](t, rec)
	if len(items) != 1 || items[0].SourceType != "bo3" || !items[0].IsActive {
		t.Fatalf("unexpected data sources: %+v", items)
	}
}
