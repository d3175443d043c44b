package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/fadhlirmn/esports-sync/external/bo3gg"
	"github.com/fadhlirmn/esports-sync/internal/domain/jobscheduler"
	"github.com/fadhlirmn/esports-sync/internal/domain/match"
	"github.com/fadhlirmn/esports-sync/internal/usecase"
)

func marshalBody(t *testing.T, payload any) string {
	t.Helper()

	raw, err := sonic.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	return string(raw)
}

func TestRouter_IngestMatchesOutcomes(t *testing.T) {
	fx := newAPIFixture(t, usecase.MatchSyncConfig{Enabled: false})

	body := marshalBody(t, map[string]any{
		"matches": []map[string]any{
			rawMatchPayload(),
			{"slug": "record-without-id"},
			{"id": float64(555), "slug": "record-without-teams"},
		},
	})

	rec := fx.do(t, http.MethodPost, "/v1/internal/ingestion/matches", testJobToken, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	got := decodeData[ingestMatchesResponse](t, rec)
	if got.Result.Fetched != 3 || got.Result.Created != 1 || got.Result.Failed != 1 || got.Result.Skipped != 1 {
		t.Fatalf("unexpected ingest result: %+v", got.Result)
	}
	if len(got.Outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(got.Outcomes))
	}
	if got.Outcomes[0].Outcome != usecase.IngestOutcomeCreated || got.Outcomes[0].SourceID != 103084 {
		t.Fatalf("unexpected first outcome: %+v", got.Outcomes[0])
	}
	if got.Outcomes[1].Outcome != usecase.IngestOutcomeInvalid {
		t.Fatalf("unexpected second outcome: %+v", got.Outcomes[1])
	}
	if got.Outcomes[2].Outcome != usecase.IngestOutcomeFailed || got.Outcomes[2].SourceID != 555 {
		t.Fatalf("unexpected third outcome: %+v", got.Outcomes[2])
	}

	// A second identical batch must update, not duplicate.
	rec = fx.do(t, http.MethodPost, "/v1/internal/ingestion/matches", testJobToken, body)
	got = decodeData[ingestMatchesResponse](t, rec)
	if got.Result.Created != 0 || got.Result.Updated != 1 {
		t.Fatalf("expected idempotent re-ingest, got %+v", got.Result)
	}
}

func TestRouter_IngestMatchesRejectsBadRequests(t *testing.T) {
	fx := newAPIFixture(t, usecase.MatchSyncConfig{Enabled: false})

	if rec := fx.do(t, http.MethodPost, "/v1/internal/ingestion/matches", "", `{"matches":[]}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := fx.do(t, http.MethodPost, "/v1/internal/ingestion/matches", "wrong", `{"matches":[]}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", rec.Code)
	}
	if rec := fx.do(t, http.MethodPost, "/v1/internal/ingestion/matches", testJobToken, `{"matches":[]}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", rec.Code)
	}
	if rec := fx.do(t, http.MethodPost, "/v1/internal/ingestion/matches", testJobToken, `{not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for broken JSON, got %d", rec.Code)
	}
}

func TestRouter_RunSyncUpcomingJob(t *testing.T) {
	fx := newAPIFixture(t, usecase.MatchSyncConfig{Enabled: true})

	parsed, err := bo3gg.ParseMatch(rawMatchPayload())
	if err != nil {
		t.Fatalf("parse provider payload: %v", err)
	}
	fx.provider.bundle = usecase.MatchSyncBundle{Matches: []match.Match{parsed}}

	rec := fx.do(t, http.MethodPost, "/v1/internal/jobs/sync-upcoming", testJobToken, `{"dispatch_id":"evt-42"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	result := decodeData[usecase.SyncResult](t, rec)
	if result.Fetched != 1 || result.Created != 1 {
		t.Fatalf("unexpected sync result: %+v", result)
	}
	if fx.provider.upcomingCalls != 1 {
		t.Fatalf("expected one provider call, got %d", fx.provider.upcomingCalls)
	}

	events := fx.jobDispatchRepo.Events()
	if len(events) != 1 {
		t.Fatalf("expected one dispatch event, got %d", len(events))
	}
	event := events[0]
	if event.DispatchID != "evt-42" || event.JobName != "sync-upcoming" || event.Status != jobscheduler.StatusCompleted {
		t.Fatalf("unexpected dispatch event: %+v", event)
	}
	if event.SourceType != "bo3" {
		t.Fatalf("expected bo3 source on dispatch event, got %q", event.SourceType)
	}
}

func TestRouter_RunSyncResultsJobDisabled(t *testing.T) {
	fx := newAPIFixture(t, usecase.MatchSyncConfig{Enabled: false})

	rec := fx.do(t, http.MethodPost, "/v1/internal/jobs/sync-results", testJobToken, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when sync disabled, got %d body=%s", rec.Code, rec.Body.String())
	}
	if fx.provider.resultsCalls != 0 {
		t.Fatalf("provider must not be called when sync disabled")
	}

	events := fx.jobDispatchRepo.Events()
	if len(events) != 1 || events[0].Status != jobscheduler.StatusFailed {
		t.Fatalf("expected one failed dispatch event, got %+v", events)
	}
	if events[0].JobName != "sync-results" || events[0].ErrorMessage == "" {
		t.Fatalf("unexpected dispatch event: %+v", events[0])
	}
}

func TestRouter_InternalJobTokenUnconfigured(t *testing.T) {
	fx := newAPIFixture(t, usecase.MatchSyncConfig{Enabled: true})

	handler := NewHandler(fx.storeService, fx.syncService, nil, nil, bo3gg.ParseMatch, nil)
	router := NewRouter(handler, nil, false, nil, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/sync-upcoming", nil)
	req.Header.Set("X-Internal-Job-Token", "anything")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for unconfigured token, got %d", rec.Code)
	}
}
