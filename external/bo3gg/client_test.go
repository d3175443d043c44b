package bo3gg

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fadhlirmn/esports-sync/internal/domain/match"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	return NewClient(ClientConfig{
		BaseURL:        serverURL,
		Timeout:        5 * time.Second,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
		RateLimitDelay: time.Nanosecond,
	})
}

func TestFetchMatches_PaginatesUntilTotalCovered(t *testing.T) {
	t.Parallel()

	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		if r.URL.Path != "/matches" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("filter[matches.discipline_id][eq]"); got != "1" {
			t.Errorf("expected discipline filter=1, got=%q", got)
		}

		offset := r.URL.Query().Get("page[offset]")
		w.Header().Set("Content-Type", "application/json")
		switch offset {
		case "0":
			fmt.Fprint(w, `{"results":[{"id":1,"team1":{"id":10,"name":"A"},"team2":{"id":11,"name":"B"}},{"id":2}],"total":{"count":3,"limit":2}}`)
		case "2":
			fmt.Fprint(w, `{"results":[{"id":3}],"total":{"count":3,"limit":2}}`)
		default:
			t.Errorf("unexpected offset %q", offset)
			fmt.Fprint(w, `{"results":[],"total":{"count":3,"limit":2}}`)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	bundle, err := client.FetchMatches(context.Background(), MatchQuery{PageLimit: 2})
	if err != nil {
		t.Fatalf("FetchMatches returned error: %v", err)
	}

	if got := atomic.LoadInt32(&requests); got != 2 {
		t.Fatalf("expected 2 page requests, got=%d", got)
	}
	if len(bundle.Matches) != 3 {
		t.Fatalf("expected 3 matches, got=%d", len(bundle.Matches))
	}
	if bundle.Matches[0].SourceID != 1 || bundle.Matches[2].SourceID != 3 {
		t.Fatalf("unexpected match ids: %+v", bundle.Matches)
	}
	if len(bundle.RawPayloads) != 2 {
		t.Fatalf("expected 2 raw payloads, got=%d", len(bundle.RawPayloads))
	}
}

func TestFetchMatches_StopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Total claims more rows than the API ever returns.
		fmt.Fprint(w, `{"results":[],"total":{"count":100,"limit":50}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	bundle, err := client.FetchMatches(context.Background(), MatchQuery{})
	if err != nil {
		t.Fatalf("FetchMatches returned error: %v", err)
	}
	if len(bundle.Matches) != 0 {
		t.Fatalf("expected no matches, got=%d", len(bundle.Matches))
	}
}

func TestFetchMatches_RetriesOnTooManyRequests(t *testing.T) {
	t.Parallel()

	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[{"id":7}],"total":{"count":1,"limit":50}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	bundle, err := client.FetchMatches(context.Background(), MatchQuery{})
	if err != nil {
		t.Fatalf("FetchMatches returned error: %v", err)
	}
	if got := atomic.LoadInt32(&requests); got != 2 {
		t.Fatalf("expected retry after 429, got %d requests", got)
	}
	if len(bundle.Matches) != 1 || bundle.Matches[0].SourceID != 7 {
		t.Fatalf("unexpected matches: %+v", bundle.Matches)
	}
}

func TestFetchMatch_NotFoundReportsAbsent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, _, found, err := client.FetchMatch(context.Background(), 999)
	if err != nil {
		t.Fatalf("FetchMatch returned error: %v", err)
	}
	if found {
		t.Fatalf("expected found=false for 404")
	}
}

func TestFetchMatch_ParsesDetailPayload(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/matches/103084" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":103084,"slug":"example-match","team1":{"id":736,"name":"The MongolZ"},"team2":{"id":7631,"name":"Passion UA"}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	parsed, payloads, found, err := client.FetchMatch(context.Background(), 103084)
	if err != nil {
		t.Fatalf("FetchMatch returned error: %v", err)
	}
	if !found {
		t.Fatalf("expected found=true")
	}
	if parsed.SourceID != 103084 {
		t.Fatalf("expected source_id=103084, got=%d", parsed.SourceID)
	}
	if len(payloads) != 1 || payloads[0].MatchSourceID != 103084 {
		t.Fatalf("unexpected payloads: %+v", payloads)
	}
}

func TestMatchesWithPredictions_FiltersByRelations(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[`+
			`{"id":1,"team1":{"id":10,"name":"A"},"team2":{"id":11,"name":"B"},`+
			`"ai_predictions":[{"id":900,"match_id":1,"prediction_scores_data":{"predicted_score":1.8}}],`+
			`"bet_updates":[{"provider":"bet365","team_1":{"coeff":1.5},"team_2":{"coeff":2.4}}]},`+
			`{"id":2,"team1":{"id":12,"name":"C"},"team2":{"id":13,"name":"D"},`+
			`"ai_predictions":[{"id":901,"match_id":2,"prediction_scores_data":{"predicted_score":2.1}}]},`+
			`{"id":3}`+
			`],"total":{"count":3,"limit":50}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	bundle, err := client.MatchesWithPredictions(context.Background(), 7, false)
	if err != nil {
		t.Fatalf("MatchesWithPredictions returned error: %v", err)
	}
	if len(bundle.Matches) != 2 {
		t.Fatalf("expected 2 prediction-bearing matches, got=%d", len(bundle.Matches))
	}

	bundle, err = client.MatchesWithPredictions(context.Background(), 7, true)
	if err != nil {
		t.Fatalf("MatchesWithPredictions returned error: %v", err)
	}
	if len(bundle.Matches) != 1 || bundle.Matches[0].SourceID != 1 {
		t.Fatalf("expected only the odds-bearing match, got=%+v", bundle.Matches)
	}
}

func TestUniqueTournamentIDs(t *testing.T) {
	t.Parallel()

	payloadA := examplePayload()
	payloadB := examplePayload()
	payloadB["id"] = float64(103085)

	matchA, err := ParseMatch(payloadA)
	if err != nil {
		t.Fatalf("ParseMatch returned error: %v", err)
	}
	matchB, err := ParseMatch(payloadB)
	if err != nil {
		t.Fatalf("ParseMatch returned error: %v", err)
	}

	ids := UniqueTournamentIDs([]match.Match{matchA, matchB})
	if len(ids) != 1 || ids[0] != 3578 {
		t.Fatalf("expected [3578], got=%v", ids)
	}
}
