package mutation

import "testing"

func TestRegistryForSource(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()

	mut, err := reg.ForSource(SourceBO3)
	if err != nil {
		t.Fatalf("ForSource(%q) returned error: %v", SourceBO3, err)
	}
	if got := mut.SourceType(); got != SourceBO3 {
		t.Fatalf("SourceType got=%q want=%q", got, SourceBO3)
	}

	if _, err := reg.ForSource("hltv"); err == nil {
		t.Fatalf("expected error for unregistered source type")
	}
}

func TestFilterMatchUpdateKeepsAllowedColumns(t *testing.T) {
	t.Parallel()

	fields := FieldSet{
		"team1_score":    2,
		"team2_score":    0,
		"status":         "finished",
		"winner_team_id": int64(11),
		"loser_team_id":  int64(12),
		"raw_data":       `{"id":1}`,
		"slug":           "should-not-survive",
		"source_id":      int64(99),
		"start_date":     nil,
	}

	filtered := FilterMatchUpdate(fields)

	if len(filtered) != 6 {
		t.Fatalf("filtered size got=%d want=%d (%v)", len(filtered), 6, filtered)
	}
	for _, key := range []string{"team1_score", "team2_score", "status", "winner_team_id", "loser_team_id", "raw_data"} {
		if _, ok := filtered[key]; !ok {
			t.Fatalf("expected %q to survive the filter", key)
		}
	}
	if _, ok := filtered["slug"]; ok {
		t.Fatalf("slug must not survive the filter")
	}
}

func TestFilterMatchUpdateEmptyWhenNothingRecognized(t *testing.T) {
	t.Parallel()

	filtered := FilterMatchUpdate(FieldSet{"slug": "x", "tier": "s", "bo_type": 3})
	if len(filtered) != 0 {
		t.Fatalf("filtered size got=%d want=0 (%v)", len(filtered), filtered)
	}
}
