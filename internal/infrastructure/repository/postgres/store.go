package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fadhlirmn/esports-sync/internal/mutation"
	qb "github.com/fadhlirmn/esports-sync/internal/platform/querybuilder"
)

// Insert column order per table. Only keys present in the field set are
// written; the rest fall back to column defaults.
var (
	teamInsertOrder = []string{
		"source_type", "source_id", "name", "slug", "country_code", "logo_url", "metadata",
	}
	tournamentInsertOrder = []string{
		"source_type", "source_id", "name", "slug", "tier", "tier_rank", "prize_pool",
		"discipline_id", "status", "start_date", "end_date", "metadata",
	}
	matchInsertOrder = []string{
		"source_type", "source_id", "slug", "status", "start_date", "bo_type", "tier",
		"team1_score", "team2_score", "raw_data",
	}
	predictionInsertOrder = []string{
		"match_id", "source_type", "source_id", "prediction_data",
	}
	oddsInsertOrder = []string{
		"match_id", "source_type", "provider", "team1_odds", "team2_odds",
		"team1_implied_prob", "team2_implied_prob", "odds_data",
	}
	matchUpdateOrder = []string{
		"status", "team1_score", "team2_score", "winner_team_id", "loser_team_id", "raw_data",
	}
)

// Store executes the write units behind the upsert coordinator. A match
// save runs as one transaction and rolls back as a whole; concurrent
// saves of the same entity are serialized by the UNIQUE
// (source_type, source_id) constraints, with an insert conflict followed
// by a re-read instead of a retry.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) SaveMatch(ctx context.Context, up mutation.MatchUpsert) (int64, bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin tx for match save: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	team1ID, err := getOrCreateBySource(ctx, tx, "teams", teamInsertOrder, up.Team1.Fields, up.SourceType, up.Team1.SourceID)
	if err != nil {
		return 0, false, err
	}
	team2ID, err := getOrCreateBySource(ctx, tx, "teams", teamInsertOrder, up.Team2.Fields, up.SourceType, up.Team2.SourceID)
	if err != nil {
		return 0, false, err
	}

	var tournamentID *int64
	if up.Tournament != nil {
		id, err := getOrCreateBySource(ctx, tx, "tournaments", tournamentInsertOrder, up.Tournament.Fields, up.SourceType, up.Tournament.SourceID)
		if err != nil {
			return 0, false, err
		}
		tournamentID = &id
	}

	winnerID := resolveSideTeamID(up.WinnerSourceID, up.Team1.SourceID, up.Team2.SourceID, team1ID, team2ID)
	loserID := resolveSideTeamID(up.LoserSourceID, up.Team1.SourceID, up.Team2.SourceID, team1ID, team2ID)

	matchID, exists, err := findRowID(ctx, tx, "matches", up.SourceType, up.SourceID)
	if err != nil {
		return 0, false, err
	}
	if !exists {
		matchID, exists, err = insertMatch(ctx, tx, up, team1ID, team2ID, tournamentID, winnerID, loserID)
		if err != nil {
			return 0, false, err
		}
		if exists {
			if err := tx.Commit(); err != nil {
				return 0, false, fmt.Errorf("commit match save tx: %w", err)
			}
			return matchID, true, nil
		}

		// Lost the insert race. The committed winner row is visible now,
		// so fall through to the update path against it.
		matchID, exists, err = findRowID(ctx, tx, "matches", up.SourceType, up.SourceID)
		if err != nil {
			return 0, false, err
		}
		if !exists {
			return 0, false, fmt.Errorf("match row missing after insert conflict source_id=%d", up.SourceID)
		}
	}

	if err := applyMatchUpdate(ctx, tx, matchID, mergeMatchUpdate(up.Match, winnerID, loserID)); err != nil {
		return 0, false, err
	}
	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit match save tx: %w", err)
	}
	return matchID, false, nil
}

func (s *Store) UpdateMatch(ctx context.Context, matchID int64, fields mutation.FieldSet) error {
	return applyMatchUpdate(ctx, s.db, matchID, fields)
}

func (s *Store) SavePrediction(ctx context.Context, up mutation.PredictionUpsert) (int64, bool, error) {
	query, args, err := buildFieldInsert("ai_predictions", predictionInsertOrder, up.Fields,
		`ON CONFLICT (match_id, source_type)
DO UPDATE SET
    source_id = EXCLUDED.source_id,
    prediction_data = EXCLUDED.prediction_data,
    updated_at = NOW()
RETURNING id, (xmax = 0) AS inserted`)
	if err != nil {
		return 0, false, fmt.Errorf("build upsert prediction query: %w", err)
	}

	// xmax is zero only on a row this statement created, which separates
	// the insert from the conflict-update outcome.
	var row upsertOutcome
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return 0, false, fmt.Errorf("upsert prediction match_id=%d: %w", up.MatchID, err)
	}
	return row.ID, row.Inserted, nil
}

func (s *Store) SaveOdds(ctx context.Context, up mutation.OddsUpsert) (int64, bool, error) {
	query, args, err := buildFieldInsert("betting_odds", oddsInsertOrder, up.Fields,
		`ON CONFLICT (match_id, source_type, provider)
DO UPDATE SET
    team1_odds = EXCLUDED.team1_odds,
    team2_odds = EXCLUDED.team2_odds,
    team1_implied_prob = EXCLUDED.team1_implied_prob,
    team2_implied_prob = EXCLUDED.team2_implied_prob,
    odds_data = EXCLUDED.odds_data,
    fetched_at = NOW(),
    updated_at = NOW()
RETURNING id, (xmax = 0) AS inserted`)
	if err != nil {
		return 0, false, fmt.Errorf("build upsert odds query: %w", err)
	}

	var row upsertOutcome
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return 0, false, fmt.Errorf("upsert odds match_id=%d provider=%s: %w", up.MatchID, up.Provider, err)
	}
	return row.ID, row.Inserted, nil
}

type upsertOutcome struct {
	ID       int64 `db:"id"`
	Inserted bool  `db:"inserted"`
}

func getOrCreateBySource(ctx context.Context, tx *sqlx.Tx, table string, order []string, fields mutation.FieldSet, sourceType string, sourceID int64) (int64, error) {
	id, exists, err := findRowID(ctx, tx, table, sourceType, sourceID)
	if err != nil {
		return 0, err
	}
	if exists {
		// First write wins: a repeated save keeps the stored identity row.
		return id, nil
	}

	query, args, err := buildFieldInsert(table, order, fields, "ON CONFLICT (source_type, source_id) DO NOTHING RETURNING id")
	if err != nil {
		return 0, fmt.Errorf("build insert %s query: %w", table, err)
	}
	err = tx.GetContext(ctx, &id, query, args...)
	if err == nil {
		return id, nil
	}
	if !isNotFound(err) {
		return 0, fmt.Errorf("insert %s source_id=%d: %w", table, sourceID, err)
	}

	// A concurrent save won the insert; the committed row is visible to
	// the re-read.
	id, exists, err = findRowID(ctx, tx, table, sourceType, sourceID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%s row missing after insert conflict source_id=%d", table, sourceID)
	}
	return id, nil
}

func findRowID(ctx context.Context, tx *sqlx.Tx, table, sourceType string, sourceID int64) (int64, bool, error) {
	query, args, err := qb.Select("id").From(table).
		Where(
			qb.Eq("source_type", sourceType),
			qb.Eq("source_id", sourceID),
		).
		ToSQL()
	if err != nil {
		return 0, false, fmt.Errorf("build select %s id query: %w", table, err)
	}

	var id int64
	if err := tx.GetContext(ctx, &id, query, args...); err != nil {
		if isNotFound(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("select %s id source_id=%d: %w", table, sourceID, err)
	}
	return id, true, nil
}

func insertMatch(ctx context.Context, tx *sqlx.Tx, up mutation.MatchUpsert, team1ID, team2ID int64, tournamentID, winnerID, loserID *int64) (int64, bool, error) {
	columns := make([]string, 0, len(matchInsertOrder)+6)
	values := make([]any, 0, len(matchInsertOrder)+6)
	for _, column := range matchInsertOrder {
		value, ok := up.Match[column]
		if !ok {
			continue
		}
		columns = append(columns, column)
		values = append(values, value)
	}
	columns = append(columns, "team1_id", "team2_id", "tournament_id", "winner_team_id", "loser_team_id")
	values = append(values, team1ID, team2ID, tournamentID, winnerID, loserID)

	query, args, err := qb.InsertInto("matches").
		Columns(columns...).
		Values(values...).
		Suffix("ON CONFLICT (source_type, source_id) DO NOTHING RETURNING id").
		ToSQL()
	if err != nil {
		return 0, false, fmt.Errorf("build insert match query: %w", err)
	}

	var id int64
	if err := tx.GetContext(ctx, &id, query, args...); err != nil {
		if isNotFound(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("insert match source_id=%d: %w", up.SourceID, err)
	}
	return id, true, nil
}

func applyMatchUpdate(ctx context.Context, ext sqlx.ExtContext, matchID int64, fields mutation.FieldSet) error {
	filtered := mutation.FilterMatchUpdate(fields)
	if len(filtered) == 0 {
		return nil
	}

	builder := qb.Update("matches")
	for _, column := range matchUpdateOrder {
		value, ok := filtered[column]
		if !ok {
			continue
		}
		builder.Set(column, value)
	}
	builder.SetExpr("updated_at", "NOW()")
	builder.SetExpr("last_fetched_at", "NOW()")
	builder.Where(qb.Eq("id", matchID))

	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build update match query: %w", err)
	}
	if _, err := ext.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update match id=%d: %w", matchID, err)
	}
	return nil
}

func mergeMatchUpdate(fields mutation.FieldSet, winnerID, loserID *int64) mutation.FieldSet {
	merged := mutation.FieldSet{}
	for key, value := range fields {
		merged[key] = value
	}
	if winnerID != nil {
		merged["winner_team_id"] = winnerID
	}
	if loserID != nil {
		merged["loser_team_id"] = loserID
	}
	return merged
}

// resolveSideTeamID maps a source-space winner or loser id onto the
// internal id of whichever side it matches. Ids that match neither side
// stay unset rather than pointing at an unrelated row.
func resolveSideTeamID(sourceID *int64, team1SourceID, team2SourceID, team1ID, team2ID int64) *int64 {
	if sourceID == nil {
		return nil
	}
	switch *sourceID {
	case team1SourceID:
		return &team1ID
	case team2SourceID:
		return &team2ID
	default:
		return nil
	}
}

func buildFieldInsert(table string, order []string, fields mutation.FieldSet, suffix string) (string, []any, error) {
	columns := make([]string, 0, len(order))
	values := make([]any, 0, len(order))
	for _, column := range order {
		value, ok := fields[column]
		if !ok {
			continue
		}
		columns = append(columns, column)
		values = append(values, value)
	}

	return qb.InsertInto(table).
		Columns(columns...).
		Values(values...).
		Suffix(suffix).
		ToSQL()
}
