package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fadhlirmn/esports-sync/internal/domain/odds"
	qb "github.com/fadhlirmn/esports-sync/internal/platform/querybuilder"
)

var oddsSelectColumns = []string{
	"id", "match_id", "source_type", "provider", "team1_odds", "team2_odds",
	"team1_implied_prob", "team2_implied_prob", "odds_data", "created_at", "updated_at",
	"fetched_at",
}

type OddsRepository struct {
	db *sqlx.DB
}

func NewOddsRepository(db *sqlx.DB) *OddsRepository {
	return &OddsRepository{db: db}
}

func (r *OddsRepository) ListByMatch(ctx context.Context, matchID int64, provider *string) ([]odds.BettingOdds, error) {
	conditions := []qb.Condition{qb.Eq("match_id", matchID)}
	if provider != nil {
		conditions = append(conditions, qb.Eq("provider", *provider))
	}

	query, args, err := qb.Select(oddsSelectColumns...).From("betting_odds").
		Where(conditions...).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list odds query: %w", err)
	}

	var rows []oddsTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list odds match_id=%d: %w", matchID, err)
	}

	out := make([]odds.BettingOdds, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
