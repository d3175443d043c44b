package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fadhlirmn/esports-sync/internal/domain/match"
	qb "github.com/fadhlirmn/esports-sync/internal/platform/querybuilder"
)

var matchSelectColumns = []string{
	"id", "source_type", "source_id", "slug", "team1_id", "team2_id", "tournament_id",
	"status", "start_date", "bo_type", "tier", "team1_score", "team2_score",
	"winner_team_id", "loser_team_id", "raw_data", "created_at", "updated_at",
	"last_fetched_at",
}

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, id int64) (match.Match, bool, error) {
	query, args, err := qb.Select(matchSelectColumns...).From("matches").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match by id query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match id=%d: %w", id, err)
	}
	return row.toDomain(), true, nil
}

func (r *MatchRepository) GetBySource(ctx context.Context, sourceType string, sourceID int64) (match.Match, bool, error) {
	query, args, err := qb.Select(matchSelectColumns...).From("matches").
		Where(
			qb.Eq("source_type", sourceType),
			qb.Eq("source_id", sourceID),
		).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match by source query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match source_id=%d: %w", sourceID, err)
	}
	return row.toDomain(), true, nil
}

func (r *MatchRepository) List(ctx context.Context, filter match.ListFilter) ([]match.Match, error) {
	builder := qb.Select(matchSelectColumns...).From("matches")

	conditions := make([]qb.Condition, 0, 4)
	if filter.Status != "" {
		conditions = append(conditions, qb.Eq("status", filter.Status))
	}
	if filter.SourceType != "" {
		conditions = append(conditions, qb.Eq("source_type", filter.SourceType))
	}
	if filter.StartFrom != nil {
		conditions = append(conditions, qb.Expr("start_date >= ?", *filter.StartFrom))
	}
	if filter.StartTo != nil {
		conditions = append(conditions, qb.Expr("start_date <= ?", *filter.StartTo))
	}
	if len(conditions) > 0 {
		builder = builder.Where(conditions...)
	}

	builder = builder.OrderBy("start_date", "id")
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
