package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fadhlirmn/esports-sync/internal/domain/prediction"
	qb "github.com/fadhlirmn/esports-sync/internal/platform/querybuilder"
)

var predictionSelectColumns = []string{
	"id", "match_id", "source_type", "source_id", "prediction_data", "created_at", "updated_at",
}

type PredictionRepository struct {
	db *sqlx.DB
}

func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func (r *PredictionRepository) ListByMatch(ctx context.Context, matchID int64) ([]prediction.AIPrediction, error) {
	query, args, err := qb.Select(predictionSelectColumns...).From("ai_predictions").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list predictions query: %w", err)
	}

	var rows []predictionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list predictions match_id=%d: %w", matchID, err)
	}

	out := make([]prediction.AIPrediction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
