package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fadhlirmn/esports-sync/internal/domain/datasource"
	qb "github.com/fadhlirmn/esports-sync/internal/platform/querybuilder"
)

var dataSourceSelectColumns = []string{
	"id", "source_type", "base_url", "is_active", "rate_limit_per_minute", "last_sync_at",
	"created_at", "updated_at",
}

type DataSourceRepository struct {
	db *sqlx.DB
}

func NewDataSourceRepository(db *sqlx.DB) *DataSourceRepository {
	return &DataSourceRepository{db: db}
}

func (r *DataSourceRepository) List(ctx context.Context) ([]datasource.DataSource, error) {
	query, args, err := qb.Select(dataSourceSelectColumns...).From("data_sources").
		OrderBy("source_type").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list data sources query: %w", err)
	}

	var rows []dataSourceTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list data sources: %w", err)
	}

	out := make([]datasource.DataSource, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *DataSourceRepository) GetByType(ctx context.Context, sourceType string) (datasource.DataSource, bool, error) {
	query, args, err := qb.Select(dataSourceSelectColumns...).From("data_sources").
		Where(qb.Eq("source_type", sourceType)).
		ToSQL()
	if err != nil {
		return datasource.DataSource{}, false, fmt.Errorf("build select data source query: %w", err)
	}

	var row dataSourceTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return datasource.DataSource{}, false, nil
		}
		return datasource.DataSource{}, false, fmt.Errorf("select data source type=%s: %w", sourceType, err)
	}
	return row.toDomain(), true, nil
}

func (r *DataSourceRepository) TouchLastSync(ctx context.Context, sourceType string, at time.Time) error {
	query, args, err := qb.Update("data_sources").
		Set("last_sync_at", at.UTC()).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("source_type", sourceType)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build touch data source query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("touch data source type=%s: %w", sourceType, err)
	}
	return nil
}
