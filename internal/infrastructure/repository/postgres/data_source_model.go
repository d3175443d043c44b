package postgres

import (
	"time"

	"github.com/fadhlirmn/esports-sync/internal/domain/datasource"
)

type dataSourceTableModel struct {
	ID                 int64      `db:"id"`
	SourceType         string     `db:"source_type"`
	BaseURL            string     `db:"base_url"`
	IsActive           bool       `db:"is_active"`
	RateLimitPerMinute int        `db:"rate_limit_per_minute"`
	LastSyncAt         *time.Time `db:"last_sync_at"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

func (m dataSourceTableModel) toDomain() datasource.DataSource {
	return datasource.DataSource{
		ID:                 m.ID,
		SourceType:         m.SourceType,
		BaseURL:            m.BaseURL,
		IsActive:           m.IsActive,
		RateLimitPerMinute: m.RateLimitPerMinute,
		LastSyncAt:         m.LastSyncAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}
