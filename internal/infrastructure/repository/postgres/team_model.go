package postgres

import (
	"time"

	"github.com/fadhlirmn/esports-sync/internal/domain/team"
)

type teamTableModel struct {
	ID          int64     `db:"id"`
	SourceType  string    `db:"source_type"`
	SourceID    int64     `db:"source_id"`
	Name        string    `db:"name"`
	Slug        *string   `db:"slug"`
	CountryCode *string   `db:"country_code"`
	LogoURL     *string   `db:"logo_url"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:          m.ID,
		SourceType:  m.SourceType,
		SourceID:    m.SourceID,
		Name:        m.Name,
		Slug:        m.Slug,
		CountryCode: m.CountryCode,
		LogoURL:     m.LogoURL,
	}
}
