package postgres

import (
	"time"

	"github.com/fadhlirmn/esports-sync/internal/domain/tournament"
)

type tournamentTableModel struct {
	ID           int64      `db:"id"`
	SourceType   string     `db:"source_type"`
	SourceID     int64      `db:"source_id"`
	Name         string     `db:"name"`
	Slug         *string    `db:"slug"`
	Tier         *string    `db:"tier"`
	TierRank     *int       `db:"tier_rank"`
	PrizePool    *int64     `db:"prize_pool"`
	DisciplineID *int       `db:"discipline_id"`
	Status       *string    `db:"status"`
	StartDate    *time.Time `db:"start_date"`
	EndDate      *time.Time `db:"end_date"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (m tournamentTableModel) toDomain() tournament.Tournament {
	return tournament.Tournament{
		ID:           m.ID,
		SourceType:   m.SourceType,
		SourceID:     m.SourceID,
		Name:         m.Name,
		Slug:         m.Slug,
		Tier:         m.Tier,
		TierRank:     m.TierRank,
		PrizePool:    m.PrizePool,
		DisciplineID: m.DisciplineID,
		Status:       m.Status,
		StartDate:    m.StartDate,
		EndDate:      m.EndDate,
	}
}
