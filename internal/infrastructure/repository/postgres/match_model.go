package postgres

import (
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/fadhlirmn/esports-sync/internal/domain/match"
)

type matchTableModel struct {
	ID            int64      `db:"id"`
	SourceType    string     `db:"source_type"`
	SourceID      int64      `db:"source_id"`
	Slug          *string    `db:"slug"`
	Team1ID       int64      `db:"team1_id"`
	Team2ID       int64      `db:"team2_id"`
	TournamentID  *int64     `db:"tournament_id"`
	Status        string     `db:"status"`
	StartDate     *time.Time `db:"start_date"`
	BoType        *int       `db:"bo_type"`
	Tier          *string    `db:"tier"`
	Team1Score    *int       `db:"team1_score"`
	Team2Score    *int       `db:"team2_score"`
	WinnerTeamID  *int64     `db:"winner_team_id"`
	LoserTeamID   *int64     `db:"loser_team_id"`
	RawData       []byte     `db:"raw_data"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	LastFetchedAt *time.Time `db:"last_fetched_at"`
}

func (m matchTableModel) toDomain() match.Match {
	out := match.Match{
		ID:            m.ID,
		SourceType:    m.SourceType,
		SourceID:      m.SourceID,
		Slug:          m.Slug,
		Status:        m.Status,
		StartDate:     m.StartDate,
		BoType:        m.BoType,
		Tier:          m.Tier,
		Team1Score:    m.Team1Score,
		Team2Score:    m.Team2Score,
		Team1ID:       m.Team1ID,
		Team2ID:       m.Team2ID,
		TournamentID:  m.TournamentID,
		WinnerTeamID:  m.WinnerTeamID,
		LoserTeamID:   m.LoserTeamID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		LastFetchedAt: m.LastFetchedAt,
	}
	if len(m.RawData) > 0 {
		var raw map[string]any
		if err := sonic.Unmarshal(m.RawData, &raw); err == nil {
			out.Raw = raw
		}
	}
	return out
}
