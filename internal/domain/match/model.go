package match

import (
	"fmt"
	"strings"
	"time"

	"github.com/fadhlirmn/esports-sync/internal/domain/odds"
	"github.com/fadhlirmn/esports-sync/internal/domain/prediction"
	"github.com/fadhlirmn/esports-sync/internal/domain/team"
	"github.com/fadhlirmn/esports-sync/internal/domain/tournament"
)

const (
	StatusUpcoming = "upcoming"
	StatusCurrent  = "current"
	StatusFinished = "finished"
)

// Match represents one scheduled series between two teams.
//
// A parsed match carries the nested source records (Team1, Team2,
// Tournament) and source-space winner/loser ids; a match read back from
// storage carries resolved internal ids and timestamps instead. Identity
// across syncs is (SourceType, SourceID).
type Match struct {
	ID         int64
	SourceType string
	SourceID   int64
	Slug       *string
	Status     string
	StartDate  *time.Time
	BoType     *int
	Tier       *string
	Team1Score *int
	Team2Score *int

	// Resolved internal references, populated on reads.
	Team1ID      int64
	Team2ID      int64
	TournamentID *int64
	WinnerTeamID *int64
	LoserTeamID  *int64

	// Source-space references, populated by the parser.
	WinnerSourceID *int64
	LoserSourceID  *int64
	Team1          *team.Team
	Team2          *team.Team
	Tournament     *tournament.Tournament
	Predictions    []prediction.AIPrediction
	Odds           []odds.BettingOdds

	Raw map[string]any

	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastFetchedAt *time.Time
}

func (m Match) Validate() error {
	if m.SourceType == "" {
		return fmt.Errorf("match source type is required")
	}
	if m.SourceID <= 0 {
		return fmt.Errorf("match source id is required")
	}

	return nil
}

func NormalizeStatus(value string) string {
	status := strings.ToLower(strings.TrimSpace(value))
	if status == "" {
		return StatusUpcoming
	}
	return status
}
