package postgres

import (
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/fadhlirmn/esports-sync/internal/domain/odds"
)

type oddsTableModel struct {
	ID               int64      `db:"id"`
	MatchID          int64      `db:"match_id"`
	SourceType       string     `db:"source_type"`
	Provider         string     `db:"provider"`
	Team1Odds        float64    `db:"team1_odds"`
	Team2Odds        float64    `db:"team2_odds"`
	Team1ImpliedProb *float64   `db:"team1_implied_prob"`
	Team2ImpliedProb *float64   `db:"team2_implied_prob"`
	OddsData         []byte     `db:"odds_data"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
	FetchedAt        *time.Time `db:"fetched_at"`
}

// oddsDataBlob mirrors the stored odds_data JSON, including the upstream
// "aggrement_score" spelling.
type oddsDataBlob struct {
	Path              *string          `json:"path"`
	Provider          string           `json:"provider"`
	Team1             oddsDataBlobSide `json:"team_1"`
	Team2             oddsDataBlobSide `json:"team_2"`
	MarketsCount      *int             `json:"markets_count"`
	AdditionalMarkets map[string]any   `json:"additional_markets"`
}

type oddsDataBlobSide struct {
	Name           string  `json:"name"`
	Coeff          float64 `json:"coeff"`
	Active         bool    `json:"active"`
	TeamID         int64   `json:"team_id"`
	MaxCoeff       float64 `json:"max_coeff"`
	AgreementScore float64 `json:"aggrement_score"`
}

func (m oddsTableModel) toDomain() odds.BettingOdds {
	out := odds.BettingOdds{
		ID:         m.ID,
		MatchID:    m.MatchID,
		SourceType: m.SourceType,
		Provider:   m.Provider,
		Team1:      odds.Side{Coeff: m.Team1Odds},
		Team2:      odds.Side{Coeff: m.Team2Odds},
		FetchedAt:  m.FetchedAt,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if len(m.OddsData) > 0 {
		var blob oddsDataBlob
		if err := sonic.Unmarshal(m.OddsData, &blob); err == nil {
			out.Path = blob.Path
			out.MarketsCount = blob.MarketsCount
			out.AdditionalMarkets = blob.AdditionalMarkets
			out.Team1 = odds.Side{
				Name:           blob.Team1.Name,
				Coeff:          blob.Team1.Coeff,
				Active:         blob.Team1.Active,
				TeamSourceID:   blob.Team1.TeamID,
				MaxCoeff:       blob.Team1.MaxCoeff,
				AgreementScore: blob.Team1.AgreementScore,
			}
			out.Team2 = odds.Side{
				Name:           blob.Team2.Name,
				Coeff:          blob.Team2.Coeff,
				Active:         blob.Team2.Active,
				TeamSourceID:   blob.Team2.TeamID,
				MaxCoeff:       blob.Team2.MaxCoeff,
				AgreementScore: blob.Team2.AgreementScore,
			}
		}
	}
	return out
}
