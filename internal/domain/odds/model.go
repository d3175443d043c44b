package odds

import (
	"fmt"
	"time"
)

// BettingOdds is one bookmaker's pre-match line for a match. Identity is
// (match, source, provider), so several providers can price the same match.
type BettingOdds struct {
	ID                int64
	MatchID           int64
	SourceType        string
	Provider          string
	Team1             Side
	Team2             Side
	Path              *string
	MarketsCount      *int
	AdditionalMarkets map[string]any
	FetchedAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Side is one team's line within a provider's odds entry.
type Side struct {
	Name           string
	Coeff          float64
	Active         bool
	TeamSourceID   int64
	MaxCoeff       float64
	AgreementScore float64
}

// ImpliedProbability derives the win probability baked into the decimal
// coefficient. A zero coefficient carries no information, so the second
// return is false and callers must leave the probability unset.
func (s Side) ImpliedProbability() (float64, bool) {
	if s.Coeff == 0 {
		return 0, false
	}
	return 1.0 / s.Coeff, true
}

func (o BettingOdds) Validate() error {
	if o.SourceType == "" {
		return fmt.Errorf("odds source type is required")
	}
	if o.Provider == "" {
		return fmt.Errorf("odds provider is required")
	}

	return nil
}
