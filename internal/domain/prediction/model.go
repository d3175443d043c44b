package prediction

import (
	"fmt"
	"time"
)

// AIPrediction is a model-generated outcome forecast for one match.
// One row per (match, source); a re-sync overwrites the previous forecast.
type AIPrediction struct {
	ID             int64
	MatchID        int64
	SourceType     string
	SourceID       int64
	SourceMatchID  int64
	Team1Score     int
	Team2Score     int
	WinnerSourceID int64
	Scores         ScoresData
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ScoresData carries the raw model output behind a prediction. Numeric
// fields default to zero when the source omits them; the stored blob keeps
// whatever the source actually sent.
type ScoresData struct {
	PredictedScore          float64
	ProximityFactors        map[string]float64
	ClosestValidScore       []int
	OverallProximityFactor  float64
	NeighborProximityFactor float64
}

func (p AIPrediction) Validate() error {
	if p.SourceType == "" {
		return fmt.Errorf("prediction source type is required")
	}
	if p.SourceID <= 0 {
		return fmt.Errorf("prediction source id is required")
	}
	if p.SourceMatchID <= 0 {
		return fmt.Errorf("prediction source match id is required")
	}

	return nil
}
