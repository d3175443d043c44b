package postgres

import (
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/fadhlirmn/esports-sync/internal/domain/prediction"
)

type predictionTableModel struct {
	ID             int64     `db:"id"`
	MatchID        int64     `db:"match_id"`
	SourceType     string    `db:"source_type"`
	SourceID       int64     `db:"source_id"`
	PredictionData []byte    `db:"prediction_data"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// predictionDataBlob mirrors the stored prediction_data JSON.
type predictionDataBlob struct {
	ID           int64                    `json:"id"`
	MatchID      int64                    `json:"match_id"`
	Team1Score   int                      `json:"prediction_team1_score"`
	Team2Score   int                      `json:"prediction_team2_score"`
	WinnerTeamID int64                    `json:"prediction_winner_team_id"`
	Scores       predictionDataBlobScores `json:"prediction_scores_data"`
}

type predictionDataBlobScores struct {
	PredictedScore          float64            `json:"predicted_score"`
	ProximityFactors        map[string]float64 `json:"proximity_factors"`
	ClosestValidScore       []int              `json:"closest_valid_score"`
	OverallProximityFactor  float64            `json:"overall_proximity_factor"`
	NeighborProximityFactor float64            `json:"neighbor_proximity_factor"`
}

func (m predictionTableModel) toDomain() prediction.AIPrediction {
	out := prediction.AIPrediction{
		ID:         m.ID,
		MatchID:    m.MatchID,
		SourceType: m.SourceType,
		SourceID:   m.SourceID,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if len(m.PredictionData) > 0 {
		var blob predictionDataBlob
		if err := sonic.Unmarshal(m.PredictionData, &blob); err == nil {
			out.SourceMatchID = blob.MatchID
			out.Team1Score = blob.Team1Score
			out.Team2Score = blob.Team2Score
			out.WinnerSourceID = blob.WinnerTeamID
			out.Scores = prediction.ScoresData{
				PredictedScore:          blob.Scores.PredictedScore,
				ProximityFactors:        blob.Scores.ProximityFactors,
				ClosestValidScore:       blob.Scores.ClosestValidScore,
				OverallProximityFactor:  blob.Scores.OverallProximityFactor,
				NeighborProximityFactor: blob.Scores.NeighborProximityFactor,
			}
		}
	}
	return out
}
