package prediction

import "context"

type Repository interface {
	ListByMatch(ctx context.Context, matchID int64) ([]AIPrediction, error)
}
