package odds

import "context"

type Repository interface {
	ListByMatch(ctx context.Context, matchID int64, provider *string) ([]BettingOdds, error)
}
