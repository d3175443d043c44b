package tournament

import (
	"fmt"
	"time"
)

// Tournament is a competition a match belongs to. Identity across syncs
// is (SourceType, SourceID); ID is the internal row id.
type Tournament struct {
	ID           int64
	SourceType   string
	SourceID     int64
	Name         string
	Slug         *string
	Tier         *string
	TierRank     *int
	PrizePool    *int64
	DisciplineID *int
	Status       *string
	StartDate    *time.Time
	EndDate      *time.Time
}

func (t Tournament) Validate() error {
	if t.SourceType == "" {
		return fmt.Errorf("tournament source type is required")
	}
	if t.SourceID <= 0 {
		return fmt.Errorf("tournament source id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("tournament name is required")
	}

	return nil
}
