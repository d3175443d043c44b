package rawdata

import "time"

type Payload struct {
	Source          string
	EntityType      string
	EntityKey       string
	MatchSourceID   int64
	PayloadJSON     string
	PayloadHash     string
	SourceUpdatedAt *time.Time
}
