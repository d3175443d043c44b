package datasource

import (
	"fmt"
	"time"
)

// DataSource is a registered upstream provider. SourceType is the tag
// stored on every row the provider contributed.
type DataSource struct {
	ID                 int64
	SourceType         string
	BaseURL            string
	IsActive           bool
	RateLimitPerMinute int
	LastSyncAt         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (d DataSource) Validate() error {
	if d.SourceType == "" {
		return fmt.Errorf("data source type is required")
	}
	if d.BaseURL == "" {
		return fmt.Errorf("data source base url is required")
	}

	return nil
}
