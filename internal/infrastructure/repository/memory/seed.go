package memory

import (
	"github.com/fadhlirmn/esports-sync/internal/domain/datasource"
	"github.com/fadhlirmn/esports-sync/internal/mutation"
)

// SeedDataSources returns the provider registry rows the initial migration
// installs, so in-memory setups start from the same registry a fresh
// database has.
func SeedDataSources() []datasource.DataSource {
	return []datasource.DataSource{
		{
			SourceType:         mutation.SourceBO3,
			BaseURL:            "https://api.bo3.gg/api/v1",
			IsActive:           true,
			RateLimitPerMinute: 60,
		},
	}
}
