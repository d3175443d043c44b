package team

import "fmt"

// Team is a competing roster as reported by an upstream provider.
// ID is the internal row id and stays zero until the team is persisted;
// identity across syncs is (SourceType, SourceID).
type Team struct {
	ID          int64
	SourceType  string
	SourceID    int64
	Name        string
	Slug        *string
	CountryCode *string
	LogoURL     *string
}

func (t Team) Validate() error {
	if t.SourceType == "" {
		return fmt.Errorf("team source type is required")
	}
	if t.SourceID <= 0 {
		return fmt.Errorf("team source id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}
