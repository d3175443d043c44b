package mutation

// TeamUpsert pairs a team field set with its source id so the
// persistence layer can match side-channel references against it.
type TeamUpsert struct {
	SourceID int64
	Fields   FieldSet
}

// TournamentUpsert is the tournament part of a match save.
type TournamentUpsert struct {
	SourceID int64
	Fields   FieldSet
}

// MatchUpsert is the full unit of work for one match save: both teams,
// the optional tournament, and the match itself, persisted inside a
// single transaction.
type MatchUpsert struct {
	SourceType     string
	SourceID       int64
	Match          FieldSet
	Team1          TeamUpsert
	Team2          TeamUpsert
	Tournament     *TournamentUpsert
	WinnerSourceID *int64
	LoserSourceID  *int64
}

// PredictionUpsert targets the (match_id, source_type) identity.
type PredictionUpsert struct {
	MatchID    int64
	SourceType string
	Fields     FieldSet
}

// OddsUpsert targets the (match_id, source_type, provider) identity.
type OddsUpsert struct {
	MatchID    int64
	SourceType string
	Provider   string
	Fields     FieldSet
}
