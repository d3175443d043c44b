package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	ants "github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/fadhlirmn/esports-sync/internal/domain/datasource"
	"github.com/fadhlirmn/esports-sync/internal/domain/match"
	"github.com/fadhlirmn/esports-sync/internal/domain/rawdata"
	"github.com/fadhlirmn/esports-sync/internal/mutation"
	"github.com/fadhlirmn/esports-sync/internal/platform/logging"
)

// MatchSyncProvider is the upstream feed the sync jobs pull from. The
// bo3gg client implements it; tests swap in stubs.
type MatchSyncProvider interface {
	FetchUpcomingWeek(ctx context.Context, daysAhead int) (MatchSyncBundle, error)
	FetchFinishedSince(ctx context.Context, daysBack int) (MatchSyncBundle, error)
}

// MatchSyncBundle is one provider pull: parsed matches with their nested
// teams, tournament, predictions, and odds, plus the raw page bodies for
// the audit archive. Skipped counts entries the parser rejected.
type MatchSyncBundle struct {
	Matches     []match.Match
	RawPayloads []rawdata.Payload
	Skipped     int
}

type MatchSyncConfig struct {
	Enabled         bool
	SourceType      string
	DaysAhead       int
	ResultsDaysBack int
	MaxWorkers      int
}

// SyncResult summarizes one sync run. Failed counts individual rows that
// could not be saved, not whole runs; a run only errors when the provider
// or the store is down.
type SyncResult struct {
	Fetched     int   `json:"fetched"`
	Created     int   `json:"created"`
	Updated     int   `json:"updated"`
	Predictions int   `json:"predictions"`
	Odds        int   `json:"odds"`
	Failed      int   `json:"failed"`
	Skipped     int   `json:"skipped"`
	DurationMs  int64 `json:"duration_ms"`
}

const (
	IngestOutcomeCreated = "created"
	IngestOutcomeUpdated = "updated"
	IngestOutcomeFailed  = "failed"
	IngestOutcomeInvalid = "invalid"
)

// IngestOutcome reports how one batch record fared. Failed entries carry
// the save error text so callers can retry selectively.
type IngestOutcome struct {
	SourceID int64  `json:"source_id"`
	MatchID  int64  `json:"match_id,omitempty"`
	Outcome  string `json:"outcome"`
	Error    string `json:"error,omitempty"`
}

// IngestReport pairs the aggregate counts of a manual batch with the
// per-record outcomes, in input order.
type IngestReport struct {
	Result   SyncResult      `json:"result"`
	Outcomes []IngestOutcome `json:"outcomes"`
}

type SyncService struct {
	provider       MatchSyncProvider
	store          *StoreService
	dataSourceRepo datasource.Repository
	cfg            MatchSyncConfig
	logger         *logging.Logger
}

func NewSyncService(
	provider MatchSyncProvider,
	store *StoreService,
	dataSourceRepo datasource.Repository,
	cfg MatchSyncConfig,
	logger *logging.Logger,
) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.SourceType) == "" {
		cfg.SourceType = mutation.SourceBO3
	}
	if cfg.DaysAhead <= 0 {
		cfg.DaysAhead = 7
	}
	if cfg.ResultsDaysBack <= 0 {
		cfg.ResultsDaysBack = 3
	}

	return &SyncService{
		provider:       provider,
		store:          store,
		dataSourceRepo: dataSourceRepo,
		cfg:            cfg,
		logger:         logger,
	}
}

// SourceType reports which registered source this service syncs.
func (s *SyncService) SourceType() string {
	return s.cfg.SourceType
}

// SyncUpcoming pulls the upcoming window from the provider and upserts
// every match with its predictions and odds.
func (s *SyncService) SyncUpcoming(ctx context.Context) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncUpcoming")
	defer span.End()

	if err := s.ready(ctx, "upcoming"); err != nil {
		return SyncResult{}, err
	}

	bundle, err := s.provider.FetchUpcomingWeek(ctx, s.cfg.DaysAhead)
	if err != nil {
		return SyncResult{}, fmt.Errorf("fetch upcoming matches days_ahead=%d: %w", s.cfg.DaysAhead, err)
	}

	result, _, err := s.persistBundle(ctx, bundle)
	if err != nil {
		return SyncResult{}, err
	}

	s.markSynced(ctx)
	s.logger.InfoContext(ctx, "upcoming match sync finished",
		"fetched", result.Fetched,
		"created", result.Created,
		"updated", result.Updated,
		"predictions", result.Predictions,
		"odds", result.Odds,
		"failed", result.Failed,
		"skipped", result.Skipped,
	)
	return result, nil
}

// SyncResults pulls recently finished matches so scores and winners catch
// up with the provider.
func (s *SyncService) SyncResults(ctx context.Context) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.SyncResults")
	defer span.End()

	if err := s.ready(ctx, "results"); err != nil {
		return SyncResult{}, err
	}

	bundle, err := s.provider.FetchFinishedSince(ctx, s.cfg.ResultsDaysBack)
	if err != nil {
		return SyncResult{}, fmt.Errorf("fetch finished matches days_back=%d: %w", s.cfg.ResultsDaysBack, err)
	}

	result, _, err := s.persistBundle(ctx, bundle)
	if err != nil {
		return SyncResult{}, err
	}

	s.markSynced(ctx)
	s.logger.InfoContext(ctx, "results match sync finished",
		"fetched", result.Fetched,
		"created", result.Created,
		"updated", result.Updated,
		"predictions", result.Predictions,
		"odds", result.Odds,
		"failed", result.Failed,
		"skipped", result.Skipped,
	)
	return result, nil
}

// IngestMatches persists matches pushed through the internal ingestion
// endpoint. It shares the persistence path with the scheduled jobs but
// needs neither the provider nor the enabled flag.
func (s *SyncService) IngestMatches(ctx context.Context, items []match.Match) (IngestReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.IngestMatches")
	defer span.End()

	if s.store == nil {
		return IngestReport{}, fmt.Errorf("%w: match store is not configured", ErrDependencyUnavailable)
	}
	if len(items) == 0 {
		return IngestReport{}, fmt.Errorf("%w: matches must not be empty", ErrInvalidInput)
	}

	result, outcomes, err := s.persistBundle(ctx, MatchSyncBundle{Matches: items})
	if err != nil {
		return IngestReport{}, err
	}
	return IngestReport{Result: result, Outcomes: outcomes}, nil
}

func (s *SyncService) ready(ctx context.Context, window string) error {
	if !s.cfg.Enabled {
		s.logger.WarnContext(ctx, "skip match sync: source sync is disabled",
			"window", window,
			"source_type", s.cfg.SourceType,
		)
		return fmt.Errorf("%w: match sync is disabled (SYNC_ENABLED=false)", ErrDependencyUnavailable)
	}
	if s.provider == nil || s.store == nil {
		s.logger.WarnContext(ctx,
			"skip match sync: match data provider is not fully configured",
			"window", window,
			"provider_nil", s.provider == nil,
			"store_nil", s.store == nil,
		)
		return fmt.Errorf("%w: match data provider is not fully configured", ErrDependencyUnavailable)
	}
	return nil
}

func (s *SyncService) persistBundle(ctx context.Context, bundle MatchSyncBundle) (SyncResult, []IngestOutcome, error) {
	start := time.Now()
	result := SyncResult{Fetched: len(bundle.Matches), Skipped: bundle.Skipped}

	var outcomes []IngestOutcome
	if len(bundle.Matches) > 0 {
		counters, saved, err := s.saveMatches(ctx, bundle.Matches)
		if err != nil {
			return SyncResult{}, nil, err
		}
		outcomes = saved
		result.Created = int(counters.created.Load())
		result.Updated = int(counters.updated.Load())
		result.Predictions = int(counters.predictions.Load())
		result.Odds = int(counters.odds.Load())
		result.Failed = int(counters.failed.Load())
	}

	if len(bundle.RawPayloads) > 0 {
		if err := s.store.SaveRawPayloads(ctx, s.cfg.SourceType, bundle.RawPayloads); err != nil {
			return SyncResult{}, nil, fmt.Errorf("save raw payloads: %w", err)
		}
	}

	result.DurationMs = time.Since(start).Milliseconds()
	return result, outcomes, nil
}

type syncCounters struct {
	created     atomic.Int32
	updated     atomic.Int32
	predictions atomic.Int32
	odds        atomic.Int32
	failed      atomic.Int32
}

func (s *SyncService) saveMatches(ctx context.Context, items []match.Match) (*syncCounters, []IngestOutcome, error) {
	workerCount := normalizeSyncWorkerCount(s.cfg.MaxWorkers, len(items))

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	counters := &syncCounters{}
	outcomes := make([]IngestOutcome, len(items))

	var workers sync.WaitGroup
	for i, item := range items {
		i, item := i, item
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			outcomes[i] = s.saveMatchTree(ctx, item, counters)
		}); err != nil {
			workers.Done()
			return nil, nil, fmt.Errorf("submit match to worker pool: %w", err)
		}
	}
	workers.Wait()

	return counters, outcomes, nil
}

// saveMatchTree upserts one match and then its related rows. Prediction
// and odds saves target separate tables, so they run as a joined pair.
// A failed related row is counted and logged, never fatal, so one bad
// provider entry cannot sink the rest of the page.
func (s *SyncService) saveMatchTree(ctx context.Context, item match.Match, counters *syncCounters) IngestOutcome {
	matchID, created, err := s.store.SaveMatch(ctx, item)
	if err != nil {
		counters.failed.Add(1)
		s.logger.WarnContext(ctx, "save match failed", "source_id", item.SourceID, "error", err)
		return IngestOutcome{SourceID: item.SourceID, Outcome: IngestOutcomeFailed, Error: err.Error()}
	}
	outcome := IngestOutcome{SourceID: item.SourceID, MatchID: matchID, Outcome: IngestOutcomeUpdated}
	if created {
		outcome.Outcome = IngestOutcomeCreated
		counters.created.Add(1)
	} else {
		counters.updated.Add(1)
	}

	var related conc.WaitGroup
	related.Go(func() {
		for _, pred := range item.Predictions {
			if _, _, err := s.store.SaveAIPrediction(ctx, matchID, pred); err != nil {
				counters.failed.Add(1)
				s.logger.WarnContext(ctx, "save prediction failed", "match_id", matchID, "source_id", pred.SourceID, "error", err)
				continue
			}
			counters.predictions.Add(1)
		}
	})
	related.Go(func() {
		for _, line := range item.Odds {
			if _, _, err := s.store.SaveBettingOdds(ctx, matchID, line); err != nil {
				counters.failed.Add(1)
				s.logger.WarnContext(ctx, "save odds failed", "match_id", matchID, "provider", line.Provider, "error", err)
				continue
			}
			counters.odds.Add(1)
		}
	})
	related.Wait()

	return outcome
}

func (s *SyncService) markSynced(ctx context.Context) {
	if s.dataSourceRepo == nil {
		return
	}
	if err := s.dataSourceRepo.TouchLastSync(ctx, s.cfg.SourceType, time.Now().UTC()); err != nil {
		s.logger.WarnContext(ctx, "record data source sync time failed", "source_type", s.cfg.SourceType, "error", err)
	}
}

func normalizeSyncWorkerCount(value int, taskCount int) int {
	if taskCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 4
	}
	if value > 16 {
		value = 16
	}
	if value > taskCount {
		value = taskCount
	}
	return value
}
