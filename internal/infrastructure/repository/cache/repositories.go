package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/fadhlirmn/esports-sync/internal/domain/datasource"
	"github.com/fadhlirmn/esports-sync/internal/domain/match"
	"github.com/fadhlirmn/esports-sync/internal/domain/odds"
	"github.com/fadhlirmn/esports-sync/internal/domain/prediction"
	"github.com/fadhlirmn/esports-sync/internal/mutation"
	basecache "github.com/fadhlirmn/esports-sync/internal/platform/cache"
	"github.com/fadhlirmn/esports-sync/internal/usecase"
)

type MatchRepository struct {
	next  match.Repository
	cache *basecache.Store
}

func NewMatchRepository(next match.Repository, cache *basecache.Store) *MatchRepository {
	return &MatchRepository{next: next, cache: cache}
}

func (r *MatchRepository) GetByID(ctx context.Context, id int64) (match.Match, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, matchByIDKey(id), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return cachedMatchLookup{value: cloneMatch(item), exists: exists}, nil
	})
	if err != nil {
		return match.Match{}, false, err
	}

	cached, _ := v.(cachedMatchLookup)
	return cloneMatch(cached.value), cached.exists, nil
}

func (r *MatchRepository) GetBySource(ctx context.Context, sourceType string, sourceID int64) (match.Match, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, matchBySourceKey(sourceType, sourceID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetBySource(ctx, sourceType, sourceID)
		if err != nil {
			return nil, err
		}
		return cachedMatchLookup{value: cloneMatch(item), exists: exists}, nil
	})
	if err != nil {
		return match.Match{}, false, err
	}

	cached, _ := v.(cachedMatchLookup)
	return cloneMatch(cached.value), cached.exists, nil
}

func (r *MatchRepository) List(ctx context.Context, filter match.ListFilter) ([]match.Match, error) {
	v, err := r.cache.GetOrLoad(ctx, matchListKey(filter), func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		out := make([]match.Match, 0, len(items))
		for _, item := range items {
			out = append(out, cloneMatch(item))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]match.Match)
	out := make([]match.Match, 0, len(items))
	for _, item := range items {
		out = append(out, cloneMatch(item))
	}
	return out, nil
}

type cachedMatchLookup struct {
	value  match.Match
	exists bool
}

func cloneMatch(item match.Match) match.Match {
	out := item
	out.Predictions = append([]prediction.AIPrediction(nil), item.Predictions...)
	out.Odds = append([]odds.BettingOdds(nil), item.Odds...)
	return out
}

type PredictionRepository struct {
	next  prediction.Repository
	cache *basecache.Store
}

func NewPredictionRepository(next prediction.Repository, cache *basecache.Store) *PredictionRepository {
	return &PredictionRepository{next: next, cache: cache}
}

func (r *PredictionRepository) ListByMatch(ctx context.Context, matchID int64) ([]prediction.AIPrediction, error) {
	v, err := r.cache.GetOrLoad(ctx, predictionByMatchKey(matchID), func(ctx context.Context) (any, error) {
		items, err := r.next.ListByMatch(ctx, matchID)
		if err != nil {
			return nil, err
		}
		return append([]prediction.AIPrediction(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]prediction.AIPrediction)
	return append([]prediction.AIPrediction(nil), items...), nil
}

type OddsRepository struct {
	next  odds.Repository
	cache *basecache.Store
}

func NewOddsRepository(next odds.Repository, cache *basecache.Store) *OddsRepository {
	return &OddsRepository{next: next, cache: cache}
}

func (r *OddsRepository) ListByMatch(ctx context.Context, matchID int64, provider *string) ([]odds.BettingOdds, error) {
	v, err := r.cache.GetOrLoad(ctx, oddsByMatchKey(matchID, provider), func(ctx context.Context) (any, error) {
		items, err := r.next.ListByMatch(ctx, matchID, provider)
		if err != nil {
			return nil, err
		}
		return append([]odds.BettingOdds(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]odds.BettingOdds)
	return append([]odds.BettingOdds(nil), items...), nil
}

type DataSourceRepository struct {
	next  datasource.Repository
	cache *basecache.Store
}

func NewDataSourceRepository(next datasource.Repository, cache *basecache.Store) *DataSourceRepository {
	return &DataSourceRepository{next: next, cache: cache}
}

func (r *DataSourceRepository) List(ctx context.Context) ([]datasource.DataSource, error) {
	v, err := r.cache.GetOrLoad(ctx, dataSourceListKey, func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]datasource.DataSource(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]datasource.DataSource)
	return append([]datasource.DataSource(nil), items...), nil
}

func (r *DataSourceRepository) GetByType(ctx context.Context, sourceType string) (datasource.DataSource, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, dataSourceByTypeKey(sourceType), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByType(ctx, sourceType)
		if err != nil {
			return nil, err
		}
		return cachedDataSourceByType{value: item, exists: exists}, nil
	})
	if err != nil {
		return datasource.DataSource{}, false, err
	}

	cached, _ := v.(cachedDataSourceByType)
	return cached.value, cached.exists, nil
}

func (r *DataSourceRepository) TouchLastSync(ctx context.Context, sourceType string, at time.Time) error {
	if err := r.next.TouchLastSync(ctx, sourceType, at); err != nil {
		return err
	}
	r.cache.Delete(ctx, dataSourceListKey)
	r.cache.Delete(ctx, dataSourceByTypeKey(sourceType))
	return nil
}

type cachedDataSourceByType struct {
	value  datasource.DataSource
	exists bool
}

// Store wraps a persistence store and drops the read-side entries a
// write makes stale.
type Store struct {
	next  usecase.Store
	cache *basecache.Store
}

func NewStore(next usecase.Store, cache *basecache.Store) *Store {
	return &Store{next: next, cache: cache}
}

func (s *Store) SaveMatch(ctx context.Context, up mutation.MatchUpsert) (int64, bool, error) {
	id, created, err := s.next.SaveMatch(ctx, up)
	if err != nil {
		return 0, false, err
	}
	s.cache.Delete(ctx, matchByIDKey(id))
	s.cache.Delete(ctx, matchBySourceKey(up.SourceType, up.SourceID))
	s.cache.DeletePrefix(ctx, matchListPrefix)
	return id, created, nil
}

func (s *Store) UpdateMatch(ctx context.Context, matchID int64, fields mutation.FieldSet) error {
	if err := s.next.UpdateMatch(ctx, matchID, fields); err != nil {
		return err
	}
	s.cache.Delete(ctx, matchByIDKey(matchID))
	s.cache.DeletePrefix(ctx, matchBySourcePrefix)
	s.cache.DeletePrefix(ctx, matchListPrefix)
	return nil
}

func (s *Store) SavePrediction(ctx context.Context, up mutation.PredictionUpsert) (int64, bool, error) {
	id, created, err := s.next.SavePrediction(ctx, up)
	if err != nil {
		return 0, false, err
	}
	s.cache.Delete(ctx, predictionByMatchKey(up.MatchID))
	s.cache.Delete(ctx, matchByIDKey(up.MatchID))
	return id, created, nil
}

func (s *Store) SaveOdds(ctx context.Context, up mutation.OddsUpsert) (int64, bool, error) {
	id, created, err := s.next.SaveOdds(ctx, up)
	if err != nil {
		return 0, false, err
	}
	s.cache.DeletePrefix(ctx, oddsByMatchPrefix(up.MatchID))
	s.cache.Delete(ctx, matchByIDKey(up.MatchID))
	return id, created, nil
}

const (
	matchBySourcePrefix = "match:source:"
	matchListPrefix     = "match:list:"
	dataSourceListKey   = "datasource:list"
)

func matchByIDKey(id int64) string {
	return "match:id:" + strconv.FormatInt(id, 10)
}

func matchBySourceKey(sourceType string, sourceID int64) string {
	return matchBySourcePrefix + sourceType + ":" + strconv.FormatInt(sourceID, 10)
}

func matchListKey(filter match.ListFilter) string {
	from, to := "", ""
	if filter.StartFrom != nil {
		from = filter.StartFrom.UTC().Format(time.RFC3339)
	}
	if filter.StartTo != nil {
		to = filter.StartTo.UTC().Format(time.RFC3339)
	}
	return matchListPrefix + filter.Status + ":" + filter.SourceType + ":" + from + ":" + to + ":" + strconv.Itoa(filter.Limit)
}

func predictionByMatchKey(matchID int64) string {
	return "prediction:match:" + strconv.FormatInt(matchID, 10)
}

func oddsByMatchPrefix(matchID int64) string {
	return "odds:match:" + strconv.FormatInt(matchID, 10) + ":"
}

func oddsByMatchKey(matchID int64, provider *string) string {
	if provider == nil {
		return oddsByMatchPrefix(matchID) + "all"
	}
	return oddsByMatchPrefix(matchID) + *provider
}

func dataSourceByTypeKey(sourceType string) string {
	return "datasource:type:" + sourceType
}
