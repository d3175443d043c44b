package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/fadhlirmn/esports-sync/external/bo3gg"
	"github.com/fadhlirmn/esports-sync/internal/config"
	"github.com/fadhlirmn/esports-sync/internal/domain/datasource"
	"github.com/fadhlirmn/esports-sync/internal/domain/match"
	"github.com/fadhlirmn/esports-sync/internal/domain/odds"
	"github.com/fadhlirmn/esports-sync/internal/domain/prediction"
	cacherepo "github.com/fadhlirmn/esports-sync/internal/infrastructure/repository/cache"
	"github.com/fadhlirmn/esports-sync/internal/infrastructure/repository/postgres"
	"github.com/fadhlirmn/esports-sync/internal/interfaces/httpapi"
	"github.com/fadhlirmn/esports-sync/internal/mutation"
	basecache "github.com/fadhlirmn/esports-sync/internal/platform/cache"
	"github.com/fadhlirmn/esports-sync/internal/platform/logging"
	"github.com/fadhlirmn/esports-sync/internal/platform/resilience"
	"github.com/fadhlirmn/esports-sync/internal/usecase"
)

// NewHTTPServer wires the persistence, provider, and service layers into
// a ready-to-listen server. The returned cleanup closes the database pool
// and must run after the server has shut down.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}

	var (
		store          usecase.Store         = postgres.NewStore(db)
		matchRepo      match.Repository      = postgres.NewMatchRepository(db)
		predictionRepo prediction.Repository = postgres.NewPredictionRepository(db)
		oddsRepo       odds.Repository       = postgres.NewOddsRepository(db)
		dataSourceRepo datasource.Repository = postgres.NewDataSourceRepository(db)
	)
	teamRepo := postgres.NewTeamRepository(db)
	tournamentRepo := postgres.NewTournamentRepository(db)
	rawDataRepo := postgres.NewRawDataRepository(db)
	jobDispatchRepo := postgres.NewJobDispatchRepository(db)

	if cfg.CacheEnabled {
		cacheStore := basecache.NewStore(cfg.CacheTTL)
		matchRepo = cacherepo.NewMatchRepository(matchRepo, cacheStore)
		predictionRepo = cacherepo.NewPredictionRepository(predictionRepo, cacheStore)
		oddsRepo = cacherepo.NewOddsRepository(oddsRepo, cacheStore)
		dataSourceRepo = cacherepo.NewDataSourceRepository(dataSourceRepo, cacheStore)
		store = cacherepo.NewStore(store, cacheStore)
	}

	storeService := usecase.NewStoreService(store, mutation.NewRegistry(), matchRepo, teamRepo, tournamentRepo, predictionRepo, oddsRepo, rawDataRepo)

	provider := bo3gg.NewClient(bo3gg.ClientConfig{
		BaseURL:        cfg.BO3BaseURL,
		Timeout:        cfg.BO3Timeout,
		MaxRetries:     cfg.BO3MaxRetries,
		RateLimitDelay: cfg.BO3RateLimitDelay,
		Logger:         logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.BO3CircuitEnabled,
			FailureThreshold: cfg.BO3CircuitFailureCount,
			OpenTimeout:      cfg.BO3CircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.BO3CircuitHalfOpenMaxReq,
		},
		SyncTiers:         cfg.SyncTiers,
		SyncTournamentIDs: cfg.SyncTournamentIDs,
	})

	syncService := usecase.NewSyncService(provider, storeService, dataSourceRepo, usecase.MatchSyncConfig{
		Enabled:         cfg.SyncEnabled,
		SourceType:      mutation.SourceBO3,
		DaysAhead:       cfg.SyncDaysAhead,
		ResultsDaysBack: cfg.SyncResultsDaysBack,
		MaxWorkers:      cfg.SyncWorkerCount,
	}, logger)

	handler := httpapi.NewHandler(storeService, syncService, dataSourceRepo, jobDispatchRepo, bo3gg.ParseMatch, logger)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		_ = db.Close()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, db.Close, nil
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Connect("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	return db, nil
}
