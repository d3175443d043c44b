package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_BetterStackRequiresEndpointWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("BETTERSTACK_ENABLED", "true")
	t.Setenv("BETTERSTACK_ENDPOINT", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when BETTERSTACK_ENABLED=true without BETTERSTACK_ENDPOINT")
	}
}

func TestLoad_BetterStackConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("BETTERSTACK_ENABLED", "true")
	t.Setenv("BETTERSTACK_ENDPOINT", "s1765114.eu-fsn-3.betterstackdata.com")
	t.Setenv("BETTERSTACK_TOKEN", "token-123")
	t.Setenv("BETTERSTACK_TIMEOUT", "4s")
	t.Setenv("BETTERSTACK_MIN_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.BetterStackEnabled {
		t.Fatalf("expected BetterStackEnabled=true")
	}
	if cfg.BetterStackEndpoint != "s1765114.eu-fsn-3.betterstackdata.com" {
		t.Fatalf("unexpected BetterStackEndpoint: %q", cfg.BetterStackEndpoint)
	}
	if cfg.BetterStackToken != "token-123" {
		t.Fatalf("unexpected BetterStackToken")
	}
	if cfg.BetterStackTimeout != 4*time.Second {
		t.Fatalf("unexpected BetterStackTimeout: %s", cfg.BetterStackTimeout)
	}
	if cfg.BetterStackMinLevel.String() != "warn" {
		t.Fatalf("unexpected BetterStackMinLevel: %s", cfg.BetterStackMinLevel.String())
	}
}

func TestLoad_DefaultsByEnv(t *testing.T) {
	t.Run("prod disables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvProd)
		t.Setenv("UPTRACE_ENABLED", "false")
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=false in prod by default")
		}
	})

	t.Run("dev enables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDev)
		t.Setenv("UPTRACE_ENABLED", "false")
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=true in dev by default")
		}
	})
}

func TestLoad_HTTPAddrResolution(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default", func(t *testing.T) {
		t.Setenv("APP_HTTP_ADDR", "")
		t.Setenv("PORT", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.HTTPAddr != ":8080" {
			t.Fatalf("unexpected default http addr: %q", cfg.HTTPAddr)
		}
	})

	t.Run("platform port fallback", func(t *testing.T) {
		t.Setenv("APP_HTTP_ADDR", "")
		t.Setenv("PORT", "9090")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.HTTPAddr != ":9090" {
			t.Fatalf("unexpected http addr from PORT: %q", cfg.HTTPAddr)
		}
	})

	t.Run("explicit addr wins over port", func(t *testing.T) {
		t.Setenv("APP_HTTP_ADDR", "127.0.0.1:8085")
		t.Setenv("PORT", "9090")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.HTTPAddr != "127.0.0.1:8085" {
			t.Fatalf("unexpected http addr: %q", cfg.HTTPAddr)
		}
	})
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_SERVICE_NAME", "esports-sync-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "esports-sync-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[0] != "https://a.example.com" {
			t.Fatalf("unexpected first CORS origin: %s", cfg.CORSAllowedOrigins[0])
		}
		if cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
			t.Fatalf("unexpected second CORS origin: %s", cfg.CORSAllowedOrigins[1])
		}
	})
}

func TestLoad_DBConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("pool defaults", func(t *testing.T) {
		t.Setenv("DB_MAX_OPEN_CONNS", "")
		t.Setenv("DB_MAX_IDLE_CONNS", "")
		t.Setenv("DB_CONN_MAX_LIFETIME_SECONDS", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.DBMaxOpenConns != 10 {
			t.Fatalf("unexpected DBMaxOpenConns: %d", cfg.DBMaxOpenConns)
		}
		if cfg.DBMaxIdleConns != 5 {
			t.Fatalf("unexpected DBMaxIdleConns: %d", cfg.DBMaxIdleConns)
		}
		if cfg.DBConnMaxLifetime != 30*time.Minute {
			t.Fatalf("unexpected DBConnMaxLifetime: %s", cfg.DBConnMaxLifetime)
		}
	})

	t.Run("prepared binary default true", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.DBDisablePreparedBinary {
			t.Fatalf("expected DBDisablePreparedBinary=true by default")
		}
	})

	t.Run("invalid prepared binary value", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "not-bool")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid DB_DISABLE_PREPARED_BINARY_RESULT")
		}
	})

	t.Run("invalid pool size", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")
		t.Setenv("DB_MAX_OPEN_CONNS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for DB_MAX_OPEN_CONNS=0")
		}
	})
}

func TestLoad_CacheConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("CACHE_ENABLED", "")
		t.Setenv("CACHE_TTL", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.CacheEnabled {
			t.Fatalf("expected cache enabled by default")
		}
		if cfg.CacheTTL != 60*time.Second {
			t.Fatalf("unexpected default cache ttl: %s", cfg.CacheTTL)
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid CACHE_TTL")
		}
	})
}

func TestLoad_BO3ConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("BO3_BASE_URL", "")
		t.Setenv("BO3_TIMEOUT_SECONDS", "")
		t.Setenv("BO3_MAX_RETRIES", "")
		t.Setenv("BO3_RATE_LIMIT_DELAY_MS", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.BO3BaseURL != "https://api.bo3.gg/api/v1" {
			t.Fatalf("unexpected BO3BaseURL: %q", cfg.BO3BaseURL)
		}
		if cfg.BO3Timeout != 20*time.Second {
			t.Fatalf("unexpected BO3Timeout: %s", cfg.BO3Timeout)
		}
		if cfg.BO3MaxRetries != 3 {
			t.Fatalf("unexpected BO3MaxRetries: %d", cfg.BO3MaxRetries)
		}
		if cfg.BO3RateLimitDelay != 500*time.Millisecond {
			t.Fatalf("unexpected BO3RateLimitDelay: %s", cfg.BO3RateLimitDelay)
		}
		if !cfg.BO3CircuitEnabled {
			t.Fatalf("expected BO3CircuitEnabled=true by default")
		}
	})

	t.Run("invalid timeout", func(t *testing.T) {
		t.Setenv("BO3_TIMEOUT_SECONDS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for BO3_TIMEOUT_SECONDS=0")
		}
	})
}

func TestLoad_SyncConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("SYNC_ENABLED", "")
		t.Setenv("SYNC_DAYS_AHEAD", "")
		t.Setenv("SYNC_RESULTS_DAYS_BACK", "")
		t.Setenv("SYNC_WORKER_COUNT", "")
		t.Setenv("SYNC_TIERS", "")
		t.Setenv("SYNC_TOURNAMENT_IDS", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.SyncEnabled {
			t.Fatalf("expected SyncEnabled=true by default")
		}
		if cfg.SyncDaysAhead != 7 {
			t.Fatalf("unexpected SyncDaysAhead: %d", cfg.SyncDaysAhead)
		}
		if cfg.SyncResultsDaysBack != 2 {
			t.Fatalf("unexpected SyncResultsDaysBack: %d", cfg.SyncResultsDaysBack)
		}
		if cfg.SyncWorkerCount != 4 {
			t.Fatalf("unexpected SyncWorkerCount: %d", cfg.SyncWorkerCount)
		}
		if len(cfg.SyncTiers) != 2 || cfg.SyncTiers[0] != "s" || cfg.SyncTiers[1] != "a" {
			t.Fatalf("unexpected SyncTiers: %+v", cfg.SyncTiers)
		}
		if len(cfg.SyncTournamentIDs) != 0 {
			t.Fatalf("expected no tournament filter by default, got %+v", cfg.SyncTournamentIDs)
		}
		if cfg.SyncUpcomingInterval != 30*time.Minute {
			t.Fatalf("unexpected SyncUpcomingInterval: %s", cfg.SyncUpcomingInterval)
		}
		if cfg.SyncResultsInterval != 10*time.Minute {
			t.Fatalf("unexpected SyncResultsInterval: %s", cfg.SyncResultsInterval)
		}
	})

	t.Run("tiers are lowercased", func(t *testing.T) {
		t.Setenv("SYNC_TIERS", " S, A ,b")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.SyncTiers) != 3 || cfg.SyncTiers[0] != "s" || cfg.SyncTiers[2] != "b" {
			t.Fatalf("unexpected SyncTiers: %+v", cfg.SyncTiers)
		}
	})

	t.Run("tournament id parsing", func(t *testing.T) {
		t.Setenv("SYNC_TIERS", "")
		t.Setenv("SYNC_TOURNAMENT_IDS", " 3578, 3600 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.SyncTournamentIDs) != 2 || cfg.SyncTournamentIDs[0] != 3578 || cfg.SyncTournamentIDs[1] != 3600 {
			t.Fatalf("unexpected SyncTournamentIDs: %+v", cfg.SyncTournamentIDs)
		}
	})

	t.Run("invalid tournament id", func(t *testing.T) {
		t.Setenv("SYNC_TOURNAMENT_IDS", "3578,abc")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for non-numeric SYNC_TOURNAMENT_IDS item")
		}
	})

	t.Run("invalid days ahead", func(t *testing.T) {
		t.Setenv("SYNC_TOURNAMENT_IDS", "")
		t.Setenv("SYNC_DAYS_AHEAD", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for SYNC_DAYS_AHEAD=0")
		}
	})
}

func TestLoad_QStashConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("disabled by default", func(t *testing.T) {
		t.Setenv("QSTASH_ENABLED", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.QStashEnabled {
			t.Fatalf("expected QStashEnabled=false by default")
		}
	})

	t.Run("enabled requires token and target and internal token", func(t *testing.T) {
		t.Setenv("QSTASH_ENABLED", "true")
		t.Setenv("QSTASH_TOKEN", "")
		t.Setenv("QSTASH_TARGET_BASE_URL", "")
		t.Setenv("INTERNAL_JOB_TOKEN", "")

		if _, err := Load(); err == nil {
			t.Fatalf("expected error when QSTASH_ENABLED=true without required env")
		}
	})

	t.Run("enabled with required values", func(t *testing.T) {
		t.Setenv("QSTASH_ENABLED", "true")
		t.Setenv("QSTASH_TOKEN", "qstash-token")
		t.Setenv("QSTASH_TARGET_BASE_URL", "https://esports-sync.fly.dev")
		t.Setenv("INTERNAL_JOB_TOKEN", "internal-job-token")
		t.Setenv("QSTASH_RETRIES", "2")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.QStashEnabled {
			t.Fatalf("expected QStashEnabled=true")
		}
		if cfg.QStashRetries != 2 {
			t.Fatalf("unexpected qstash retries: %d", cfg.QStashRetries)
		}
		if cfg.InternalJobToken != "internal-job-token" {
			t.Fatalf("unexpected internal job token: %q", cfg.InternalJobToken)
		}
	})
}
