// Package main provides the flagship feature flag evaluation service.
//
// Application Startup Flow:
//
//  1. Load configuration from environment variables (config.Load)
//  2. Initialize Prometheus metrics registry (telemetry.Init)
//  3. Hash the two configured audience keys and build the authenticator
//  4. Create the definition store - Postgres or in-memory - wiring audit,
//     webhook, and snapshot-invalidation hooks into one store.MultiHooks
//     value. The postgres branch owns its pool so the audit sink can write
//     through it directly instead of to the log.
//  5. Build the per-tenant snapshot cache and the evaluation facade
//  6. Start the API server (evaluation + management surfaces)
//  7. Start the metrics/pprof server (for observability)
//  8. Wait for SIGINT/SIGTERM for graceful shutdown
//  9. Shutdown: close connections, drain the audit queue, stop the webhook
//     dispatcher
//
// The server runs two HTTP servers concurrently:
//   - API server: client-facing REST API (evaluation + management)
//   - Metrics server: Prometheus metrics and pprof profiling (internal use)
package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TimurManjosov/goflagship/internal/api"
	"github.com/TimurManjosov/goflagship/internal/audit"
	"github.com/TimurManjosov/goflagship/internal/auth"
	"github.com/TimurManjosov/goflagship/internal/config"
	mydb "github.com/TimurManjosov/goflagship/internal/db"
	"github.com/TimurManjosov/goflagship/internal/eval"
	"github.com/TimurManjosov/goflagship/internal/flags"
	"github.com/TimurManjosov/goflagship/internal/snapshot"
	"github.com/TimurManjosov/goflagship/internal/store"
	"github.com/TimurManjosov/goflagship/internal/telemetry"
	"github.com/TimurManjosov/goflagship/internal/tenant"
	"github.com/TimurManjosov/goflagship/internal/webhook"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config: failed to load")
	}
	if cfg.AppEnv != "prod" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	telemetry.Init()

	mgmtHash, err := auth.HashAPIKey(cfg.ManagementAPIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash management API key")
	}
	evalHash, err := auth.HashAPIKey(cfg.EvalAPIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash evaluation API key")
	}
	authenticator := auth.NewAuthenticator(mgmtHash, evalHash)

	ctx := context.Background()

	var webhookDisp *webhook.Dispatcher
	var webhookHook store.Hooks = noopHooks{}
	if cfg.WebhookURL != "" {
		webhookDisp = webhook.NewDispatcher([]webhook.Endpoint{{
			URL:            cfg.WebhookURL,
			Secret:         cfg.WebhookSecret,
			MaxRetries:     cfg.WebhookMaxRetries,
			TimeoutSeconds: cfg.WebhookTimeoutSeconds,
		}})
		webhookDisp.Start()
		webhookHook = webhook.NewStoreHook(webhookDisp)
	}

	// The postgres branch builds a pool of its own for the audit sink; it is
	// separate from the pool store.NewStore opens below for the definition
	// store. The memory branch has no database, so its audit trail goes to
	// the structured logger instead.
	poolCfg := mydb.PoolConfig{
		MaxConns:          cfg.DBPoolMaxConns,
		MinConns:          cfg.DBPoolMinConns,
		HealthCheckPeriod: cfg.DBPoolHealthCheckPeriod,
	}

	var auditSink audit.AuditSink
	switch cfg.StoreType {
	case "postgres":
		pool, err := mydb.NewPool(ctx, cfg.DatabaseDSN, poolCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create postgres pool")
		}
		defer pool.Close()
		auditSink = audit.NewPostgresSink(pool)
	case "memory":
		auditSink = audit.NewLogSink()
	default:
		log.Fatal().Str("store_type", cfg.StoreType).Msg("unsupported store type: must be 'memory' or 'postgres'")
	}

	auditSvc := audit.NewService(auditSink, audit.SystemClock{}, audit.UUIDGenerator{}, audit.NewDefaultRedactor(), cfg.AuditQueueSize)
	auditHook := audit.NewStoreHook(auditSvc)

	cache := &lateCache{}
	st, err := store.NewStore(ctx, cfg.StoreType, cfg.DatabaseDSN, poolCfg, store.MultiHooks{auditHook, webhookHook, cache})
	if err != nil {
		log.Fatal().Err(err).Str("store_type", cfg.StoreType).Msg("failed to initialize store")
	}
	defer st.Close()

	snapCache := snapshot.New(st, cfg.SnapshotTTL)
	cache.set(snapshot.NewInvalidatingHook(snapCache))

	evalFacade := eval.New(snapCache)

	apiSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.NewServer(st, evalFacade, snapCache, authenticator, cfg.RateLimitPerIP, cfg.RateLimitPerKey, cfg.RateLimitManagementPerKey).Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("api server listening")
		if err := apiSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("api server")
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/debug/pprof/", http.DefaultServeMux.ServeHTTP)

	metricsSrv := &http.Server{
		Addr:         cfg.MetricsAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("metrics server")
		}
	}()

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownSignal

	log.Info().Msg("shutdown signal received, stopping servers")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during API server shutdown")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during metrics server shutdown")
	}
	if err := auditSvc.Close(); err != nil {
		log.Error().Err(err).Msg("error draining audit queue")
	}
	if webhookDisp != nil {
		if err := webhookDisp.Close(); err != nil {
			log.Error().Err(err).Msg("error stopping webhook dispatcher")
		}
	}

	log.Info().Msg("servers stopped successfully")
}

// lateCache defers construction of the snapshot-invalidating hook until
// the store (which the cache itself wraps) exists, while still letting it
// be passed into store.NewStore's hooks argument up front.
type lateCache struct {
	hook store.Hooks
}

func (c *lateCache) set(h store.Hooks) { c.hook = h }

func (c *lateCache) OnMutation(key tenant.Key, op string, before, after *flags.Definition) {
	if c.hook != nil {
		c.hook.OnMutation(key, op, before, after)
	}
}

func (c *lateCache) OnSegmentMutation(key tenant.Key, op string, id string, deleted bool) {
	if c.hook != nil {
		c.hook.OnSegmentMutation(key, op, id, deleted)
	}
}

// noopHooks is used in place of the webhook hook when no webhook endpoint
// is configured.
type noopHooks struct{}

func (noopHooks) OnMutation(tenant.Key, string, *flags.Definition, *flags.Definition) {}
func (noopHooks) OnSegmentMutation(tenant.Key, string, string, bool)                  {}
