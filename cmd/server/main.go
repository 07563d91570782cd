package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"govgate/internal/audit"
	audithandler "govgate/internal/audit/handler"
	"govgate/internal/decision"
	decisionhandler "govgate/internal/decision/handler"
	decisionmetrics "govgate/internal/decision/metrics"
	"govgate/internal/evidence"
	evidencehandler "govgate/internal/evidence/handler"
	"govgate/internal/export"
	exporthandler "govgate/internal/export/handler"
	"govgate/internal/ledger"
	ledgerhandler "govgate/internal/ledger/handler"
	ledgermetrics "govgate/internal/ledger/metrics"
	"govgate/internal/platform/config"
	"govgate/internal/platform/httpserver"
	"govgate/internal/platform/logger"
	"govgate/internal/platform/middleware"
	platformpostgres "govgate/internal/platform/postgres"
	platformredis "govgate/internal/platform/redis"
	"govgate/internal/policy"
	policyhandler "govgate/internal/policy/handler"
	"govgate/internal/tenant"
	tenanthandler "govgate/internal/tenant/handler"
	httptransport "govgate/internal/transport/http"
)

// main wires stores, services, and the HTTP surface, then runs the server
// until a shutdown signal. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	var db *sql.DB
	if cfg.Postgres.URL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			return err
		}
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
		if err := db.Ping(); err != nil {
			return err
		}
		defer db.Close()
		if err := platformpostgres.EnsureSchema(context.Background(), db); err != nil {
			return err
		}
		log.Info("postgres connected")
	} else {
		log.Warn("no postgres configured, using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis connected")
	}

	// Stores.
	var (
		policyStore   policy.Store
		auditStore    audit.Store
		evidenceStore evidence.Store
		tenantStore   tenant.Store
		ledgerStore   ledger.Store
	)
	if db != nil {
		policyStore = policy.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		evidenceStore = evidence.NewPostgresStore(db)
		tenantStore = tenant.NewPostgresStore(db)
		ledgerStore = ledger.NewPostgresStore(db)
	} else {
		policyStore = policy.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
		evidenceStore = evidence.NewInMemoryStore()
		tenantStore = tenant.NewInMemoryStore()

		fileStore, err := ledger.NewFileStore(cfg.Ledger.Path)
		if err != nil {
			return err
		}
		defer fileStore.Close()
		ledgerStore = fileStore
	}

	hmacKey := cfg.Ledger.HMACKey
	if hmacKey == "" {
		hmacKey = "dev-ledger-hmac-key"
		log.Warn("no ledger HMAC key configured, using development default")
	}
	led := ledger.New(ledgerStore, ledger.StaticSecret(hmacKey), log, ledgermetrics.New())

	var versionCache *policy.VersionCache
	if redisClient != nil {
		versionCache = policy.NewVersionCache(redisClient.Client, cfg.Redis.CacheTTL)
	}

	// Services.
	policySvc := policy.NewService(policyStore, versionCache, led, log)
	evidenceSvc := evidence.NewService(evidenceStore, log)
	auditSvc := audit.NewService(auditStore, log)
	tenantSvc := tenant.NewService(tenantStore, log)
	decisionSvc := decision.NewService(policySvc, evidenceSvc, auditStore, led, log, decisionmetrics.New())
	exportSvc := export.NewService(export.Sources{
		Audit:    auditStore,
		Policies: policyStore,
		Evidence: evidenceStore,
		Ledger:   led,
	}, log)

	validator := middleware.NewTokenValidator([]byte(cfg.Server.JWTSigningKey))
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Validator: validator,
		Version:   cfg.Server.Version,
		Handlers: []httptransport.Registrar{
			decisionhandler.New(decisionSvc, log),
			policyhandler.New(policySvc, log),
			evidencehandler.New(evidenceSvc, log),
			audithandler.New(auditSvc, log),
			exporthandler.New(exportSvc, log),
			ledgerhandler.New(led, log),
		},
		TenantGate:    tenantSvc,
		AdminKey:      cfg.Server.AdminKey,
		AdminHandlers: []httptransport.Registrar{tenanthandler.New(tenantSvc, log)},
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
