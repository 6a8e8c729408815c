// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/vigil/internal/api"
	"github.com/tomtom215/vigil/internal/audit"
	"github.com/tomtom215/vigil/internal/auth"
	"github.com/tomtom215/vigil/internal/authz"
	"github.com/tomtom215/vigil/internal/config"
	"github.com/tomtom215/vigil/internal/database"
	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/middleware"
	"github.com/tomtom215/vigil/internal/supervisor"
	"github.com/tomtom215/vigil/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("audit_store", cfg.Audit.Store).
		Bool("ingest_enabled", cfg.NATS.Enabled).
		Msg("Starting Vigil")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	directory := cfg.DirectoryOrDefault(forensics.DefaultDirectory())

	// === DATABASE ===
	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if cfg.Database.SeedFixtures {
		gen := forensics.NewFixtureGenerator(cfg.Database.FixtureSeed, directory, time.Now())
		n, err := db.SeedFixtures(ctx, gen, cfg.Database.FixtureCount)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed fixtures")
		}
		logging.Info().Int("count", n).Msg("Fixture violations seeded (SEED_FIXTURES=true)")
		if cfg.IsProduction() {
			logging.Warn().Msg("Fixture seeding is enabled in production")
		}
	}

	// === AUDIT TRAIL ===
	auditStore, err := openAuditStore(&cfg.Audit)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open audit store")
	}
	defer func() {
		if err := auditStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing audit store")
		}
	}()

	auditConfig := audit.DefaultConfig()
	auditConfig.Retention = cfg.Audit.Retention
	auditLogger := audit.NewLogger(auditStore, auditConfig)
	defer func() {
		if err := auditLogger.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing audit logger")
		}
	}()

	// === AUTHENTICATION ===
	authMode, err := auth.ParseAuthMode(cfg.Security.AuthMode)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid authentication mode")
	}

	var jwtManager *auth.JWTManager
	var credentials *auth.CredentialStore
	lockout := auth.NewLockoutManager(auth.DefaultLockoutConfig())

	switch authMode {
	case auth.AuthModeJWT:
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		credentials, err = newCredentialStore(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize credentials")
		}
		logging.Info().Int("accounts", credentials.Len()).Msg("JWT authentication enabled")
	case auth.AuthModeNone:
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  Every request acts as a local investigator and can reveal")
		logging.Warn().Msg("  unredacted evidence. Use only for local development.")
		logging.Warn().Msg("============================================================")
	}

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS_ORIGINS=* with authentication enabled lets any site call the API")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	// === AUTHORIZATION ===
	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}
	defer enforcer.Close()

	// === ENGINE AND HTTP ===
	engine := forensics.New(db, forensics.Config{
		PageSize:      cfg.API.PageSize,
		MaxPageSize:   cfg.API.MaxPageSize,
		ExportMaxRows: cfg.API.ExportMaxRows,
		Directory:     directory,
		Authorizer:    enforcer,
		Recorder:      auditLogger,
	})

	monitor := middleware.NewMonitor(1000, time.Second)
	handler := api.NewHandler(api.HandlerDeps{
		Engine:      engine,
		Audit:       auditLogger,
		JWT:         jwtManager,
		Credentials: credentials,
		Lockout:     lockout,
		Enforcer:    enforcer,
		Monitor:     monitor,
		AuthMode:    authMode,
		Version:     version,
		HealthChecks: map[string]api.HealthCheck{
			"database": db.Ping,
		},
	})

	authn := auth.NewMiddleware(jwtManager, authMode)
	authn.SetFailureObserver(auditLogger)

	chiConfig := api.DefaultChiMiddlewareConfig()
	chiConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
	chiConfig.RateLimitRequests = cfg.Security.RateLimitReqs
	chiConfig.RateLimitWindow = cfg.Security.RateLimitWindow
	chiConfig.RateLimitDisabled = cfg.Security.RateLimitDisabled

	router := api.NewRouter(handler, authn, authz.NewMiddleware(enforcer), api.NewChiMiddleware(chiConfig), monitor)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	// === SUPERVISOR TREE ===
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Audit.Retention > 0 {
		retention := cfg.Audit.Retention
		tree.AddMaintenanceService(services.NewPeriodicService("audit-retention", auditConfig.CleanupInterval,
			func(ctx context.Context) { auditLogger.Cleanup(ctx, retention) }))
	}
	tree.AddMaintenanceService(services.NewPeriodicService("lockout-prune", time.Hour,
		func(context.Context) { lockout.Prune() }))

	closeIngest, err := initIngest(ctx, cfg, db, tree)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize violation ingest")
	}
	defer closeIngest()

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Vigil stopped gracefully")
}

// openAuditStore opens the configured evidence access trail backend.
func openAuditStore(cfg *config.AuditConfig) (audit.Store, error) {
	if cfg.Store == "memory" {
		logging.Warn().Msg("Audit store is in memory; the access trail is lost on restart")
		return audit.NewMemoryStore(100000), nil
	}
	store, err := audit.OpenBadgerStore(audit.BadgerConfig{
		Path:       cfg.Path,
		Retention:  cfg.Retention,
		SyncWrites: true,
	})
	if err != nil {
		return nil, err
	}
	logging.Info().Str("path", cfg.Path).Msg("Audit trail persisted to BadgerDB")
	return store, nil
}

// newCredentialStore registers the configured admin account for the
// development login.
func newCredentialStore(cfg *config.SecurityConfig) (*auth.CredentialStore, error) {
	store, err := auth.NewCredentialStore()
	if err != nil {
		return nil, err
	}
	if cfg.AdminUsername == "" {
		return store, nil
	}
	err = store.AddUser(auth.User{
		ID:          "local:" + cfg.AdminUsername,
		Username:    cfg.AdminUsername,
		DisplayName: cfg.AdminUsername,
		Role:        cfg.AdminRole,
	}, cfg.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("register admin account: %w", err)
	}
	return store, nil
}
