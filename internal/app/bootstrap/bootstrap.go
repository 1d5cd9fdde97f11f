package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	proposalengine "arcane/contexts/governance/proposal-engine"
	"arcane/contexts/governance/proposal-engine/adapters/gateway"
	"arcane/contexts/governance/proposal-engine/adapters/metadata"
	postgresadapter "arcane/contexts/governance/proposal-engine/adapters/postgres"
	"arcane/contexts/governance/proposal-engine/application/commands"
	"arcane/contexts/governance/proposal-engine/domain/entities"
	domainerrors "arcane/contexts/governance/proposal-engine/domain/errors"
	"arcane/contexts/governance/proposal-engine/ports"
	"arcane/internal/platform/config"
	"arcane/internal/platform/db"
	"arcane/internal/platform/httpserver"
	"arcane/internal/platform/messaging"

	"github.com/redis/go-redis/v9"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	redis    *redis.Client
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	redis         *redis.Client
	module        proposalengine.Module
	closeInterval time.Duration
	enableCloser  bool
	enableRelay   bool
	logger        *slog.Logger
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := processLogger(cfg, "api")
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	pg, module, cache, err := buildModule(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := seedAdmins(ctx, module, cfg.AdminWallets, logger); err != nil {
		_ = closeAll(pg, cache)
		return nil, err
	}

	tokens := httpserver.HS256Tokens{Secret: []byte(cfg.JWTSecret)}
	server := httpserver.New(module, tokens, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		redis:    cache,
		logger:   logger,
	}, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := processLogger(cfg, "worker")

	pg, module, cache, err := buildModule(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &WorkerApp{
		postgres:      pg,
		redis:         cache,
		module:        module,
		closeInterval: cfg.EpochCloseInterval,
		enableCloser:  cfg.EnableEpochCloser,
		enableRelay:   cfg.EnableOutboxRelay,
		logger:        logger,
	}, nil
}

// buildModule wires the postgres-backed governance module shared by both
// processes.
func buildModule(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
) (*db.Postgres, proposalengine.Module, *redis.Client, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, proposalengine.Module{}, nil, errors.New("POSTGRES_DSN is required")
	}
	pg, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, proposalengine.Module{}, nil, err
	}
	if cfg.AutoMigrate {
		if err := postgresadapter.Migrate(ctx, pg.DB); err != nil {
			_ = pg.Close()
			return nil, proposalengine.Module{}, nil, err
		}
	}

	cache, err := connectRedis(ctx, cfg.RedisURL)
	if err != nil {
		_ = pg.Close()
		return nil, proposalengine.Module{}, nil, err
	}

	var resolver ports.MetadataResolver = metadata.IPFSResolver{
		BaseURL: cfg.IPFSGatewayURL,
		APIKey:  cfg.IPFSAPIKey,
		Logger:  logger,
	}
	if cache != nil {
		resolver = metadata.CachedResolver{
			Next:   resolver,
			Redis:  cache,
			TTL:    cfg.MetadataCacheTTL,
			Logger: logger,
		}
	}

	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = closeAll(pg, cache)
		return nil, proposalengine.Module{}, nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := proposalengine.NewModule(proposalengine.Dependencies{
		UnitOfWork: repo,
		Proposals:  repo,
		Addresses:  repo,
		Metadata:   resolver,
		Epochs:     gateway.Client{BaseURL: cfg.LedgerGatewayURL},
		Outbox:     repo,
		Publisher:  bus,
		Clock:      repo,
		IDGen:      repo,
		CloseBatch: cfg.EpochCloseBatch,
		Logger:     logger,
	})
	return pg, module, cache, nil
}

// connectRedis returns nil when no URL is configured; the metadata cache is
// optional.
func connectRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	if rawURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// seedAdmins registers each configured wallet as admin, promoting it when it
// already exists as a member.
func seedAdmins(ctx context.Context, module proposalengine.Module, wallets []string, logger *slog.Logger) error {
	lifecycle := module.Handler.Lifecycle
	for _, wallet := range wallets {
		address, err := lifecycle.RegisterAddress(ctx, commands.RegisterAddressCommand{
			WalletAddress: wallet,
			Role:          string(entities.RoleAdmin),
		})
		if err == nil {
			logger.Info("admin address seeded",
				"event", "bootstrap_admin_seeded",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"address_id", address.AddressID,
			)
			continue
		}
		if !errors.Is(err, domainerrors.ErrAddressAlreadyRegistered) {
			return fmt.Errorf("seed admin %s: %w", wallet, err)
		}
		existing, err := module.Handler.Addresses.GetAddressByWallet(ctx, wallet)
		if err != nil {
			return fmt.Errorf("load admin %s: %w", wallet, err)
		}
		if existing.IsAdmin() {
			continue
		}
		if _, err := lifecycle.ChangeAddressRole(ctx, commands.ChangeAddressRoleCommand{
			AddressID: existing.AddressID,
			Role:      string(entities.RoleAdmin),
		}); err != nil {
			return fmt.Errorf("promote admin %s: %w", wallet, err)
		}
	}
	return nil
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return a.server.Start(ctx)
}

func (a *APIApp) Close() error {
	return closeAll(a.postgres, a.redis)
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.closeInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.closeInterval.String(),
		"epoch_closer", w.enableCloser,
		"outbox_relay", w.enableRelay,
	)

	for {
		w.runCycle(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// runCycle logs and keeps going on failure; the next tick retries. Both
// workers already log with domain attributes.
func (w *WorkerApp) runCycle(ctx context.Context) {
	if w.enableCloser {
		if _, err := w.module.EpochCloser.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.Warn("epoch close cycle failed",
				"event", "bootstrap_epoch_close_cycle_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	}
	if w.enableRelay {
		if _, err := w.module.OutboxRelay.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.Warn("outbox relay cycle failed",
				"event", "bootstrap_outbox_relay_cycle_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	}
}

func (w *WorkerApp) Close() error {
	return closeAll(w.postgres, w.redis)
}

func closeAll(pg *db.Postgres, cache *redis.Client) error {
	var errs []error
	if pg != nil {
		errs = append(errs, pg.Close())
	}
	if cache != nil {
		errs = append(errs, cache.Close())
	}
	return errors.Join(errs...)
}

func processLogger(cfg config.Config, process string) *slog.Logger {
	if cfg.LogFormat == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}
	return slog.Default().With("service", cfg.ServiceName, "process", process)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
