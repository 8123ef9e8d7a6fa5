// Package bootstrap arma el grafo de dependencias compartido por la API y el CLI de jobs.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	appinv "github.com/jhoicas/fluxo-estoque/internal/application/inventory"
	"github.com/jhoicas/fluxo-estoque/internal/application/jobs"
	"github.com/jhoicas/fluxo-estoque/internal/domain/repository"
	"github.com/jhoicas/fluxo-estoque/internal/infrastructure/backend"
	"github.com/jhoicas/fluxo-estoque/internal/infrastructure/postgres"
	"github.com/jhoicas/fluxo-estoque/internal/infrastructure/redislock"
	"github.com/jhoicas/fluxo-estoque/pkg/config"
	"github.com/jhoicas/fluxo-estoque/pkg/logger"
)

// Directorios de tiendas soportados (STORE_DIRECTORY).
const (
	StoreDirectoryBackend  = "backend"
	StoreDirectoryPostgres = "postgres"
)

// Components dependencias listas para usar.
type Components struct {
	Pool        *pgxpool.Pool
	FlowRepo    repository.FlowRecordRepository
	DiffRepo    repository.FlowRecordRepository
	Schedules   repository.JobScheduleRepository
	Flow        *appinv.FlowUseCase
	Consolidate *appinv.ConsolidationUseCase
	Jobs        *jobs.Service

	closers []func()
}

// Close libera conexiones en orden inverso.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Build conecta a PostgreSQL, aplica el esquema y construye casos de uso y servicio de jobs.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Components, error) {
	c := &Components{}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	c.Pool = pool
	c.closers = append(c.closers, pool.Close)

	if err := postgres.Migrate(ctx, pool); err != nil {
		c.Close()
		return nil, fmt.Errorf("aplicar esquema: %w", err)
	}

	stores, err := storeDirectory(cfg, pool, log)
	if err != nil {
		c.Close()
		return nil, err
	}

	movRepo := postgres.NewMovementRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	c.FlowRepo = postgres.NewFlowRecordRepository(pool, repository.FlowTableFluxo)
	c.DiffRepo = postgres.NewFlowRecordRepository(pool, repository.FlowTableDiferencas)
	c.Schedules = postgres.NewJobScheduleRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	opts := appinv.Options{
		Parallelism:    cfg.Jobs.Parallelism,
		LookbackDays:   cfg.Jobs.FlowLookbackDays,
		Location:       cfg.App.Location(),
		DefaultGroupID: cfg.Jobs.DefaultGroupID,
		AdvanceMaster:  cfg.Jobs.FlowAdvanceMaster,
	}
	c.Flow = appinv.NewFlowUseCase(movRepo, productRepo, stores, txRunner, log, opts)
	locker := jobLocker(ctx, cfg, log, c)
	c.Consolidate = appinv.NewConsolidationUseCase(movRepo, productRepo, c.DiffRepo, stores, txRunner, log, opts).
		WithStoreLock(locker, cfg.Redis.LockTTL)
	c.Jobs = jobs.NewService(c.Flow, c.Consolidate, locker, c.Schedules, cfg.Redis.LockTTL, log)
	return c, nil
}

func storeDirectory(cfg *config.Config, pool *pgxpool.Pool, log *logger.Logger) (repository.StoreDirectory, error) {
	switch cfg.Jobs.StoreDirectory {
	case StoreDirectoryPostgres:
		return postgres.NewStoreDirectory(pool), nil
	case StoreDirectoryBackend, "":
		if cfg.Backend.URL == "" {
			return nil, fmt.Errorf("STORE_DIRECTORY=backend requiere BACKEND_URL")
		}
		return backend.NewClient(cfg.Backend.URL, cfg.Backend.Token, cfg.Backend.Timeout, log), nil
	}
	return nil, fmt.Errorf("STORE_DIRECTORY desconocido: %q", cfg.Jobs.StoreDirectory)
}

// jobLocker usa Redis si está configurado; si no hay Redis o no responde, un lock en memoria.
func jobLocker(ctx context.Context, cfg *config.Config, log *logger.Logger, c *Components) repository.JobLocker {
	if cfg.Redis.Addr == "" {
		return redislock.NewMemoryLocker()
	}
	l, err := redislock.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, lock de jobs en memoria")
		return redislock.NewMemoryLocker()
	}
	c.closers = append(c.closers, func() { _ = l.Close() })
	return l
}
