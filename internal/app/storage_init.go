package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/cartstore/internal/health"
	"github.com/vladislavdragonenkov/cartstore/internal/storage/firestore"
	"github.com/vladislavdragonenkov/cartstore/internal/storage/memory"
	"github.com/vladislavdragonenkov/cartstore/internal/storage/postgres"
)

// runtimeDependencies — выбранный backend корзины и его жизненный цикл.
type runtimeDependencies struct {
	backend        domain.StateStore
	storageChecker healthcheck.Checker
	closeFn        func() error
}

func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil || d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close cart backend")
	}
}

// initRuntimeDependencies открывает backend, указанный в cfg.StorageDriver.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	if driver == "" {
		driver = StorageDriverMemory
	}

	switch driver {
	case StorageDriverMemory:
		backend := memory.NewStateStore()
		logger.Info("cart backend: memory (state is lost on restart)")
		return &runtimeDependencies{
			backend:        backend,
			storageChecker: healthcheck.NewBackendChecker("cart_backend", backend),
		}, nil

	case StorageDriverPostgres:
		dsn := strings.TrimSpace(cfg.PostgresDSN)
		if dsn == "" {
			return nil, errors.New("postgres storage driver requires CART_POSTGRES_DSN")
		}
		store, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
			version, count, err := store.MigrationStatus(ctx)
			if err == nil {
				logger.WithFields(log.Fields{
					"schema_version": version,
					"applied":        count,
				}).Info("postgres migrations applied")
			}
		}
		backend := postgres.NewStateRepository(store)
		logger.Info("cart backend: postgres")
		return &runtimeDependencies{
			backend:        backend,
			storageChecker: healthcheck.NewBackendChecker("cart_backend", backend),
			closeFn:        store.Close,
		}, nil

	case StorageDriverFirestore:
		store, err := firestore.Open(ctx, cfg.FirestoreProject, cfg.FirestoreCollection)
		if err != nil {
			return nil, fmt.Errorf("open firestore: %w", err)
		}
		logger.WithFields(log.Fields{
			"project":    cfg.FirestoreProject,
			"collection": cfg.FirestoreCollection,
		}).Info("cart backend: firestore")
		return &runtimeDependencies{
			backend:        store,
			storageChecker: healthcheck.NewBackendChecker("cart_backend", store),
			closeFn:        store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q (use %s|%s|%s)",
			cfg.StorageDriver, StorageDriverMemory, StorageDriverPostgres, StorageDriverFirestore)
	}
}
