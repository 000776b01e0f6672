package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

type stateRepository struct {
	store *Store
}

// NewStateRepository создаёт PostgreSQL-реализацию domain.StateStore.
func NewStateRepository(store *Store) domain.StateStore {
	return &stateRepository{store: store}
}

func (r *stateRepository) Get(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", domain.ErrStateKeyRequired
	}
	if r.store == nil || r.store.db == nil {
		return "", domain.ErrBackendUnavailable
	}

	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var value string
	err := r.store.db.QueryRowContext(queryCtx, `
		SELECT value
		FROM cart_state
		WHERE key = $1
	`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrStateKeyNotFound
		}
		return "", fmt.Errorf("get cart state: %w", err)
	}
	return value, nil
}

func (r *stateRepository) Set(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ErrStateKeyRequired
	}
	if r.store == nil || r.store.db == nil {
		return domain.ErrBackendUnavailable
	}

	execCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.store.db.ExecContext(execCtx, `
		INSERT INTO cart_state (key, value, updated_at, revision)
		VALUES ($1, $2, NOW(), 1)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = EXCLUDED.updated_at,
		    revision = cart_state.revision + 1
	`, key, value); err != nil {
		return fmt.Errorf("upsert cart state: %w", err)
	}
	return nil
}

func (r *stateRepository) Ping(ctx context.Context) error {
	if r.store == nil {
		return domain.ErrBackendUnavailable
	}
	return r.store.Ping(ctx)
}

var _ domain.StateStore = (*stateRepository)(nil)
