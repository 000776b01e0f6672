package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
	"github.com/vladislavdragonenkov/cartstore/internal/storage/postgres"
)

const (
	defaultTimeout = 30 * time.Second
)

func main() {
	var (
		direction string
		steps     int
		dsn       string
		key       string
	)

	flag.StringVar(&direction, "direction", "up", "migration direction: up|down|status|show")
	flag.IntVar(&steps, "steps", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: CART_POSTGRES_DSN)")
	flag.StringVar(&key, "key", domain.CartKey, "cart state key for -direction=show")
	flag.Parse()

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv("CART_POSTGRES_DSN"))
	}
	if dsn == "" {
		fail("CART_POSTGRES_DSN (or -dsn) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		fail("open postgres store: %v", err)
	}
	defer store.Close()

	logger := log.WithField("component", "migrate")

	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "up":
		if err := store.MigrateUp(ctx, steps); err != nil {
			fail("migrate up failed: %v", err)
		}
		reportStatus(ctx, store, logger, "migrate up ok")
	case "down":
		if steps <= 0 {
			steps = 1
		}
		if err := store.MigrateDown(ctx, steps); err != nil {
			fail("migrate down failed: %v", err)
		}
		reportStatus(ctx, store, logger, "migrate down ok")
	case "status":
		reportStatus(ctx, store, logger, "migration status")
	case "show":
		showCart(ctx, store, key, logger)
	default:
		fail("unsupported direction: %s (use up|down|status|show)", direction)
	}
}

func reportStatus(ctx context.Context, store *postgres.Store, logger *log.Entry, msg string) {
	version, count, err := store.MigrationStatus(ctx)
	if err != nil {
		fail("migration status failed: %v", err)
	}
	logger.WithFields(log.Fields{
		"version": version,
		"applied": count,
	}).Info(msg)
}

// showCart печатает сохранённую корзину, чтобы проверить данные после миграции.
func showCart(ctx context.Context, store *postgres.Store, key string, logger *log.Entry) {
	raw, err := postgres.NewStateRepository(store).Get(ctx, key)
	if err != nil {
		if domain.IsNotFound(err) {
			logger.WithField("key", key).Info("cart is not persisted yet")
			return
		}
		fail("read cart state: %v", err)
	}

	state, err := domain.DecodeCartState(raw)
	if err != nil {
		fail("decode cart state: %v", err)
	}
	logger.WithFields(log.Fields{
		"key":        key,
		"item_count": state.ItemCount(),
		"sellers":    len(state.Designs) + len(state.Products),
	}).Info("persisted cart")
	fmt.Println(raw)
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
