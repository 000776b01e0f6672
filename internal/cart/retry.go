package cart

import (
	"context"
	"errors"
	"time"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

// RetryConfig конфигурация повторов записи корзины.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig возвращает типовую конфигурацию для WithSaveRetry.
// Без WithSaveRetry хранилище делает ровно одну попытку записи.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
	}
}

func (c RetryConfig) normalized() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.InitialDelay < 0 {
		c.InitialDelay = 0
	}
	if c.MaxDelay < c.InitialDelay {
		c.MaxDelay = c.InitialDelay
	}
	if c.BackoffFactor < 1 {
		c.BackoffFactor = 1
	}
	return c
}

// errSuperseded — повтор прерван, потому что в очереди уже есть более новый снимок.
var errSuperseded = errors.New("cart snapshot superseded by a newer one")

// retryWithBackoff выполняет fn с экспоненциальной задержкой между попытками.
// Повторы прекращаются, если superseded() сообщает о более новом снимке:
// записывать устаревшее состояние бессмысленно.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, superseded func() bool, fn func() error) (int, error) {
	cfg = cfg.normalized()
	delay := cfg.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return attempt, nil
		}
		if !shouldRetry(lastErr) || attempt == cfg.MaxAttempts {
			return attempt, lastErr
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return attempt, lastErr
		}
		if superseded != nil && superseded() {
			return attempt, errors.Join(errSuperseded, lastErr)
		}

		// Экспоненциальная задержка с ограничением
		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return cfg.MaxAttempts, lastErr
}

// shouldRetry определяет, стоит ли повторять запись при данной ошибке.
func shouldRetry(err error) bool {
	// Ошибки конфигурации не исправятся повтором
	if errors.Is(err, domain.ErrStateKeyRequired) ||
		errors.Is(err, domain.ErrBackendUnavailable) ||
		errors.Is(err, context.Canceled) {
		return false
	}
	// По умолчанию повторяем: сеть, таймауты, блокировки базы
	return true
}
