package cart

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
	"github.com/vladislavdragonenkov/cartstore/internal/metrics"
)

const (
	defaultSaveTimeout    = 5 * time.Second
	defaultRestoreTimeout = 10 * time.Second
)

// Phase описывает жизненный цикл хранилища корзины.
type Phase int32

const (
	// PhaseRestoring — начальное восстановление из хранилища ещё не завершено.
	PhaseRestoring Phase = iota
	// PhaseReady — восстановление завершено, каждая мутация сохраняется.
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseRestoring:
		return "restoring"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Options задаёт параметры Store.
type Options struct {
	Logger         *log.Entry
	Metrics        *metrics.CartMetrics
	Publisher      domain.CartEventPublisher
	Key            string
	SaveTimeout    time.Duration
	RestoreTimeout time.Duration
	SaveRetry      RetryConfig
}

// Option настраивает Store.
type Option func(*Options)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics задаёт метрики Prometheus.
func WithMetrics(m *metrics.CartMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithPublisher включает публикацию событий изменения корзины.
func WithPublisher(publisher domain.CartEventPublisher) Option {
	return func(opts *Options) {
		opts.Publisher = publisher
	}
}

// WithKey переопределяет ключ хранилища (по умолчанию domain.CartKey).
func WithKey(key string) Option {
	return func(opts *Options) {
		opts.Key = key
	}
}

// WithSaveTimeout задаёт таймаут одной записи в хранилище.
func WithSaveTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.SaveTimeout = timeout
	}
}

// WithRestoreTimeout задаёт таймаут начального чтения.
func WithRestoreTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.RestoreTimeout = timeout
	}
}

// WithSaveRetry задаёт повторы неудачной записи.
func WithSaveRetry(cfg RetryConfig) Option {
	return func(opts *Options) {
		opts.SaveRetry = cfg
	}
}

// Store владеет состоянием корзины: применяет мутации к неизменяемому снимку,
// коммитит новый снимок и асинхронно сохраняет его в domain.StateStore.
//
// Читатели получают снимки без блокировок; мутации сериализуются мьютексом,
// поэтому каждая строится от последнего закоммиченного состояния. Ни одна
// операция не возвращает ошибку: сбои хранилища только логируются.
type Store struct {
	backend   domain.StateStore
	publisher domain.CartEventPublisher
	logger    *log.Entry
	metrics   *metrics.CartMetrics
	key       string

	saveTimeout    time.Duration
	restoreTimeout time.Duration
	saveRetry      RetryConfig

	mu    sync.Mutex
	state atomic.Pointer[domain.CartState]
	phase atomic.Int32

	readyCh   chan struct{}
	startOnce sync.Once
	started   atomic.Bool
	persister *persister
}

// New создаёт хранилище в фазе Restoring с пустой корзиной.
// Восстановление и фоновая запись запускаются через Start.
func New(backend domain.StateStore, options ...Option) *Store {
	opts := Options{
		Key:            domain.CartKey,
		SaveTimeout:    defaultSaveTimeout,
		RestoreTimeout: defaultRestoreTimeout,
		SaveRetry:      RetryConfig{MaxAttempts: 1},
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "cart-store")
	}
	if opts.Key == "" {
		opts.Key = domain.CartKey
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = defaultSaveTimeout
	}
	if opts.RestoreTimeout <= 0 {
		opts.RestoreTimeout = defaultRestoreTimeout
	}

	s := &Store{
		backend:        backend,
		publisher:      opts.Publisher,
		logger:         logger,
		metrics:        opts.Metrics,
		key:            opts.Key,
		saveTimeout:    opts.SaveTimeout,
		restoreTimeout: opts.RestoreTimeout,
		saveRetry:      opts.SaveRetry.normalized(),
		readyCh:        make(chan struct{}),
	}
	empty := domain.NewCartState()
	s.state.Store(&empty)
	s.persister = newPersister(s.save, s.publish, logger)
	s.metrics.SetReady(false)
	s.metrics.SetItemCount(0)
	return s
}

// Open создаёт хранилище и сразу запускает восстановление.
func Open(ctx context.Context, backend domain.StateStore, options ...Option) *Store {
	s := New(backend, options...)
	s.Start(ctx)
	return s
}

// Start запускает фоновую запись и асинхронное восстановление корзины.
// Повторные вызовы игнорируются. Не блокирует вызывающего.
func (s *Store) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.persister.run(ctx)
		go s.restore(ctx)
	})
}

// Ready закрывается при переходе в PhaseReady.
func (s *Store) Ready() <-chan struct{} {
	return s.readyCh
}

// Phase возвращает текущую фазу жизненного цикла.
func (s *Store) Phase() Phase {
	return Phase(s.phase.Load())
}

// Cart возвращает текущий снимок корзины. Снимок предназначен только для чтения;
// для изменяемой копии используйте CartState.Clone.
func (s *Store) Cart() domain.CartState {
	return *s.state.Load()
}

// MaxQuantity возвращает потолок количества для одной позиции.
func (s *Store) MaxQuantity() int {
	return domain.MaxQuantity
}

// ItemCount возвращает сумму количеств по всем позициям.
func (s *Store) ItemCount() int {
	return s.state.Load().ItemCount()
}

// AddDesign добавляет вариант дизайна (с объединением и ограничением количества).
func (s *Store) AddDesign(item domain.DesignCartItem) domain.CartState {
	return s.apply(domain.CartOperationAddDesign, item.WoodworkerID, item.DesignIdeaVariantID,
		func(c domain.CartState) (domain.CartState, domain.Outcome) {
			return c.AddDesign(item)
		})
}

// RemoveDesign удаляет вариант дизайна; отсутствующая позиция игнорируется.
func (s *Store) RemoveDesign(woodworkerID, variantID string) domain.CartState {
	return s.apply(domain.CartOperationRemoveDesign, woodworkerID, variantID,
		func(c domain.CartState) (domain.CartState, domain.Outcome) {
			return c.RemoveDesign(woodworkerID, variantID)
		})
}

// ChangeDesignQuantity выставляет количество варианта дизайна, не более MaxQuantity.
func (s *Store) ChangeDesignQuantity(woodworkerID, variantID string, quantity int) domain.CartState {
	return s.apply(domain.CartOperationChangeDesignQuantity, woodworkerID, variantID,
		func(c domain.CartState) (domain.CartState, domain.Outcome) {
			return c.ChangeDesignQuantity(woodworkerID, variantID, quantity)
		})
}

// AddProduct добавляет товар (с объединением и ограничением количества).
func (s *Store) AddProduct(item domain.ProductCartItem) domain.CartState {
	return s.apply(domain.CartOperationAddProduct, item.WoodworkerID, item.ProductID,
		func(c domain.CartState) (domain.CartState, domain.Outcome) {
			return c.AddProduct(item)
		})
}

// RemoveProduct удаляет товар; отсутствующая позиция игнорируется.
func (s *Store) RemoveProduct(woodworkerID, productID string) domain.CartState {
	return s.apply(domain.CartOperationRemoveProduct, woodworkerID, productID,
		func(c domain.CartState) (domain.CartState, domain.Outcome) {
			return c.RemoveProduct(woodworkerID, productID)
		})
}

// ChangeProductQuantity выставляет количество товара, не более MaxQuantity.
func (s *Store) ChangeProductQuantity(woodworkerID, productID string, quantity int) domain.CartState {
	return s.apply(domain.CartOperationChangeProductQty, woodworkerID, productID,
		func(c domain.CartState) (domain.CartState, domain.Outcome) {
			return c.ChangeProductQuantity(woodworkerID, productID, quantity)
		})
}

// Flush дожидается записи всех уже запланированных снимков и событий.
func (s *Store) Flush(ctx context.Context) error {
	if !s.started.Load() {
		return nil
	}
	return s.persister.flush(ctx)
}

// Close дописывает последний снимок и останавливает фоновую запись.
func (s *Store) Close(ctx context.Context) error {
	if !s.started.Load() {
		return nil
	}
	return s.persister.stop(ctx)
}

func (s *Store) apply(
	operation domain.CartOperation,
	woodworkerID, itemID string,
	mutate func(domain.CartState) (domain.CartState, domain.Outcome),
) domain.CartState {
	s.mu.Lock()
	next, outcome := mutate(*s.state.Load())
	s.state.Store(&next)
	ready := s.Phase() == PhaseReady
	if ready {
		// Планируем под мьютексом, чтобы порядок записей совпадал с порядком коммитов.
		s.persister.scheduleSave(next)
		if outcome.Changed && s.publisher != nil {
			s.persister.scheduleEvent(domain.CartEvent{
				Operation:    operation,
				WoodworkerID: woodworkerID,
				ItemID:       itemID,
				Quantity:     outcome.Applied,
				Clamped:      outcome.Clamped,
				ItemCount:    next.ItemCount(),
				OccurredAt:   time.Now().UTC(),
			})
		}
	}
	s.mu.Unlock()

	count := next.ItemCount()
	s.metrics.RecordMutation(string(operation), outcome.Clamped)
	s.metrics.SetItemCount(count)

	entry := s.logger.WithFields(log.Fields{
		"operation":     operation,
		"woodworker_id": woodworkerID,
		"item_id":       itemID,
		"changed":       outcome.Changed,
		"item_count":    count,
		"phase":         Phase(s.phase.Load()),
	})
	if outcome.Clamped {
		entry = entry.WithFields(log.Fields{
			"requested": outcome.Requested,
			"applied":   outcome.Applied,
		})
	}
	entry.Debug("cart mutation applied")

	return next
}

func (s *Store) restore(ctx context.Context) {
	defer s.markReady()

	if s.backend == nil {
		s.logger.Warn("cart backend is not configured, starting with empty cart")
		s.metrics.RecordRestore(metrics.ResultFailed)
		return
	}

	restoreCtx, cancel := context.WithTimeout(ctx, s.restoreTimeout)
	defer cancel()

	raw, err := s.backend.Get(restoreCtx, s.key)
	if err != nil {
		if domain.IsNotFound(err) {
			s.logger.WithField("key", s.key).Info("no persisted cart, starting empty")
			s.metrics.RecordRestore(metrics.ResultEmpty)
			return
		}
		s.logger.WithError(err).WithField("key", s.key).Warn("cart restore failed, starting with empty cart")
		s.metrics.RecordRestore(metrics.ResultFailed)
		return
	}

	restored, err := domain.DecodeCartState(raw)
	if err != nil {
		s.logger.WithError(err).WithField("key", s.key).Warn("persisted cart is malformed, starting with empty cart")
		s.metrics.RecordRestore(metrics.ResultMalformed)
		return
	}

	s.mu.Lock()
	s.state.Store(&restored)
	s.mu.Unlock()

	s.metrics.RecordRestore(metrics.ResultOK)
	s.metrics.SetItemCount(restored.ItemCount())
	s.logger.WithFields(log.Fields{
		"key":        s.key,
		"item_count": restored.ItemCount(),
	}).Info("cart restored")
}

// markReady выполняет единственный переход Restoring -> Ready и планирует запись
// текущего снимка, включающего мутации, сделанные во время восстановления.
func (s *Store) markReady() {
	s.mu.Lock()
	s.phase.Store(int32(PhaseReady))
	s.persister.scheduleSave(*s.state.Load())
	s.mu.Unlock()

	close(s.readyCh)
	s.metrics.SetReady(true)
	s.logger.Debug("cart store is ready")
}

func (s *Store) save(ctx context.Context, state domain.CartState) {
	if s.backend == nil {
		return
	}

	start := time.Now()
	raw, err := domain.EncodeCartState(state)
	if err != nil {
		s.metrics.RecordPersist(metrics.ResultFailed, time.Since(start))
		s.logger.WithError(err).Error("failed to encode cart state")
		return
	}

	attempts, err := retryWithBackoff(ctx, s.saveRetry, s.persister.hasPending, func() error {
		saveCtx, cancel := context.WithTimeout(ctx, s.saveTimeout)
		defer cancel()
		return s.backend.Set(saveCtx, s.key, raw)
	})
	if err != nil {
		if errors.Is(err, errSuperseded) {
			s.logger.WithField("attempts", attempts).Debug("cart save superseded by a newer snapshot")
		} else {
			s.logger.WithError(err).WithFields(log.Fields{
				"key":      s.key,
				"attempts": attempts,
			}).Warn("failed to persist cart, keeping in-memory state")
		}
		s.metrics.RecordPersist(metrics.ResultFailed, time.Since(start))
		return
	}

	s.metrics.RecordPersist(metrics.ResultOK, time.Since(start))
	s.logger.WithFields(log.Fields{
		"key":        s.key,
		"item_count": state.ItemCount(),
		"bytes":      len(raw),
		"attempts":   attempts,
	}).Debug("cart persisted")
}

func (s *Store) publish(ctx context.Context, event domain.CartEvent) {
	if s.publisher == nil {
		return
	}

	publishCtx, cancel := context.WithTimeout(ctx, s.saveTimeout)
	defer cancel()

	if err := s.publisher.PublishCartEvent(publishCtx, event); err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.WithError(err).WithFields(log.Fields{
				"operation":     event.Operation,
				"woodworker_id": event.WoodworkerID,
			}).Warn("failed to publish cart event")
		}
		s.metrics.RecordEvent(metrics.ResultFailed)
		return
	}
	s.metrics.RecordEvent(metrics.ResultOK)
}
