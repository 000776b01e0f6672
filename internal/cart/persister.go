package cart

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

const maxPendingEvents = 1024

// persister сериализует записи корзины в одной горутине.
//
// Ящик для снимка одноместный: новый снимок замещает ещё не записанный, поэтому
// хранилище всегда сходится к последнему закоммиченному состоянию, а записи не
// обгоняют друг друга.
type persister struct {
	saveFn    func(ctx context.Context, state domain.CartState)
	publishFn func(ctx context.Context, event domain.CartEvent)
	logger    *log.Entry

	mu      sync.Mutex
	pending *domain.CartState
	events  []domain.CartEvent
	dropped int

	wake     chan struct{}
	flushReq chan chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newPersister(
	saveFn func(ctx context.Context, state domain.CartState),
	publishFn func(ctx context.Context, event domain.CartEvent),
	logger *log.Entry,
) *persister {
	return &persister{
		saveFn:    saveFn,
		publishFn: publishFn,
		logger:    logger,
		wake:      make(chan struct{}, 1),
		flushReq:  make(chan chan struct{}),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (p *persister) scheduleSave(state domain.CartState) {
	p.mu.Lock()
	p.pending = &state
	p.mu.Unlock()
	p.notify()
}

// hasPending сообщает, что в ящике ждёт более новый снимок.
func (p *persister) hasPending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}

func (p *persister) scheduleEvent(event domain.CartEvent) {
	p.mu.Lock()
	if len(p.events) >= maxPendingEvents {
		p.events = p.events[1:]
		p.dropped++
	}
	p.events = append(p.events, event)
	p.mu.Unlock()
	p.notify()
}

func (p *persister) notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// run обрабатывает ящик до остановки или отмены ctx; перед выходом дописывает остаток.
func (p *persister) run(ctx context.Context) {
	defer close(p.done)

	// Записи переживают отмену ctx, чтобы последний снимок успел сохраниться.
	writeCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-p.wake:
			p.drain(writeCtx)
		case reply := <-p.flushReq:
			p.drain(writeCtx)
			close(reply)
		case <-p.stopCh:
			p.drain(writeCtx)
			return
		case <-ctx.Done():
			p.drain(writeCtx)
			return
		}
	}
}

func (p *persister) drain(ctx context.Context) {
	for {
		p.mu.Lock()
		pending := p.pending
		events := p.events
		dropped := p.dropped
		p.pending = nil
		p.events = nil
		p.dropped = 0
		p.mu.Unlock()

		if pending == nil && len(events) == 0 {
			return
		}
		if dropped > 0 {
			p.logger.WithField("dropped", dropped).Warn("cart event backlog overflow, oldest events dropped")
		}
		if pending != nil {
			p.saveFn(ctx, *pending)
		}
		for _, event := range events {
			p.publishFn(ctx, event)
		}
	}
}

func (p *persister) flush(ctx context.Context) error {
	reply := make(chan struct{})
	select {
	case p.flushReq <- reply:
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *persister) stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
