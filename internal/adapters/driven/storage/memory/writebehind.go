package memory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

const retryBackoff = 50 * time.Millisecond

// writeBehind persists published patterns off the critical path.
// Updates are coalesced by pattern ID, so only the latest version of a
// pattern is written when several land between flushes.
type writeBehind struct {
	persister driven.PatternPersister
	limiter   *rate.Limiter
	retries   int

	mu      sync.Mutex
	pending map[string]*domain.Pattern
	order   []string
	err     error
	closed  bool

	flushMu sync.Mutex
	signal  chan struct{}
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newWriteBehind(p driven.PatternPersister, perSecond float64, retries int) *writeBehind {
	if perSecond <= 0 {
		perSecond = 20
	}
	if retries < 1 {
		retries = 1
	}
	w := &writeBehind{
		persister: p,
		limiter:   rate.NewLimiter(rate.Limit(perSecond), 1),
		retries:   retries,
		pending:   make(map[string]*domain.Pattern),
		signal:    make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go w.run()
	return w
}

// enqueue queues an immutable pattern version for writing. It reports
// false once close has begun; nothing queued after that would be drained.
func (w *writeBehind) enqueue(p *domain.Pattern) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	if _, ok := w.pending[p.ID]; !ok {
		w.order = append(w.order, p.ID)
	}
	w.pending[p.ID] = p
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
	}
	return true
}

func (w *writeBehind) run() {
	defer close(w.done)
	for {
		select {
		case <-w.signal:
			w.flush(context.Background())
		case <-w.stop:
			w.flush(context.Background())
			return
		}
	}
}

// flush writes batches until the queue is empty.
func (w *writeBehind) flush(ctx context.Context) {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	for {
		w.mu.Lock()
		batch, order := w.pending, w.order
		w.pending, w.order = make(map[string]*domain.Pattern), nil
		w.mu.Unlock()

		if len(order) == 0 {
			return
		}
		for i, id := range order {
			if err := w.limiter.Wait(ctx); err != nil {
				w.requeue(batch, order[i:])
				return
			}
			w.save(ctx, batch[id])
		}
	}
}

func (w *writeBehind) save(ctx context.Context, p *domain.Pattern) {
	var err error
	for attempt := 1; attempt <= w.retries; attempt++ {
		if err = w.persister.SavePattern(ctx, p); err == nil {
			return
		}
		if attempt < w.retries {
			time.Sleep(retryBackoff * time.Duration(attempt))
		}
	}
	contention := &domain.StoreContentionError{Key: p.Signature.Key(), Attempts: w.retries, Err: err}
	logger.Warn("%v", contention)

	w.mu.Lock()
	w.err = contention
	w.mu.Unlock()
}

// requeue puts unwritten patterns back at the head of the queue, unless
// a newer version of one is already queued.
func (w *writeBehind) requeue(batch map[string]*domain.Pattern, ids []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var head []string
	for _, id := range ids {
		if _, ok := w.pending[id]; ok {
			continue
		}
		w.pending[id] = batch[id]
		head = append(head, id)
	}
	w.order = append(head, w.order...)
}

// takeErr returns and clears the last persistence failure.
func (w *writeBehind) takeErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.err
	w.err = nil
	return err
}

// close lifts the rate limit, drains the queue and stops the flusher.
func (w *writeBehind) close() error {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		w.limiter.SetLimit(rate.Inf)
		close(w.stop)
	})
	<-w.done
	return w.takeErr()
}
