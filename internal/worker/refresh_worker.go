// Package worker reacts to upstream sheet changes: it drops stale cache
// entries and re-warms the cache in the background.
package worker

import (
	"context"
	"sync"
	"time"

	"shopledger/internal/amqp"
	applog "shopledger/internal/log"
	"shopledger/internal/sheets"
)

// WarmFunc fetches whatever should be hot in the cache.
type WarmFunc func(ctx context.Context) error

// Result is the outcome of one refresh generation.
type Result struct {
	Generation uint64    `json:"generation"`
	Err        error     `json:"-"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// Refresher runs warm-ups with last-requested-wins semantics: a new request
// cancels the one in flight, and only the newest generation may record its
// result.
type Refresher struct {
	warm   WarmFunc
	logger *applog.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	last   Result
	wg     sync.WaitGroup
}

// NewRefresher returns a Refresher running warm.
func NewRefresher(warm WarmFunc, logger *applog.Logger) *Refresher {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Refresher{warm: warm, logger: logger.WithComponent(applog.ComponentWorker)}
}

// Request starts a new generation derived from ctx and returns its number.
func (r *Refresher) Request(ctx context.Context) uint64 {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.gen++
	gen := r.gen
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer cancel()

		start := time.Now()
		err := r.warm(runCtx)

		r.mu.Lock()
		defer r.mu.Unlock()
		if gen != r.gen {
			r.logger.DebugContext(ctx, "Refresh superseded", applog.FieldGeneration, gen)
			return
		}
		r.last = Result{Generation: gen, Err: err, At: time.Now()}
		if err != nil {
			r.last.Error = err.Error()
			r.logger.WarnContext(ctx, "Refresh failed",
				applog.FieldGeneration, gen, applog.FieldError, err.Error())
			return
		}
		r.logger.InfoContext(ctx, "Refresh completed",
			applog.FieldGeneration, gen, applog.FieldDuration, time.Since(start).Milliseconds())
	}()
	return gen
}

// Last returns the result of the newest completed generation.
func (r *Refresher) Last() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Wait blocks until every started generation has returned.
func (r *Refresher) Wait() { r.wg.Wait() }

// Stop cancels the generation in flight and waits for it.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// Invalidator drops cached sheets.
type Invalidator interface {
	Invalidate(ref sheets.Ref) int
}

// RefreshWorker handles sheet changed messages.
type RefreshWorker struct {
	cache     Invalidator
	refresher *Refresher
	logger    *applog.Logger
}

// NewRefreshWorker wires a cache and a refresher.
func NewRefreshWorker(cache Invalidator, refresher *Refresher, logger *applog.Logger) *RefreshWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &RefreshWorker{cache: cache, refresher: refresher, logger: logger.WithComponent(applog.ComponentWorker)}
}

// HandleSheetChanged invalidates the changed sheet and requests a refresh.
// Refresh failures are logged, not returned, so the message is not requeued.
func (w *RefreshWorker) HandleSheetChanged(ctx context.Context, msg *amqp.SheetChangedMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	n := w.cache.Invalidate(msg.Ref())
	w.logger.InfoContext(ctx, "Sheet changed",
		applog.FieldOperation, applog.OpInvalidate,
		applog.FieldSource, msg.SpreadsheetID,
		applog.FieldSheet, msg.Sheet,
		"invalidated", n)

	if w.refresher != nil {
		gen := w.refresher.Request(ctx)
		w.logger.DebugContext(ctx, "Refresh requested", applog.FieldGeneration, gen)
	}
	return nil
}
