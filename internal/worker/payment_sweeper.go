package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/storefront/internal/adapter/payu"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// SweepFacade exposes the subset of application functionality required by the sweeper.
type SweepFacade interface {
	PendingPayments(ctx context.Context, limit int) ([]model.Order, error)
	SettlePayment(ctx context.Context, order model.Order) (model.Reconciliation, error)
}

// PaymentSweeper polls the gateway for payments whose callbacks never arrived.
type PaymentSweeper struct {
	facade    SweepFacade
	interval  time.Duration
	batchSize int
	workers   int
	logger    *slog.Logger

	jobs   chan model.Order
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewPaymentSweeper constructs sweeper worker pool.
func NewPaymentSweeper(facade SweepFacade, interval time.Duration, batchSize, workers int, logger *slog.Logger) *PaymentSweeper {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &PaymentSweeper{
		facade:    facade,
		interval:  interval,
		batchSize: batchSize,
		workers:   workers,
		logger:    logger,
		jobs:      make(chan model.Order, batchSize),
	}
}

// Start launches background processing. The sweeper outlives ctx of the start hook,
// so only its values are kept.
func (p *PaymentSweeper) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx)
	}

	p.wg.Add(1)
	go p.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (p *PaymentSweeper) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *PaymentSweeper) dispatch(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.jobs)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchAndDispatch(ctx)
		}
	}
}

func (p *PaymentSweeper) fetchAndDispatch(ctx context.Context) {
	orders, err := p.facade.PendingPayments(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("fetch pending payments failed", slog.String("error", err.Error()))
		return
	}
	if len(orders) > 0 {
		p.logger.Debug("sweeping pending payments", slog.Int("count", len(orders)))
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case p.jobs <- order:
		}
	}
}

func (p *PaymentSweeper) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-p.jobs:
			if !ok {
				return
			}
			p.settle(ctx, order)
		}
	}
}

func (p *PaymentSweeper) settle(ctx context.Context, order model.Order) {
	rec, err := p.facade.SettlePayment(ctx, order)
	if err == nil {
		p.logger.Info("pending payment settled",
			slog.String("order_id", order.ID),
			slog.String("outcome", string(rec.Outcome)))
		return
	}

	var limited payu.TooManyRequestsError
	switch {
	case errors.As(err, &limited):
		p.logger.Warn("gateway rate limited", slog.Duration("retry_after", limited.RetryAfter))
		select {
		case <-ctx.Done():
		case <-time.After(limited.RetryAfter):
		}
	case errors.Is(err, domainErrors.ErrPaymentPending):
		p.logger.Debug("payment still pending", slog.String("order_id", order.ID), slog.String("reason", err.Error()))
	default:
		p.logger.Error("settle pending payment failed",
			slog.String("order_id", order.ID),
			slog.String("kind", domainErrors.Kind(err)),
			slog.String("error", err.Error()))
	}
}
