package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/pkg/payu"
)

// TransactionVerifier fetches the gateway's own record of a transaction.
type TransactionVerifier interface {
	Verify(ctx context.Context, txnID string) (map[string]string, error)
}

// SweepUseCase settles payments whose callbacks never arrived.
type SweepUseCase struct {
	orders     repository.OrderRepository
	verifier   TransactionVerifier
	callbacks  *CallbackUseCase
	pendingAge time.Duration
	retry      RetryPolicy
	logger     *slog.Logger
	now        func() time.Time
}

// NewSweepUseCase constructs SweepUseCase. Orders pending for less than pendingAge are left alone.
func NewSweepUseCase(
	orders repository.OrderRepository,
	verifier TransactionVerifier,
	callbacks *CallbackUseCase,
	pendingAge time.Duration,
	retry RetryPolicy,
	logger *slog.Logger,
) *SweepUseCase {
	return &SweepUseCase{
		orders:     orders,
		verifier:   verifier,
		callbacks:  callbacks,
		pendingAge: pendingAge,
		retry:      retry,
		logger:     logger,
		now:        time.Now,
	}
}

// PendingPayments claims up to limit stale pending orders.
func (u *SweepUseCase) PendingPayments(ctx context.Context, limit int) ([]model.Order, error) {
	before := u.now().Add(-u.pendingAge)
	return retryStore(ctx, u.retry, func(ctx context.Context) ([]model.Order, error) {
		return u.orders.ClaimPendingBefore(ctx, before, limit)
	})
}

// Settle pulls the gateway record for order and reconciles it.
func (u *SweepUseCase) Settle(ctx context.Context, order model.Order) (model.Reconciliation, error) {
	fields, err := u.verifier.Verify(ctx, order.OrderNumber)
	if err != nil {
		return model.Reconciliation{OrderID: order.ID}, err
	}
	if fields[payu.FieldOrderReference] == "" {
		fields[payu.FieldOrderReference] = order.ID
	}
	if ref := fields[payu.FieldOrderReference]; ref != order.ID {
		u.logger.Warn("gateway record references another order",
			slog.String("order_id", order.ID),
			slog.String("reference", ref),
			slog.String("txnid", order.OrderNumber))
	}
	return u.callbacks.ProcessVerified(ctx, fields)
}
