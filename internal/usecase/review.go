package usecase

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

const (
	defaultReviewLimit = 50
	maxReviewLimit     = 500
)

// ReviewUseCase exposes payments that need a human look.
type ReviewUseCase struct {
	orders    repository.OrderRepository
	callbacks repository.CallbackRepository
	retry     RetryPolicy
}

// NewReviewUseCase constructs ReviewUseCase.
func NewReviewUseCase(orders repository.OrderRepository, callbacks repository.CallbackRepository, retry RetryPolicy) *ReviewUseCase {
	return &ReviewUseCase{orders: orders, callbacks: callbacks, retry: retry}
}

// Flagged lists orders applied with an unverified signature or a mismatched amount.
func (u *ReviewUseCase) Flagged(ctx context.Context, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = defaultReviewLimit
	}
	if limit > maxReviewLimit {
		limit = maxReviewLimit
	}
	return retryStore(ctx, u.retry, func(ctx context.Context) ([]model.Order, error) {
		return u.orders.ListFlagged(ctx, limit)
	})
}

// Callbacks returns the audit trail of an order.
func (u *ReviewUseCase) Callbacks(ctx context.Context, orderID string) ([]model.CallbackRecord, error) {
	return retryStore(ctx, u.retry, func(ctx context.Context) ([]model.CallbackRecord, error) {
		return u.callbacks.ListByOrder(ctx, orderID)
	})
}
