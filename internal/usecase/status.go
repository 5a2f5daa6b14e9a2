package usecase

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// StatusUseCase answers payment status polls. It never writes.
type StatusUseCase struct {
	orders repository.OrderRepository
	retry  RetryPolicy
}

// NewStatusUseCase constructs StatusUseCase.
func NewStatusUseCase(orders repository.OrderRepository, retry RetryPolicy) *StatusUseCase {
	return &StatusUseCase{orders: orders, retry: retry}
}

// Status returns the current order with its payment details.
func (u *StatusUseCase) Status(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := retryStore(ctx, u.retry, func(ctx context.Context) (*model.Order, error) {
		return u.orders.GetByID(ctx, orderID)
	})
	if errors.Is(err, domainErrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrOrderNotFound, orderID)
	}
	return order, err
}
