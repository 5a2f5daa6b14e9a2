package repository

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// CallbackRepository stores the audit trail of processed callbacks.
type CallbackRepository interface {
	Record(ctx context.Context, record model.CallbackRecord) error
	ListByOrder(ctx context.Context, orderID string) ([]model.CallbackRecord, error)
}

// Factory describes access to different domain repositories.
type Factory interface {
	Orders() OrderRepository
	Callbacks() CallbackRepository
}
