package repository

import (
	"context"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// OrderRepository describes the order store operations the payment core relies on.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*model.Order, error)
	// ApplyPayment writes payment details and order status in one statement, guarded by a
	// non-terminal payment status. Returns ErrTransitionConflict when the guard did not match.
	ApplyPayment(ctx context.Context, id string, update model.PaymentUpdate) (*model.Order, error)
	// MarkPending moves a CREATED or PAYMENT_PENDING order to PAYMENT_PENDING.
	MarkPending(ctx context.Context, id string) (*model.Order, error)
	// ClaimPendingBefore returns pending orders untouched since before and refreshes their timestamp.
	ClaimPendingBefore(ctx context.Context, before time.Time, limit int) ([]model.Order, error)
	ListFlagged(ctx context.Context, limit int) ([]model.Order, error)
}
