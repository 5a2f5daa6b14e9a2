package app

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/usecase"
)

// HealthChecker reports availability of the order store.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PaymentFacade is the single entry point transports and workers use.
type PaymentFacade struct {
	callbacks *usecase.CallbackUseCase
	status    *usecase.StatusUseCase
	initiate  *usecase.InitiateUseCase
	review    *usecase.ReviewUseCase
	sweep     *usecase.SweepUseCase
	health    HealthChecker
}

func NewPaymentFacade(
	callbacks *usecase.CallbackUseCase,
	status *usecase.StatusUseCase,
	initiate *usecase.InitiateUseCase,
	review *usecase.ReviewUseCase,
	sweep *usecase.SweepUseCase,
	health HealthChecker,
) *PaymentFacade {
	return &PaymentFacade{
		callbacks: callbacks,
		status:    status,
		initiate:  initiate,
		review:    review,
		sweep:     sweep,
		health:    health,
	}
}

func (f *PaymentFacade) HandleCallback(ctx context.Context, in model.CallbackInput) (model.Reconciliation, error) {
	return f.callbacks.Process(ctx, in)
}

func (f *PaymentFacade) PaymentStatus(ctx context.Context, orderID string) (*model.Order, error) {
	return f.status.Status(ctx, orderID)
}

func (f *PaymentFacade) InitiatePayment(ctx context.Context, orderID string, customer model.Customer) (*model.PaymentForm, error) {
	return f.initiate.Initiate(ctx, orderID, customer)
}

func (f *PaymentFacade) FlaggedPayments(ctx context.Context, limit int) ([]model.Order, error) {
	return f.review.Flagged(ctx, limit)
}

func (f *PaymentFacade) OrderCallbacks(ctx context.Context, orderID string) ([]model.CallbackRecord, error) {
	return f.review.Callbacks(ctx, orderID)
}

func (f *PaymentFacade) PendingPayments(ctx context.Context, limit int) ([]model.Order, error) {
	return f.sweep.PendingPayments(ctx, limit)
}

func (f *PaymentFacade) SettlePayment(ctx context.Context, order model.Order) (model.Reconciliation, error) {
	return f.sweep.Settle(ctx, order)
}

func (f *PaymentFacade) Health(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}
