package handlers

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// CallbackFacade processes gateway notifications.
type CallbackFacade interface {
	HandleCallback(ctx context.Context, in model.CallbackInput) (model.Reconciliation, error)
}

// CheckoutFacade covers the storefront side of a payment.
type CheckoutFacade interface {
	InitiatePayment(ctx context.Context, orderID string, customer model.Customer) (*model.PaymentForm, error)
	PaymentStatus(ctx context.Context, orderID string) (*model.Order, error)
}

// ReviewFacade lists payments needing operator attention.
type ReviewFacade interface {
	FlaggedPayments(ctx context.Context, limit int) ([]model.Order, error)
	OrderCallbacks(ctx context.Context, orderID string) ([]model.CallbackRecord, error)
}

// HealthFacade reports service health.
type HealthFacade interface {
	Health(ctx context.Context) error
}

// PaymentFacade aggregates the full set of operations used across handlers.
type PaymentFacade interface {
	CallbackFacade
	CheckoutFacade
	ReviewFacade
	HealthFacade
}
