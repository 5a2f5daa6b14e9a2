package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// CallbackFacadeStub records callbacks and returns a configured reconciliation.
type CallbackFacadeStub struct {
	HandleFn func(context.Context, model.CallbackInput) (model.Reconciliation, error)
	Inputs   []model.CallbackInput
	mu       sync.Mutex
}

// HandleCallback delegates to HandleFn or reports an applied payment.
func (s *CallbackFacadeStub) HandleCallback(ctx context.Context, in model.CallbackInput) (model.Reconciliation, error) {
	s.mu.Lock()
	s.Inputs = append(s.Inputs, in)
	s.mu.Unlock()
	if s.HandleFn != nil {
		return s.HandleFn(ctx, in)
	}
	return AppliedReconciliation("ord_1"), nil
}

// AppliedReconciliation builds a completed payment outcome for orderID.
func AppliedReconciliation(orderID string) model.Reconciliation {
	order := &model.Order{
		ID:          orderID,
		OrderNumber: "ORD-" + orderID,
		Total:       decimal.RequireFromString("299.00"),
		Status:      model.OrderStatusPaymentCompleted,
		PaymentDetails: model.PaymentDetails{
			PaymentStatus: model.PaymentStatusCompleted,
			TransactionID: "ORD-" + orderID,
		},
	}
	return model.Reconciliation{
		Outcome: model.OutcomeApplied,
		OrderID: orderID,
		Order:   order,
		Result: model.CallbackResult{
			OrderReference: orderID,
			TxnID:          "ORD-" + orderID,
			IsSuccess:      true,
			Amount:         decimal.RequireFromString("299.00"),
			GatewayStatus:  "success",
		},
	}
}

// CheckoutFacadeStub simulates checkout operations.
type CheckoutFacadeStub struct {
	InitiateFn func(context.Context, string, model.Customer) (*model.PaymentForm, error)
	StatusFn   func(context.Context, string) (*model.Order, error)
}

// InitiatePayment returns a minimal form unless overridden.
func (s CheckoutFacadeStub) InitiatePayment(ctx context.Context, orderID string, customer model.Customer) (*model.PaymentForm, error) {
	if s.InitiateFn != nil {
		return s.InitiateFn(ctx, orderID, customer)
	}
	return &model.PaymentForm{
		Action: "https://test.payu.in/_payment",
		Fields: map[string]string{"txnid": "ORD-" + orderID, "udf1": orderID, "firstname": customer.FirstName},
	}, nil
}

// PaymentStatus returns the completed order from AppliedReconciliation unless overridden.
func (s CheckoutFacadeStub) PaymentStatus(ctx context.Context, orderID string) (*model.Order, error) {
	if s.StatusFn != nil {
		return s.StatusFn(ctx, orderID)
	}
	return AppliedReconciliation(orderID).Order, nil
}

// ReviewFacadeStub serves canned review data.
type ReviewFacadeStub struct {
	FlaggedFn   func(context.Context, int) ([]model.Order, error)
	CallbacksFn func(context.Context, string) ([]model.CallbackRecord, error)
}

// FlaggedPayments delegates to FlaggedFn or returns nothing.
func (s ReviewFacadeStub) FlaggedPayments(ctx context.Context, limit int) ([]model.Order, error) {
	if s.FlaggedFn != nil {
		return s.FlaggedFn(ctx, limit)
	}
	return nil, nil
}

// OrderCallbacks delegates to CallbacksFn or returns nothing.
func (s ReviewFacadeStub) OrderCallbacks(ctx context.Context, orderID string) ([]model.CallbackRecord, error) {
	if s.CallbacksFn != nil {
		return s.CallbacksFn(ctx, orderID)
	}
	return nil, nil
}

// HealthFacadeStub reports Err as the health state.
type HealthFacadeStub struct {
	Err error
}

// Health returns configured error.
func (s HealthFacadeStub) Health(context.Context) error {
	return s.Err
}

// PaymentFacadeStub aggregates facade dependencies for HTTP layer tests.
type PaymentFacadeStub struct {
	*CallbackFacadeStub
	CheckoutFacadeStub
	ReviewFacadeStub
	HealthFacadeStub
}

// SweepFacadeStub mimics worker interactions with the payment facade.
type SweepFacadeStub struct {
	Batches      [][]model.Order
	PendingFn    func(context.Context, int) ([]model.Order, error)
	SettleFn     func(context.Context, model.Order) (model.Reconciliation, error)
	Settled      []model.Order
	mu           sync.Mutex
	pendingCalls int32
}

// Lock exposes internal mutex for external synchronization.
func (s *SweepFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *SweepFacadeStub) Unlock() { s.mu.Unlock() }

// PendingPayments returns batches from configured queue.
func (s *SweepFacadeStub) PendingPayments(ctx context.Context, limit int) ([]model.Order, error) {
	if s.PendingFn != nil {
		return s.PendingFn(ctx, limit)
	}
	call := atomic.AddInt32(&s.pendingCalls, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// SettlePayment records the order and delegates to SettleFn.
func (s *SweepFacadeStub) SettlePayment(ctx context.Context, order model.Order) (model.Reconciliation, error) {
	var (
		rec model.Reconciliation
		err error
	)
	if s.SettleFn != nil {
		rec, err = s.SettleFn(ctx, order)
	} else {
		rec = AppliedReconciliation(order.ID)
	}
	s.mu.Lock()
	s.Settled = append(s.Settled, order)
	s.mu.Unlock()
	return rec, err
}

// VerifierStub answers gateway verification requests.
type VerifierStub struct {
	Fields map[string]string
	Err    error
}

// Verify returns a copy of Fields or Err.
func (s VerifierStub) Verify(_ context.Context, txnID string) (map[string]string, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := map[string]string{"txnid": txnID}
	for k, v := range s.Fields {
		out[k] = v
	}
	return out, nil
}
