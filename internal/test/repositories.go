package test

import (
	"context"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// OrderStoreStub keeps orders in memory and mimics the conditional updates of the SQL store.
type OrderStoreStub struct {
	mu     sync.Mutex
	Orders map[string]*model.Order

	// GetErrs and ApplyErrs are consumed one per call before the in-memory logic runs.
	GetErrs   []error
	ApplyErrs []error
	// CommitErrs are consumed after ApplyPayment has written, like a commit whose acknowledgement was lost.
	CommitErrs []error
	Err        error

	GetCalls   int
	ApplyCalls int
	Applied    []model.PaymentUpdate
}

// NewOrderStoreStub seeds the stub with copies of the given orders.
func NewOrderStoreStub(orders ...model.Order) *OrderStoreStub {
	s := &OrderStoreStub{Orders: make(map[string]*model.Order)}
	for i := range orders {
		o := orders[i]
		s.Orders[o.ID] = &o
	}
	return s
}

// Order returns a snapshot of a stored order.
func (s *OrderStoreStub) Order(id string) (model.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orders[id]
	if !ok {
		return model.Order{}, false
	}
	return *o, true
}

// GetByID returns a copy of the stored order.
func (s *OrderStoreStub) GetByID(ctx context.Context, id string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCalls++
	if err := pop(&s.GetErrs); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	o, ok := s.Orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	clone := *o
	return &clone, nil
}

// ApplyPayment writes the update unless the payment already reached a terminal state.
func (s *OrderStoreStub) ApplyPayment(ctx context.Context, id string, update model.PaymentUpdate) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ApplyCalls++
	if err := pop(&s.ApplyErrs); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	o, ok := s.Orders[id]
	if !ok || o.PaymentClosed() {
		return nil, domainErrors.ErrTransitionConflict
	}

	date := update.PaymentDate
	o.Status = update.OrderStatus
	o.PaymentDetails = model.PaymentDetails{
		PaymentMethod:      update.PaymentMethod,
		PaymentStatus:      update.PaymentStatus,
		TransactionID:      update.TransactionID,
		PaymentID:          update.PaymentID,
		Amount:             update.Amount,
		Currency:           o.PaymentDetails.Currency,
		PaymentDate:        &date,
		RawGatewayResponse: update.RawGatewayResponse,
		Unverified:         update.Unverified,
		AmountMismatch:     update.AmountMismatch,
	}
	o.UpdatedAt = time.Now()
	s.Applied = append(s.Applied, update)
	if err := pop(&s.CommitErrs); err != nil {
		return nil, err
	}

	clone := *o
	return &clone, nil
}

// MarkPending moves an order awaiting payment to PAYMENT_PENDING.
func (s *OrderStoreStub) MarkPending(ctx context.Context, id string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	o, ok := s.Orders[id]
	if !ok || o.PaymentClosed() {
		return nil, domainErrors.ErrTransitionConflict
	}
	o.Status = model.OrderStatusPaymentPending
	o.PaymentDetails.PaymentStatus = model.PaymentStatusPending
	o.UpdatedAt = time.Now()
	clone := *o
	return &clone, nil
}

// ClaimPendingBefore returns pending orders last touched before the cutoff.
func (s *OrderStoreStub) ClaimPendingBefore(ctx context.Context, before time.Time, limit int) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.Order
	for _, o := range s.sorted() {
		if len(result) == limit {
			break
		}
		if o.Status == model.OrderStatusPaymentPending && o.PaymentDetails.PaymentStatus == model.PaymentStatusPending && o.UpdatedAt.Before(before) {
			o.UpdatedAt = time.Now()
			result = append(result, *o)
		}
	}
	return result, nil
}

// ListFlagged returns orders marked for manual review.
func (s *OrderStoreStub) ListFlagged(ctx context.Context, limit int) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.Order
	for _, o := range s.sorted() {
		if len(result) == limit {
			break
		}
		if o.PaymentDetails.Unverified || o.PaymentDetails.AmountMismatch {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (s *OrderStoreStub) sorted() []*model.Order {
	orders := make([]*model.Order, 0, len(s.Orders))
	for _, o := range s.Orders {
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders
}

// CallbackRepositoryStub collects audit records.
type CallbackRepositoryStub struct {
	mu      sync.Mutex
	Records []model.CallbackRecord
	Errs    []error
	Calls   int
}

// Record stores the entry unless an error is queued.
func (s *CallbackRepositoryStub) Record(ctx context.Context, record model.CallbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if err := pop(&s.Errs); err != nil {
		return err
	}
	s.Records = append(s.Records, record)
	return nil
}

// ListByOrder returns stored records for the order, newest first.
func (s *CallbackRepositoryStub) ListByOrder(ctx context.Context, orderID string) ([]model.CallbackRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.CallbackRecord
	for i := len(s.Records) - 1; i >= 0; i-- {
		if s.Records[i].OrderReference == orderID {
			result = append(result, s.Records[i])
		}
	}
	return result, nil
}

// Snapshot returns a copy of recorded entries.
func (s *CallbackRepositoryStub) Snapshot() []model.CallbackRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.CallbackRecord(nil), s.Records...)
}

// RepositoryFactoryStub bundles stub repositories.
type RepositoryFactoryStub struct {
	OrderRepo    repository.OrderRepository
	CallbackRepo repository.CallbackRepository
}

// Orders returns configured order repository.
func (f RepositoryFactoryStub) Orders() repository.OrderRepository {
	return f.OrderRepo
}

// Callbacks returns configured callback repository.
func (f RepositoryFactoryStub) Callbacks() repository.CallbackRepository {
	return f.CallbackRepo
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}
