package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes order lifecycle.
type OrderStatus string

const (
	OrderStatusCreated          OrderStatus = "CREATED"
	OrderStatusPaymentPending   OrderStatus = "PAYMENT_PENDING"
	OrderStatusPaymentCompleted OrderStatus = "PAYMENT_COMPLETED"
	OrderStatusPaymentFailed    OrderStatus = "PAYMENT_FAILED"
	OrderStatusProcessing       OrderStatus = "PROCESSING"
	OrderStatusShipped          OrderStatus = "SHIPPED"
	OrderStatusDelivered        OrderStatus = "DELIVERED"
	OrderStatusCancelled        OrderStatus = "CANCELLED"
	OrderStatusRefunded         OrderStatus = "REFUNDED"
)

// AwaitingPayment reports whether the order may still receive a payment result.
func (s OrderStatus) AwaitingPayment() bool {
	return s == OrderStatusCreated || s == OrderStatusPaymentPending
}

// PaymentStatus describes the payment sub-record state.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// Terminal reports whether a callback may no longer change the payment.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusRefunded
}

// PaymentDetails is the payment sub-record of an order.
type PaymentDetails struct {
	PaymentMethod      string
	PaymentStatus      PaymentStatus
	TransactionID      string
	PaymentID          string
	Amount             decimal.Decimal
	Currency           string
	PaymentDate        *time.Time
	RawGatewayResponse json.RawMessage
	Unverified         bool
	AmountMismatch     bool
}

// Order is owned by the order service; payments only ever update it.
type Order struct {
	ID             string
	OrderNumber    string
	Total          decimal.Decimal
	Status         OrderStatus
	PaymentDetails PaymentDetails
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PaymentClosed reports whether the order left the payment path, either because the payment
// reached a final state or because the order moved on to fulfilment or cancellation.
func (o *Order) PaymentClosed() bool {
	return !o.Status.AwaitingPayment() || o.PaymentDetails.PaymentStatus.Terminal()
}

// PaymentUpdate is the single write produced by a reconciliation.
type PaymentUpdate struct {
	OrderStatus        OrderStatus
	PaymentStatus      PaymentStatus
	PaymentMethod      string
	TransactionID      string
	PaymentID          string
	Amount             decimal.Decimal
	PaymentDate        time.Time
	RawGatewayResponse json.RawMessage
	Unverified         bool
	AmountMismatch     bool
}

// Customer carries buyer details PayU requires on the payment form.
type Customer struct {
	FirstName   string
	Email       string
	Phone       string
	ProductInfo string
}

// PaymentForm is posted by the browser to the hosted checkout.
type PaymentForm struct {
	Action string
	Fields map[string]string
}
