package dto

import (
	"encoding/json"
	"time"
)

// FlaggedPaymentResponse describes an order awaiting operator review.
type FlaggedPaymentResponse struct {
	OrderID        string          `json:"orderId"`
	OrderNumber    string          `json:"orderNumber"`
	OrderStatus    string          `json:"orderStatus"`
	PaymentStatus  string          `json:"paymentStatus"`
	PaymentMethod  string          `json:"paymentMethod,omitempty"`
	TransactionID  string          `json:"transactionId,omitempty"`
	PaymentID      string          `json:"paymentId,omitempty"`
	Total          string          `json:"total"`
	Amount         string          `json:"amount"`
	Unverified     bool            `json:"unverified"`
	AmountMismatch bool            `json:"amountMismatch"`
	PaymentDate    *time.Time      `json:"paymentDate,omitempty"`
	GatewayRecord  json.RawMessage `json:"gatewayRecord,omitempty"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// CallbackRecordResponse is one audit trail entry.
type CallbackRecordResponse struct {
	ID             string          `json:"id"`
	EntryPoint     string          `json:"entryPoint"`
	Outcome        string          `json:"outcome"`
	TxnID          string          `json:"txnid"`
	GatewayStatus  string          `json:"gatewayStatus"`
	SignatureValid bool            `json:"signatureValid"`
	Unsigned       bool            `json:"unsigned"`
	Template       string          `json:"template,omitempty"`
	Unverified     bool            `json:"unverified"`
	AmountMismatch bool            `json:"amountMismatch"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}
