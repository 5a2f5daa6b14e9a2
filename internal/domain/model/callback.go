package model

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// CallbackResult is the gateway response translated into the storefront vocabulary.
type CallbackResult struct {
	OrderReference        string
	TxnID                 string
	IsSuccess             bool
	InferredSuccess       bool
	ExternalTransactionID string
	Amount                decimal.Decimal
	AmountUnparsed        bool
	GatewayStatus         string
	ErrorMessage          string
	ErrorCode             string
	Mode                  string
	BankReference         string
}

// LooksAuthentic reports whether the payload carries the markers of a real gateway transaction.
func (r CallbackResult) LooksAuthentic() bool {
	return r.ExternalTransactionID != "" && r.ErrorMessage == ""
}

// EntryPoint identifies the transport a callback arrived through.
type EntryPoint string

const (
	EntryPointServer          EntryPoint = "SERVER_CALLBACK"
	EntryPointRedirectSuccess EntryPoint = "REDIRECT_SUCCESS"
	EntryPointRedirectFailure EntryPoint = "REDIRECT_FAILURE"
	EntryPointSweeper         EntryPoint = "SWEEPER"
)

// CallbackInput is a raw gateway notification as received by a transport.
type CallbackInput struct {
	EntryPoint EntryPoint
	Body       []byte
	Query      url.Values
}

// Outcome is the terminal state of one reconciliation attempt.
type Outcome string

const (
	OutcomeApplied       Outcome = "APPLIED"
	OutcomeNoOp          Outcome = "NO_OP"
	OutcomeRejected      Outcome = "REJECTED"
	OutcomeOrderNotFound Outcome = "ORDER_NOT_FOUND"
)

// Verdict is the signature check result.
type Verdict struct {
	Valid    bool
	Unsigned bool
	Template string
	Reason   string
}

// Reconciliation describes what happened to the referenced order.
type Reconciliation struct {
	Outcome        Outcome
	OrderID        string
	Result         CallbackResult
	Order          *Order
	Unverified     bool
	AmountMismatch bool
}

// CallbackRecord is an audit entry for one processed callback.
type CallbackRecord struct {
	ID             string
	OrderReference string
	EntryPoint     EntryPoint
	Outcome        Outcome
	TxnID          string
	GatewayStatus  string
	SignatureValid bool
	Unsigned       bool
	Template       string
	Unverified     bool
	AmountMismatch bool
	Payload        json.RawMessage
	CreatedAt      time.Time
}
