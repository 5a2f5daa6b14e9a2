package errors

import "errors"

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")

	ErrMalformedCallback     = errors.New("malformed callback")
	ErrMissingOrderReference = errors.New("missing order reference")
	ErrSignatureInvalid      = errors.New("signature invalid")
	ErrOrderNotFound         = errors.New("order not found")
	ErrStoreUnavailable      = errors.New("order store unavailable")
	ErrAmountMismatch        = errors.New("amount mismatch")

	// ErrTransitionConflict means a conditional update matched no row in an updatable state.
	ErrTransitionConflict = errors.New("payment transition conflict")
	ErrPaymentClosed      = errors.New("payment already closed")
	ErrInvalidPaymentForm = errors.New("invalid payment form")
	// ErrPaymentPending means the gateway has no final result for a transaction yet.
	ErrPaymentPending = errors.New("payment pending at gateway")
)

// Kind classifies an error for logs and transport responses.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedCallback):
		return "malformed_callback"
	case errors.Is(err, ErrMissingOrderReference):
		return "missing_order_reference"
	case errors.Is(err, ErrSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrNotFound):
		return "order_not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrPaymentClosed):
		return "payment_closed"
	case errors.Is(err, ErrInvalidPaymentForm):
		return "invalid_payment_form"
	case errors.Is(err, ErrPaymentPending):
		return "payment_pending"
	case errors.Is(err, ErrAmountMismatch):
		return "amount_mismatch"
	default:
		return "internal"
	}
}

// Permanent reports whether retrying the same request can never succeed.
func Permanent(err error) bool {
	switch Kind(err) {
	case "malformed_callback", "missing_order_reference", "signature_invalid", "invalid_payment_form", "payment_closed":
		return true
	}
	return false
}
