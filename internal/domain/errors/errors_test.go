package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"already exists", ErrAlreadyExists},
		{"not found", ErrNotFound},
		{"malformed", ErrMalformedCallback},
		{"missing reference", ErrMissingOrderReference},
		{"signature", ErrSignatureInvalid},
		{"order not found", ErrOrderNotFound},
		{"store unavailable", ErrStoreUnavailable},
		{"amount mismatch", ErrAmountMismatch},
		{"payment pending", ErrPaymentPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !stdErrors.Is(tc.err, tc.err) {
				t.Fatalf("expected error to match itself: %v", tc.err)
			}
		})
	}
}

func TestKindUnwrapsErrors(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{nil, ""},
		{fmt.Errorf("interpret: %w", ErrMissingOrderReference), "missing_order_reference"},
		{fmt.Errorf("normalize: %w", ErrMalformedCallback), "malformed_callback"},
		{fmt.Errorf("verify: %w", ErrSignatureInvalid), "signature_invalid"},
		{fmt.Errorf("lookup: %w", ErrOrderNotFound), "order_not_found"},
		{ErrNotFound, "order_not_found"},
		{fmt.Errorf("lookup: %w", ErrStoreUnavailable), "store_unavailable"},
		{fmt.Errorf("%w: charged 1, total 299", ErrAmountMismatch), "amount_mismatch"},
		{stdErrors.New("boom"), "internal"},
	}

	for _, tc := range cases {
		if got := Kind(tc.err); got != tc.kind {
			t.Fatalf("Kind(%v): expected %q, got %q", tc.err, tc.kind, got)
		}
	}
}

func TestPermanent(t *testing.T) {
	if !Permanent(fmt.Errorf("x: %w", ErrSignatureInvalid)) {
		t.Fatal("signature errors must be permanent")
	}
	if Permanent(ErrStoreUnavailable) {
		t.Fatal("store outages must be retryable")
	}
	if Permanent(ErrAmountMismatch) {
		t.Fatal("an amount mismatch is a review flag, not a rejection")
	}
	if Permanent(ErrOrderNotFound) {
		t.Fatal("order not found may resolve once the order exists")
	}
}
