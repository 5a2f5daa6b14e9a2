package usecase

import (
	"context"
	"errors"
	"testing"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/pkg/payu"
	"github.com/polkiloo/storefront/internal/test"
)

var checkout = CheckoutOptions{
	MerchantKey: merchantKey,
	Salt:        merchantSalt,
	PaymentURL:  "https://test.payu.in/_payment",
	SuccessURL:  "https://shop.example/api/payments/payu/success",
	FailureURL:  "https://shop.example/api/payments/payu/failure",
}

var buyer = model.Customer{FirstName: "Asha", Email: "asha@example.com", Phone: "9876543210"}

func createdOrder(id string) model.Order {
	o := pendingOrder(id, "299.00")
	o.Status = model.OrderStatusCreated
	return o
}

func TestInitiateBuildsSignedForm(t *testing.T) {
	store := test.NewOrderStoreStub(createdOrder("ord_1"))
	uc := NewInitiateUseCase(store, checkout, testRetry, discardLogger())

	form, err := uc.Initiate(context.Background(), "ord_1", buyer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if form.Action != checkout.PaymentURL {
		t.Fatalf("unexpected action %q", form.Action)
	}

	fields := form.Fields
	if fields[payu.FieldUDF1] != "ord_1" || fields[payu.FieldTxnID] != "ORD-ord_1" || fields[payu.FieldAmount] != "299.00" {
		t.Fatalf("unexpected form fields %v", fields)
	}
	if fields["surl"] != checkout.SuccessURL || fields["furl"] != checkout.FailureURL {
		t.Fatalf("return urls missing: %v", fields)
	}
	want := payu.RequestHash(merchantKey, merchantSalt, payu.RequestFields{
		TxnID: "ORD-ord_1", Amount: "299.00", ProductInfo: "Order ORD-ord_1",
		FirstName: "Asha", Email: "asha@example.com", UDF: [5]string{"ord_1"},
	})
	if fields[payu.FieldHash] != want {
		t.Fatalf("request hash mismatch")
	}

	stored, _ := store.Order("ord_1")
	if stored.Status != model.OrderStatusPaymentPending {
		t.Fatalf("order not marked pending: %s", stored.Status)
	}

	if _, err := uc.Initiate(context.Background(), "ord_1", buyer); err != nil {
		t.Fatalf("pending order must be re-initiable: %v", err)
	}
}

func TestInitiateRejectsClosedPayment(t *testing.T) {
	completed := pendingOrder("ord_1", "299.00")
	completed.Status = model.OrderStatusPaymentCompleted
	completed.PaymentDetails.PaymentStatus = model.PaymentStatusCompleted
	shipped := createdOrder("ord_2")
	shipped.Status = model.OrderStatusShipped

	uc := NewInitiateUseCase(test.NewOrderStoreStub(completed, shipped), checkout, testRetry, discardLogger())
	for _, id := range []string{"ord_1", "ord_2"} {
		if _, err := uc.Initiate(context.Background(), id, buyer); !errors.Is(err, domainErrors.ErrPaymentClosed) {
			t.Fatalf("%s: expected payment closed, got %v", id, err)
		}
	}
}

func TestInitiateValidation(t *testing.T) {
	uc := NewInitiateUseCase(test.NewOrderStoreStub(createdOrder("ord_1")), checkout, testRetry, discardLogger())

	cases := map[string]model.Customer{
		"no name":   {Email: "asha@example.com"},
		"bad email": {FirstName: "Asha", Email: "not-an-email"},
		"pipe":      {FirstName: "As|ha", Email: "asha@example.com"},
	}
	for name, c := range cases {
		if _, err := uc.Initiate(context.Background(), "ord_1", c); !errors.Is(err, domainErrors.ErrInvalidPaymentForm) {
			t.Fatalf("%s: expected invalid payment form, got %v", name, err)
		}
	}

	if _, err := uc.Initiate(context.Background(), "missing", buyer); !errors.Is(err, domainErrors.ErrOrderNotFound) {
		t.Fatalf("expected order not found, got %v", err)
	}
}

func TestInitiateRequiresCredentials(t *testing.T) {
	uc := NewInitiateUseCase(test.NewOrderStoreStub(createdOrder("ord_1")), CheckoutOptions{PaymentURL: "x"}, testRetry, discardLogger())
	if _, err := uc.Initiate(context.Background(), "ord_1", buyer); err == nil {
		t.Fatal("expected error without merchant credentials")
	}
}
