package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/pkg/payu"
)

// CheckoutOptions describe the merchant account and the return URLs of the hosted checkout.
type CheckoutOptions struct {
	MerchantKey string
	Salt        string
	PaymentURL  string
	SuccessURL  string
	FailureURL  string
}

// InitiateUseCase prepares signed checkout forms.
type InitiateUseCase struct {
	orders repository.OrderRepository
	opts   CheckoutOptions
	retry  RetryPolicy
	logger *slog.Logger
}

// NewInitiateUseCase constructs InitiateUseCase.
func NewInitiateUseCase(orders repository.OrderRepository, opts CheckoutOptions, retry RetryPolicy, logger *slog.Logger) *InitiateUseCase {
	return &InitiateUseCase{orders: orders, opts: opts, retry: retry, logger: logger}
}

// Initiate marks the order as awaiting payment and returns the signed form for it.
func (u *InitiateUseCase) Initiate(ctx context.Context, orderID string, customer model.Customer) (*model.PaymentForm, error) {
	if u.opts.MerchantKey == "" || u.opts.Salt == "" {
		return nil, errors.New("payment gateway credentials are not configured")
	}
	if err := validateCustomer(customer); err != nil {
		return nil, err
	}

	order, err := retryStore(ctx, u.retry, func(ctx context.Context) (*model.Order, error) {
		return u.orders.GetByID(ctx, orderID)
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domainErrors.ErrOrderNotFound, orderID)
		}
		return nil, err
	}
	if order.PaymentClosed() {
		return nil, domainErrors.ErrPaymentClosed
	}
	if !order.Total.IsPositive() {
		return nil, fmt.Errorf("%w: order total must be positive", domainErrors.ErrInvalidPaymentForm)
	}

	order, err = retryStore(ctx, u.retry, func(ctx context.Context) (*model.Order, error) {
		return u.orders.MarkPending(ctx, orderID)
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrTransitionConflict) {
			return nil, domainErrors.ErrPaymentClosed
		}
		return nil, err
	}

	productInfo := strings.TrimSpace(customer.ProductInfo)
	if productInfo == "" {
		productInfo = "Order " + order.OrderNumber
	}

	req := payu.RequestFields{
		TxnID:       order.OrderNumber,
		Amount:      order.Total.StringFixed(2),
		ProductInfo: productInfo,
		FirstName:   strings.TrimSpace(customer.FirstName),
		Email:       strings.TrimSpace(customer.Email),
		UDF:         [5]string{order.ID},
	}

	form := &model.PaymentForm{
		Action: u.opts.PaymentURL,
		Fields: map[string]string{
			payu.FieldKey:            u.opts.MerchantKey,
			payu.FieldTxnID:          req.TxnID,
			payu.FieldAmount:         req.Amount,
			payu.FieldProductInfo:    req.ProductInfo,
			payu.FieldFirstName:      req.FirstName,
			payu.FieldEmail:          req.Email,
			payu.FieldPhone:          strings.TrimSpace(customer.Phone),
			"surl":                   u.opts.SuccessURL,
			"furl":                   u.opts.FailureURL,
			payu.FieldOrderReference: order.ID,
			payu.FieldHash:           payu.RequestHash(u.opts.MerchantKey, u.opts.Salt, req),
		},
	}

	u.logger.Info("payment initiated",
		slog.String("order_id", order.ID),
		slog.String("txnid", req.TxnID),
		slog.String("amount", req.Amount))
	return form, nil
}

func validateCustomer(c model.Customer) error {
	if strings.TrimSpace(c.FirstName) == "" {
		return fmt.Errorf("%w: firstname is required", domainErrors.ErrInvalidPaymentForm)
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(c.Email)); err != nil {
		return fmt.Errorf("%w: email is invalid", domainErrors.ErrInvalidPaymentForm)
	}
	// Pipes would shift the fields of the signed request.
	for _, v := range []string{c.FirstName, c.Email, c.Phone, c.ProductInfo} {
		if strings.Contains(v, "|") {
			return fmt.Errorf("%w: fields must not contain '|'", domainErrors.ErrInvalidPaymentForm)
		}
	}
	return nil
}
