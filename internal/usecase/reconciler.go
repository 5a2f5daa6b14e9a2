package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

const defaultPaymentMethod = "PAYU"

// ReconcilerOptions tune how gateway results are applied.
type ReconcilerOptions struct {
	// TolerateUnverified applies authentic-looking results whose signature failed, flagged for review.
	TolerateUnverified bool
	AmountTolerance    decimal.Decimal
	Retry              RetryPolicy
}

// Reconciler applies a translated gateway result to the referenced order exactly once.
type Reconciler struct {
	orders repository.OrderRepository
	opts   ReconcilerOptions
	logger *slog.Logger
	now    func() time.Time
}

// NewReconciler constructs Reconciler.
func NewReconciler(orders repository.OrderRepository, opts ReconcilerOptions, logger *slog.Logger) *Reconciler {
	return &Reconciler{orders: orders, opts: opts, logger: logger, now: time.Now}
}

// Reconcile decides the outcome for order and performs at most one conditional store write.
// A nil order means the lookup found nothing. Errors are returned only for store failures.
func (r *Reconciler) Reconcile(ctx context.Context, result model.CallbackResult, signatureValid bool, order *model.Order, raw json.RawMessage) (model.Reconciliation, error) {
	rec := model.Reconciliation{OrderID: result.OrderReference, Result: result, Order: order}

	if order == nil {
		rec.Outcome = model.OutcomeOrderNotFound
		r.logger.Error("callback references unknown order",
			slog.String("order_id", result.OrderReference),
			slog.String("txnid", result.TxnID))
		return rec, nil
	}

	if order.PaymentClosed() {
		rec.Outcome = model.OutcomeNoOp
		r.logger.Info("payment already closed, ignoring callback",
			slog.String("order_id", order.ID),
			slog.String("order_status", string(order.Status)),
			slog.String("payment_status", string(order.PaymentDetails.PaymentStatus)),
			slog.String("gateway_status", result.GatewayStatus))
		return rec, nil
	}

	if !signatureValid {
		if !r.opts.TolerateUnverified || !result.LooksAuthentic() {
			rec.Outcome = model.OutcomeRejected
			r.logger.Warn("callback rejected: signature invalid",
				slog.String("order_id", order.ID),
				slog.String("txnid", result.TxnID))
			return rec, nil
		}
		rec.Unverified = true
		r.logger.Warn("applying callback with unverified signature",
			slog.String("order_id", order.ID),
			slog.String("mihpayid", result.ExternalTransactionID))
	}

	if err := r.checkAmount(result, order); err != nil {
		rec.AmountMismatch = true
		r.logger.Warn("charged amount differs from order total",
			slog.String("order_id", order.ID),
			slog.String("kind", domainErrors.Kind(err)),
			slog.Bool("amount_unparsed", result.AmountUnparsed),
			slog.Any("error", err))
	}

	update := r.paymentUpdate(result, raw, rec)
	attempts := 0
	updated, err := retryStore(ctx, r.opts.Retry, func(ctx context.Context) (*model.Order, error) {
		attempts++
		return r.orders.ApplyPayment(ctx, order.ID, update)
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrTransitionConflict) {
			fresh, freshErr := retryStore(ctx, r.opts.Retry, func(ctx context.Context) (*model.Order, error) {
				return r.orders.GetByID(ctx, order.ID)
			})
			// A retry after an ambiguous commit finds our own write in place.
			if freshErr == nil && attempts > 1 && carries(fresh, update) {
				rec.Outcome = model.OutcomeApplied
				rec.Order = fresh
				r.logger.Info("payment reconciled on retry",
					slog.String("order_id", order.ID),
					slog.String("order_status", string(update.OrderStatus)),
					slog.String("txnid", result.TxnID),
					slog.Int("attempts", attempts))
				return rec, nil
			}

			rec.Outcome = model.OutcomeNoOp
			rec.Unverified, rec.AmountMismatch = false, false
			r.logger.Info("concurrent callback already closed the payment", slog.String("order_id", order.ID))
			if freshErr == nil {
				rec.Order = fresh
			}
			return rec, nil
		}
		return rec, err
	}

	rec.Outcome = model.OutcomeApplied
	rec.Order = updated
	r.logger.Info("payment reconciled",
		slog.String("order_id", order.ID),
		slog.String("order_status", string(update.OrderStatus)),
		slog.String("txnid", result.TxnID),
		slog.Bool("unverified", rec.Unverified),
		slog.Bool("amount_mismatch", rec.AmountMismatch))
	return rec, nil
}

// checkAmount compares the charged amount with the order total for every result.
// A missing amount only counts against a success, since a failure has nothing to cross-check.
func (r *Reconciler) checkAmount(result model.CallbackResult, order *model.Order) error {
	if result.AmountUnparsed {
		if result.IsSuccess {
			return fmt.Errorf("%w: charged amount unreadable, total %s", domainErrors.ErrAmountMismatch, order.Total)
		}
		return nil
	}
	if result.Amount.Sub(order.Total).Abs().GreaterThan(r.opts.AmountTolerance) {
		return fmt.Errorf("%w: charged %s, total %s", domainErrors.ErrAmountMismatch, result.Amount, order.Total)
	}
	return nil
}

func carries(order *model.Order, update model.PaymentUpdate) bool {
	return order != nil &&
		order.Status == update.OrderStatus &&
		order.PaymentDetails.PaymentStatus == update.PaymentStatus &&
		order.PaymentDetails.TransactionID == update.TransactionID &&
		order.PaymentDetails.PaymentID == update.PaymentID
}

func (r *Reconciler) paymentUpdate(result model.CallbackResult, raw json.RawMessage, rec model.Reconciliation) model.PaymentUpdate {
	update := model.PaymentUpdate{
		OrderStatus:        model.OrderStatusPaymentFailed,
		PaymentStatus:      model.PaymentStatusFailed,
		PaymentMethod:      result.Mode,
		TransactionID:      result.TxnID,
		PaymentID:          result.ExternalTransactionID,
		Amount:             result.Amount,
		PaymentDate:        r.now().UTC(),
		RawGatewayResponse: raw,
		Unverified:         rec.Unverified,
		AmountMismatch:     rec.AmountMismatch,
	}
	if result.IsSuccess {
		update.OrderStatus = model.OrderStatusPaymentCompleted
		update.PaymentStatus = model.PaymentStatusCompleted
	}
	if update.PaymentMethod == "" {
		update.PaymentMethod = defaultPaymentMethod
	}
	return update
}
