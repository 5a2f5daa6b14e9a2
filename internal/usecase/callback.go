package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/logger"
	"github.com/polkiloo/storefront/internal/pkg/payu"
)

// CallbackUseCase turns gateway notifications into order updates.
type CallbackUseCase struct {
	verifier    *payu.Verifier
	interpreter *payu.Interpreter
	reconciler  *Reconciler
	orders      repository.OrderRepository
	callbacks   repository.CallbackRepository
	retry       RetryPolicy
	logger      *slog.Logger
}

// NewCallbackUseCase constructs CallbackUseCase.
func NewCallbackUseCase(
	verifier *payu.Verifier,
	interpreter *payu.Interpreter,
	reconciler *Reconciler,
	orders repository.OrderRepository,
	callbacks repository.CallbackRepository,
	retry RetryPolicy,
	logger *slog.Logger,
) *CallbackUseCase {
	return &CallbackUseCase{
		verifier:    verifier,
		interpreter: interpreter,
		reconciler:  reconciler,
		orders:      orders,
		callbacks:   callbacks,
		retry:       retry,
		logger:      logger,
	}
}

// Process normalizes, verifies and reconciles one callback. Applied and NoOp outcomes return
// a nil error; every other outcome maps to a domain error.
func (u *CallbackUseCase) Process(ctx context.Context, in model.CallbackInput) (model.Reconciliation, error) {
	payload := payu.Normalize(in.Body, in.Query)
	if payload.Empty() {
		u.logger.Warn("callback carries no usable fields",
			slog.String("entry_point", string(in.EntryPoint)),
			slog.Int("body_bytes", len(in.Body)))
		return model.Reconciliation{}, domainErrors.ErrMalformedCallback
	}

	return u.process(ctx, in.EntryPoint, payload, u.verifier.Check(payload.Fields))
}

// ProcessVerified reconciles fields fetched directly from the gateway API, which need no signature.
func (u *CallbackUseCase) ProcessVerified(ctx context.Context, fields map[string]string) (model.Reconciliation, error) {
	payload := payu.Payload{Source: payu.SourceJSON, Fields: fields}
	return u.process(ctx, model.EntryPointSweeper, payload, model.Verdict{Valid: true, Template: "verify_payment"})
}

func (u *CallbackUseCase) process(ctx context.Context, entry model.EntryPoint, payload payu.Payload, verdict model.Verdict) (model.Reconciliation, error) {
	result, err := u.interpreter.Interpret(payload.Fields)
	if err != nil {
		u.logger.Error("callback without order reference",
			slog.String("entry_point", string(entry)),
			slog.String("txnid", result.TxnID),
			slog.String("source", payload.Source.String()))
		return model.Reconciliation{Result: result}, err
	}

	log := u.logger.With(
		slog.String("order_id", result.OrderReference),
		slog.String("entry_point", string(entry)),
		slog.String("txnid", result.TxnID))

	switch {
	case !verdict.Valid:
		log.Warn("callback signature check failed",
			slog.String("reason", verdict.Reason),
			slog.String("hash", logger.Mask(payload.Get(payu.FieldHash))))
	case verdict.Unsigned:
		log.Warn("unsigned callback accepted")
	case verdict.Template == "":
		log.Warn("signature verification skipped", slog.String("reason", verdict.Reason))
	}
	if result.InferredSuccess {
		log.Warn("success inferred from gateway references", slog.String("gateway_status", result.GatewayStatus))
	}

	order, err := retryStore(ctx, u.retry, func(ctx context.Context) (*model.Order, error) {
		return u.orders.GetByID(ctx, result.OrderReference)
	})
	if err != nil {
		if !errors.Is(err, domainErrors.ErrNotFound) {
			log.Error("order lookup failed", slog.Any("error", err))
			return model.Reconciliation{OrderID: result.OrderReference, Result: result}, err
		}
		order = nil
	}

	raw := rawResponse(payload, verdict, result, entry)
	rec, err := u.reconciler.Reconcile(ctx, result, verdict.Valid, order, raw)
	if err != nil {
		log.Error("payment update failed", slog.Any("error", err))
		return rec, err
	}

	u.audit(ctx, log, entry, rec, verdict, payload)

	switch rec.Outcome {
	case model.OutcomeOrderNotFound:
		return rec, fmt.Errorf("%w: %s", domainErrors.ErrOrderNotFound, result.OrderReference)
	case model.OutcomeRejected:
		return rec, fmt.Errorf("%w: %s", domainErrors.ErrSignatureInvalid, verdict.Reason)
	default:
		return rec, nil
	}
}

func (u *CallbackUseCase) audit(ctx context.Context, log *slog.Logger, entry model.EntryPoint, rec model.Reconciliation, verdict model.Verdict, payload payu.Payload) {
	body, err := json.Marshal(payload.Fields)
	if err != nil {
		log.Warn("audit payload encoding failed", slog.Any("error", err))
		body = nil
	}
	record := model.CallbackRecord{
		OrderReference: rec.Result.OrderReference,
		EntryPoint:     entry,
		Outcome:        rec.Outcome,
		TxnID:          rec.Result.TxnID,
		GatewayStatus:  rec.Result.GatewayStatus,
		SignatureValid: verdict.Valid,
		Unsigned:       verdict.Unsigned,
		Template:       verdict.Template,
		Unverified:     rec.Unverified,
		AmountMismatch: rec.AmountMismatch,
		Payload:        body,
	}
	_, err = retryStore(ctx, u.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, u.callbacks.Record(ctx, record)
	})
	if err != nil {
		log.Warn("callback audit write failed", slog.Any("error", err))
	}
}

func rawResponse(payload payu.Payload, verdict model.Verdict, result model.CallbackResult, entry model.EntryPoint) json.RawMessage {
	doc := map[string]any{
		"payload": payload.Fields,
		"meta": map[string]any{
			"source":           payload.Source.String(),
			"entry_point":      entry,
			"signature_valid":  verdict.Valid,
			"template":         verdict.Template,
			"unsigned":         verdict.Unsigned,
			"inferred_success": result.InferredSuccess,
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil
	}
	return raw
}
