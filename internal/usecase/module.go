package usecase

import (
	"log/slog"
	"strings"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/pkg/payu"
)

const (
	successPath = "/api/payments/payu/success"
	failurePath = "/api/payments/payu/failure"
)

// Module provides core payment use cases to the fx container.
var Module = fx.Provide(
	newRetryPolicy,
	newVerifier,
	newInterpreter,
	newReconciler,
	newCheckoutOptions,
	NewCallbackUseCase,
	NewStatusUseCase,
	NewInitiateUseCase,
	NewReviewUseCase,
	newSweepUseCase,
)

func newRetryPolicy(cfg *config.Config) RetryPolicy {
	return RetryPolicy{
		Attempts:  cfg.StoreRetryAttempts,
		BaseDelay: cfg.StoreRetryBaseDelay,
		Timeout:   cfg.StoreTimeout,
	}
}

func newVerifier(cfg *config.Config) *payu.Verifier {
	return payu.NewVerifier(payu.VerifierConfig{
		MerchantKey:      cfg.MerchantKey,
		Salt:             cfg.MerchantSalt,
		Production:       cfg.Production(),
		SkipUnconfigured: cfg.SkipUnconfigured,
		AllowUnsigned:    cfg.AllowUnsigned,
		Templates:        cfg.HashTemplates,
	})
}

func newInterpreter(cfg *config.Config) *payu.Interpreter {
	return payu.NewInterpreter(payu.InterpreterOptions{
		InferSuccessFromReferences: cfg.InferSuccessFromReferences,
	})
}

func newReconciler(orders repository.OrderRepository, cfg *config.Config, retry RetryPolicy, logger *slog.Logger) *Reconciler {
	return NewReconciler(orders, ReconcilerOptions{
		TolerateUnverified: cfg.TolerateUnverified,
		AmountTolerance:    cfg.AmountTolerance,
		Retry:              retry,
	}, logger)
}

func newSweepUseCase(
	orders repository.OrderRepository,
	verifier TransactionVerifier,
	callbacks *CallbackUseCase,
	cfg *config.Config,
	retry RetryPolicy,
	logger *slog.Logger,
) *SweepUseCase {
	return NewSweepUseCase(orders, verifier, callbacks, cfg.SweepPendingAge, retry, logger)
}

func newCheckoutOptions(cfg *config.Config) CheckoutOptions {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	return CheckoutOptions{
		MerchantKey: cfg.MerchantKey,
		Salt:        cfg.MerchantSalt,
		PaymentURL:  cfg.PaymentURL,
		SuccessURL:  base + successPath,
		FailureURL:  base + failurePath,
	}
}
