package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/pkg/payu"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress  string
	DatabaseURI string
	Environment string

	MerchantKey  string
	MerchantSalt string
	// AllowUnsigned accepts callbacks that carry no hash at all. Every use is audited.
	AllowUnsigned bool
	// SkipUnconfigured skips verification when no salt is set. Rejected in production.
	SkipUnconfigured bool
	// TolerateUnverified applies authentic-looking callbacks whose hash failed, flagged for review.
	TolerateUnverified         bool
	InferSuccessFromReferences bool
	HashTemplates              []payu.Template

	PaymentURL    string
	VerifyURL     string
	PublicBaseURL string
	ClientBaseURL string
	CORSOrigins   []string

	AmountTolerance     decimal.Decimal
	StoreTimeout        time.Duration
	StoreRetryAttempts  int
	StoreRetryBaseDelay time.Duration

	SweepInterval   time.Duration
	SweepPendingAge time.Duration
	SweepBatchSize  int
	WorkerPoolSize  int
	ShutdownTimeout time.Duration

	OperatorKeyHash string
}

const (
	defaultRunAddress          = ":8080"
	defaultPaymentURL          = "https://secure.payu.in/_payment"
	defaultPublicBaseURL       = "http://localhost:8080"
	defaultClientBaseURL       = "http://localhost:3000"
	defaultAmountTolerance     = "0.01"
	defaultStoreTimeout        = 3 * time.Second
	defaultStoreRetryAttempts  = 3
	defaultStoreRetryBaseDelay = 50 * time.Millisecond
	defaultSweepPendingAge     = 15 * time.Minute
	defaultSweepBatchSize      = 32
	defaultWorkerPoolSize      = 4
	defaultShutdownTimeout     = 10 * time.Second
)

// Production reports whether the deployment runs with production guarantees.
func (c *Config) Production() bool {
	return c.Environment == EnvProduction
}

// SweeperEnabled reports whether the pending payment sweeper should run.
func (c *Config) SweeperEnabled() bool {
	return c.VerifyURL != "" && c.SweepInterval > 0
}

// Load parses configuration from .env, environment variables and flags.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:                 getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:                getString(lookup, "DATABASE_URI", ""),
		Environment:                getString(lookup, "APP_ENV", EnvProduction),
		MerchantKey:                getString(lookup, "PAYU_MERCHANT_KEY", ""),
		MerchantSalt:               getString(lookup, "PAYU_MERCHANT_SALT", ""),
		AllowUnsigned:              getBool(lookup, "PAYU_ALLOW_UNSIGNED", false),
		SkipUnconfigured:           getBool(lookup, "PAYU_SKIP_UNCONFIGURED", false),
		TolerateUnverified:         getBool(lookup, "PAYU_TOLERATE_UNVERIFIED", false),
		InferSuccessFromReferences: getBool(lookup, "PAYU_INFER_SUCCESS_FROM_REFERENCES", false),
		PaymentURL:                 getString(lookup, "PAYU_PAYMENT_URL", defaultPaymentURL),
		VerifyURL:                  getString(lookup, "PAYU_VERIFY_URL", ""),
		PublicBaseURL:              getString(lookup, "PUBLIC_BASE_URL", defaultPublicBaseURL),
		ClientBaseURL:              getString(lookup, "CLIENT_BASE_URL", defaultClientBaseURL),
		CORSOrigins:                getList(lookup, "CORS_ALLOWED_ORIGINS"),
		StoreTimeout:               getDuration(lookup, "STORE_TIMEOUT", defaultStoreTimeout),
		StoreRetryAttempts:         getInt(lookup, "STORE_RETRY_ATTEMPTS", defaultStoreRetryAttempts),
		StoreRetryBaseDelay:        getDuration(lookup, "STORE_RETRY_BASE_DELAY", defaultStoreRetryBaseDelay),
		SweepInterval:              getDuration(lookup, "SWEEP_INTERVAL", 0),
		SweepPendingAge:            getDuration(lookup, "SWEEP_PENDING_AGE", defaultSweepPendingAge),
		SweepBatchSize:             getInt(lookup, "SWEEP_BATCH_SIZE", defaultSweepBatchSize),
		WorkerPoolSize:             getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ShutdownTimeout:            getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		OperatorKeyHash:            getString(lookup, "OPERATOR_KEY_HASH", ""),
	}

	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		sweepIntervalStr   = cfg.SweepInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		storeTimeoutStr    = cfg.StoreTimeout.String()
		toleranceStr       = getString(lookup, "AMOUNT_TOLERANCE", defaultAmountTolerance)
		templatesStr       = getString(lookup, "PAYU_HASH_TEMPLATES", "")
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.Environment, "env", cfg.Environment, "Deployment environment (production|development)")
	fs.StringVar(&cfg.VerifyURL, "verify-url", cfg.VerifyURL, "Gateway verify_payment API URL")
	fs.StringVar(&cfg.ClientBaseURL, "client-url", cfg.ClientBaseURL, "Base URL of the client result pages")
	fs.StringVar(&cfg.PublicBaseURL, "public-url", cfg.PublicBaseURL, "Public base URL of this service")
	fs.StringVar(&templatesStr, "hash-templates", templatesStr, "Comma separated response hash templates")
	fs.StringVar(&toleranceStr, "amount-tolerance", toleranceStr, "Allowed difference between charged amount and order total")
	fs.StringVar(&storeTimeoutStr, "store-timeout", storeTimeoutStr, "Timeout for a single order store call")
	fs.IntVar(&cfg.StoreRetryAttempts, "store-retries", cfg.StoreRetryAttempts, "Attempts for transient order store failures")
	fs.StringVar(&sweepIntervalStr, "sweep-interval", sweepIntervalStr, "Interval between pending payment sweeps")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent sweep workers")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.SweepInterval, err = time.ParseDuration(sweepIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid sweep interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.StoreTimeout, err = time.ParseDuration(storeTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid store timeout: %w", err)
	}

	if cfg.AmountTolerance, err = decimal.NewFromString(toleranceStr); err != nil {
		return nil, fmt.Errorf("invalid amount tolerance: %w", err)
	}

	if cfg.HashTemplates, err = payu.ParseTemplates(splitList(templatesStr)); err != nil {
		return nil, fmt.Errorf("invalid hash templates: %w", err)
	}

	if saltFile, ok := lookup("PAYU_MERCHANT_SALT_FILE"); ok && saltFile != "" {
		content, err := os.ReadFile(saltFile)
		if err != nil {
			return nil, fmt.Errorf("read merchant salt file: %w", err)
		}
		cfg.MerchantSalt = strings.TrimSpace(string(content))
	}

	if cfg.StoreRetryAttempts <= 0 {
		cfg.StoreRetryAttempts = defaultStoreRetryAttempts
	}

	if cfg.StoreRetryBaseDelay <= 0 {
		cfg.StoreRetryBaseDelay = defaultStoreRetryBaseDelay
	}

	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = defaultSweepBatchSize
	}

	if cfg.SweepPendingAge <= 0 {
		cfg.SweepPendingAge = defaultSweepPendingAge
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.AmountTolerance.IsNegative() {
		return nil, fmt.Errorf("amount tolerance must not be negative")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURI == "" {
		return fmt.Errorf("database URI must be provided")
	}

	switch c.Environment {
	case EnvProduction, EnvDevelopment:
	default:
		return fmt.Errorf("unknown environment %q", c.Environment)
	}

	if !c.Production() {
		return nil
	}

	if c.MerchantKey == "" {
		return fmt.Errorf("merchant key must be provided in production")
	}
	if c.MerchantSalt == "" {
		return fmt.Errorf("merchant salt must be provided in production")
	}
	if c.SkipUnconfigured {
		return fmt.Errorf("PAYU_SKIP_UNCONFIGURED is not allowed in production")
	}
	return nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(lookup envLookup, key string, def bool) bool {
	if v, ok := lookup(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getList(lookup envLookup, key string) []string {
	v, _ := lookup(key)
	return splitList(v)
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
