package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger

	schemaMu    sync.Mutex
	schemaReady bool
}

type orderRepository struct {
	storage *Storage
}

type callbackRepository struct {
	storage *Storage
}

// New creates storage. The pool dials lazily and the schema is created on first use,
// so an unreachable database does not prevent startup.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	return &Storage{pool: pool, logger: logger}, nil
}

// ensureSchema creates the tables once. A failed attempt is retried on the next call.
func (s *Storage) ensureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady {
		return nil
	}
	if err := s.initSchema(ctx); err != nil {
		return classify(err)
	}
	s.schemaReady = true
	return nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Callbacks() repository.CallbackRepository {
	return &callbackRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
            id TEXT PRIMARY KEY,
            order_number TEXT UNIQUE NOT NULL,
            total NUMERIC(12,2) NOT NULL,
            status TEXT NOT NULL DEFAULT 'CREATED',
            payment_method TEXT NOT NULL DEFAULT '',
            payment_status TEXT NOT NULL DEFAULT 'PENDING',
            transaction_id TEXT NOT NULL DEFAULT '',
            payment_id TEXT NOT NULL DEFAULT '',
            payment_amount NUMERIC(12,2),
            currency TEXT NOT NULL DEFAULT 'INR',
            payment_date TIMESTAMPTZ,
            raw_gateway_response JSONB,
            unverified BOOLEAN NOT NULL DEFAULT FALSE,
            amount_mismatch BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS payment_callbacks (
            id TEXT PRIMARY KEY,
            order_reference TEXT NOT NULL,
            entry_point TEXT NOT NULL,
            outcome TEXT NOT NULL,
            txn_id TEXT NOT NULL DEFAULT '',
            gateway_status TEXT NOT NULL DEFAULT '',
            signature_valid BOOLEAN NOT NULL,
            unsigned BOOLEAN NOT NULL DEFAULT FALSE,
            template TEXT NOT NULL DEFAULT '',
            unverified BOOLEAN NOT NULL DEFAULT FALSE,
            amount_mismatch BOOLEAN NOT NULL DEFAULT FALSE,
            payload JSONB,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_payment_pending ON orders(payment_status, status, updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_callbacks_order ON payment_callbacks(order_reference, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

const orderColumns = `id, order_number, total::text, status, payment_method, payment_status, transaction_id,
        payment_id, payment_amount::text, currency, payment_date, raw_gateway_response,
        unverified, amount_mismatch, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o             model.Order
		total         string
		paymentAmount *string
		raw           []byte
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &total, &o.Status,
		&o.PaymentDetails.PaymentMethod, &o.PaymentDetails.PaymentStatus, &o.PaymentDetails.TransactionID,
		&o.PaymentDetails.PaymentID, &paymentAmount, &o.PaymentDetails.Currency, &o.PaymentDetails.PaymentDate, &raw,
		&o.PaymentDetails.Unverified, &o.PaymentDetails.AmountMismatch, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("order %s total: %w", o.ID, err)
	}
	if paymentAmount != nil {
		if o.PaymentDetails.Amount, err = decimal.NewFromString(*paymentAmount); err != nil {
			return nil, fmt.Errorf("order %s payment amount: %w", o.ID, err)
		}
	}
	if len(raw) > 0 {
		o.PaymentDetails.RawGatewayResponse = raw
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- OrderRepository implementation ---

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	if err := r.storage.ensureSchema(ctx); err != nil {
		return nil, err
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, classify(err)
	}
	return order, nil
}

func (r *orderRepository) ApplyPayment(ctx context.Context, id string, update model.PaymentUpdate) (*model.Order, error) {
	if err := r.storage.ensureSchema(ctx); err != nil {
		return nil, err
	}
	query := `UPDATE orders SET
            status=$2, payment_status=$3, payment_method=$4, transaction_id=$5, payment_id=$6,
            payment_amount=$7::numeric, payment_date=$8, raw_gateway_response=$9,
            unverified=$10, amount_mismatch=$11, updated_at=NOW()
        WHERE id=$1 AND status IN ('CREATED', 'PAYMENT_PENDING')
            AND payment_status NOT IN ('COMPLETED', 'FAILED', 'REFUNDED')
        RETURNING ` + orderColumns

	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query,
		id, update.OrderStatus, update.PaymentStatus, update.PaymentMethod, update.TransactionID, update.PaymentID,
		update.Amount.StringFixed(2), update.PaymentDate, nullableJSON(update.RawGatewayResponse),
		update.Unverified, update.AmountMismatch,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrTransitionConflict
		}
		return nil, classify(err)
	}
	return order, nil
}

func (r *orderRepository) MarkPending(ctx context.Context, id string) (*model.Order, error) {
	if err := r.storage.ensureSchema(ctx); err != nil {
		return nil, err
	}
	query := `UPDATE orders SET status='PAYMENT_PENDING', payment_status='PENDING', updated_at=NOW()
        WHERE id=$1 AND status IN ('CREATED', 'PAYMENT_PENDING')
            AND payment_status NOT IN ('COMPLETED', 'FAILED', 'REFUNDED')
        RETURNING ` + orderColumns

	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrTransitionConflict
		}
		return nil, classify(err)
	}
	return order, nil
}

// ClaimPendingBefore locks stale pending orders and touches them so concurrent sweepers skip them.
func (r *orderRepository) ClaimPendingBefore(ctx context.Context, before time.Time, limit int) ([]model.Order, error) {
	if err := r.storage.ensureSchema(ctx); err != nil {
		return nil, err
	}
	selectQuery := `SELECT ` + orderColumns + ` FROM orders
        WHERE payment_status='PENDING' AND status='PAYMENT_PENDING' AND updated_at < $1
        ORDER BY updated_at
        LIMIT $2
        FOR UPDATE SKIP LOCKED`

	var orders []model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, before, limit)
		if err != nil {
			return err
		}
		claimed, err := collectOrders(rows)
		if err != nil {
			return err
		}
		for _, o := range claimed {
			if _, err := tx.Exec(ctx, `UPDATE orders SET updated_at=NOW() WHERE id=$1`, o.ID); err != nil {
				return err
			}
		}
		orders = claimed
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return orders, nil
}

func (r *orderRepository) ListFlagged(ctx context.Context, limit int) ([]model.Order, error) {
	if err := r.storage.ensureSchema(ctx); err != nil {
		return nil, err
	}
	query := `SELECT ` + orderColumns + ` FROM orders
        WHERE unverified OR amount_mismatch
        ORDER BY updated_at DESC
        LIMIT $1`
	rows, err := r.storage.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, classify(err)
	}
	return collectOrders(rows)
}

// --- CallbackRepository implementation ---

func (r *callbackRepository) Record(ctx context.Context, record model.CallbackRecord) error {
	if err := r.storage.ensureSchema(ctx); err != nil {
		return err
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	const query = `INSERT INTO payment_callbacks
            (id, order_reference, entry_point, outcome, txn_id, gateway_status, signature_valid,
             unsigned, template, unverified, amount_mismatch, payload)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.storage.pool.Exec(ctx, query,
		record.ID, record.OrderReference, record.EntryPoint, record.Outcome, record.TxnID, record.GatewayStatus,
		record.SignatureValid, record.Unsigned, record.Template, record.Unverified, record.AmountMismatch,
		nullableJSON(record.Payload),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrAlreadyExists
		}
		return classify(err)
	}
	return nil
}

func (r *callbackRepository) ListByOrder(ctx context.Context, orderID string) ([]model.CallbackRecord, error) {
	if err := r.storage.ensureSchema(ctx); err != nil {
		return nil, err
	}
	const query = `SELECT id, order_reference, entry_point, outcome, txn_id, gateway_status, signature_valid,
            unsigned, template, unverified, amount_mismatch, payload, created_at
        FROM payment_callbacks WHERE order_reference=$1 ORDER BY created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var result []model.CallbackRecord
	for rows.Next() {
		var (
			c       model.CallbackRecord
			payload []byte
		)
		if err := rows.Scan(&c.ID, &c.OrderReference, &c.EntryPoint, &c.Outcome, &c.TxnID, &c.GatewayStatus,
			&c.SignatureValid, &c.Unsigned, &c.Template, &c.Unverified, &c.AmountMismatch, &payload, &c.CreatedAt); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			c.Payload = payload
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// classify marks connectivity failures as ErrStoreUnavailable so callers can retry them.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var (
		pgErr   *pgconn.PgError
		connErr *pgconn.ConnectError
		netErr  net.Error
	)
	switch {
	case errors.As(err, &pgErr):
		// 08xxx connection exceptions, 53xxx resources, 57P0x shutdown.
		if strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "53") || strings.HasPrefix(pgErr.Code, "57P") {
			return fmt.Errorf("%w: %v", domainErrors.ErrStoreUnavailable, err)
		}
		return err
	case errors.As(err, &connErr), errors.As(err, &netErr),
		errors.Is(err, context.DeadlineExceeded), pgconn.Timeout(err), pgconn.SafeToRetry(err):
		return fmt.Errorf("%w: %v", domainErrors.ErrStoreUnavailable, err)
	default:
		return err
	}
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return classify(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck pings the store within two seconds.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", domainErrors.ErrStoreUnavailable, err)
	}
	return nil
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
