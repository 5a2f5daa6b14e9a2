// Package payu talks to the PayU merchant API.
package payu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	protocol "github.com/polkiloo/storefront/internal/pkg/payu"
)

const commandVerifyPayment = "verify_payment"

// ErrVerifyDisabled is returned when no verify endpoint is configured.
var ErrVerifyDisabled = errors.New("payment verification is not configured")

// TooManyRequestsError represents rate limiting signal from the gateway.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Client fetches authoritative transaction records.
type Client interface {
	Verify(ctx context.Context, txnID string) (map[string]string, error)
}

// Credentials identify the merchant account.
type Credentials struct {
	Key  string
	Salt string
}

// HTTPClient implements Client via the postservice command API.
type HTTPClient struct {
	endpoint string
	creds    Credentials
	rest     *resty.Client
	logger   *slog.Logger
}

type verifyResponse struct {
	Msg                string                     `json:"msg"`
	TransactionDetails map[string]json.RawMessage `json:"transaction_details"`
}

// NewHTTPClient creates gateway client with default timeout.
func NewHTTPClient(endpoint string, creds Credentials, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse verify url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("verify url must be absolute")
	}
	if creds.Key == "" || creds.Salt == "" {
		return nil, fmt.Errorf("verify client requires merchant key and salt")
	}

	rest := resty.New().
		SetTimeout(10*time.Second).
		SetHeader("Accept", "application/json")

	return &HTTPClient{
		endpoint: parsed.String(),
		creds:    creds,
		rest:     rest,
		logger:   logger,
	}, nil
}

// Verify asks the gateway for the final state of txnID. Unknown or unfinished transactions
// return ErrPaymentPending.
func (c *HTTPClient) Verify(ctx context.Context, txnID string) (map[string]string, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("form", "2").
		SetFormData(map[string]string{
			protocol.FieldKey:  c.creds.Key,
			"command":          commandVerifyPayment,
			"var1":             txnID,
			protocol.FieldHash: protocol.CommandHash(c.creds.Key, commandVerifyPayment, txnID, c.creds.Salt),
		}).
		Post(c.endpoint)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, TooManyRequestsError{RetryAfter: parseRetryAfter(resp.Header().Get("Retry-After"))}
	default:
		c.logger.Error("verify request failed",
			slog.Int("status", resp.StatusCode()),
			slog.String("body", string(resp.Body())))
		return nil, fmt.Errorf("verify error: %s", resp.Status())
	}

	var data verifyResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}

	raw, ok := data.TransactionDetails[txnID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrPaymentPending, data.Msg)
	}
	payload := protocol.Normalize(raw, nil)
	if payload.Empty() {
		return nil, fmt.Errorf("%w: transaction %s", domainErrors.ErrPaymentPending, txnID)
	}

	fields := payload.Fields
	if !finalStatus(fields[protocol.FieldStatus]) {
		return nil, fmt.Errorf("%w: status %q", domainErrors.ErrPaymentPending, fields[protocol.FieldStatus])
	}
	if fields[protocol.FieldAmount] == "" {
		for _, alt := range []string{"amt", "transaction_amount"} {
			if v := fields[alt]; v != "" {
				fields[protocol.FieldAmount] = v
				break
			}
		}
	}
	if fields[protocol.FieldTxnID] == "" {
		fields[protocol.FieldTxnID] = txnID
	}
	return fields, nil
}

func finalStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success", "captured", "failure", "failed":
		return true
	}
	return false
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}

type disabledClient struct{}

func (disabledClient) Verify(context.Context, string) (map[string]string, error) {
	return nil, ErrVerifyDisabled
}
