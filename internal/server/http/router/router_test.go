package router

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/model"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/server/http/handlers"
	testhelpers "github.com/polkiloo/storefront/internal/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:   config.EnvDevelopment,
		ClientBaseURL: "https://shop.example.com",
	}
}

func newFacade() testhelpers.PaymentFacadeStub {
	return testhelpers.PaymentFacadeStub{CallbackFacadeStub: &testhelpers.CallbackFacadeStub{}}
}

func operator(t *testing.T, key string) *pkgAuth.OperatorAuthenticator {
	t.Helper()
	hash, err := pkgAuth.NewBcryptHasher(bcrypt.MinCost).Hash(key)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	a, err := pkgAuth.NewOperatorAuthenticator(hash, pkgAuth.NewBcryptHasher(0))
	if err != nil {
		t.Fatalf("authenticator: %v", err)
	}
	return a
}

func serve(engine *gin.Engine, method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func TestSetupPaymentRoutes(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	engine := Setup(Params{Facade: newFacade(), Config: testConfig(), Logger: logger})

	resp := serve(engine, http.MethodPost, "/api/payments/payu/callback", strings.NewReader("udf1=ord_1"), map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for callback, got %d", resp.Code)
	}

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		resp = serve(engine, method, "/api/payments/payu/success?udf1=ord_1", nil, nil)
		if resp.Code != http.StatusSeeOther {
			t.Fatalf("%s success: expected 303, got %d", method, resp.Code)
		}
		resp = serve(engine, method, "/api/payments/payu/failure?udf1=ord_1", nil, nil)
		if resp.Code != http.StatusSeeOther {
			t.Fatalf("%s failure: expected 303, got %d", method, resp.Code)
		}
	}

	resp = serve(engine, http.MethodGet, "/api/payments/orders/ord_1/status", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for status, got %d", resp.Code)
	}

	resp = serve(engine, http.MethodPost, "/api/payments/orders/ord_1/initiate", strings.NewReader(`{"firstName":"Asha","email":"asha@example.com"}`), map[string]string{"Content-Type": "application/json"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for initiate, got %d", resp.Code)
	}

	resp = serve(engine, http.MethodGet, "/healthz", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for healthz, got %d", resp.Code)
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

func TestSetupCORSOnlyForClientRoutes(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	engine := Setup(Params{Facade: newFacade(), Config: testConfig(), Logger: logger})

	resp := serve(engine, http.MethodOptions, "/api/payments/orders/ord_1/initiate", nil, map[string]string{
		"Origin":                        "https://shop.example.com",
		"Access-Control-Request-Method": http.MethodPost,
	})
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example.com" {
		t.Fatalf("expected preflight to allow client origin, got %q (status %d)", got, resp.Code)
	}

	resp = serve(engine, http.MethodPost, "/api/payments/payu/success?udf1=ord_1", nil, map[string]string{"Origin": "https://secure.payu.in"})
	if resp.Code != http.StatusSeeOther {
		t.Fatalf("gateway origin must not be blocked, got %d", resp.Code)
	}
}

func TestSetupAdminRoutes(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	facade := newFacade()
	facade.ReviewFacadeStub = testhelpers.ReviewFacadeStub{
		FlaggedFn: func(context.Context, int) ([]model.Order, error) {
			return []model.Order{{ID: "ord_1"}}, nil
		},
	}

	disabled := Setup(Params{Facade: facade, Config: testConfig(), Logger: logger})
	if resp := serve(disabled, http.MethodGet, "/api/admin/payments/review", nil, nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected admin routes to be absent, got %d", resp.Code)
	}

	engine := Setup(Params{Facade: facade, Operator: operator(t, "ops-key"), Config: testConfig(), Logger: logger})
	if resp := serve(engine, http.MethodGet, "/api/admin/payments/review", nil, nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", resp.Code)
	}
	resp := serve(engine, http.MethodGet, "/api/admin/payments/review", nil, map[string]string{"Authorization": "Bearer ops-key"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"orderId":"ord_1"`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

var _ handlers.PaymentFacade = testhelpers.PaymentFacadeStub{}
