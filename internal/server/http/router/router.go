package router

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/server/http/handlers"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
)

// Params lists router dependencies.
type Params struct {
	fx.In

	Facade   handlers.PaymentFacade
	Operator *pkgAuth.OperatorAuthenticator
	Config   *config.Config
	Logger   *slog.Logger
}

// Setup configures gin router with handlers and middleware.
func Setup(p Params) *gin.Engine {
	if p.Config.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(p.Logger))
	engine.Use(middleware.RequestBody(middleware.DefaultMaxBodyBytes))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	paymentHandler := handlers.NewPaymentHandler(p.Facade, p.Facade, p.Config.ClientBaseURL, p.Logger)
	healthHandler := handlers.NewHealthHandler(p.Facade, p.Logger)

	engine.GET("/healthz", healthHandler.Check)

	payments := engine.Group("/api/payments")

	// Called by the gateway only.
	payu := payments.Group("/payu")
	payu.POST("/callback", paymentHandler.Callback)
	payu.Match([]string{http.MethodGet, http.MethodPost}, "/success", paymentHandler.Success)
	payu.Match([]string{http.MethodGet, http.MethodPost}, "/failure", paymentHandler.Failure)

	orders := payments.Group("/orders")
	orders.Use(clientCORS(p.Config.CORSOrigins, p.Config.ClientBaseURL))
	orders.POST("/:id/initiate", paymentHandler.Initiate)
	orders.GET("/:id/status", paymentHandler.Status)
	orders.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	if p.Operator != nil && p.Operator.Enabled() {
		reviewHandler := handlers.NewReviewHandler(p.Facade)
		admin := engine.Group("/api/admin")
		admin.Use(middleware.OperatorRequired(p.Operator))
		admin.GET("/payments/review", reviewHandler.Flagged)
		admin.GET("/orders/:id/callbacks", reviewHandler.Callbacks)
	} else {
		p.Logger.Info("operator review routes disabled")
	}

	return engine
}

func clientCORS(origins []string, clientURL string) gin.HandlerFunc {
	if len(origins) == 0 {
		if base := strings.TrimRight(strings.TrimSpace(clientURL), "/"); base != "" {
			origins = []string{base}
		}
	}
	if len(origins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-Id"},
		ExposeHeaders: []string{"X-Request-Id"},
		MaxAge:        12 * time.Hour,
	})
}
