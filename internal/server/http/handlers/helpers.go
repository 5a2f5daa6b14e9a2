package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
)

// HTTPStatus maps domain errors onto response codes.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch domainErrors.Kind(err) {
	case "malformed_callback", "missing_order_reference", "signature_invalid", "invalid_payment_form":
		return http.StatusBadRequest
	case "order_not_found":
		return http.StatusNotFound
	case "payment_closed":
		return http.StatusConflict
	case "store_unavailable":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	switch domainErrors.Kind(err) {
	case "malformed_callback":
		return "Malformed callback payload"
	case "missing_order_reference":
		return "Callback does not reference an order"
	case "signature_invalid":
		return "Invalid callback signature"
	case "order_not_found":
		return "Order not found"
	case "store_unavailable":
		return "Order store temporarily unavailable"
	case "payment_closed":
		return "Payment already completed for this order"
	case "invalid_payment_form":
		return err.Error()
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "Payload too large"
		}
		return "Internal error"
	}
}

func requestLogger(c *gin.Context, logger *slog.Logger) *slog.Logger {
	if id := c.GetString(middleware.RequestIDContextKey); id != "" {
		return logger.With(slog.String("request_id", id))
	}
	return logger
}
