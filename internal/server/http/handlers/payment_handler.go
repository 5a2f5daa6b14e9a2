package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// Result page error codes understood by the storefront client.
const (
	errorCodeOrderNotFound   = "ORDER_NOT_FOUND"
	errorCodeProcessingIssue = "PROCESSING_ISSUE"
)

// PaymentHandler serves gateway callbacks, browser redirects and checkout endpoints.
type PaymentHandler struct {
	callbacks CallbackFacade
	checkout  CheckoutFacade
	clientURL string
	logger    *slog.Logger
}

// NewPaymentHandler constructs PaymentHandler. clientURL is the storefront origin result pages live under.
func NewPaymentHandler(callbacks CallbackFacade, checkout CheckoutFacade, clientURL string, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		callbacks: callbacks,
		checkout:  checkout,
		clientURL: strings.TrimRight(clientURL, "/"),
		logger:    logger,
	}
}

// Callback handles POST /api/payments/payu/callback.
func (h *PaymentHandler) Callback(c *gin.Context) {
	log := requestLogger(c, h.logger)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warn("callback body rejected", slog.String("error", err.Error()))
		c.JSON(HTTPStatus(err), dto.CallbackResponse{Message: errorMessage(err)})
		return
	}

	rec, err := h.callbacks.HandleCallback(c.Request.Context(), model.CallbackInput{
		EntryPoint: model.EntryPointServer,
		Body:       body,
		Query:      c.Request.URL.Query(),
	})
	if err != nil {
		status := HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			log.Error("callback processing failed", slog.String("kind", domainErrors.Kind(err)), slog.String("error", err.Error()))
		}
		c.JSON(status, dto.CallbackResponse{Message: errorMessage(err)})
		return
	}

	message := "Payment processed"
	if rec.Outcome == model.OutcomeNoOp {
		message = "Payment already processed"
	}
	c.JSON(http.StatusOK, dto.CallbackResponse{
		Success: true,
		Message: message,
		Data: &dto.CallbackData{
			OrderID:       rec.OrderID,
			Status:        orderStatus(rec),
			TransactionID: rec.Result.TxnID,
		},
	})
}

// Success handles GET|POST /api/payments/payu/success.
func (h *PaymentHandler) Success(c *gin.Context) {
	h.redirect(c, model.EntryPointRedirectSuccess)
}

// Failure handles GET|POST /api/payments/payu/failure.
func (h *PaymentHandler) Failure(c *gin.Context) {
	h.redirect(c, model.EntryPointRedirectFailure)
}

func (h *PaymentHandler) redirect(c *gin.Context, entry model.EntryPoint) {
	log := requestLogger(c, h.logger)
	params := url.Values{}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warn("redirect body rejected", slog.String("error", err.Error()))
		params.Set("error_Message", "Payment could not be processed")
		h.toResultPage(c, "failure", params)
		return
	}

	rec, err := h.callbacks.HandleCallback(c.Request.Context(), model.CallbackInput{
		EntryPoint: entry,
		Body:       body,
		Query:      c.Request.URL.Query(),
	})

	setNonEmpty(params, "orderId", rec.OrderID)
	setNonEmpty(params, "txnid", rec.Result.TxnID)
	setNonEmpty(params, "amount", redirectAmount(rec))
	setNonEmpty(params, "status", redirectStatus(rec))

	switch {
	case err == nil && paid(rec):
		h.toResultPage(c, "success", params)
		return
	case err == nil:
		message := rec.Result.ErrorMessage
		if message == "" {
			message = "Payment failed"
		}
		params.Set("error_Message", message)
	case errors.Is(err, domainErrors.ErrOrderNotFound):
		params.Set("error_Code", errorCodeOrderNotFound)
		params.Set("error_Message", "Order not found")
	case errors.Is(err, domainErrors.ErrStoreUnavailable):
		log.Error("redirect could not be reconciled", slog.String("order_id", rec.OrderID), slog.String("error", err.Error()))
		params.Set("error_Code", errorCodeProcessingIssue)
		params.Set("error_Message", "We could not confirm your payment. Please contact support with your transaction id.")
	default:
		if HTTPStatus(err) >= http.StatusInternalServerError {
			log.Error("redirect processing failed", slog.String("error", err.Error()))
		}
		params.Set("error_Message", "Payment could not be processed")
	}
	h.toResultPage(c, "failure", params)
}

func (h *PaymentHandler) toResultPage(c *gin.Context, page string, params url.Values) {
	target := h.clientURL + "/payment/" + page
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	c.Redirect(http.StatusSeeOther, target)
}

// Status handles GET /api/payments/orders/:id/status.
func (h *PaymentHandler) Status(c *gin.Context) {
	order, err := h.checkout.PaymentStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(HTTPStatus(err), gin.H{"error": errorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, dto.PaymentStatusResponse{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		OrderStatus:   string(order.Status),
		PaymentStatus: string(order.PaymentDetails.PaymentStatus),
		TransactionID: order.PaymentDetails.TransactionID,
		Total:         order.Total.StringFixed(2),
		PaymentDate:   order.PaymentDetails.PaymentDate,
	})
}

// Initiate handles POST /api/payments/orders/:id/initiate.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req dto.InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "firstName and email are required"})
		return
	}

	form, err := h.checkout.InitiatePayment(c.Request.Context(), c.Param("id"), model.Customer{
		FirstName:   req.FirstName,
		Email:       req.Email,
		Phone:       req.Phone,
		ProductInfo: req.ProductInfo,
	})
	if err != nil {
		status := HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			requestLogger(c, h.logger).Error("payment initiation failed", slog.String("order_id", c.Param("id")), slog.String("error", err.Error()))
		}
		c.JSON(status, gin.H{"error": errorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, dto.InitiateResponse{Action: form.Action, Fields: form.Fields})
}

func paid(rec model.Reconciliation) bool {
	if rec.Order != nil {
		return rec.Order.PaymentDetails.PaymentStatus == model.PaymentStatusCompleted
	}
	return rec.Result.IsSuccess
}

func orderStatus(rec model.Reconciliation) string {
	if rec.Order != nil {
		return string(rec.Order.Status)
	}
	return ""
}

func redirectStatus(rec model.Reconciliation) string {
	if rec.Result.GatewayStatus != "" {
		return rec.Result.GatewayStatus
	}
	if rec.Order != nil {
		return strings.ToLower(string(rec.Order.PaymentDetails.PaymentStatus))
	}
	return ""
}

func redirectAmount(rec model.Reconciliation) string {
	switch {
	case rec.Order != nil:
		return rec.Order.Total.StringFixed(2)
	case rec.Result.TxnID != "" && !rec.Result.AmountUnparsed:
		return rec.Result.Amount.StringFixed(2)
	}
	return ""
}

func setNonEmpty(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}
