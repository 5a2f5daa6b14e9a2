package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// ReviewHandler serves the operator review endpoints.
type ReviewHandler struct {
	facade ReviewFacade
}

// NewReviewHandler constructs ReviewHandler.
func NewReviewHandler(facade ReviewFacade) *ReviewHandler {
	return &ReviewHandler{facade: facade}
}

// Flagged handles GET /api/admin/payments/review.
func (h *ReviewHandler) Flagged(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	orders, err := h.facade.FlaggedPayments(c.Request.Context(), limit)
	if err != nil {
		c.JSON(HTTPStatus(err), gin.H{"error": errorMessage(err)})
		return
	}

	resp := make([]dto.FlaggedPaymentResponse, 0, len(orders))
	for _, o := range orders {
		pd := o.PaymentDetails
		resp = append(resp, dto.FlaggedPaymentResponse{
			OrderID:        o.ID,
			OrderNumber:    o.OrderNumber,
			OrderStatus:    string(o.Status),
			PaymentStatus:  string(pd.PaymentStatus),
			PaymentMethod:  pd.PaymentMethod,
			TransactionID:  pd.TransactionID,
			PaymentID:      pd.PaymentID,
			Total:          o.Total.StringFixed(2),
			Amount:         pd.Amount.StringFixed(2),
			Unverified:     pd.Unverified,
			AmountMismatch: pd.AmountMismatch,
			PaymentDate:    pd.PaymentDate,
			GatewayRecord:  pd.RawGatewayResponse,
			UpdatedAt:      o.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// Callbacks handles GET /api/admin/orders/:id/callbacks.
func (h *ReviewHandler) Callbacks(c *gin.Context) {
	records, err := h.facade.OrderCallbacks(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(HTTPStatus(err), gin.H{"error": errorMessage(err)})
		return
	}
	if len(records) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	resp := make([]dto.CallbackRecordResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, dto.CallbackRecordResponse{
			ID:             r.ID,
			EntryPoint:     string(r.EntryPoint),
			Outcome:        string(r.Outcome),
			TxnID:          r.TxnID,
			GatewayStatus:  r.GatewayStatus,
			SignatureValid: r.SignatureValid,
			Unsigned:       r.Unsigned,
			Template:       r.Template,
			Unverified:     r.Unverified,
			AmountMismatch: r.AmountMismatch,
			Payload:        r.Payload,
			CreatedAt:      r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}
