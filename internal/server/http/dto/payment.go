package dto

import "time"

// InitiateRequest carries buyer details for the hosted checkout.
type InitiateRequest struct {
	FirstName   string `json:"firstName" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Phone       string `json:"phone"`
	ProductInfo string `json:"productInfo"`
}

// InitiateResponse is the form the browser posts to the gateway.
type InitiateResponse struct {
	Action string            `json:"action"`
	Fields map[string]string `json:"fields"`
}

// PaymentStatusResponse is the public view of an order's payment.
type PaymentStatusResponse struct {
	OrderID       string     `json:"orderId"`
	OrderNumber   string     `json:"orderNumber"`
	OrderStatus   string     `json:"orderStatus"`
	PaymentStatus string     `json:"paymentStatus"`
	TransactionID string     `json:"transactionId,omitempty"`
	Total         string     `json:"total"`
	PaymentDate   *time.Time `json:"paymentDate,omitempty"`
}
