package dto

// CallbackData summarizes the order a callback touched.
type CallbackData struct {
	OrderID       string `json:"orderId"`
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
}

// CallbackResponse is returned to the gateway for server-to-server callbacks.
type CallbackResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    *CallbackData `json:"data,omitempty"`
}
