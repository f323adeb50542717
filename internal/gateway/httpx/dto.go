package httpx

// StartOrderRequest is the body of POST /orders. OrderID is optional; when
// empty the gateway assigns one.
type StartOrderRequest struct {
	OrderID string `json:"order_id"`
	Drink   string `json:"drink"`
	Size    string `json:"size"`
}

// StatusResponse mirrors the workflow's status snapshot.
type StatusResponse struct {
	OrderID     string `json:"order_id"`
	Charged     bool   `json:"charged"`
	Brewed      bool   `json:"brewed"`
	ReceiptSent bool   `json:"receipt_sent"`
	Cancelled   bool   `json:"cancelled"`
	AmountCents int    `json:"amount_cents"`
	Status      string `json:"status,omitempty"`
}

// ResultResponse is the terminal result snapshot.
type ResultResponse struct {
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	Charged     bool   `json:"charged"`
	Brewed      bool   `json:"brewed"`
	ReceiptSent bool   `json:"receipt_sent"`
	AmountCents int    `json:"amount_cents"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
