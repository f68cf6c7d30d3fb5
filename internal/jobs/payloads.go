package jobs

// OrderConfirmationPayload is the data needed to confirm an order to its
// owner. Keep payloads minimal and ID-based; the worker loads details from
// the DB.
type OrderConfirmationPayload struct {
	OrderID     string `json:"orderId"`
	UserID      string `json:"userId"`
	OrderNumber string `json:"orderNumber,omitempty"`
	RequestID   string `json:"requestId,omitempty"` // optional: correlation
}

// DeliveryAssignedPayload tells a driver a delivery now belongs to them.
type DeliveryAssignedPayload struct {
	DeliveryID string `json:"deliveryId"`
	OrderID    string `json:"orderId"`
	DriverID   string `json:"driverId"`
	RequestID  string `json:"requestId,omitempty"`
}
