package notifications

import "context"

type OrderConfirmationInput struct {
	Email       string
	Name        string
	OrderID     string
	OrderNumber string
}

type DeliveryAssignedInput struct {
	Email      string
	Name       string
	DeliveryID string
	OrderID    string
}

type Notifier interface {
	SendOrderConfirmation(ctx context.Context, input OrderConfirmationInput) error
	SendDeliveryAssigned(ctx context.Context, input DeliveryAssignedInput) error
}
