package delivery

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

var (
	ErrNotFound          = errors.New("delivery not found")
	ErrInvalidTransition = errors.New("invalid delivery status transition")
)

// validTransitions is the authoritative state machine for delivery status.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusDelivered, StatusCancelled},
}

// CanTransition reports whether a delivery may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Delivery struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	DriverID  string    `json:"driverId"`
	Price     float64   `json:"price"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateDeliveryRequest struct {
	OrderID  string  `json:"orderId" binding:"required,uuid"`
	DriverID string  `json:"driverId" binding:"required,uuid"`
	Price    float64 `json:"price" binding:"required,gt=0"`
}

type UpdateDeliveryStatusRequest struct {
	Status Status `json:"status" binding:"required,oneof=pending in_progress delivered cancelled"`
}

// ListDeliveriesFilter narrows delivery listings. DriverID and Statuses are
// set by the authorization layer, never from client input.
type ListDeliveriesFilter struct {
	DriverID *string
	Statuses []Status
	Limit    int
	Offset   int
}

func NewFromCreateRequest(req CreateDeliveryRequest) Delivery {
	now := time.Now().UTC()

	return Delivery{
		ID:        uuid.NewString(),
		OrderID:   req.OrderID,
		DriverID:  req.DriverID,
		Price:     req.Price,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
