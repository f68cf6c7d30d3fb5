package order

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

var ErrNotFound = errors.New("order not found")

type Order struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Price       float64   `json:"price"`
	OrderNumber int       `json:"orderNumber"`
	Status      Status    `json:"status"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateOrderRequest struct {
	Title       string  `json:"title" binding:"required,min=1,max=256"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	OrderNumber int     `json:"orderNumber" binding:"required,min=1"`
	// filled in server side for customers; kitchen/admin may order on behalf of a user
	UserID string `json:"userId" binding:"omitempty,uuid"`
}

type UpdateOrderRequest struct {
	Title       string  `json:"title" binding:"required,min=1,max=256"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Status      Status  `json:"status" binding:"required,oneof=active completed cancelled"`
}

// ListOrdersFilter narrows order listings. UserID and Status are set by the
// authorization layer for non-privileged roles and must never come from
// client input.
type ListOrdersFilter struct {
	Query  *string
	UserID *string
	Status *Status
	Limit  int
	Offset int
}

func NewFromCreateRequest(req CreateOrderRequest) Order {
	now := time.Now().UTC()

	return Order{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		OrderNumber: req.OrderNumber,
		Status:      StatusActive,
		UserID:      req.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
