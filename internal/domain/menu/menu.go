package menu

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCategoryNotFound = errors.New("menu category not found")
	ErrItemNotFound     = errors.New("menu item not found")
)

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Item struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"categoryId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	IsAvailable bool      `json:"isAvailable"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=128"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

type CreateItemRequest struct {
	CategoryID  string  `json:"categoryId" binding:"required,uuid"`
	Name        string  `json:"name" binding:"required,min=1,max=256"`
	Description string  `json:"description" binding:"omitempty,max=1000"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	IsAvailable *bool   `json:"isAvailable" binding:"required"`
}

type UpdateItemRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=256"`
	Description string  `json:"description" binding:"omitempty,max=1000"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	IsAvailable *bool   `json:"isAvailable" binding:"required"`
}

// CategoryWithItems is the shape of the public menu listing.
type CategoryWithItems struct {
	Category
	Items []Item `json:"items"`
}

func NewCategoryFromRequest(req CreateCategoryRequest) Category {
	return Category{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}
}

func NewItemFromRequest(req CreateItemRequest) Item {
	now := time.Now().UTC()

	return Item{
		ID:          uuid.NewString(),
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		IsAvailable: req.IsAvailable == nil || *req.IsAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
