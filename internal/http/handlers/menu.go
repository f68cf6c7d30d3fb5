package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lapeslabs/foodhub/internal/cache"
	"github.com/lapeslabs/foodhub/internal/config"
	"github.com/lapeslabs/foodhub/internal/domain/menu"
)

type MenuStore interface {
	CreateCategory(ctx context.Context, req menu.CreateCategoryRequest) (menu.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	CreateItem(ctx context.Context, req menu.CreateItemRequest) (menu.Item, error)
	GetItemByID(ctx context.Context, id string) (menu.Item, error)
	UpdateItem(ctx context.Context, id string, req menu.UpdateItemRequest) (menu.Item, error)
	DeleteItem(ctx context.Context, id string) error
	ListMenu(ctx context.Context) ([]menu.CategoryWithItems, error)
}

const menuCacheKey = "menu:full"

type MenuHandler struct {
	store MenuStore
	cache *cache.Cache
}

func NewMenuHandler(store MenuStore, c *cache.Cache) *MenuHandler {
	return &MenuHandler{store: store, cache: c}
}

// ListMenu is the public read path, served from the in-process cache with an
// ETag so browsers can skip the body entirely.
func (h *MenuHandler) ListMenu(ctx *gin.Context) {
	if h.cache != nil {
		if v, ok := h.cache.Get(menuCacheKey); ok {
			if m, ok := v.([]menu.CategoryWithItems); ok {
				RespondJSONWithETag(ctx, http.StatusOK, gin.H{"categories": m})
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	m, err := h.store.ListMenu(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not load menu")
		return
	}

	if h.cache != nil {
		h.cache.Set(menuCacheKey, m)
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"categories": m})
}

func (h *MenuHandler) CreateCategory(ctx *gin.Context) {
	var req menu.CreateCategoryRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	c, err := h.store.CreateCategory(cctx, req)

	if err != nil {
		RespondInternal(ctx, "Could not create category")
		return
	}

	h.invalidate()

	ctx.JSON(http.StatusCreated, c)
}

func (h *MenuHandler) DeleteCategory(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.store.DeleteCategory(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, menu.ErrCategoryNotFound) {
			RespondNotFound(ctx, "Category not found")
			return
		}

		RespondInternal(ctx, "Could not delete category")
		return
	}

	h.invalidate()

	ctx.Status(http.StatusNoContent)
}

func (h *MenuHandler) CreateItem(ctx *gin.Context) {
	var req menu.CreateItemRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	it, err := h.store.CreateItem(cctx, req)

	if err != nil {
		if errors.Is(err, menu.ErrCategoryNotFound) {
			RespondNotFound(ctx, "Category not found")
			return
		}

		RespondInternal(ctx, "Could not create item")
		return
	}

	h.invalidate()

	ctx.JSON(http.StatusCreated, it)
}

func (h *MenuHandler) GetItem(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	it, err := h.store.GetItemByID(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, menu.ErrItemNotFound) {
			RespondNotFound(ctx, "Item not found")
			return
		}

		RespondInternal(ctx, "Could not fetch item")
		return
	}

	ctx.JSON(http.StatusOK, it)
}

func (h *MenuHandler) UpdateItem(ctx *gin.Context) {
	var req menu.UpdateItemRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	it, err := h.store.UpdateItem(cctx, ctx.Param("id"), req)

	if err != nil {
		if errors.Is(err, menu.ErrItemNotFound) {
			RespondNotFound(ctx, "Item not found")
			return
		}

		RespondInternal(ctx, "Could not update item")
		return
	}

	h.invalidate()

	ctx.JSON(http.StatusOK, it)
}

func (h *MenuHandler) DeleteItem(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.store.DeleteItem(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, menu.ErrItemNotFound) {
			RespondNotFound(ctx, "Item not found")
			return
		}

		RespondInternal(ctx, "Could not delete item")
		return
	}

	h.invalidate()

	ctx.Status(http.StatusNoContent)
}

func (h *MenuHandler) invalidate() {
	if h.cache != nil {
		h.cache.Delete(menuCacheKey)
	}
}
