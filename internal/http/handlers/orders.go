package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lapeslabs/foodhub/internal/auth"
	"github.com/lapeslabs/foodhub/internal/config"
	"github.com/lapeslabs/foodhub/internal/domain/order"
	"github.com/lapeslabs/foodhub/internal/domain/user"
	"github.com/lapeslabs/foodhub/internal/http/middlewares"
	"github.com/lapeslabs/foodhub/internal/jobs"
)

type OrdersStore interface {
	Create(ctx context.Context, req order.CreateOrderRequest) (order.Order, error)
	List(ctx context.Context, f order.ListOrdersFilter) ([]order.Order, int, error)
	GetByID(ctx context.Context, id string) (order.Order, error)
	Update(ctx context.Context, id string, req order.UpdateOrderRequest) (order.Order, error)
	Delete(ctx context.Context, id string) error
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, j jobs.Job) error
}

type OrdersHandler struct {
	orders OrdersStore
	queue  JobEnqueuer
}

func NewOrdersHandler(orders OrdersStore, queue JobEnqueuer) *OrdersHandler {
	return &OrdersHandler{orders: orders, queue: queue}
}

func (h *OrdersHandler) CreateOrder(ctx *gin.Context) {
	caller, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx)
		return
	}

	var req order.CreateOrderRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// customers only ever order for themselves, whatever the body says
	if caller.Role == user.RoleCustomer || req.UserID == "" {
		req.UserID = caller.ID
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	o, err := h.orders.Create(cctx, req)

	if err != nil {
		RespondInternal(ctx, "Could not create order")
		return
	}

	h.enqueueConfirmation(ctx, o)

	ctx.JSON(http.StatusCreated, o)
}

// enqueueConfirmation is best effort: a broker outage must not undo the
// order, the customer just misses the notification.
func (h *OrdersHandler) enqueueConfirmation(ctx *gin.Context, o order.Order) {
	if h.queue == nil {
		return
	}

	payload := jobs.OrderConfirmationPayload{
		OrderID:     o.ID,
		UserID:      o.UserID,
		OrderNumber: strconv.Itoa(o.OrderNumber),
		RequestID:   requestIDFrom(ctx),
	}

	b, err := jobs.EncodePayload(jobs.JobOrderConfirmation, payload)

	if err != nil {
		return
	}

	j, err := jobs.NewJob(jobs.JobOrderConfirmation, b, time.Time{})

	if err != nil {
		return
	}

	_ = h.queue.Enqueue(ctx.Request.Context(), j)
}

func (h *OrdersHandler) ListOrders(ctx *gin.Context) {
	caller, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx)
		return
	}

	f := order.ListOrdersFilter{
		Limit:  parseLimit(ctx),
		Offset: parseOffset(ctx),
	}

	if q := ctx.Query("q"); q != "" {
		f.Query = &q
	}

	// admins may ask for anything; the gate overwrites these for everyone else
	if caller.Role == user.RoleAdmin {
		if uid := ctx.Query("userId"); uid != "" {
			f.UserID = &uid
		}

		if st := order.Status(ctx.Query("status")); st != "" {
			if !st.IsValid() {
				RespondBadRequest(ctx, "Unknown order status", gin.H{"status": st})
				return
			}

			f.Status = &st
		}
	}

	err := auth.ScopeOrders(caller, &f)

	if err != nil {
		RespondForbidden(ctx, "")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, total, err := h.orders.List(cctx, f)

	if err != nil {
		RespondInternal(ctx, "Could not list orders")
		return
	}

	if items == nil {
		items = []order.Order{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
	})
}

func (h *OrdersHandler) GetOrder(ctx *gin.Context) {
	caller, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	o, err := h.orders.GetByID(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			RespondNotFound(ctx, "Order not found")
			return
		}

		RespondInternal(ctx, "Could not fetch order")
		return
	}

	err = auth.AuthorizeOwner(caller, o.UserID, user.RoleAdmin)

	if err != nil {
		// kitchen only sees orders it can act on
		if caller.Role == user.RoleKitchen && o.Status == order.StatusActive {
			ctx.JSON(http.StatusOK, o)
			return
		}

		// same body as a real miss, so callers cannot probe other users' ids
		RespondNotFound(ctx, "Order not found")
		return
	}

	ctx.JSON(http.StatusOK, o)
}

func (h *OrdersHandler) UpdateOrder(ctx *gin.Context) {
	var req order.UpdateOrderRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	o, err := h.orders.Update(cctx, ctx.Param("id"), req)

	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			RespondNotFound(ctx, "Order not found")
			return
		}

		RespondInternal(ctx, "Could not update order")
		return
	}

	ctx.JSON(http.StatusOK, o)
}

func (h *OrdersHandler) DeleteOrder(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.orders.Delete(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			RespondNotFound(ctx, "Order not found")
			return
		}

		RespondInternal(ctx, "Could not delete order")
		return
	}

	ctx.Status(http.StatusNoContent)
}
