package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lapeslabs/foodhub/internal/auth"
	"github.com/lapeslabs/foodhub/internal/config"
	"github.com/lapeslabs/foodhub/internal/domain/delivery"
	"github.com/lapeslabs/foodhub/internal/domain/order"
	"github.com/lapeslabs/foodhub/internal/domain/user"
	"github.com/lapeslabs/foodhub/internal/http/middlewares"
	"github.com/lapeslabs/foodhub/internal/jobs"
	"github.com/lapeslabs/foodhub/internal/repo/postgres"
)

type DeliveriesStore interface {
	Create(ctx context.Context, req delivery.CreateDeliveryRequest) (delivery.Delivery, error)
	List(ctx context.Context, f delivery.ListDeliveriesFilter) ([]delivery.Delivery, int, error)
	GetByID(ctx context.Context, id string) (delivery.Delivery, error)
	UpdateStatus(ctx context.Context, id string, status delivery.Status) (delivery.Delivery, error)
}

type DeliveriesHandler struct {
	deliveries DeliveriesStore
	queue      JobEnqueuer
}

func NewDeliveriesHandler(deliveries DeliveriesStore, queue JobEnqueuer) *DeliveriesHandler {
	return &DeliveriesHandler{deliveries: deliveries, queue: queue}
}

// CreateDelivery assigns an order to a driver. Kitchen and admin only,
// enforced at the route.
func (h *DeliveriesHandler) CreateDelivery(ctx *gin.Context) {
	var req delivery.CreateDeliveryRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	d, err := h.deliveries.Create(cctx, req)

	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			RespondNotFound(ctx, "Order not found")
		case errors.Is(err, postgres.ErrDeliveryExists):
			RespondConflict(ctx, "delivery_exists", "Order already has a delivery.")
		default:
			RespondInternal(ctx, "Could not create delivery")
		}

		return
	}

	h.enqueueAssigned(ctx, d)

	ctx.JSON(http.StatusCreated, d)
}

func (h *DeliveriesHandler) enqueueAssigned(ctx *gin.Context, d delivery.Delivery) {
	if h.queue == nil {
		return
	}

	payload := jobs.DeliveryAssignedPayload{
		DeliveryID: d.ID,
		OrderID:    d.OrderID,
		DriverID:   d.DriverID,
		RequestID:  requestIDFrom(ctx),
	}

	b, err := jobs.EncodePayload(jobs.JobDeliveryAssigned, payload)

	if err != nil {
		return
	}

	j, err := jobs.NewJob(jobs.JobDeliveryAssigned, b, time.Time{})

	if err != nil {
		return
	}

	_ = h.queue.Enqueue(ctx.Request.Context(), j)
}

func (h *DeliveriesHandler) ListDeliveries(ctx *gin.Context) {
	caller, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx)
		return
	}

	f := delivery.ListDeliveriesFilter{
		Limit:  parseLimit(ctx),
		Offset: parseOffset(ctx),
	}

	if caller.Role == user.RoleAdmin {
		if did := ctx.Query("driverId"); did != "" {
			f.DriverID = &did
		}

		if st := delivery.Status(ctx.Query("status")); st != "" {
			if !st.IsValid() {
				RespondBadRequest(ctx, "Unknown delivery status", gin.H{"status": st})
				return
			}

			f.Statuses = []delivery.Status{st}
		}
	}

	err := auth.ScopeDeliveries(caller, &f)

	if err != nil {
		RespondForbidden(ctx, "")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, total, err := h.deliveries.List(cctx, f)

	if err != nil {
		RespondInternal(ctx, "Could not list deliveries")
		return
	}

	if items == nil {
		items = []delivery.Delivery{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
	})
}

func (h *DeliveriesHandler) GetDelivery(ctx *gin.Context) {
	caller, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	d, err := h.deliveries.GetByID(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, delivery.ErrNotFound) {
			RespondNotFound(ctx, "Delivery not found")
			return
		}

		RespondInternal(ctx, "Could not fetch delivery")
		return
	}

	err = auth.AuthorizeOwner(caller, d.DriverID, user.RoleAdmin, user.RoleKitchen)

	if err != nil {
		RespondNotFound(ctx, "Delivery not found")
		return
	}

	ctx.JSON(http.StatusOK, d)
}

// UpdateDeliveryStatus moves a delivery along its state machine. Only the
// assigned driver or an admin may do it.
func (h *DeliveriesHandler) UpdateDeliveryStatus(ctx *gin.Context) {
	caller, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx)
		return
	}

	var req delivery.UpdateDeliveryStatusRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	d, err := h.deliveries.GetByID(cctx, ctx.Param("id"))

	if err != nil {
		if errors.Is(err, delivery.ErrNotFound) {
			RespondNotFound(ctx, "Delivery not found")
			return
		}

		RespondInternal(ctx, "Could not fetch delivery")
		return
	}

	err = auth.AuthorizeOwner(caller, d.DriverID, user.RoleAdmin)

	if err != nil {
		RespondNotFound(ctx, "Delivery not found")
		return
	}

	if !delivery.CanTransition(d.Status, req.Status) {
		RespondConflict(ctx, "invalid_transition", "Delivery cannot move from "+string(d.Status)+" to "+string(req.Status)+".")
		return
	}

	updated, err := h.deliveries.UpdateStatus(cctx, d.ID, req.Status)

	if err != nil {
		if errors.Is(err, delivery.ErrNotFound) {
			RespondNotFound(ctx, "Delivery not found")
			return
		}

		RespondInternal(ctx, "Could not update delivery")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}
