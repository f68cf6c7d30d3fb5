package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lapeslabs/foodhub/internal/domain/delivery"
	"github.com/lapeslabs/foodhub/internal/domain/user"
	"github.com/lapeslabs/foodhub/internal/http/handlers"
	"github.com/lapeslabs/foodhub/internal/jobs"
)

type fakeDeliveriesRepo struct {
	createFn       func(ctx context.Context, req delivery.CreateDeliveryRequest) (delivery.Delivery, error)
	listFn         func(ctx context.Context, f delivery.ListDeliveriesFilter) ([]delivery.Delivery, int, error)
	getFn          func(ctx context.Context, id string) (delivery.Delivery, error)
	updateStatusFn func(ctx context.Context, id string, status delivery.Status) (delivery.Delivery, error)
}

func (f *fakeDeliveriesRepo) Create(ctx context.Context, req delivery.CreateDeliveryRequest) (delivery.Delivery, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return delivery.NewFromCreateRequest(req), nil
}

func (f *fakeDeliveriesRepo) List(ctx context.Context, fl delivery.ListDeliveriesFilter) ([]delivery.Delivery, int, error) {
	if f.listFn != nil {
		return f.listFn(ctx, fl)
	}
	return nil, 0, nil
}

func (f *fakeDeliveriesRepo) GetByID(ctx context.Context, id string) (delivery.Delivery, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return delivery.Delivery{}, delivery.ErrNotFound
}

func (f *fakeDeliveriesRepo) UpdateStatus(ctx context.Context, id string, status delivery.Status) (delivery.Delivery, error) {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, id, status)
	}
	return delivery.Delivery{}, delivery.ErrNotFound
}

func TestCreateDelivery_EnqueuesAssignmentJob(t *testing.T) {
	queue := &fakeQueue{}

	h := handlers.NewDeliveriesHandler(&fakeDeliveriesRepo{}, queue)

	r := gin.New()
	r.POST("/deliveries", asUser(&user.Public{ID: uuid.NewString(), Role: user.RoleKitchen}), h.CreateDelivery)

	driverID := uuid.NewString()
	body := `{"orderId":"` + uuid.NewString() + `","driverId":"` + driverID + `","price":5.5}`
	req := httptest.NewRequest(http.MethodPost, "/deliveries", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if len(queue.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued job, got %d", len(queue.enqueued))
	}

	if queue.enqueued[0].Type != jobs.JobDeliveryAssigned {
		t.Fatalf("job type = %s", queue.enqueued[0].Type)
	}

	decoded, err := jobs.DecodePayload(queue.enqueued[0])

	if err != nil {
		t.Fatalf("DecodePayload error: %v", err)
	}

	if p := decoded.(jobs.DeliveryAssignedPayload); p.DriverID != driverID {
		t.Fatalf("job driver = %s, want %s", p.DriverID, driverID)
	}
}

func TestListDeliveries_ScopedPerRole(t *testing.T) {
	driverID := uuid.NewString()

	cases := []struct {
		name   string
		caller *user.Public
		check  func(t *testing.T, f delivery.ListDeliveriesFilter)
	}{
		{
			name:   "driver sees own deliveries",
			caller: &user.Public{ID: driverID, Role: user.RoleDriver},
			check: func(t *testing.T, f delivery.ListDeliveriesFilter) {
				if f.DriverID == nil || *f.DriverID != driverID {
					t.Fatalf("driver filter = %v", f.DriverID)
				}
			},
		},
		{
			name:   "kitchen sees open deliveries",
			caller: &user.Public{ID: uuid.NewString(), Role: user.RoleKitchen},
			check: func(t *testing.T, f delivery.ListDeliveriesFilter) {
				want := []delivery.Status{delivery.StatusPending, delivery.StatusInProgress}

				if len(f.Statuses) != len(want) {
					t.Fatalf("kitchen statuses = %v", f.Statuses)
				}

				for i := range want {
					if f.Statuses[i] != want[i] {
						t.Fatalf("kitchen statuses = %v", f.Statuses)
					}
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got delivery.ListDeliveriesFilter

			repo := &fakeDeliveriesRepo{
				listFn: func(ctx context.Context, f delivery.ListDeliveriesFilter) ([]delivery.Delivery, int, error) {
					got = f
					return []delivery.Delivery{}, 0, nil
				},
			}

			h := handlers.NewDeliveriesHandler(repo, &fakeQueue{})

			r := gin.New()
			r.GET("/deliveries", asUser(tc.caller), h.ListDeliveries)

			req := httptest.NewRequest(http.MethodGet, "/deliveries?driverId="+uuid.NewString(), nil)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
			}

			tc.check(t, got)
		})
	}
}

func TestListDeliveries_CustomerForbidden(t *testing.T) {
	h := handlers.NewDeliveriesHandler(&fakeDeliveriesRepo{}, &fakeQueue{})

	r := gin.New()
	r.GET("/deliveries", asUser(&user.Public{ID: uuid.NewString(), Role: user.RoleCustomer}), h.ListDeliveries)

	req := httptest.NewRequest(http.MethodGet, "/deliveries", nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("got status %d, want 403", w.Code)
	}
}

func TestUpdateDeliveryStatus(t *testing.T) {
	driverID := uuid.NewString()
	deliveryID := uuid.NewString()

	stored := delivery.Delivery{
		ID:       deliveryID,
		OrderID:  uuid.NewString(),
		DriverID: driverID,
		Status:   delivery.StatusPending,
	}

	cases := []struct {
		name   string
		caller *user.Public
		next   delivery.Status
		want   int
	}{
		{"assigned driver advances", &user.Public{ID: driverID, Role: user.RoleDriver}, delivery.StatusInProgress, http.StatusOK},
		{"admin advances", &user.Public{ID: uuid.NewString(), Role: user.RoleAdmin}, delivery.StatusCancelled, http.StatusOK},
		{"other driver reads as missing", &user.Public{ID: uuid.NewString(), Role: user.RoleDriver}, delivery.StatusInProgress, http.StatusNotFound},
		{"skipping a step conflicts", &user.Public{ID: driverID, Role: user.RoleDriver}, delivery.StatusDelivered, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeDeliveriesRepo{
				getFn: func(ctx context.Context, id string) (delivery.Delivery, error) {
					return stored, nil
				},
				updateStatusFn: func(ctx context.Context, id string, status delivery.Status) (delivery.Delivery, error) {
					out := stored
					out.Status = status
					return out, nil
				},
			}

			h := handlers.NewDeliveriesHandler(repo, &fakeQueue{})

			r := gin.New()
			r.PATCH("/deliveries/:id/status", asUser(tc.caller), h.UpdateDeliveryStatus)

			body := `{"status":"` + string(tc.next) + `"}`
			req := httptest.NewRequest(http.MethodPatch, "/deliveries/"+deliveryID+"/status", bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}
