package auth

import (
	"errors"
	"testing"

	"github.com/lapeslabs/foodhub/internal/domain/delivery"
	"github.com/lapeslabs/foodhub/internal/domain/order"
	"github.com/lapeslabs/foodhub/internal/domain/user"
)

func publicUser(id string, role user.Role) *user.Public {
	return &user.Public{ID: id, Role: role}
}

func TestAuthorize(t *testing.T) {
	cases := []struct {
		name     string
		caller   *user.Public
		required []user.Role
		want     error
	}{
		{"nil caller", nil, nil, ErrUnauthorized},
		{"nil caller with roles", nil, []user.Role{user.RoleAdmin}, ErrUnauthorized},
		{"any authenticated", publicUser("u1", user.RoleCustomer), nil, nil},
		{"role match", publicUser("u1", user.RoleAdmin), []user.Role{user.RoleAdmin}, nil},
		{"role in set", publicUser("u1", user.RoleKitchen), []user.Role{user.RoleAdmin, user.RoleKitchen}, nil},
		{"role miss", publicUser("u1", user.RoleCustomer), []user.Role{user.RoleAdmin}, ErrForbidden},
		{"driver vs kitchen", publicUser("u1", user.RoleDriver), []user.Role{user.RoleKitchen}, ErrForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.caller, tc.required...)

			if !errors.Is(err, tc.want) && err != tc.want {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestAuthorizeOwner(t *testing.T) {
	cases := []struct {
		name    string
		caller  *user.Public
		ownerID string
		roles   []user.Role
		want    error
	}{
		{"nil caller", nil, "u1", nil, ErrUnauthorized},
		{"owner passes without role", publicUser("u1", user.RoleCustomer), "u1", []user.Role{user.RoleAdmin}, nil},
		{"admin passes on foreign resource", publicUser("u2", user.RoleAdmin), "u1", []user.Role{user.RoleAdmin}, nil},
		{"stranger denied", publicUser("u2", user.RoleCustomer), "u1", []user.Role{user.RoleAdmin}, ErrForbidden},
		{"no roles, not owner", publicUser("u2", user.RoleCustomer), "u1", nil, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := AuthorizeOwner(tc.caller, tc.ownerID, tc.roles...)

			if !errors.Is(err, tc.want) && err != tc.want {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestScopeOrders(t *testing.T) {
	t.Run("nil caller", func(t *testing.T) {
		var f order.ListOrdersFilter

		if err := ScopeOrders(nil, &f); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("admin keeps the filter", func(t *testing.T) {
		uid := "someone-else"
		f := order.ListOrdersFilter{UserID: &uid}

		if err := ScopeOrders(publicUser("a1", user.RoleAdmin), &f); err != nil {
			t.Fatalf("ScopeOrders error: %v", err)
		}

		if f.UserID == nil || *f.UserID != uid {
			t.Fatalf("admin filter was rewritten")
		}
	})

	t.Run("customer is pinned to own orders", func(t *testing.T) {
		other := "someone-else"
		st := order.StatusCancelled
		f := order.ListOrdersFilter{UserID: &other, Status: &st}

		if err := ScopeOrders(publicUser("c1", user.RoleCustomer), &f); err != nil {
			t.Fatalf("ScopeOrders error: %v", err)
		}

		if f.UserID == nil || *f.UserID != "c1" {
			t.Fatalf("customer scope not forced to caller, got %v", f.UserID)
		}

		if f.Status != nil {
			t.Fatalf("customer must not keep a status filter")
		}
	})

	t.Run("kitchen sees active only", func(t *testing.T) {
		other := "someone-else"
		f := order.ListOrdersFilter{UserID: &other}

		if err := ScopeOrders(publicUser("k1", user.RoleKitchen), &f); err != nil {
			t.Fatalf("ScopeOrders error: %v", err)
		}

		if f.Status == nil || *f.Status != order.StatusActive {
			t.Fatalf("kitchen scope should force active status")
		}

		if f.UserID != nil {
			t.Fatalf("kitchen must not keep a user filter")
		}
	})

	t.Run("driver denied", func(t *testing.T) {
		var f order.ListOrdersFilter

		if err := ScopeOrders(publicUser("d1", user.RoleDriver), &f); !errors.Is(err, ErrForbidden) {
			t.Fatalf("got %v, want ErrForbidden", err)
		}
	})
}

func TestScopeDeliveries(t *testing.T) {
	t.Run("driver is pinned to own deliveries", func(t *testing.T) {
		other := "someone-else"
		f := delivery.ListDeliveriesFilter{DriverID: &other, Statuses: []delivery.Status{delivery.StatusDelivered}}

		if err := ScopeDeliveries(publicUser("d1", user.RoleDriver), &f); err != nil {
			t.Fatalf("ScopeDeliveries error: %v", err)
		}

		if f.DriverID == nil || *f.DriverID != "d1" {
			t.Fatalf("driver scope not forced to caller")
		}

		if f.Statuses != nil {
			t.Fatalf("driver must not keep a status filter")
		}
	})

	t.Run("kitchen sees moving deliveries", func(t *testing.T) {
		var f delivery.ListDeliveriesFilter

		if err := ScopeDeliveries(publicUser("k1", user.RoleKitchen), &f); err != nil {
			t.Fatalf("ScopeDeliveries error: %v", err)
		}

		want := []delivery.Status{delivery.StatusPending, delivery.StatusInProgress}

		if len(f.Statuses) != len(want) {
			t.Fatalf("kitchen statuses = %v, want %v", f.Statuses, want)
		}

		for i := range want {
			if f.Statuses[i] != want[i] {
				t.Fatalf("kitchen statuses = %v, want %v", f.Statuses, want)
			}
		}
	})

	t.Run("customer denied", func(t *testing.T) {
		var f delivery.ListDeliveriesFilter

		if err := ScopeDeliveries(publicUser("c1", user.RoleCustomer), &f); !errors.Is(err, ErrForbidden) {
			t.Fatalf("got %v, want ErrForbidden", err)
		}
	})

	t.Run("admin passthrough", func(t *testing.T) {
		did := "someone"
		f := delivery.ListDeliveriesFilter{DriverID: &did}

		if err := ScopeDeliveries(publicUser("a1", user.RoleAdmin), &f); err != nil {
			t.Fatalf("ScopeDeliveries error: %v", err)
		}

		if f.DriverID == nil || *f.DriverID != did {
			t.Fatalf("admin filter was rewritten")
		}
	})
}
