package auth

import (
	"github.com/lapeslabs/foodhub/internal/domain/delivery"
	"github.com/lapeslabs/foodhub/internal/domain/order"
	"github.com/lapeslabs/foodhub/internal/domain/user"
)

// Authorize is the single allow/deny decision point for role checks. An empty
// requirement set means "any authenticated caller". Denials are returned,
// never panicked or thrown.
func Authorize(u *user.Public, required ...user.Role) error {
	if u == nil {
		return ErrUnauthorized
	}

	if len(required) == 0 {
		return nil
	}

	for _, r := range required {
		if u.Role == r {
			return nil
		}
	}

	return ErrForbidden
}

// AuthorizeOwner allows the operation when either the role check or the
// identity check passes: admins (or any listed role) act on any resource,
// everyone else only on their own.
func AuthorizeOwner(u *user.Public, ownerID string, required ...user.Role) error {
	if u == nil {
		return ErrUnauthorized
	}

	if u.ID != "" && u.ID == ownerID {
		return nil
	}

	return Authorize(u, required...)
}

// ScopeOrders narrows an order listing to what the caller's role may see.
// Customers see their own orders, kitchen staff the active ones, admins
// everything. The narrowing happens server side and overwrites anything a
// client put in the filter.
func ScopeOrders(u *user.Public, f *order.ListOrdersFilter) error {
	if u == nil {
		return ErrUnauthorized
	}

	switch u.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleCustomer:
		id := u.ID
		f.UserID = &id
		f.Status = nil
		return nil
	case user.RoleKitchen:
		st := order.StatusActive
		f.Status = &st
		f.UserID = nil
		return nil
	default:
		return ErrForbidden
	}
}

// ScopeDeliveries narrows a delivery listing: drivers see their own
// deliveries, kitchen staff the ones still moving, admins everything.
func ScopeDeliveries(u *user.Public, f *delivery.ListDeliveriesFilter) error {
	if u == nil {
		return ErrUnauthorized
	}

	switch u.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleDriver:
		id := u.ID
		f.DriverID = &id
		f.Statuses = nil
		return nil
	case user.RoleKitchen:
		f.Statuses = []delivery.Status{delivery.StatusPending, delivery.StatusInProgress}
		f.DriverID = nil
		return nil
	default:
		return ErrForbidden
	}
}
