package jobs

import "strings"

// ValidatePayload performs minimal validation on decoded payloads.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	trim := func(s string) string { return strings.TrimSpace(s) }

	switch t {
	case JobOrderConfirmation:
		var p OrderConfirmationPayload
		switch v := payload.(type) {
		case OrderConfirmationPayload:
			p = v
		case *OrderConfirmationPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.OrderID) == "" || trim(p.UserID) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	case JobDeliveryAssigned:
		var p DeliveryAssignedPayload
		switch v := payload.(type) {
		case DeliveryAssignedPayload:
			p = v
		case *DeliveryAssignedPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.DeliveryID) == "" || trim(p.OrderID) == "" || trim(p.DriverID) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
