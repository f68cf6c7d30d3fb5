package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// LogNotifier is the stand-in provider: it writes the notification to the
// log. Swap it for a real email/push provider behind the same interface.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) SendOrderConfirmation(ctx context.Context, in OrderConfirmationInput) error {
	if err := simulatedProvider(ctx); err != nil {
		return err
	}

	slog.InfoContext(ctx, "notification.order_confirmation",
		"email", in.Email,
		"name", in.Name,
		"order_id", in.OrderID,
		"order_number", in.OrderNumber,
	)
	return nil
}

func (n *LogNotifier) SendDeliveryAssigned(ctx context.Context, in DeliveryAssignedInput) error {
	if err := simulatedProvider(ctx); err != nil {
		return err
	}

	slog.InfoContext(ctx, "notification.delivery_assigned",
		"email", in.Email,
		"name", in.Name,
		"delivery_id", in.DeliveryID,
		"order_id", in.OrderID,
	)
	return nil
}

// simulatedProvider lets local runs fake a slow or failing provider through
// env vars.
func simulatedProvider(ctx context.Context) error {
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	return nil
}
