package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lapeslabs/foodhub/internal/jobs"
	"github.com/lapeslabs/foodhub/internal/notifications"
)

// ProcessOne takes the next job off the queue and executes it. Returns false
// when the dequeue wait timed out with nothing to do.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	j, ok, err := w.queue.Dequeue(ctx, w.cfg.DequeueTimeout)

	if err != nil {
		return false, err
	}

	if !ok {
		return false, nil
	}

	// a retried job may not be due yet; push it back rather than busy-spin
	if now := time.Now().UTC(); j.RunAt.After(now) {
		err = w.queue.Enqueue(ctx, j)

		if err != nil {
			w.log.Error("requeue of not-due job failed", "job_id", j.ID, "err", err)
		}

		select {
		case <-time.After(250 * time.Millisecond):
		case <-ctx.Done():
		}

		return false, nil
	}

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	start := time.Now()

	err = w.execute(ctx, j)

	result := "done"

	if err != nil {
		result = w.handleFailure(ctx, j, err)
	}

	if w.prom != nil {
		w.prom.JobDuration.WithLabelValues(string(j.Type), result).Observe(time.Since(start).Seconds())
		w.prom.JobResults.WithLabelValues(string(j.Type), result).Inc()
	}

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j jobs.Job) error {
	decoded, err := jobs.DecodePayload(j)

	if err != nil {
		return err
	}

	err = jobs.ValidatePayload(j.Type, decoded)

	if err != nil {
		return err
	}

	switch p := decoded.(type) {
	case jobs.OrderConfirmationPayload:
		u, err := w.users.GetByID(ctx, p.UserID)

		if err != nil {
			return fmt.Errorf("load order owner: %w", err)
		}

		return w.notifier.SendOrderConfirmation(ctx, notifications.OrderConfirmationInput{
			Email:       u.Email,
			Name:        displayName(u.FirstName, u.LastName),
			OrderID:     p.OrderID,
			OrderNumber: p.OrderNumber,
		})

	case jobs.DeliveryAssignedPayload:
		u, err := w.users.GetByID(ctx, p.DriverID)

		if err != nil {
			return fmt.Errorf("load driver: %w", err)
		}

		return w.notifier.SendDeliveryAssigned(ctx, notifications.DeliveryAssignedInput{
			Email:      u.Email,
			Name:       displayName(u.FirstName, u.LastName),
			DeliveryID: p.DeliveryID,
			OrderID:    p.OrderID,
		})

	default:
		return jobs.ErrInvalidJobType
	}
}

// handleFailure decides between retry and drop, and reports which it chose.
func (w *Worker) handleFailure(ctx context.Context, j jobs.Job, cause error) string {
	j.Attempts++
	msg := cause.Error()
	j.LastError = &msg
	j.UpdatedAt = time.Now().UTC()

	if j.Attempts >= j.Maxtries {
		j.Status = jobs.JobFailed

		w.log.Error("job dropped after max attempts",
			"job_id", j.ID,
			"job_type", j.Type,
			"attempts", j.Attempts,
			"err", cause,
		)

		return "failed"
	}

	j.Status = jobs.JobPending
	j.RunAt = time.Now().UTC().Add(ExponentialBackoff(j.Attempts))

	err := w.queue.Enqueue(ctx, j)

	if err != nil {
		w.log.Error("requeue for retry failed", "job_id", j.ID, "err", err)
		return "failed"
	}

	w.log.Warn("job scheduled for retry",
		"job_id", j.ID,
		"job_type", j.Type,
		"attempts", j.Attempts,
		"run_at", j.RunAt,
		"err", cause,
	)

	return "retry"
}

func displayName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
