package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"residence-booking/internal/models"
	"residence-booking/monitoring"
)

// Reaper sweeps bookings stuck in a pre-payment state past their deadline
// into `expired`. It never touches paid or later statuses.
type Reaper struct {
	app     core.App
	monitor *monitoring.Monitor

	interval   time.Duration
	requestTTL time.Duration
	paymentTTL time.Duration
}

func NewReaper(app core.App, monitor *monitoring.Monitor, interval, requestTTL, paymentTTL time.Duration) *Reaper {
	return &Reaper{
		app:        app,
		monitor:    monitor,
		interval:   interval,
		requestTTL: requestTTL,
		paymentTTL: paymentTTL,
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (r *Reaper) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("booking reaper started",
		"interval", r.interval,
		"request_ttl", r.requestTTL,
		"payment_ttl", r.paymentTTL,
	)

	for {
		select {
		case <-ctx.Done():
			slog.Info("booking reaper stopped")
			return
		case <-ticker.C:
			if n, err := r.Sweep(ctx); err != nil {
				slog.Error("booking reaper sweep", "error", err)
			} else if n > 0 {
				slog.Info("expired stale bookings", "count", n)
			}
		}
	}
}

// Sweep expires one batch of stale bookings and returns how many it moved.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	expired := 0

	// requested bookings the owner never answered
	n, err := r.expireBatch(models.StatusRequested, "created", now.Add(-r.requestTTL))
	if err != nil {
		return expired, err
	}
	expired += n

	// approved bookings the client never paid
	n, err = r.expireBatch(models.StatusAwaitingPayment, "approved_at", now.Add(-r.paymentTTL))
	if err != nil {
		return expired, err
	}
	expired += n

	return expired, nil
}

func (r *Reaper) expireBatch(from models.BookingStatus, deadlineField string, cutoff time.Time) (int, error) {
	stale, err := r.app.FindRecordsByFilter(
		"bookings",
		"status = {:status} && "+deadlineField+" != '' && "+deadlineField+" < {:cutoff}",
		"created", 200, 0,
		dbx.Params{
			"status": string(from),
			"cutoff": cutoff.Format("2006-01-02 15:04:05.000Z"),
		},
	)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, record := range stale {
		id := record.Id
		err := r.app.RunInTransaction(func(txApp core.App) error {
			fresh, err := txApp.FindRecordById("bookings", id)
			if err != nil {
				return err
			}
			// Re-check under the lock; a payment may have landed meanwhile.
			if models.BookingStatus(fresh.GetString("status")) != from {
				return nil
			}
			if err := applyTransition(fresh, "expire", models.StatusExpired); err != nil {
				return err
			}
			fresh.Set("expired_at", time.Now().UTC())
			if err := txApp.Save(fresh); err != nil {
				return err
			}
			expired++
			return nil
		})
		if err != nil {
			slog.Error("expire booking", "booking_id", id, "error", err)
			r.monitor.TrackTransitionFailure("expire", "error")
			continue
		}
		r.monitor.TrackTransition(string(from), string(models.StatusExpired))
	}

	return expired, nil
}
