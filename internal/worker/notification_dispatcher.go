package worker

import (
	"context"
	"fmt"
	"time"

	"agrohire/internal/api/services"
)

// NotificationWorker drains the pending notification queue on a fixed
// interval. Deliveries deferred by quiet hours are picked up again on a
// later tick once the window closes.
type NotificationWorker struct {
	notifications *services.NotificationService
	ticker        *time.Ticker
}

func NewNotificationWorker(notifications *services.NotificationService, interval time.Duration) *NotificationWorker {
	return &NotificationWorker{
		notifications: notifications,
		ticker:        time.NewTicker(interval),
	}
}

func (w *NotificationWorker) StartWorker(ctx context.Context) {
	defer w.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.ticker.C:
			w.dispatch(ctx)
		}
	}
}

func (w *NotificationWorker) dispatch(ctx context.Context) {
	sent, failed, err := w.notifications.DispatchPending(ctx, time.Now().UTC())
	if err != nil {
		fmt.Printf("[NotificationWorker] Error dispatching: %v\n", err)
		return
	}
	if sent > 0 || failed > 0 {
		fmt.Printf("[NotificationWorker] Dispatched %d notifications, %d failed\n", sent, failed)
	}
}
