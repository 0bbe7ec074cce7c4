package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"

	"agrohire/internal/api/services"
	"agrohire/internal/api/ws"
	"agrohire/internal/config"
	"agrohire/internal/mpesa"
	"agrohire/internal/repository"
)

const (
	// Bookings left unpaid this long after creation are expired.
	stalePendingAge = 7 * 24 * time.Hour
	// Payments stuck in processing this long are requeried against Daraja.
	stuckPaymentAge = 2 * time.Minute
)

// Scheduler runs the periodic maintenance jobs: rate recomputation, stale
// booking expiry, overdue flagging, rental reminders, stuck payment requery
// and pricing history cleanup.
type Scheduler struct {
	cron          *cron.Cron
	bookings      *services.BookingService
	pricing       *services.PricingService
	payments      *services.PaymentService
	notifications *services.NotificationService
}

func New(db *sqlx.DB, cfg *config.Config, notifications *services.NotificationService) *Scheduler {
	bookingRepo := repository.NewBookingRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	userRepo := repository.NewUserRepository(db)
	pricingRepo := repository.NewPricingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	pricing := services.NewPricingService(pricingRepo, equipmentRepo, bookingRepo, userRepo)
	bookings := services.NewBookingService(db, bookingRepo, equipmentRepo, userRepo, pricing, notifications, ws.GetHub())
	payments := services.NewPaymentService(db, paymentRepo, bookingRepo, userRepo, mpesa.NewClient(cfg), notifications)

	return &Scheduler{
		cron:          cron.New(),
		bookings:      bookings,
		pricing:       pricing,
		payments:      payments,
		notifications: notifications,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	jobs := []struct {
		spec string
		run  func()
	}{
		{"0 * * * *", s.recomputeRates},
		{"10 * * * *", s.notifyOverdueBookings},
		{"*/15 * * * *", s.requeryStuckPayments},
		{"*/5 * * * *", s.dispatchNotifications},
		{"30 0 * * *", s.expireStaleBookings},
		{"45 0 * * *", s.purgePricingHistory},
		{"0 7 * * *", s.sendReminders},
	}
	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			return fmt.Errorf("schedule %q: %w", job.spec, err)
		}
	}

	s.cron.Start()
	go func() {
		<-ctx.Done()
		s.cron.Stop()
	}()
	return nil
}

func (s *Scheduler) recomputeRates() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	updated, err := s.pricing.RecomputeDailyRates(ctx, time.Now().UTC())
	if err != nil {
		fmt.Printf("[Scheduler] Error recomputing rates: %v\n", err)
		return
	}
	fmt.Printf("[Scheduler] Recomputed rates for %d equipment\n", updated)
}

func (s *Scheduler) expireStaleBookings() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	expired, err := s.bookings.ExpireStalePending(ctx, stalePendingAge)
	if err != nil {
		fmt.Printf("[Scheduler] Error expiring bookings: %v\n", err)
		return
	}
	if expired > 0 {
		fmt.Printf("[Scheduler] Expired %d stale pending bookings\n", expired)
	}
}

func (s *Scheduler) sendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sent, err := s.bookings.SendReminders(ctx, time.Now().UTC())
	if err != nil {
		fmt.Printf("[Scheduler] Error sending reminders: %v\n", err)
		return
	}
	if sent > 0 {
		fmt.Printf("[Scheduler] Queued %d rental reminders\n", sent)
	}
}

func (s *Scheduler) notifyOverdueBookings() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	flagged, err := s.bookings.NotifyOverdue(ctx, time.Now().UTC())
	if err != nil {
		fmt.Printf("[Scheduler] Error flagging overdue bookings: %v\n", err)
		return
	}
	if flagged > 0 {
		fmt.Printf("[Scheduler] Flagged %d overdue bookings\n", flagged)
	}
}

func (s *Scheduler) requeryStuckPayments() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	requeried, err := s.payments.RequeryStuck(ctx, stuckPaymentAge)
	if err != nil {
		fmt.Printf("[Scheduler] Error requerying payments: %v\n", err)
		return
	}
	if requeried > 0 {
		fmt.Printf("[Scheduler] Requeried %d stuck payments\n", requeried)
	}
}

// dispatchNotifications is a safety net behind the ticker worker so queued
// notifications still go out if the worker goroutine dies.
func (s *Scheduler) dispatchNotifications() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sent, failed, err := s.notifications.DispatchPending(ctx, time.Now().UTC())
	if err != nil {
		fmt.Printf("[Scheduler] Error dispatching notifications: %v\n", err)
		return
	}
	if sent > 0 || failed > 0 {
		fmt.Printf("[Scheduler] Dispatched notifications: %d sent, %d failed\n", sent, failed)
	}
}

func (s *Scheduler) purgePricingHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	purged, err := s.pricing.PurgeOldHistory(ctx, time.Now().UTC())
	if err != nil {
		fmt.Printf("[Scheduler] Error purging pricing history: %v\n", err)
		return
	}
	if purged > 0 {
		fmt.Printf("[Scheduler] Purged %d pricing history rows\n", purged)
	}
}
