package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"citas/internal/models"
	"citas/internal/store"

	"go.uber.org/zap"
)

const minReminderTolerance = 10 * time.Minute

// ReminderWorker periodically sends 24-hour and 1-hour reminders for
// Scheduled appointments over every channel the owner left enabled.
type ReminderWorker struct {
	appointments store.AppointmentStore
	ledger       store.ReminderLedger
	contacts     store.ContactStore
	scheduler    *ReminderScheduler
	email        EmailSender
	sms          SMSSender
	interval     time.Duration
	tolerance    time.Duration
	loc          *time.Location
	locks        *keyedMutex
	log          *zap.Logger
	metrics      *Metrics
	now          func() time.Time
	done         chan struct{}
}

type ReminderWorkerConfig struct {
	Appointments store.AppointmentStore
	Ledger       store.ReminderLedger
	Contacts     store.ContactStore
	Scheduler    *ReminderScheduler
	Email        EmailSender
	SMS          SMSSender
	Interval     time.Duration
	Location     *time.Location
	Logger       *zap.Logger
	Metrics      *Metrics
}

func NewReminderWorker(cfg ReminderWorkerConfig) *ReminderWorker {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute // Check every 5 minutes
	}
	tolerance := 2 * interval
	if tolerance < minReminderTolerance {
		tolerance = minReminderTolerance
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &ReminderWorker{
		appointments: cfg.Appointments,
		ledger:       cfg.Ledger,
		contacts:     cfg.Contacts,
		scheduler:    cfg.Scheduler,
		email:        cfg.Email,
		sms:          cfg.SMS,
		interval:     interval,
		tolerance:    tolerance,
		loc:          loc,
		locks:        newKeyedMutex(),
		log:          log.Named("reminder_worker"),
		metrics:      cfg.Metrics,
		now:          time.Now,
		done:         make(chan struct{}),
	}
}

// Start runs the worker until ctx is cancelled.
func (w *ReminderWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Done is closed once the worker has stopped.
func (w *ReminderWorker) Done() <-chan struct{} {
	return w.done
}

func (w *ReminderWorker) run(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("Reminder worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Reminder worker stopped")
			return
		case <-ticker.C:
			w.checkUpcoming(ctx)
		}
	}
}

// Check if the appointment is within the reminder window
func isWithinReminderWindow(at, now time.Time, window, tolerance time.Duration) bool {
	until := at.Sub(now)
	return until <= window && until > window-tolerance
}

func (w *ReminderWorker) checkUpcoming(ctx context.Context) {
	now := w.now().In(w.loc)
	from := now.Format(models.DateLayout)
	to := now.Add(25 * time.Hour).Format(models.DateLayout)

	appts, err := w.appointments.FindScheduledBetween(ctx, from, to)
	if err != nil {
		w.log.Error("Failed to load upcoming appointments", zap.Error(err))
		return
	}

	for _, a := range appts {
		at, err := a.ScheduledAt(w.loc)
		if err != nil {
			w.log.Warn("Skipping appointment with invalid date", zap.Uint("appointment_id", a.ID), zap.Error(err))
			continue
		}
		if isWithinReminderWindow(at, now, 24*time.Hour, w.tolerance) {
			w.remind(ctx, a, models.Window24Hour)
		}
		if isWithinReminderWindow(at, now, time.Hour, w.tolerance) {
			w.remind(ctx, a, models.Window1Hour)
		}
	}
}

func (w *ReminderWorker) remind(ctx context.Context, a models.Appointment, window models.ReminderWindow) {
	unlock := w.locks.Lock(strconv.FormatUint(uint64(a.ID), 10))
	defer unlock()

	contact, err := w.contacts.Contact(ctx, a.OwnerID)
	if err != nil {
		w.log.Error("Failed to load contact", zap.String("owner_id", a.OwnerID), zap.Error(err))
		return
	}
	if contact == nil {
		w.log.Debug("No contact on file", zap.Uint("appointment_id", a.ID))
		return
	}
	pref, err := w.scheduler.Preference(ctx, a.OwnerID, a.ID)
	if err != nil {
		w.log.Error("Failed to load reminder preference", zap.Uint("appointment_id", a.ID), zap.Error(err))
		return
	}

	for _, ch := range []models.Channel{models.ChannelEmail, models.ChannelSMS} {
		if !pref.Enabled(ch) {
			continue
		}
		w.deliver(ctx, a, *contact, ch, window)
	}
}

func (w *ReminderWorker) deliver(ctx context.Context, a models.Appointment, contact models.User, ch models.Channel, window models.ReminderWindow) {
	var send func() error
	switch ch {
	case models.ChannelEmail:
		if contact.Email == "" {
			return
		}
		send = func() error {
			return w.email.SendEmail(ctx, contact.Email, workerEmailSubject(a, window), reminderEmailBody(contact.Name, a))
		}
	case models.ChannelSMS:
		if contact.Phone == "" {
			return
		}
		send = func() error {
			return w.sms.SendSMS(ctx, contact.Phone, reminderSMSBody(a))
		}
	default:
		return
	}

	sentAt := w.now()
	record := &models.ReminderSent{
		AppointmentID: a.ID,
		Channel:       ch,
		Window:        window,
		OwnerID:       a.OwnerID,
		SentAt:        sentAt,
	}
	claimed, err := w.ledger.Claim(ctx, record)
	if err != nil {
		w.log.Error("Failed to claim reminder", zap.Uint("appointment_id", a.ID), zap.Error(err))
		return
	}
	if !claimed {
		return
	}

	err = send()
	w.metrics.ObserveNotification(ch, "worker", err)
	if err != nil {
		w.log.Warn("Failed to send reminder",
			zap.Uint("appointment_id", a.ID),
			zap.String("channel", string(ch)),
			zap.String("window", string(window)),
			zap.Error(err))
		if err := w.ledger.Release(ctx, record); err != nil {
			w.log.Error("Failed to release reminder claim", zap.Uint("appointment_id", a.ID), zap.Error(err))
		}
		return
	}

	if err := w.scheduler.MarkSent(ctx, a.OwnerID, a.ID, ch, sentAt); err != nil {
		w.log.Warn("Failed to record last sent time", zap.Uint("appointment_id", a.ID), zap.Error(err))
	}
	w.log.Info("Sent reminder",
		zap.Uint("appointment_id", a.ID),
		zap.String("channel", string(ch)),
		zap.String("window", string(window)))
}

func workerEmailSubject(a models.Appointment, window models.ReminderWindow) string {
	if window == models.Window24Hour {
		return fmt.Sprintf("Reminder: your %s appointment is tomorrow", a.Specialty)
	}
	return fmt.Sprintf("Reminder: your %s appointment starts in 1 hour", a.Specialty)
}
