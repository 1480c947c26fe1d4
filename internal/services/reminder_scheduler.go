package services

import (
	"context"
	"time"

	"citas/internal/models"
	"citas/internal/store"

	"go.uber.org/zap"
)

const manualSendTimeout = 20 * time.Second

// ReminderScheduler keeps per-appointment reminder preferences for each owner
// and performs manual reminder sends for the signed-in user.
type ReminderScheduler struct {
	prefs   store.PreferenceStore
	email   EmailSender
	sms     SMSSender
	locks   *keyedMutex
	loc     *time.Location
	log     *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

type ReminderSchedulerConfig struct {
	Preferences store.PreferenceStore
	Email       EmailSender
	SMS         SMSSender
	Location    *time.Location
	Logger      *zap.Logger
	Metrics     *Metrics
}

func NewReminderScheduler(cfg ReminderSchedulerConfig) *ReminderScheduler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &ReminderScheduler{
		prefs:   cfg.Preferences,
		email:   cfg.Email,
		sms:     cfg.SMS,
		locks:   newKeyedMutex(),
		loc:     loc,
		log:     log,
		metrics: cfg.Metrics,
		now:     time.Now,
	}
}

// Sync gives every appointment without a preference the default one and
// persists the result. Existing preferences are never overwritten.
func (r *ReminderScheduler) Sync(ctx context.Context, ownerID string, appointments []models.Appointment) (models.ReminderPreferences, error) {
	unlock := r.locks.Lock(ownerID)
	defer unlock()

	prefs, err := r.prefs.Load(ctx, ownerID)
	if err != nil {
		return nil, &StoreError{Op: "load preferences", Err: err}
	}

	changed := false
	for _, a := range appointments {
		if _, ok := prefs[a.ID]; !ok {
			prefs[a.ID] = models.DefaultReminderPreference()
			changed = true
		}
	}
	if changed {
		if err := r.prefs.Save(ctx, ownerID, prefs); err != nil {
			return nil, &StoreError{Op: "save preferences", Err: err}
		}
	}
	return prefs.Clone(), nil
}

// ToggleChannel flips one channel for one appointment and persists it.
func (r *ReminderScheduler) ToggleChannel(ctx context.Context, ownerID string, id uint, channel string) (models.ReminderPreference, error) {
	ch, err := models.ParseChannel(channel)
	if err != nil {
		return models.ReminderPreference{}, &ValidationError{Message: err.Error()}
	}
	if id == 0 {
		return models.ReminderPreference{}, missingIDError()
	}

	return r.update(ctx, ownerID, id, func(p models.ReminderPreference) models.ReminderPreference {
		return p.Toggled(ch)
	})
}

// MarkSent records a delivery time for ch. Manual sends do not call this.
func (r *ReminderScheduler) MarkSent(ctx context.Context, ownerID string, id uint, ch models.Channel, at time.Time) error {
	_, err := r.update(ctx, ownerID, id, func(p models.ReminderPreference) models.ReminderPreference {
		return p.MarkedSent(ch, at)
	})
	return err
}

// Preference returns the stored preference, or the default when none is stored.
func (r *ReminderScheduler) Preference(ctx context.Context, ownerID string, id uint) (models.ReminderPreference, error) {
	prefs, err := r.prefs.Load(ctx, ownerID)
	if err != nil {
		return models.ReminderPreference{}, &StoreError{Op: "load preferences", Err: err}
	}
	if p, ok := prefs[id]; ok {
		return p, nil
	}
	return models.DefaultReminderPreference(), nil
}

func (r *ReminderScheduler) update(ctx context.Context, ownerID string, id uint, fn func(models.ReminderPreference) models.ReminderPreference) (models.ReminderPreference, error) {
	unlock := r.locks.Lock(ownerID)
	defer unlock()

	prefs, err := r.prefs.Load(ctx, ownerID)
	if err != nil {
		return models.ReminderPreference{}, &StoreError{Op: "load preferences", Err: err}
	}
	p, ok := prefs[id]
	if !ok {
		p = models.DefaultReminderPreference()
	}
	p = fn(p)
	prefs[id] = p
	if err := r.prefs.Save(ctx, ownerID, prefs); err != nil {
		return models.ReminderPreference{}, &StoreError{Op: "save preferences", Err: err}
	}
	return p, nil
}

// UrgencyBucket classifies a against now in the scheduler's time zone.
func (r *ReminderScheduler) UrgencyBucket(a models.Appointment, now time.Time) (Urgency, error) {
	return UrgencyBucket(a, now, r.loc)
}

// SendEmailReminder emails user about a. The last-sent timestamp is not recorded.
func (r *ReminderScheduler) SendEmailReminder(ctx context.Context, user models.User, a models.Appointment) error {
	if user.Email == "" {
		return &MissingContactError{Channel: models.ChannelEmail}
	}
	ctx, cancel := context.WithTimeout(ctx, manualSendTimeout)
	defer cancel()

	err := r.email.SendEmail(ctx, user.Email, ReminderEmailSubject, reminderEmailBody(user.Name, a))
	r.metrics.ObserveNotification(models.ChannelEmail, "manual", err)
	if err != nil {
		r.log.Error("Error sending email reminder", zap.Uint("appointment_id", a.ID), zap.Error(err))
		return &TransportError{Channel: models.ChannelEmail, Err: err}
	}
	return nil
}

// SendSmsReminder texts user about a. The last-sent timestamp is not recorded.
func (r *ReminderScheduler) SendSmsReminder(ctx context.Context, user models.User, a models.Appointment) error {
	if user.Phone == "" {
		return &MissingContactError{Channel: models.ChannelSMS}
	}
	ctx, cancel := context.WithTimeout(ctx, manualSendTimeout)
	defer cancel()

	err := r.sms.SendSMS(ctx, user.Phone, reminderSMSBody(a))
	r.metrics.ObserveNotification(models.ChannelSMS, "manual", err)
	if err != nil {
		r.log.Error("Error sending SMS reminder", zap.Uint("appointment_id", a.ID), zap.Error(err))
		return &TransportError{Channel: models.ChannelSMS, Err: err}
	}
	return nil
}
