// Package store holds the record stores the services depend on: the appointment
// collection, the reminder-sent ledger and the per-owner preference store.
package store

import (
	"context"
	"errors"

	"citas/internal/models"
)

// ErrUnknownColumn is returned when a patch names a column the store does not have.
var ErrUnknownColumn = errors.New("unknown column")

// AppointmentStore is the appointment record collection.
type AppointmentStore interface {
	Insert(ctx context.Context, a *models.Appointment) error
	FindAll(ctx context.Context) ([]models.Appointment, error)
	// FindByID returns nil, nil when no record matches.
	FindByID(ctx context.Context, id uint) (*models.Appointment, error)
	FindByOwner(ctx context.Context, ownerID string) ([]models.Appointment, error)
	// Patch applies column values to the record matching id and returns the
	// updated records, empty when nothing matched.
	Patch(ctx context.Context, id uint, columns map[string]any) ([]models.Appointment, error)
	// FindScheduledBetween returns Scheduled records dated in [fromDate, toDate].
	FindScheduledBetween(ctx context.Context, fromDate, toDate string) ([]models.Appointment, error)
	LogActivity(ctx context.Context, entry *models.ActivityLog) error
}

// ReminderLedger records worker reminder sends.
type ReminderLedger interface {
	// Claim inserts the record unless one exists for the same appointment,
	// channel and window. It reports whether this caller won the claim.
	Claim(ctx context.Context, sent *models.ReminderSent) (bool, error)
	// Release removes a claim whose send failed so a later tick can retry.
	Release(ctx context.Context, sent *models.ReminderSent) error
}

// PreferenceStore persists reminder preferences per owner.
type PreferenceStore interface {
	// Load returns an empty, non-nil map for an owner with nothing stored.
	Load(ctx context.Context, ownerID string) (models.ReminderPreferences, error)
	Save(ctx context.Context, ownerID string, prefs models.ReminderPreferences) error
}

// ContactStore remembers how to reach an owner.
type ContactStore interface {
	SaveContact(ctx context.Context, user models.User) error
	// Contact returns nil, nil for an unknown owner.
	Contact(ctx context.Context, ownerID string) (*models.User, error)
}

// LocalStore is the session-local state: preferences plus contact details.
type LocalStore interface {
	PreferenceStore
	ContactStore
}
