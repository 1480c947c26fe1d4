package store

import (
	"context"
	"errors"
	"fmt"

	"citas/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAppointmentStore implements AppointmentStore on Postgres.
type GormAppointmentStore struct {
	db *gorm.DB
}

func NewGormAppointmentStore(db *gorm.DB) *GormAppointmentStore {
	return &GormAppointmentStore{db: db}
}

func (s *GormAppointmentStore) Insert(ctx context.Context, a *models.Appointment) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (s *GormAppointmentStore) FindAll(ctx context.Context) ([]models.Appointment, error) {
	var out []models.Appointment
	if err := s.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}

func (s *GormAppointmentStore) FindByID(ctx context.Context, id uint) (*models.Appointment, error) {
	var a models.Appointment
	err := s.db.WithContext(ctx).Where("id = ?", id).Limit(1).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment %d: %w", id, err)
	}
	return &a, nil
}

func (s *GormAppointmentStore) FindByOwner(ctx context.Context, ownerID string) ([]models.Appointment, error) {
	var out []models.Appointment
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("date, time, id").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list appointments for owner %s: %w", ownerID, err)
	}
	return out, nil
}

func (s *GormAppointmentStore) Patch(ctx context.Context, id uint, columns map[string]any) ([]models.Appointment, error) {
	var out []models.Appointment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Appointment{}).Where("id = ?", id).Updates(columns).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Find(&out).Error
	})
	if err != nil {
		return nil, fmt.Errorf("update appointment %d: %w", id, err)
	}
	return out, nil
}

func (s *GormAppointmentStore) FindScheduledBetween(ctx context.Context, fromDate, toDate string) ([]models.Appointment, error) {
	var out []models.Appointment
	if err := s.db.WithContext(ctx).
		Where("status = ? AND date >= ? AND date <= ?", models.StatusScheduled, fromDate, toDate).
		Order("date, time").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list scheduled appointments: %w", err)
	}
	return out, nil
}

func (s *GormAppointmentStore) LogActivity(ctx context.Context, entry *models.ActivityLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// GormReminderLedger implements ReminderLedger on the reminder_sent table.
type GormReminderLedger struct {
	db *gorm.DB
}

func NewGormReminderLedger(db *gorm.DB) *GormReminderLedger {
	return &GormReminderLedger{db: db}
}

func (l *GormReminderLedger) Claim(ctx context.Context, sent *models.ReminderSent) (bool, error) {
	res := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(sent)
	if res.Error != nil {
		return false, fmt.Errorf("claim reminder: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (l *GormReminderLedger) Release(ctx context.Context, sent *models.ReminderSent) error {
	return l.db.WithContext(ctx).
		Where("appointment_id = ? AND channel = ? AND reminder_window = ?", sent.AppointmentID, sent.Channel, sent.Window).
		Delete(&models.ReminderSent{}).Error
}
