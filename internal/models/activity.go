package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Activity event types.
const (
	EventCreate = "create"
	EventUpdate = "update"
	EventCancel = "cancel"
)

// ActivityLog represents an entry in an appointment's history
type ActivityLog struct {
	ID            uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	AppointmentID uint              `gorm:"not null;index" json:"appointment_id"`
	OwnerID       string            `gorm:"size:64;index" json:"owner_id"`
	EventType     string            `gorm:"size:20;not null" json:"event_type"` // create, update, cancel
	Details       datatypes.JSONMap `gorm:"type:jsonb" json:"details"`
	Timestamp     time.Time         `gorm:"not null;index" json:"timestamp"`
}

// TableName specifies the table name for the ActivityLog model
func (ActivityLog) TableName() string {
	return "activity_log"
}

// BeforeCreate hook is called before creating a new activity entry
func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	return nil
}
