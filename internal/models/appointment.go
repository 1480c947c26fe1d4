package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Status is the stored lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCancelled Status = "Cancelled"
	// StatusAttended is never stored. See Appointment.DisplayStatus.
	StatusAttended Status = "Attended"
)

// CancelledByUser is the reason written by a user-initiated cancellation.
const CancelledByUser = "Cancelled by user"

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Appointment represents a medical appointment (cita)
type Appointment struct {
	ID                 uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID            string    `gorm:"size:64;not null;index" json:"ownerId"`
	Specialty          string    `gorm:"size:120;not null" json:"specialty"`
	Doctor             string    `gorm:"size:120;not null" json:"doctor"`
	Location           string    `gorm:"size:255;not null" json:"location"`
	Date               string    `gorm:"size:10;not null;index" json:"date"` // YYYY-MM-DD
	Time               string    `gorm:"size:5;not null" json:"time"`        // HH:MM
	Status             Status    `gorm:"size:20;not null;index" json:"status"`
	CancellationReason *string   `gorm:"size:255" json:"cancellationReason"`
	CreatedAt          time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt          time.Time `gorm:"not null" json:"updatedAt"`
}

// TableName specifies the table name for the Appointment model
func (Appointment) TableName() string {
	return "appointment"
}

// IsCancelled reports whether the stored status is Cancelled.
func (a Appointment) IsCancelled() bool {
	return a.Status == StatusCancelled
}

// ScheduledAt combines Date and Time in loc. A blank time means midnight.
func (a Appointment) ScheduledAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	clock := strings.TrimSpace(a.Time)
	if clock == "" {
		clock = "00:00"
	}
	// tolerate HH:MM:SS coming back from some stores
	if len(clock) > 5 {
		clock = clock[:5]
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, strings.TrimSpace(a.Date)+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid appointment date/time %q %q: %w", a.Date, a.Time, err)
	}
	return t, nil
}

// DisplayStatus derives Attended from a past date and a non-cancelled status.
// today must be formatted with DateLayout.
func (a Appointment) DisplayStatus(today string) Status {
	if a.IsCancelled() {
		return StatusCancelled
	}
	if a.Date < today {
		return StatusAttended
	}
	return a.Status
}

// IsUpcoming reports a Scheduled appointment dated today or later.
func (a Appointment) IsUpcoming(today string) bool {
	return a.Status == StatusScheduled && a.Date >= today
}

// IsHistory reports a cancelled appointment or one whose date has passed.
func (a Appointment) IsHistory(today string) bool {
	return a.IsCancelled() || a.Date < today
}

// CanEdit applies the edit window: Scheduled and more than windowDays whole days ahead,
// counting days up from now to midnight of the appointment date.
func (a Appointment) CanEdit(now time.Time, windowDays int) bool {
	if a.Status != StatusScheduled {
		return false
	}
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(a.Date), now.Location())
	if err != nil {
		return false
	}
	days := math.Ceil(day.Sub(now).Hours() / 24)
	return days > float64(windowDays)
}

// CreateAppointmentRequest represents the data needed to create a new appointment
type CreateAppointmentRequest struct {
	OwnerID   OwnerID `json:"ownerId"`
	Specialty string  `json:"specialty"`
	Doctor    string  `json:"doctor"`
	Date      string  `json:"date"`
	Time      string  `json:"time"`
	Location  string  `json:"location"`
	Phone     string  `json:"phone,omitempty"`
}

// MissingFields lists the required fields that are blank.
func (r CreateAppointmentRequest) MissingFields() []string {
	var missing []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	check("ownerId", string(r.OwnerID))
	check("specialty", r.Specialty)
	check("doctor", r.Doctor)
	check("date", r.Date)
	check("time", r.Time)
	check("location", r.Location)
	return missing
}

// OwnerID accepts both JSON strings and numbers, since user ids arrive either way.
type OwnerID string

func (o *OwnerID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*o = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*o = OwnerID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("ownerId must be a string or number: %w", err)
	}
	*o = OwnerID(n.String())
	return nil
}

// ParseID parses an appointment identifier. Blank input yields 0.
func ParseID(s string) (uint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid appointment id %q", s)
	}
	return uint(id), nil
}

// PatchColumns maps patchable JSON field names to their column names.
var PatchColumns = map[string]string{
	"ownerId":            "owner_id",
	"specialty":          "specialty",
	"doctor":             "doctor",
	"location":           "location",
	"date":               "date",
	"time":               "time",
	"status":             "status",
	"cancellationReason": "cancellation_reason",
}

// DescriptiveFields are the only fields accepted when patching is restricted.
var DescriptiveFields = map[string]bool{
	"specialty": true,
	"doctor":    true,
	"location":  true,
	"date":      true,
	"time":      true,
}
