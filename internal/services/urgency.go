package services

import (
	"fmt"
	"math"
	"time"

	"citas/internal/models"
)

type UrgencyKind string

const (
	UrgencyPast            UrgencyKind = "past"
	UrgencyLessThanOneHour UrgencyKind = "lessThanOneHour"
	UrgencyWithinOneDay    UrgencyKind = "withinOneDay"
	UrgencyFuture          UrgencyKind = "future"
)

// Urgency classifies the time left until an appointment.
type Urgency struct {
	Kind  UrgencyKind `json:"kind"`
	Hours int         `json:"hours,omitempty"`
	Days  int         `json:"days,omitempty"`
	Label string      `json:"label"`
}

// UrgencyBucket classifies a against now, reading the appointment's date and
// time in loc. Hours are rounded to the nearest whole hour before bucketing.
func UrgencyBucket(a models.Appointment, now time.Time, loc *time.Location) (Urgency, error) {
	at, err := a.ScheduledAt(loc)
	if err != nil {
		return Urgency{}, &ValidationError{Message: err.Error()}
	}

	delta := at.Sub(now)
	if delta <= 0 {
		return Urgency{Kind: UrgencyPast, Label: "Past date"}, nil
	}

	hours := int(math.Round(delta.Hours()))
	switch {
	case hours < 1:
		return Urgency{Kind: UrgencyLessThanOneHour, Label: "Less than 1h"}, nil
	case hours <= 24:
		return Urgency{Kind: UrgencyWithinOneDay, Hours: hours, Label: fmt.Sprintf("In %dh", hours)}, nil
	default:
		days := int(math.Ceil(float64(hours) / 24))
		return Urgency{Kind: UrgencyFuture, Hours: hours, Days: days, Label: fmt.Sprintf("In %d days", days)}, nil
	}
}
