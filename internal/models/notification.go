package models

import (
	"fmt"
	"time"
)

// Channel is a reminder delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// ParseChannel validates a channel name.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelEmail, ChannelSMS:
		return Channel(s), nil
	}
	return "", fmt.Errorf("unknown reminder channel %q", s)
}

// ReminderPreference holds the per-appointment channel toggles.
type ReminderPreference struct {
	EmailEnabled    bool       `json:"emailEnabled"`
	SmsEnabled      bool       `json:"smsEnabled"`
	LastEmailSentAt *time.Time `json:"lastEmailSentAt"`
	LastSmsSentAt   *time.Time `json:"lastSmsSentAt"`
}

// DefaultReminderPreference is assigned the first time an appointment is observed.
func DefaultReminderPreference() ReminderPreference {
	return ReminderPreference{EmailEnabled: true, SmsEnabled: false}
}

// Enabled reports the toggle for ch.
func (p ReminderPreference) Enabled(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return p.EmailEnabled
	case ChannelSMS:
		return p.SmsEnabled
	}
	return false
}

// Toggled returns a copy with the ch toggle flipped.
func (p ReminderPreference) Toggled(ch Channel) ReminderPreference {
	switch ch {
	case ChannelEmail:
		p.EmailEnabled = !p.EmailEnabled
	case ChannelSMS:
		p.SmsEnabled = !p.SmsEnabled
	}
	return p
}

// MarkedSent returns a copy with the last-sent timestamp for ch set to at.
func (p ReminderPreference) MarkedSent(ch Channel, at time.Time) ReminderPreference {
	switch ch {
	case ChannelEmail:
		p.LastEmailSentAt = &at
	case ChannelSMS:
		p.LastSmsSentAt = &at
	}
	return p
}

// ReminderPreferences is keyed by appointment id.
type ReminderPreferences map[uint]ReminderPreference

// Clone returns an independent copy.
func (p ReminderPreferences) Clone() ReminderPreferences {
	out := make(ReminderPreferences, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ReminderWindow names the lead time a worker reminder was sent for.
type ReminderWindow string

const (
	Window24Hour ReminderWindow = "24hour"
	Window1Hour  ReminderWindow = "1hour"
)

// ReminderSent tracks which reminders have been sent to avoid duplicates
type ReminderSent struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	AppointmentID uint           `gorm:"not null;uniqueIndex:idx_reminder_once" json:"appointment_id"`
	Channel       Channel        `gorm:"size:10;not null;uniqueIndex:idx_reminder_once" json:"channel"`
	Window        ReminderWindow `gorm:"column:reminder_window;size:10;not null;uniqueIndex:idx_reminder_once" json:"window"`
	OwnerID       string         `gorm:"size:64;not null;index" json:"owner_id"`
	SentAt        time.Time      `gorm:"not null" json:"sent_at"`
}

// TableName specifies the table name for the ReminderSent model
func (ReminderSent) TableName() string {
	return "reminder_sent"
}
