package services

import (
	"math"
	"time"

	"citas/internal/models"
)

// DashboardEntry is an appointment as shown on the dashboard.
type DashboardEntry struct {
	models.Appointment
	DisplayStatus models.Status `json:"displayStatus"`
	Editable      bool          `json:"editable"`
}

// ReminderPanelEntry pairs an upcoming appointment with its reminder state.
type ReminderPanelEntry struct {
	Appointment models.Appointment        `json:"appointment"`
	Preference  models.ReminderPreference `json:"preference"`
	Urgency     Urgency                   `json:"urgency"`
}

type DashboardStats struct {
	Scheduled        int `json:"scheduled"`
	Attended         int `json:"attended"`
	Cancelled        int `json:"cancelled"`
	HistoryTotal     int `json:"historyTotal"`
	AttendedPercent  int `json:"attendedPercent"`
	CancelledPercent int `json:"cancelledPercent"`
}

type Dashboard struct {
	Stats     DashboardStats       `json:"stats"`
	Upcoming  []DashboardEntry     `json:"upcoming"`
	History   []DashboardEntry     `json:"history"`
	Reminders []ReminderPanelEntry `json:"reminders"`
}

// Summarize derives the dashboard view. now is read in its own location for
// today's date and the edit window.
func Summarize(appointments []models.Appointment, prefs models.ReminderPreferences, now time.Time, editWindowDays int) Dashboard {
	today := now.Format(models.DateLayout)
	d := Dashboard{
		Upcoming:  []DashboardEntry{},
		History:   []DashboardEntry{},
		Reminders: []ReminderPanelEntry{},
	}

	for _, a := range appointments {
		entry := DashboardEntry{
			Appointment:   a,
			DisplayStatus: a.DisplayStatus(today),
			Editable:      a.CanEdit(now, editWindowDays),
		}
		if a.IsUpcoming(today) {
			d.Upcoming = append(d.Upcoming, entry)
			if p, ok := prefs[a.ID]; ok {
				urgency, err := UrgencyBucket(a, now, now.Location())
				if err != nil {
					urgency = Urgency{Kind: UrgencyPast, Label: "Past date"}
				}
				d.Reminders = append(d.Reminders, ReminderPanelEntry{
					Appointment: a,
					Preference:  p,
					Urgency:     urgency,
				})
			}
		}
		if a.IsHistory(today) {
			d.History = append(d.History, entry)
			if a.IsCancelled() {
				d.Stats.Cancelled++
			} else {
				d.Stats.Attended++
			}
		}
	}

	d.Stats.Scheduled = len(d.Upcoming)
	d.Stats.HistoryTotal = len(d.History)
	if d.Stats.HistoryTotal > 0 {
		total := float64(d.Stats.HistoryTotal)
		d.Stats.AttendedPercent = int(math.Round(float64(d.Stats.Attended) / total * 100))
		d.Stats.CancelledPercent = int(math.Round(float64(d.Stats.Cancelled) / total * 100))
	}
	return d
}
