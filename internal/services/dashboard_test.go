package services

import (
	"testing"
	"time"

	"citas/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	now := time.Date(2030, 5, 10, 12, 0, 0, 0, time.UTC)
	appts := []models.Appointment{
		{ID: 1, Date: "2030-05-20", Time: "10:00", Status: models.StatusScheduled},
		{ID: 2, Date: "2030-05-12", Time: "10:00", Status: models.StatusScheduled},
		{ID: 3, Date: "2030-05-15", Time: "10:00", Status: models.StatusCancelled},
		{ID: 4, Date: "2030-05-01", Time: "10:00", Status: models.StatusScheduled},
		{ID: 5, Date: "2030-05-10", Time: "09:00", Status: models.StatusScheduled},
	}
	prefs := models.ReminderPreferences{
		1: models.DefaultReminderPreference(),
		5: models.DefaultReminderPreference(),
	}

	d := Summarize(appts, prefs, now, 7)

	ids := func(entries []DashboardEntry) []uint {
		var out []uint
		for _, e := range entries {
			out = append(out, e.ID)
		}
		return out
	}
	assert.Equal(t, []uint{1, 2, 5}, ids(d.Upcoming))
	assert.Equal(t, []uint{3, 4}, ids(d.History))

	assert.Equal(t, DashboardStats{
		Scheduled:        3,
		Attended:         1,
		Cancelled:        1,
		HistoryTotal:     2,
		AttendedPercent:  50,
		CancelledPercent: 50,
	}, d.Stats)

	assert.True(t, d.Upcoming[0].Editable)
	assert.False(t, d.Upcoming[1].Editable)
	assert.Equal(t, models.StatusAttended, d.History[1].DisplayStatus)
	assert.Equal(t, models.StatusCancelled, d.History[0].DisplayStatus)

	require.Len(t, d.Reminders, 2)
	assert.Equal(t, uint(1), d.Reminders[0].Appointment.ID)
	assert.Equal(t, UrgencyFuture, d.Reminders[0].Urgency.Kind)
	assert.Equal(t, UrgencyPast, d.Reminders[1].Urgency.Kind)
}

func TestSummarize_Empty(t *testing.T) {
	d := Summarize(nil, nil, time.Now(), 7)
	assert.NotNil(t, d.Upcoming)
	assert.NotNil(t, d.History)
	assert.NotNil(t, d.Reminders)
	assert.Zero(t, d.Stats.AttendedPercent)
}
