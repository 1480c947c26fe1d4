package services

import (
	"testing"
	"time"

	"citas/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUrgencyBucket(t *testing.T) {
	now := time.Date(2030, 5, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		date  string
		clock string
		kind  UrgencyKind
		label string
	}{
		{"exactly now is past", "2030-05-10", "08:00", UrgencyPast, "Past date"},
		{"earlier today", "2030-05-10", "07:00", UrgencyPast, "Past date"},
		{"twenty minutes", "2030-05-10", "08:20", UrgencyLessThanOneHour, "Less than 1h"},
		{"forty minutes rounds to one hour", "2030-05-10", "08:40", UrgencyWithinOneDay, "In 1h"},
		{"exactly 24 hours", "2030-05-11", "08:00", UrgencyWithinOneDay, "In 24h"},
		{"24.4 hours rounds down", "2030-05-11", "08:24", UrgencyWithinOneDay, "In 24h"},
		{"24.6 hours rounds up", "2030-05-11", "08:36", UrgencyFuture, "In 2 days"},
		{"three days", "2030-05-13", "08:00", UrgencyFuture, "In 3 days"},
		{"missing time is midnight", "2030-05-12", "", UrgencyFuture, "In 2 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UrgencyBucket(models.Appointment{Date: tt.date, Time: tt.clock}, now, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.label, got.Label)
		})
	}
}

func TestUrgencyBucket_InvalidDate(t *testing.T) {
	_, err := UrgencyBucket(models.Appointment{Date: "soon", Time: "10:00"}, time.Now(), time.UTC)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
