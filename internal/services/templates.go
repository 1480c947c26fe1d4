package services

import (
	"fmt"

	"citas/internal/models"
)

const ReminderEmailSubject = "Medical appointment reminder"

func creationSMSBody(a models.Appointment) string {
	return fmt.Sprintf("Your %s appointment is scheduled for %s at %s.", a.Specialty, a.Date, a.Time)
}

func reminderEmailBody(name string, a models.Appointment) string {
	return fmt.Sprintf("Hello %s, remember your %s appointment on %s at %s.", name, a.Specialty, a.Date, a.Time)
}

func reminderSMSBody(a models.Appointment) string {
	return fmt.Sprintf("Reminder: %s appointment on %s at %s.", a.Specialty, a.Date, a.Time)
}
