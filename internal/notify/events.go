package notify

import (
	"time"

	"github.com/wolfman30/dental-premium/internal/appointments"
)

// EventAppointmentRequested is the envelope type for new bookings.
const EventAppointmentRequested = "appointment.requested.v1"

// Envelope wraps every queued event.
type Envelope struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    AppointmentRequestedV1 `json:"payload"`
}

// AppointmentRequestedV1 is published after a booking request is stored.
type AppointmentRequestedV1 struct {
	AppointmentID string    `json:"appointment_id"`
	PatientName   string    `json:"patient_name"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	ServiceName   string    `json:"service_name"`
	LocationID    string    `json:"location_id,omitempty"`
	Date          string    `json:"date,omitempty"`
	Time          string    `json:"time,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func appointmentRequestedFrom(appt appointments.Appointment) AppointmentRequestedV1 {
	return AppointmentRequestedV1{
		AppointmentID: appt.ID,
		PatientName:   appt.PatientName,
		Phone:         appt.Phone,
		Email:         appt.Email,
		ServiceName:   appt.ServiceName,
		LocationID:    appt.LocationID,
		Date:          appt.Date,
		Time:          appt.Time,
		Notes:         appt.Notes,
		CreatedAt:     appt.CreatedAt,
	}
}
