package appointments

import (
	"errors"
	"time"
)

// Status is the triage state of an appointment request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// DefaultServiceName is shown when the requested service is not in the catalog.
const DefaultServiceName = "Consulta General"

var (
	ErrAppointmentNotFound = errors.New("appointments: appointment not found")
	ErrInvalidStatus       = errors.New("appointments: invalid status")
	ErrMissingPatientName  = errors.New("appointments: patient name is required")
	ErrMissingContact      = errors.New("appointments: phone or email is required")
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Appointment is a booking request submitted from the public site.
type Appointment struct {
	ID          string    `json:"id"`
	PatientName string    `json:"patientName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	ServiceID   string    `json:"serviceId"`
	ServiceName string    `json:"serviceName"`
	LocationID  string    `json:"locationId"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Notes       string    `json:"notes"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateRequest carries the patient-supplied fields. Status, id and
// timestamps are always assigned by the server.
type CreateRequest struct {
	PatientName string `json:"patientName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	ServiceID   string `json:"serviceId"`
	ServiceName string `json:"serviceName,omitempty"`
	LocationID  string `json:"locationId"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Notes       string `json:"notes"`
}

// Stats summarises the appointment list for the admin badge.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Cancelled int `json:"cancelled"`
}
