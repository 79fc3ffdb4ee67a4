package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Goutam990/medibook-console/internal/domain"
)

// AppointmentInput is the body of a create request.
type AppointmentInput struct {
	PatientName     string                   `json:"patientName,omitempty"`
	DoctorName      string                   `json:"doctorName,omitempty"`
	AppointmentDate string                   `json:"appointmentDate"`
	AppointmentTime string                   `json:"appointmentTime"`
	EndTime         string                   `json:"endTime"`
	Status          domain.AppointmentStatus `json:"status,omitempty"`
	Gender          string                   `json:"gender,omitempty"`
	PhoneNumber     string                   `json:"phoneNumber,omitempty"`
	Address         string                   `json:"address,omitempty"`
	PatientID       string                   `json:"patientId,omitempty"`
	Age             int                      `json:"age,omitempty"`
}

// Appointments lists every appointment.
func (c *Client) Appointments(ctx context.Context) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := c.do(ctx, call{
		op:     "list appointments",
		method: http.MethodGet,
		path:   "/appointments",
		out:    &out,
	})
	return out, err
}

// PatientAppointments lists the appointments of one patient.
func (c *Client) PatientAppointments(ctx context.Context, patientID string) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := c.do(ctx, call{
		op:     "list patient appointments",
		method: http.MethodGet,
		path:   "/appointments",
		query:  url.Values{"patientId": {patientID}},
		out:    &out,
	})
	return out, err
}

// Appointment fetches a single appointment.
func (c *Client) Appointment(ctx context.Context, id string) (*domain.Appointment, error) {
	var out domain.Appointment
	err := c.do(ctx, call{
		op:     "get appointment",
		method: http.MethodGet,
		path:   "/appointments/" + url.PathEscape(id),
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAppointment books a new appointment.
func (c *Client) CreateAppointment(ctx context.Context, in AppointmentInput) error {
	return c.do(ctx, call{
		op:     "create appointment",
		method: http.MethodPost,
		path:   "/appointments",
		in:     in,
	})
}

// UpdateAppointment replaces an appointment.
func (c *Client) UpdateAppointment(ctx context.Context, a domain.Appointment) error {
	return c.do(ctx, call{
		op:     "update appointment",
		method: http.MethodPut,
		path:   "/appointments/" + url.PathEscape(a.ID),
		in:     a,
	})
}

// DeleteAppointment removes an appointment.
func (c *Client) DeleteAppointment(ctx context.Context, id string) error {
	return c.do(ctx, call{
		op:     "delete appointment",
		method: http.MethodDelete,
		path:   "/appointments/" + url.PathEscape(id),
	})
}

// Availability returns the open slots on date.
func (c *Client) Availability(ctx context.Context, date string) (*domain.DoctorAvailability, error) {
	var out domain.DoctorAvailability
	err := c.do(ctx, call{
		op:     "availability",
		method: http.MethodGet,
		path:   "/appointments/availability",
		query:  url.Values{"date": {date}},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// BookingConfirmation finalises a paid booking.
type BookingConfirmation struct {
	AppointmentInput
	PaymentIntentID string `json:"paymentIntentId"`
}

// ConfirmBooking records a booking whose payment succeeded.
func (c *Client) ConfirmBooking(ctx context.Context, b BookingConfirmation) error {
	return c.do(ctx, call{
		op:     "confirm booking",
		method: http.MethodPost,
		path:   "/booking/confirm",
		in:     b,
	})
}
