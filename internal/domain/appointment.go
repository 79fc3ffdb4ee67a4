package domain

import (
	"fmt"
	"time"
)

// AppointmentStatus is the lifecycle state reported by the remote API.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "Pending"
	StatusConfirmed AppointmentStatus = "Confirmed"
	StatusCancelled AppointmentStatus = "Cancelled"
	StatusCompleted AppointmentStatus = "Completed"
	StatusBooked    AppointmentStatus = "Booked"
	StatusApproved  AppointmentStatus = "Approved"
	StatusRejected  AppointmentStatus = "Rejected"
)

// AppointmentStatuses lists every status in display order.
var AppointmentStatuses = []AppointmentStatus{
	StatusBooked,
	StatusPending,
	StatusConfirmed,
	StatusApproved,
	StatusCompleted,
	StatusCancelled,
	StatusRejected,
}

// Valid reports whether s is a known status.
func (s AppointmentStatus) Valid() bool {
	for _, known := range AppointmentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// PaymentStatus is the payment state attached to an appointment.
type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "Paid"
	PaymentUnpaid   PaymentStatus = "Unpaid"
	PaymentRefunded PaymentStatus = "Refunded"
	PaymentPending  PaymentStatus = "Pending"
)

// Appointment is a booked visit as returned by the remote API.
type Appointment struct {
	ID              string            `json:"id"`
	PatientName     string            `json:"patientName"`
	DoctorName      string            `json:"doctorName,omitempty"`
	AppointmentDate string            `json:"appointmentDate"`
	AppointmentTime string            `json:"appointmentTime"`
	EndTime         string            `json:"endTime,omitempty"`
	Status          AppointmentStatus `json:"status"`
	Age             int               `json:"age,omitempty"`
	Gender          string            `json:"gender,omitempty"`
	PhoneNumber     string            `json:"phoneNumber,omitempty"`
	Address         string            `json:"address,omitempty"`
	PaymentIntentID string            `json:"paymentIntentId,omitempty"`
	PaymentStatus   PaymentStatus     `json:"paymentStatus,omitempty"`
}

// Paid reports whether the appointment carries a settled payment.
func (a *Appointment) Paid() bool {
	return a.PaymentIntentID != "" && a.PaymentStatus == PaymentPaid
}

// DisplayDate formats the appointment date for tables, falling back to the
// raw value when it cannot be parsed.
func (a *Appointment) DisplayDate() string {
	for _, layout := range []string{DateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, a.AppointmentDate); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return a.AppointmentDate
}

// Layouts of the date and time fields exchanged with the remote API.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// AppointmentDuration is the fixed length of a visit.
const AppointmentDuration = time.Hour

// EndTime returns the end of a visit starting at start on date, formatted as
// HH:MM.
func EndTime(date, start string) (string, error) {
	t, err := time.Parse(DateLayout+" "+TimeLayout, date+" "+start)
	if err != nil {
		return "", fmt.Errorf("parse appointment start: %w", err)
	}
	return t.Add(AppointmentDuration).Format(TimeLayout), nil
}

// DoctorAvailability lists the open slots of a doctor on one date.
type DoctorAvailability struct {
	Date           string   `json:"date"`
	AvailableSlots []string `json:"availableSlots"`
}
