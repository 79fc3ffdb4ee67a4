package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Goutam990/medibook-console/internal/domain"
	"github.com/Goutam990/medibook-console/web"
)

const (
	bookingsPath = "/admin/bookings"
	patientsPath = "/admin/patients"
)

type bookingsData struct {
	Appointments  []domain.Appointment
	Statuses      []domain.AppointmentStatus
	DefaultDoctor string
}

type bookingData struct {
	Appointment *domain.Appointment
	Statuses    []domain.AppointmentStatus
}

type patientsData struct {
	Patients []domain.PatientInfo
}

// ListBookings renders every appointment.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := cachedList(h.cache, "appointments:"+h.snapshot(r).User.ID, func() ([]domain.Appointment, error) {
		return h.backend.Appointments(ctx)
	})
	if err != nil {
		h.logger.WarnContext(ctx, "Failed to list appointments", "error", err)
		h.renderError(w, r, statusFor(err), userMessage(err, "Failed to load appointments"))
		return
	}

	h.render(w, r, http.StatusOK, "admin_bookings", "Appointments", bookingsData{
		Appointments:  list,
		Statuses:      domain.AppointmentStatuses,
		DefaultDoctor: h.defaultDoctor,
	})
}

// ShowBooking renders one appointment.
func (h *Handler) ShowBooking(w http.ResponseWriter, r *http.Request) {
	a, err := h.backend.Appointment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, statusFor(err), userMessage(err, "Failed to load appointment"))
		return
	}
	h.render(w, r, http.StatusOK, "admin_booking", a.PatientName, bookingData{
		Appointment: a,
		Statuses:    domain.AppointmentStatuses,
	})
}

// CreateBooking books an appointment on behalf of a patient.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, bookingsPath, web.FlashError, "Invalid form submission")
		return
	}

	in, err := appointmentForm(r)
	if err == nil && in.PatientName == "" {
		err = validationError{"Patient name is required"}
	}
	if err != nil {
		h.redirect(w, r, bookingsPath, web.FlashError, userMessage(err, "Failed to create appointment"))
		return
	}
	if in.DoctorName == "" {
		in.DoctorName = h.defaultDoctor
	}

	if err := h.backend.CreateAppointment(r.Context(), in); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to create appointment", "error", err)
		h.redirect(w, r, bookingsPath, web.FlashError, userMessage(err, "Failed to create appointment"))
		return
	}

	h.cache.Invalidate()
	h.redirect(w, r, bookingsPath, web.FlashSuccess, "Appointment created successfully")
}

// UpdateBookingStatus changes the status of an appointment.
func (h *Handler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := bookingsPath + "/" + id

	status := domain.AppointmentStatus(r.PostFormValue("status"))
	if !status.Valid() {
		h.redirect(w, r, back, web.FlashError, "Unknown status")
		return
	}

	a, err := h.backend.Appointment(r.Context(), id)
	if err != nil {
		h.redirect(w, r, back, web.FlashError, userMessage(err, "Failed to update appointment"))
		return
	}
	a.Status = status

	if err := h.backend.UpdateAppointment(r.Context(), *a); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to update appointment", "appointment_id", id, "error", err)
		h.redirect(w, r, back, web.FlashError, userMessage(err, "Failed to update appointment"))
		return
	}

	h.cache.Invalidate()
	h.redirect(w, r, back, web.FlashSuccess, "Status updated to "+string(status))
}

// DeleteBooking removes an appointment. A paid appointment is refunded first
// when payments are enabled; a failed refund keeps the appointment.
func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if h.payments.Enabled {
		a, err := h.backend.Appointment(ctx, id)
		if err != nil {
			h.redirect(w, r, bookingsPath, web.FlashError, userMessage(err, "Failed to delete appointment"))
			return
		}
		if a.Paid() {
			if err := h.backend.RefundPayment(ctx, a.PaymentIntentID); err != nil {
				h.logger.WarnContext(ctx, "Refund failed", "appointment_id", id, "payment_intent_id", a.PaymentIntentID, "error", err)
				h.redirect(w, r, bookingsPath, web.FlashError, userMessage(err, "Refund failed"))
				return
			}
			h.logger.InfoContext(ctx, "Payment refunded", "appointment_id", id, "payment_intent_id", a.PaymentIntentID)
		}
	}

	if err := h.backend.DeleteAppointment(ctx, id); err != nil {
		h.logger.WarnContext(ctx, "Failed to delete appointment", "appointment_id", id, "error", err)
		h.redirect(w, r, bookingsPath, web.FlashError, userMessage(err, "Failed to delete appointment"))
		return
	}

	h.cache.Invalidate()
	h.redirect(w, r, bookingsPath, web.FlashSuccess, "Appointment deleted")
}

// ListPatients renders every patient account.
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := cachedList(h.cache, "patients:"+h.snapshot(r).User.ID, func() ([]domain.PatientInfo, error) {
		return h.backend.Patients(ctx)
	})
	if err != nil {
		h.logger.WarnContext(ctx, "Failed to list patients", "error", err)
		h.renderError(w, r, statusFor(err), userMessage(err, "Failed to load patients"))
		return
	}
	h.render(w, r, http.StatusOK, "admin_patients", "Patients", patientsData{Patients: list})
}

// DeletePatient removes a patient account.
func (h *Handler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.backend.DeletePatient(r.Context(), id); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to delete patient", "patient_id", id, "error", err)
		h.redirect(w, r, patientsPath, web.FlashError, userMessage(err, "Failed to delete patient"))
		return
	}

	h.cache.Invalidate()
	h.redirect(w, r, patientsPath, web.FlashSuccess, "Patient deleted")
}
