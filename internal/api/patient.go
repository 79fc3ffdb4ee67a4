package api

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Goutam990/medibook-console/internal/apiclient"
	"github.com/Goutam990/medibook-console/internal/domain"
	"github.com/Goutam990/medibook-console/web"
)

const (
	myBookingsPath = "/patient/bookings"
	bookPath       = "/patient/book"
)

type myBookingsData struct {
	Appointments []domain.Appointment
}

type bookData struct {
	Date            string
	Slots           []string
	Error           string
	PaymentsEnabled bool
	Fee             int64
	Currency        string
}

type checkoutData struct {
	Booking         apiclient.AppointmentInput
	Fee             int64
	Currency        string
	PublishableKey  string
	ClientSecret    string
	PaymentIntentID string
}

// MyBookings renders the appointments of the logged-in patient.
func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := h.snapshot(r).User

	list, err := cachedList(h.cache, "appointments:patient:"+user.ID, func() ([]domain.Appointment, error) {
		return h.backend.PatientAppointments(ctx, user.ID)
	})
	if err != nil {
		h.logger.WarnContext(ctx, "Failed to list patient appointments", "error", err)
		h.renderError(w, r, statusFor(err), userMessage(err, "Failed to load your bookings"))
		return
	}
	h.render(w, r, http.StatusOK, "patient_bookings", "My Bookings", myBookingsData{Appointments: list})
}

// BookPage renders the booking form. With a date it also shows the free
// slots on that day.
func (h *Handler) BookPage(w http.ResponseWriter, r *http.Request) {
	data := bookData{
		Date:            strings.TrimSpace(r.URL.Query().Get("date")),
		PaymentsEnabled: h.payments.Enabled,
		Fee:             h.payments.Fee,
		Currency:        h.payments.Currency,
	}

	status := http.StatusOK
	if data.Date != "" {
		if _, err := time.Parse(domain.DateLayout, data.Date); err != nil {
			status = http.StatusBadRequest
			data.Error = "Invalid date"
		} else if avail, err := h.backend.Availability(r.Context(), data.Date); err != nil {
			h.logger.WarnContext(r.Context(), "Availability lookup failed", "date", data.Date, "error", err)
			data.Error = userMessage(err, "Failed to load availability")
		} else {
			data.Slots = avail.AvailableSlots
		}
	}

	h.render(w, r, status, "patient_book", "Book Appointment", data)
}

// patientBooking reads the booking form for the logged-in patient.
func (h *Handler) patientBooking(r *http.Request) (apiclient.AppointmentInput, error) {
	in, err := appointmentForm(r)
	if err != nil {
		return in, err
	}
	user := h.snapshot(r).User
	in.PatientName = user.DisplayName()
	in.PatientID = user.ID
	in.DoctorName = h.defaultDoctor
	in.Status = domain.StatusBooked
	return in, nil
}

// Book books an appointment, or opens a payment and renders the checkout
// page when payments are enabled.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, bookPath, web.FlashError, "Invalid form submission")
		return
	}
	back := bookPath + "?" + url.Values{"date": {r.PostFormValue("appointmentDate")}}.Encode()

	in, err := h.patientBooking(r)
	if err != nil {
		h.redirect(w, r, back, web.FlashError, userMessage(err, "Failed to create appointment"))
		return
	}

	ctx := r.Context()
	if h.payments.Enabled {
		pi, err := h.backend.CreatePaymentIntent(ctx, apiclient.PaymentIntentRequest{
			Amount:   h.payments.Fee,
			Currency: h.payments.Currency,
		})
		if err != nil {
			h.logger.WarnContext(ctx, "Failed to create payment intent", "error", err)
			h.redirect(w, r, back, web.FlashError, userMessage(err, "Failed to start payment"))
			return
		}
		h.render(w, r, http.StatusOK, "patient_checkout", "Payment", checkoutData{
			Booking:         in,
			Fee:             h.payments.Fee,
			Currency:        h.payments.Currency,
			PublishableKey:  h.payments.PublishableKey,
			ClientSecret:    pi.ClientSecret,
			PaymentIntentID: pi.PaymentIntentID,
		})
		return
	}

	if err := h.backend.CreateAppointment(ctx, in); err != nil {
		h.logger.WarnContext(ctx, "Failed to create appointment", "error", err)
		h.redirect(w, r, back, web.FlashError, userMessage(err, "Failed to create appointment"))
		return
	}

	h.cache.Invalidate()
	h.redirect(w, r, myBookingsPath, web.FlashSuccess, "Appointment booked successfully")
}

// ConfirmCheckout records a booking after the card payment succeeded in the
// browser.
func (h *Handler) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	if !h.payments.Enabled {
		h.renderError(w, r, http.StatusNotFound, "Payments are not enabled")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, bookPath, web.FlashError, "Invalid form submission")
		return
	}

	piID := strings.TrimSpace(r.PostFormValue("paymentIntentId"))
	if piID == "" {
		h.redirect(w, r, bookPath, web.FlashError, "Missing payment reference")
		return
	}

	in, err := h.patientBooking(r)
	if err != nil {
		h.redirect(w, r, bookPath, web.FlashError, userMessage(err, "Failed to confirm booking"))
		return
	}

	ctx := r.Context()
	if err := h.backend.ConfirmBooking(ctx, apiclient.BookingConfirmation{AppointmentInput: in, PaymentIntentID: piID}); err != nil {
		h.logger.ErrorContext(ctx, "Failed to confirm paid booking", "payment_intent_id", piID, "error", err)
		h.redirect(w, r, bookPath, web.FlashError, userMessage(err, "Failed to confirm booking"))
		return
	}

	h.cache.Invalidate()
	h.logger.InfoContext(ctx, "Paid booking confirmed", "payment_intent_id", piID)
	h.redirect(w, r, myBookingsPath, web.FlashSuccess, "Payment successful. Your appointment is booked.")
}

// Profile renders the logged-in patient's profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "patient_profile", "Profile", nil)
}
