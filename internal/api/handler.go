// Package api provides the HTTP handlers of the MediBook console.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/containerd/errdefs"
	"github.com/go-chi/chi/v5"

	"github.com/Goutam990/medibook-console/internal/apiclient"
	"github.com/Goutam990/medibook-console/internal/auth"
	"github.com/Goutam990/medibook-console/internal/domain"
	"github.com/Goutam990/medibook-console/internal/guard"
	"github.com/Goutam990/medibook-console/internal/middleware"
	"github.com/Goutam990/medibook-console/web"
)

// Backend is the booking API as used by the views.
type Backend interface {
	Appointments(ctx context.Context) ([]domain.Appointment, error)
	PatientAppointments(ctx context.Context, patientID string) ([]domain.Appointment, error)
	Appointment(ctx context.Context, id string) (*domain.Appointment, error)
	CreateAppointment(ctx context.Context, in apiclient.AppointmentInput) error
	UpdateAppointment(ctx context.Context, a domain.Appointment) error
	DeleteAppointment(ctx context.Context, id string) error
	Availability(ctx context.Context, date string) (*domain.DoctorAvailability, error)
	ConfirmBooking(ctx context.Context, b apiclient.BookingConfirmation) error
	Patients(ctx context.Context) ([]domain.PatientInfo, error)
	DeletePatient(ctx context.Context, id string) error
	CreatePaymentIntent(ctx context.Context, req apiclient.PaymentIntentRequest) (*apiclient.PaymentIntent, error)
	RefundPayment(ctx context.Context, paymentIntentID string) error
}

// Authenticator performs login, logout and registration.
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (*domain.User, error)
	Logout(ctx context.Context)
	Register(ctx context.Context, req apiclient.RegisterRequest, confirm string) error
}

// Sessions is the read side of the session store.
type Sessions interface {
	Snapshot() domain.Snapshot
}

// Pinger reports whether device storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Payments configures the paid booking flow.
type Payments struct {
	Enabled        bool
	PublishableKey string
	Fee            int64
	Currency       string
}

// Options configures a Handler. AllowedOrigins names the foreign origins
// allowed to submit forms.
type Options struct {
	Backend        Backend
	Auth           Authenticator
	Sessions       Sessions
	Storage        Pinger
	Decisions      guard.Recorder
	Templates      *web.Templates
	Cache          *ListCache
	Payments       Payments
	DefaultDoctor  string
	SecureCookies  bool
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Handler serves the console views.
type Handler struct {
	backend       Backend
	auth          Authenticator
	sessions      Sessions
	storage       Pinger
	guard         *guard.Guard
	templates     *web.Templates
	cache         *ListCache
	payments      Payments
	defaultDoctor string
	secureCookies bool
	origins       []string
	logger        *slog.Logger
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(opts Options) *Handler {
	h := &Handler{
		backend:       opts.Backend,
		auth:          opts.Auth,
		sessions:      opts.Sessions,
		storage:       opts.Storage,
		templates:     opts.Templates,
		cache:         opts.Cache,
		payments:      opts.Payments,
		defaultDoctor: opts.DefaultDoctor,
		secureCookies: opts.SecureCookies,
		origins:       opts.AllowedOrigins,
		logger:        opts.Logger,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.cache == nil {
		h.cache = NewListCache(0)
	}
	h.guard = guard.New(opts.Sessions, http.HandlerFunc(h.LoadingPage), opts.Decisions)
	return h
}

// RegisterRoutes registers every console route. Forms posted from other
// sites are rejected before any handler runs.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.SameOrigin(h.origins))

		r.Get("/health", h.Health)
		r.Get("/api/session", h.GetSession)
		r.With(h.guard.RequireJSON(domain.RequireAny)).Get("/api/me", h.GetMe)

		r.Get("/login", h.LoginPage)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/register", h.RegisterPage)
		r.Post("/register", h.Register)

		r.With(h.guard.Require(domain.RequireAny)).Get("/", h.Home)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.guard.Require(domain.RequireDoctor))
			r.Get("/bookings", h.ListBookings)
			r.Post("/bookings", h.CreateBooking)
			r.Get("/bookings/{id}", h.ShowBooking)
			r.Post("/bookings/{id}/status", h.UpdateBookingStatus)
			r.Post("/bookings/{id}/delete", h.DeleteBooking)
			r.Get("/patients", h.ListPatients)
			r.Post("/patients/{id}/delete", h.DeletePatient)
		})

		r.Route("/patient", func(r chi.Router) {
			r.Use(h.guard.Require(domain.RequirePatient))
			r.Get("/bookings", h.MyBookings)
			r.Get("/book", h.BookPage)
			r.Post("/book", h.Book)
			r.Post("/checkout/confirm", h.ConfirmCheckout)
			r.Get("/profile", h.Profile)
		})
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// userMessage is the notification text for a failed remote operation.
func userMessage(err error, fallback string) string {
	if msg, ok := apiclient.RemoteMessage(err); ok {
		return msg
	}
	var verr validationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	if errors.Is(err, auth.ErrMissingCredentials) || errors.Is(err, auth.ErrPasswordMismatch) {
		return err.Error()
	}
	return fallback
}

// statusFor maps a remote error class onto the status of the page we render.
func statusFor(err error) int {
	switch {
	case errdefs.IsNotFound(err):
		return http.StatusNotFound
	case errdefs.IsUnauthorized(err):
		return http.StatusUnauthorized
	case errdefs.IsPermissionDenied(err):
		return http.StatusForbidden
	case errdefs.IsInvalidArgument(err), errors.As(err, new(validationError)):
		return http.StatusBadRequest
	case errdefs.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, auth.ErrMissingCredentials), errors.Is(err, auth.ErrPasswordMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// validationError is a local form validation failure. Its text is shown to
// the user.
type validationError struct {
	msg string
}

func (e validationError) Error() string { return e.msg }
