package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Goutam990/medibook-console/internal/domain"
)

type staticToken string

func (t staticToken) Token() string { return string(t) }

type recordingObserver struct {
	mu    sync.Mutex
	calls map[string]int
}

func (o *recordingObserver) ObserveAPICall(op string, status int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.calls == nil {
		o.calls = make(map[string]int)
	}
	o.calls[op] = status
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, r chi.Router, tokens TokenSource) (*Client, *recordingObserver) {
	t.Helper()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	obs := &recordingObserver{}
	return New(Config{
		BaseURL:  srv.URL + "/api/",
		HTTP:     srv.Client(),
		Tokens:   tokens,
		Observer: obs,
	}), obs
}

func TestClient_Login(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))

		if creds.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password."})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token": "tok123",
			"user":  map[string]string{"id": "u1", "firstName": "Ada", "role": "Doctor"},
		})
	})

	c, obs := newTestClient(t, r, nil)
	ctx := context.Background()

	res, err := c.Login(ctx, Credentials{Email: "ada@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok123", res.Token)
	require.NotNil(t, res.User)
	assert.Equal(t, domain.RoleDoctor, res.User.Role)
	assert.Equal(t, http.StatusOK, obs.calls["login"])

	_, err = c.Login(ctx, Credentials{Email: "ada@example.com", Password: "wrong"})
	require.Error(t, err)
	msg, ok := RemoteMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Invalid email or password.", msg)
	assert.ErrorIs(t, err, errdefs.ErrUnauthenticated)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
}

func TestClient_BearerToken(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/appointments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		assert.Equal(t, "p1", r.URL.Query().Get("patientId"))
		writeJSON(w, http.StatusOK, []domain.Appointment{{ID: "a1", PatientName: "Bob", Status: domain.StatusBooked}})
	})
	r.Get("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer explicit", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, domain.User{ID: "u1", Role: domain.RolePatient})
	})

	c, _ := newTestClient(t, r, staticToken("tok123"))
	ctx := context.Background()

	got, err := c.PatientAppointments(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bob", got[0].PatientName)

	u, err := c.Me(ctx, "explicit")
	require.NoError(t, err)
	assert.Equal(t, domain.RolePatient, u.Role)
}

func TestClient_ErrorClasses(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
		msg    string
	}{
		{http.StatusNotFound, `{"message":"Appointment not found"}`, errdefs.ErrNotFound, "Appointment not found"},
		{http.StatusForbidden, `{"error":"forbidden"}`, errdefs.ErrPermissionDenied, "forbidden"},
		{http.StatusBadRequest, `"bad date"`, errdefs.ErrInvalidArgument, "bad date"},
		{http.StatusConflict, `slot taken`, errdefs.ErrConflict, "slot taken"},
		{http.StatusBadGateway, `<html>bad gateway</html>`, errdefs.ErrUnavailable, ""},
		{http.StatusTeapot, ``, errdefs.ErrUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			r := chi.NewRouter()
			r.Delete("/api/appointments/{id}", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			c, _ := newTestClient(t, r, nil)

			err := c.DeleteAppointment(context.Background(), "a1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			msg, _ := RemoteMessage(err)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/payment/create-intent", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"clientSecret": "cs"})
	})
	r.Get("/api/users", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{"))
	})

	c, _ := newTestClient(t, r, nil)
	ctx := context.Background()

	_, err := c.CreatePaymentIntent(ctx, PaymentIntentRequest{Amount: 100, Currency: "usd"})
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = c.Users(ctx)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	obs := &recordingObserver{}
	c := New(Config{BaseURL: srv.URL, Observer: obs})

	err := c.Logout(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.Equal(t, 0, obs.calls["logout"])
}

func TestClient_PaymentsAndBooking(t *testing.T) {
	var confirmed BookingConfirmation
	r := chi.NewRouter()
	r.Post("/api/payment/create-intent", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, PaymentIntent{ClientSecret: "cs_1", PaymentIntentID: "pi_1"})
	})
	r.Post("/api/booking/confirm", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&confirmed))
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post("/api/payment/{id}/refund", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pi_1", chi.URLParam(r, "id"))
		writeJSON(w, http.StatusOK, map[string]string{"status": "refunded"})
	})

	c, _ := newTestClient(t, r, staticToken("tok"))
	ctx := context.Background()

	pi, err := c.CreatePaymentIntent(ctx, PaymentIntentRequest{Amount: 5000, Currency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", pi.PaymentIntentID)

	err = c.ConfirmBooking(ctx, BookingConfirmation{
		AppointmentInput: AppointmentInput{AppointmentDate: "2025-03-01", AppointmentTime: "09:00", EndTime: "10:00"},
		PaymentIntentID:  pi.PaymentIntentID,
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", confirmed.PaymentIntentID)
	assert.Equal(t, "10:00", confirmed.EndTime)

	require.NoError(t, c.RefundPayment(ctx, "pi_1"))
}
