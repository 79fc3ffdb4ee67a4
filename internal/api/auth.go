package api

import (
	"net/http"
	"strings"

	"github.com/Goutam990/medibook-console/internal/apiclient"
	"github.com/Goutam990/medibook-console/internal/auth"
	"github.com/Goutam990/medibook-console/web"
)

type loginData struct {
	Email string
	Error string
}

type registerData struct {
	Form  apiclient.RegisterRequest
	Error string
}

// LoginPage renders the login form, or sends a logged-in user home. Until
// the session is restored it shows the loading placeholder instead.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	snap := h.sessions.Snapshot()
	switch {
	case snap.IsLoading:
		h.guard.ServeLoading(w, r)
		return
	case snap.IsAuthenticated():
		http.Redirect(w, r, snap.Role().HomePath(), http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login", "Login", loginData{})
}

// Login submits the credentials. The remote message is shown verbatim on
// failure.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "login", "Login", loginData{Error: "Invalid form submission"})
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))

	user, err := h.auth.Login(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		h.render(w, r, statusFor(err), "login", "Login", loginData{Email: email, Error: auth.Message(err)})
		return
	}

	h.cache.Invalidate()
	h.redirect(w, r, user.Role.HomePath(), web.FlashSuccess, "Welcome, "+user.DisplayName())
}

// Logout ends the session. It always succeeds locally.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(r.Context())
	h.cache.Invalidate()
	h.redirect(w, r, "/login", web.FlashInfo, "You have been logged out")
}

// RegisterPage renders the registration form.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", "Register", registerData{})
}

// Register creates a patient account and sends the user to login.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "register", "Register", registerData{Error: "Invalid form submission"})
		return
	}

	req := apiclient.RegisterRequest{
		FirstName:   strings.TrimSpace(r.PostFormValue("firstName")),
		LastName:    strings.TrimSpace(r.PostFormValue("lastName")),
		Username:    strings.TrimSpace(r.PostFormValue("username")),
		Email:       strings.TrimSpace(r.PostFormValue("email")),
		PhoneNumber: strings.TrimSpace(r.PostFormValue("phoneNumber")),
		Password:    r.PostFormValue("password"),
	}

	if err := h.auth.Register(r.Context(), req, r.PostFormValue("confirmPassword")); err != nil {
		req.Password = ""
		h.render(w, r, statusFor(err), "register", "Register", registerData{Form: req, Error: userMessage(err, "Registration failed")})
		return
	}

	h.logger.InfoContext(r.Context(), "Patient registered", "email", req.Email)
	h.redirect(w, r, "/login", web.FlashSuccess, "Registration successful. Please log in.")
}
