// Package auth performs the login and logout exchanges with the remote API
// and threads their results into the session store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Goutam990/medibook-console/internal/apiclient"
	"github.com/Goutam990/medibook-console/internal/domain"
)

var (
	// ErrMissingCredentials is returned when the identifier or password is
	// blank. No request is sent.
	ErrMissingCredentials = errors.New("email and password are required")

	// ErrNoProfile is returned when the API issued a token but no user
	// profile could be obtained for it.
	ErrNoProfile = errors.New("login returned no user profile")

	// ErrPasswordMismatch is returned by Register when the confirmation does
	// not match.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// GenericLoginFailure is shown when the remote API gave no message.
const GenericLoginFailure = "Login failed. Please check your credentials and try again."

// Remote is the subset of the API client the authenticator needs.
type Remote interface {
	Login(ctx context.Context, creds apiclient.Credentials) (*apiclient.LoginResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context, token string) (*domain.User, error)
	Register(ctx context.Context, req apiclient.RegisterRequest) error
}

// SessionStore is the subset of the session store the authenticator writes.
type SessionStore interface {
	SetSession(ctx context.Context, token string, user domain.User) error
	Clear(ctx context.Context) error
}

// Recorder receives authentication outcomes. It may be nil.
type Recorder interface {
	RecordLogin(ok bool)
	RecordLogout(remoteOK bool)
}

// Authenticator wraps the remote login/logout calls.
type Authenticator struct {
	remote   Remote
	sessions SessionStore
	recorder Recorder
	logger   *slog.Logger
}

// New returns a new properly initialized *Authenticator.
func New(remote Remote, sessions SessionStore, recorder Recorder, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		remote:   remote,
		sessions: sessions,
		recorder: recorder,
		logger:   logger,
	}
}

// Login sends the credentials once. On success the session store holds the
// returned token and profile; on failure the remote error is returned
// unchanged.
func (a *Authenticator) Login(ctx context.Context, identifier, password string) (u *domain.User, err error) {
	defer func() { a.record(err == nil) }()

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	res, err := a.remote.Login(ctx, apiclient.Credentials{Email: identifier, Password: password})
	if err != nil {
		a.logger.InfoContext(ctx, "Login rejected", "error", err)
		return nil, err
	}
	if res.Token == "" {
		return nil, fmt.Errorf("login: no token: %w", apiclient.ErrMalformedResponse)
	}

	user := res.User
	if user == nil || user.ID == "" {
		user, err = a.remote.Me(ctx, res.Token)
		if err != nil {
			return nil, err
		}
		if user == nil || user.ID == "" {
			return nil, ErrNoProfile
		}
	}

	if err = a.sessions.SetSession(ctx, res.Token, *user); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	a.logger.InfoContext(ctx, "User logged in", "user_id", user.ID, "role", user.Role.String())
	return user, nil
}

// Logout notifies the API and clears the local session. The local session is
// cleared even when the remote call fails.
func (a *Authenticator) Logout(ctx context.Context) {
	remoteErr := a.remote.Logout(ctx)
	if remoteErr != nil {
		a.logger.WarnContext(ctx, "Logout API call failed", "error", remoteErr)
	}
	if a.recorder != nil {
		a.recorder.RecordLogout(remoteErr == nil)
	}

	// The request may already be cancelled; the local clear must still
	// happen.
	if err := a.sessions.Clear(context.WithoutCancel(ctx)); err != nil {
		a.logger.ErrorContext(ctx, "Clearing persisted session failed", "error", err)
	}
	a.logger.InfoContext(ctx, "User logged out")
}

// Register creates a patient account. It does not log the user in.
func (a *Authenticator) Register(ctx context.Context, req apiclient.RegisterRequest, confirm string) error {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return ErrMissingCredentials
	}
	if req.Password != confirm {
		return ErrPasswordMismatch
	}
	if req.Role == "" {
		req.Role = domain.RolePatient.String()
	}
	return a.remote.Register(ctx, req)
}

func (a *Authenticator) record(ok bool) {
	if a.recorder != nil {
		a.recorder.RecordLogin(ok)
	}
}

// Message returns the text to show the user for a failed auth call: the
// remote message verbatim when there is one, the local validation message
// for local errors, the generic failure text otherwise.
func Message(err error) string {
	if msg, ok := apiclient.RemoteMessage(err); ok {
		return msg
	}
	switch {
	case errors.Is(err, ErrMissingCredentials), errors.Is(err, ErrPasswordMismatch):
		return err.Error()
	default:
		return GenericLoginFailure
	}
}
