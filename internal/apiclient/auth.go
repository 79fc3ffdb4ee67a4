package apiclient

import (
	"context"
	"net/http"

	"github.com/Goutam990/medibook-console/internal/domain"
)

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the login response. User is nil when the API does not embed
// the profile.
type LoginResult struct {
	User  *domain.User `json:"user,omitempty"`
	Token string       `json:"token"`
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, call{
		op:     "login",
		method: http.MethodPost,
		path:   "/auth/login",
		in:     creds,
		out:    &res,
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Logout tells the API the current token is no longer used.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, call{
		op:     "logout",
		method: http.MethodPost,
		path:   "/auth/logout",
	})
}

// Me fetches the profile belonging to token.
func (c *Client) Me(ctx context.Context, token string) (*domain.User, error) {
	var u domain.User
	err := c.do(ctx, call{
		op:     "me",
		method: http.MethodGet,
		path:   "/auth/me",
		out:    &u,
		token:  token,
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// RegisterRequest is the patient self-registration body.
type RegisterRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

// Register creates a patient account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.do(ctx, call{
		op:     "register",
		method: http.MethodPost,
		path:   "/auth/register",
		in:     req,
	})
}
