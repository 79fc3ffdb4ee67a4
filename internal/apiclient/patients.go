package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Goutam990/medibook-console/internal/domain"
)

// Users lists every account.
func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := c.do(ctx, call{
		op:     "list users",
		method: http.MethodGet,
		path:   "/users",
		out:    &out,
	})
	return out, err
}

// Patients lists patient accounts.
func (c *Client) Patients(ctx context.Context) ([]domain.PatientInfo, error) {
	var out []domain.PatientInfo
	err := c.do(ctx, call{
		op:     "list patients",
		method: http.MethodGet,
		path:   "/patients",
		out:    &out,
	})
	return out, err
}

// DeletePatient removes a patient account.
func (c *Client) DeletePatient(ctx context.Context, id string) error {
	return c.do(ctx, call{
		op:     "delete patient",
		method: http.MethodDelete,
		path:   "/patients/" + url.PathEscape(id),
	})
}
