package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// PaymentIntentRequest asks the API to open a payment for a booking.
type PaymentIntentRequest struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

// PaymentIntent is the handle the payment widget needs.
type PaymentIntent struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// CreatePaymentIntent opens a payment.
func (c *Client) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error) {
	var out PaymentIntent
	err := c.do(ctx, call{
		op:     "create payment intent",
		method: http.MethodPost,
		path:   "/payment/create-intent",
		in:     req,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	if out.ClientSecret == "" || out.PaymentIntentID == "" {
		return nil, fmt.Errorf("create payment intent: %w", ErrMalformedResponse)
	}
	return &out, nil
}

// RefundPayment refunds a settled payment.
func (c *Client) RefundPayment(ctx context.Context, paymentIntentID string) error {
	return c.do(ctx, call{
		op:     "refund payment",
		method: http.MethodPost,
		path:   "/payment/" + url.PathEscape(paymentIntentID) + "/refund",
	})
}
