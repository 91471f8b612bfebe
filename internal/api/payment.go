// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a PaymentRequest names none.
const DefaultCurrency = "VND"

// PaymentRequest starts a payment for a plan.
type PaymentRequest struct {
	PlanID        string
	PaymentMethod string
	Amount        decimal.Decimal
	Currency      string
}

// MarshalJSON writes Amount as a JSON number, not the quoted string
// decimal.Decimal produces by default.
func (p PaymentRequest) MarshalJSON() ([]byte, error) {
	currency := p.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	return json.Marshal(struct {
		PlanID        string      `json:"plan_id"`
		PaymentMethod string      `json:"payment_method"`
		Amount        json.Number `json:"amount"`
		Currency      string      `json:"currency"`
	}{
		PlanID:        p.PlanID,
		PaymentMethod: p.PaymentMethod,
		Amount:        json.Number(p.Amount.String()),
		Currency:      currency,
	})
}

// ListPlans lists the subscription plans. No login needed.
func (c *Client) ListPlans(ctx context.Context) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Endpoint: c.endpoints.Plans})
}

// GetPlan fetches one plan.
func (c *Client) GetPlan(ctx context.Context, id string) (*Response, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalidInput("plan id is required")
	}
	return c.Do(ctx, Request{Method: http.MethodGet, Endpoint: expand(c.endpoints.Plan, id)})
}

// CreatePayment starts a payment. The reply may carry a paymentUrl for the
// gateway checkout page; see PaymentURL.
func (c *Client) CreatePayment(ctx context.Context, p PaymentRequest) (*Response, error) {
	if strings.TrimSpace(p.PlanID) == "" || strings.TrimSpace(p.PaymentMethod) == "" {
		return nil, invalidInput("plan id and payment method are required")
	}
	if !p.Amount.IsPositive() {
		return nil, invalidInput("amount must be positive, got %s", p.Amount)
	}
	return c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: c.endpoints.Payment,
		Body:     JSON(p),
		Auth:     AuthRequired,
	})
}

// PaymentURL returns the checkout URL of a CreatePayment reply, or "".
func PaymentURL(r *Response) string {
	return r.StringField("paymentUrl")
}

// PaymentHistory lists the caller's payments.
func (c *Client) PaymentHistory(ctx context.Context) (*Response, error) {
	return c.Do(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: c.endpoints.PaymentHistory,
		Auth:     AuthRequired,
	})
}

// Subscription returns the caller's current subscription.
func (c *Client) Subscription(ctx context.Context) (*Response, error) {
	return c.Do(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: c.endpoints.Subscription,
		Auth:     AuthRequired,
	})
}
