// Package paymentprovider создаёт и проверяет платёжные сессии Stripe Checkout.
package paymentprovider

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// ErrEmptyKey возвращается конструктором без секретного ключа.
var ErrEmptyKey = errors.New("stripe secret key is required")

// Ключи метаданных сессии.
const (
	metaPlan   = "plan"
	metaPeriod = "period"
)

// Config: параметры Stripe Checkout.
type Config struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
	Currency   string
}

// Client работает со Stripe Checkout.
type Client struct {
	api *client.API
	cfg Config
}

// NewClient создаёт клиент Stripe.
func NewClient(cfg Config) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, ErrEmptyKey
	}
	cfg.Currency = strings.ToLower(cfg.Currency)
	return &Client{api: client.New(cfg.SecretKey, nil), cfg: cfg}, nil
}

// CreateCheckout создаёт разовую оплату плана и возвращает адрес страницы оплаты.
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	const op = "paymentprovider.CreateCheckout"

	params := c.checkoutParams(req)
	params.Context = ctx
	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Checkout{ID: s.ID, URL: s.URL}, nil
}

// GetCheckout читает сессию по идентификатору.
func (c *Client) GetCheckout(ctx context.Context, id string) (*Session, error) {
	const op = "paymentprovider.GetCheckout"

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := c.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Session{
		ID:        s.ID,
		Paid:      s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Reference: s.ClientReferenceID,
		Plan:      s.Metadata[metaPlan],
		Period:    s.Metadata[metaPeriod],
	}, nil
}

func (c *Client) checkoutParams(req CheckoutRequest) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(c.cfg.SuccessURL),
		CancelURL:         stripe.String(c.cfg.CancelURL),
		ClientReferenceID: stripe.String(strconv.FormatInt(req.UserID, 10)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(c.cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("%s (%s)", req.PlanName, req.Period)),
					},
					UnitAmount: stripe.Int64(req.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.AddMetadata(metaPlan, req.Plan)
	params.AddMetadata(metaPeriod, req.Period)
	return params
}
