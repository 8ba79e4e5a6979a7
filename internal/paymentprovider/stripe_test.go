package paymentprovider

import (
	"testing"

	"github.com/stripe/stripe-go/v76"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestCheckoutParams(t *testing.T) {
	c, err := NewClient(Config{
		SecretKey:  "sk_test_123",
		SuccessURL: "http://localhost:3000/pay/result?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "http://localhost:3000/plans",
		Currency:   "CLP",
	})
	require.NoError(t, err)

	params := c.checkoutParams(CheckoutRequest{
		UserID: 42, Email: "ana@example.com", Plan: "silver", PlanName: "Silver plan", Period: "yearly", Amount: 150000,
	})

	assert.Equal(t, string(stripe.CheckoutSessionModePayment), *params.Mode)
	assert.Equal(t, "42", *params.ClientReferenceID)
	assert.Equal(t, "ana@example.com", *params.CustomerEmail)
	require.Len(t, params.LineItems, 1)
	item := params.LineItems[0]
	assert.Equal(t, int64(1), *item.Quantity)
	assert.Equal(t, "clp", *item.PriceData.Currency)
	assert.Equal(t, int64(150000), *item.PriceData.UnitAmount)
	assert.Equal(t, "Silver plan (yearly)", *item.PriceData.ProductData.Name)
	assert.Equal(t, map[string]string{"plan": "silver", "period": "yearly"}, params.Metadata)
}
