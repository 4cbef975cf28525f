package payments

import (
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v84"
	checksession "github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/bykirken/bykirken/internal/model"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	stripe.Key = cfg.SecretKey
	return &Client{cfg: cfg}
}

// Configured returns true when the secret key is set.
func (c *Client) Configured() bool {
	return c.cfg.SecretKey != ""
}

// CreateCheckoutSession builds a one-time payment session from order items.
// The order ID rides along as client reference so the webhook can find the
// order again.
func (c *Client) CreateCheckoutSession(order *model.Order, items []model.OrderItem, customerEmail string) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("create checkout session: no items")
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(order.Currency)),
				UnitAmount: stripe.Int64(item.UnitPriceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
			Quantity: stripe.Int64(item.Qty),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail:     stripe.String(customerEmail),
		LineItems:         lineItems,
		ClientReferenceID: stripe.String(order.ID),
		SuccessURL:        stripe.String(c.cfg.SuccessURL),
		CancelURL:         stripe.String(c.cfg.CancelURL),
	}

	sess, err := checksession.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// ConstructWebhookEvent verifies the signature and returns the parsed event.
func (c *Client) ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, c.cfg.WebhookSecret)
}
