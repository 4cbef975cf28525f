package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultAPIURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	apiURL      string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithAPIURL(url string) Option {
	return func(cl *Client) {
		cl.apiURL = url
	}
}

func NewClient(serverToken, fromEmail string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		apiURL:      defaultAPIURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendLoginCode mails a one-time admin login code.
func (c *Client) SendLoginCode(toEmail, code string) error {
	textBody := fmt.Sprintf("Din innloggingskode er: %s\n\nKoden utløper om 15 minutter.", code)
	htmlBody := fmt.Sprintf(
		`<p>Din innloggingskode er:</p><p style="font-size:24px;font-weight:bold">%s</p><p>Koden utløper om 15 minutter.</p>`,
		code,
	)
	return c.send(postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  "Innloggingskode til Bykirken",
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
}

// SendOrderConfirmation mails a receipt for a paid order.
func (c *Client) SendOrderConfirmation(toEmail, orderID string, totalCents int64, currency string) error {
	amount := fmt.Sprintf("%d,%02d %s", totalCents/100, totalCents%100, currency)
	textBody := fmt.Sprintf("Takk for din bestilling!\n\nOrdrenummer: %s\nBeløp: %s", orderID, amount)
	htmlBody := fmt.Sprintf(
		`<p>Takk for din bestilling!</p><p>Ordrenummer: %s<br>Beløp: %s</p>`,
		orderID, amount,
	)
	return c.send(postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  "Ordrebekreftelse fra Bykirken",
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
}

func (c *Client) send(payload postmarkEmail) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}
	return nil
}
