package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const (
	brevoAPI     = "https://api.brevo.com/v3/smtp/email"
	brevoTimeout = 15 * time.Second
)

var defaultBrevoClient = &http.Client{Timeout: brevoTimeout}

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoSender   `json:"sender"`
	To          []BrevoTo     `json:"to"`
	Subject     string        `json:"subject"`
	HTMLContent string        `json:"htmlContent"`
	ReplyTo     *BrevoReplyTo `json:"replyTo,omitempty"`
}

type BrevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BrevoTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type BrevoReplyTo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Recipient is one addressee of a notification.
type Recipient struct {
	Email string
	Name  string
}

// Sender sends transactional emails for account and marketplace events.
type Sender interface {
	SendWelcome(ctx context.Context, to Recipient) error
	SendQuotationAccepted(ctx context.Context, to Recipient, requestTitle string, amount decimal.Decimal, transactionID string) error
	SendDeliveryConfirmed(ctx context.Context, to Recipient, requestTitle, transactionID string) error
	SendPaymentReleased(ctx context.Context, to Recipient, requestTitle string, amount decimal.Decimal) error
	SendIssueReported(ctx context.Context, to Recipient, requestTitle, issueDetails string) error
}

// BrevoClient sends emails via the Brevo (Sendinblue) API. An empty APIKey makes every
// send a no-op.
type BrevoClient struct {
	APIKey     string
	MailFrom   string
	AppBaseURL string
	Client     *http.Client
	Endpoint   string
}

// NewBrevoClient returns a sender with its own timeout-bound http.Client.
func NewBrevoClient(apiKey, mailFrom, appBaseURL string) *BrevoClient {
	return &BrevoClient{APIKey: apiKey, MailFrom: mailFrom, AppBaseURL: appBaseURL, Client: &http.Client{Timeout: brevoTimeout}}
}

func (c *BrevoClient) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return defaultBrevoClient
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@givehub.app"
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

func (c *BrevoClient) link(path string) string {
	base := c.AppBaseURL
	if base == "" {
		base = "https://givehub.app"
	}
	return base + path
}

// send sends one email via Brevo API.
func (c *BrevoClient) send(ctx context.Context, to Recipient, subject, html string) error {
	if c.APIKey == "" || to.Email == "" {
		return nil
	}
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: "GiveHub"},
		To:          []BrevoTo{{Email: to.Email, Name: to.Name}},
		Subject:     subject,
		HTMLContent: html,
		ReplyTo:     &BrevoReplyTo{Email: "support@givehub.app", Name: "GiveHub Support"},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

func (c *BrevoClient) deliver(ctx context.Context, to Recipient, subject string, n notice) error {
	html, err := n.render()
	if err != nil {
		return err
	}
	return c.send(ctx, to, subject, html)
}

func (c *BrevoClient) SendWelcome(ctx context.Context, to Recipient) error {
	name := to.Name
	if name == "" {
		name = "there"
	}
	return c.deliver(ctx, to, "Welcome to GiveHub", notice{
		Heading: "Welcome to GiveHub, " + name + "!",
		Lines: []string{
			"Your account has been created. You can now take part in transparent, on-chain giving.",
			"If you did not sign up for this account, please contact our support team immediately.",
		},
		ActionLabel: "Open your dashboard",
		ActionURL:   c.link("/dashboard"),
	})
}

// SendQuotationAccepted tells the vendor their bid won and a transaction is pending.
func (c *BrevoClient) SendQuotationAccepted(ctx context.Context, to Recipient, requestTitle string, amount decimal.Decimal, transactionID string) error {
	return c.deliver(ctx, to, "Quotation accepted: "+requestTitle, notice{
		Heading: "Your quotation was accepted",
		Lines:   []string{"Mark the order as shipping once it is on its way."},
		Facts: []fact{
			{Label: "Request", Value: requestTitle},
			{Label: "Amount", Value: amount.StringFixed(2)},
		},
		ActionLabel: "View transaction",
		ActionURL:   c.link("/transactions/" + transactionID),
	})
}

// SendDeliveryConfirmed tells the charity the vendor marked the order delivered.
func (c *BrevoClient) SendDeliveryConfirmed(ctx context.Context, to Recipient, requestTitle, transactionID string) error {
	return c.deliver(ctx, to, "Delivery recorded: "+requestTitle, notice{
		Heading: "Delivery recorded",
		Lines: []string{
			"The vendor marked " + requestTitle + " as delivered and attached a delivery photo.",
			"Please review it and either release the payment or report an issue.",
		},
		ActionLabel: "Review delivery",
		ActionURL:   c.link("/transactions/" + transactionID),
	})
}

func (c *BrevoClient) SendPaymentReleased(ctx context.Context, to Recipient, requestTitle string, amount decimal.Decimal) error {
	return c.deliver(ctx, to, "Payment released: "+requestTitle, notice{
		Heading: "Payment released",
		Lines:   []string{"Thank you for delivering."},
		Facts: []fact{
			{Label: "Request", Value: requestTitle},
			{Label: "Amount", Value: amount.StringFixed(2)},
		},
	})
}

func (c *BrevoClient) SendIssueReported(ctx context.Context, to Recipient, requestTitle, issueDetails string) error {
	return c.deliver(ctx, to, "Issue reported: "+requestTitle, notice{
		Heading: "An issue was reported",
		Lines: []string{
			"The charity reported a problem with the delivery of " + requestTitle + ". Please contact the charity to resolve it.",
			"Their report:",
		},
		Quote: issueDetails,
	})
}
