package email

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrDelivery is returned when the transport reports a non-success outcome.
var ErrDelivery = errors.New("email delivery failed")

// Sender delivers a plain-text message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, to, subject, body, fromName string) error
}

// MailgunSender sends through the Mailgun messages API. The from header is
// composed as "{fromName} <{fromAddress}>", so each tenant's display name
// appears as the sender without a per-tenant Mailgun account.
type MailgunSender struct {
	endpoint    string
	apiKey      string
	fromAddress string
	client      *http.Client
}

// NewMailgunSender creates a sender posting to endpoint (the full messages
// URL, e.g. "https://api.mailgun.net/v3/mg.example.com/messages"). A nil
// client falls back to http.DefaultClient.
func NewMailgunSender(endpoint, apiKey, fromAddress string, client *http.Client) *MailgunSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &MailgunSender{
		endpoint:    endpoint,
		apiKey:      apiKey,
		fromAddress: fromAddress,
		client:      client,
	}
}

// Send posts the message form. Any transport error or non-200 response maps
// to ErrDelivery.
func (s *MailgunSender) Send(ctx context.Context, to, subject, body, fromName string) error {
	form := url.Values{}
	form.Set("from", fmt.Sprintf("%s <%s>", fromName, s.fromAddress))
	form.Set("to", to)
	form.Set("subject", subject)
	form.Set("text", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", s.apiKey)

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrDelivery, res.StatusCode, strings.TrimSpace(string(detail)))
	}

	return nil
}
