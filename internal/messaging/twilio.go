package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// AdvisorNotifier alerts a human advisor over WhatsApp when a conversation
// needs hands-on attention.
type AdvisorNotifier interface {
	NotifyAdvisor(ctx context.Context, to, body string) error
}

// TwilioOpts holds configuration options for the Twilio notifier.
type TwilioOpts struct {
	AccountSID string
	AuthToken  string
	FromWhats  string
}

// TwilioOption configures the Twilio notifier.
type TwilioOption func(*TwilioOpts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) TwilioOption {
	return func(o *TwilioOpts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) TwilioOption {
	return func(o *TwilioOpts) { o.AuthToken = token }
}

// WithFromWhats sets the sending WhatsApp number, in
// "whatsapp:+1234567890" format.
func WithFromWhats(from string) TwilioOption {
	return func(o *TwilioOpts) { o.FromWhats = from }
}

// TwilioNotifier sends advisor alerts through the Twilio WhatsApp API.
type TwilioNotifier struct {
	client    *twilio.RestClient
	fromWhats string
}

// NewTwilioNotifier creates a notifier. Credentials fall back to the
// TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, and TWILIO_FROM_NUMBER environment
// variables.
func NewTwilioNotifier(opts ...TwilioOption) (*TwilioNotifier, error) {
	var cfg TwilioOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromWhats == "" {
		cfg.FromWhats = os.Getenv("TWILIO_FROM_NUMBER")
	}

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromWhats == "" {
		return nil, fmt.Errorf("fromWhats number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioNotifier{client: client, fromWhats: cfg.FromWhats}, nil
}

// NotifyAdvisor sends a WhatsApp message to the advisor's number.
func (t *TwilioNotifier) NotifyAdvisor(ctx context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + to)
	params.SetFrom(t.fromWhats)
	params.SetBody(body)

	if _, err := t.client.Api.CreateMessage(params); err != nil {
		slog.Error("Twilio NotifyAdvisor failed", "to", to, "error", err)
		return fmt.Errorf("failed to notify advisor %s: %w", to, err)
	}
	slog.Debug("Twilio NotifyAdvisor succeeded", "to", to)
	return nil
}

// MockNotifier records advisor alerts for tests.
type MockNotifier struct {
	Alerts []MockMessage
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) NotifyAdvisor(ctx context.Context, to, body string) error {
	m.Alerts = append(m.Alerts, MockMessage{ConversationID: to, Content: body})
	return nil
}
