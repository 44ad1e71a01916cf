package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/iaclub/salesbot/internal/models"
)

// DefaultHTTPTimeout bounds each Chatwoot API call.
const DefaultHTTPTimeout = 30 * time.Second

// historyLimit caps how many trailing messages History returns.
const historyLimit = 20

// Chatwoot message_type values.
const (
	chatwootIncoming = 0
	chatwootOutgoing = 1
)

// Opts holds configuration options for the Chatwoot client.
type Opts struct {
	// BaseURL of the Chatwoot installation. Falls back to CHATWOOT_URL.
	BaseURL string
	// AccountID of the Chatwoot account. Falls back to CHATWOOT_ACCOUNT_ID.
	AccountID string
	// APIToken for API access. Falls back to CHATWOOT_API_TOKEN.
	APIToken string
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Option configures the Chatwoot client.
type Option func(*Opts)

// WithBaseURL sets the Chatwoot base URL.
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// WithAccountID sets the Chatwoot account id.
func WithAccountID(id string) Option {
	return func(o *Opts) { o.AccountID = id }
}

// WithAPIToken sets the Chatwoot API access token.
func WithAPIToken(token string) Option {
	return func(o *Opts) { o.APIToken = token }
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = c }
}

// Chatwoot talks to the Chatwoot conversations API.
type Chatwoot struct {
	baseURL   string
	accountID string
	apiToken  string
	http      *http.Client
}

// NewChatwoot creates a Chatwoot client. Credentials fall back to the
// CHATWOOT_URL, CHATWOOT_ACCOUNT_ID, and CHATWOOT_API_TOKEN environment
// variables.
func NewChatwoot(opts ...Option) (*Chatwoot, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("CHATWOOT_URL")
	}
	if cfg.AccountID == "" {
		cfg.AccountID = os.Getenv("CHATWOOT_ACCOUNT_ID")
	}
	if cfg.APIToken == "" {
		cfg.APIToken = os.Getenv("CHATWOOT_API_TOKEN")
	}
	if cfg.BaseURL == "" || cfg.AccountID == "" || cfg.APIToken == "" {
		slog.Error("Chatwoot NewChatwoot missing credentials")
		return nil, fmt.Errorf("chatwoot URL, account id, and API token must be provided")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	return &Chatwoot{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		accountID: cfg.AccountID,
		apiToken:  cfg.APIToken,
		http:      cfg.HTTPClient,
	}, nil
}

// SendMessage posts an outgoing reply to the conversation.
func (c *Chatwoot) SendMessage(ctx context.Context, conversationID, content string) error {
	return c.send(ctx, conversationID, content, false)
}

// SendPrivateNote posts an internal note to the conversation.
func (c *Chatwoot) SendPrivateNote(ctx context.Context, conversationID, content string) error {
	return c.send(ctx, conversationID, content, true)
}

func (c *Chatwoot) send(ctx context.Context, conversationID, content string, private bool) error {
	payload, err := json.Marshal(map[string]any{
		"content":      content,
		"message_type": "outgoing",
		"private":      private,
	})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messagesURL(conversationID), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api_access_token", c.apiToken)

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("Chatwoot SendMessage failed", "error", err, "conversationID", conversationID)
		return fmt.Errorf("failed to send message to conversation %s: %w", conversationID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("Chatwoot SendMessage rejected", "status", resp.StatusCode, "conversationID", conversationID)
		return fmt.Errorf("chatwoot returned status %d", resp.StatusCode)
	}
	slog.Info("Chatwoot SendMessage succeeded", "conversationID", conversationID, "private", private)
	return nil
}

// chatwootMessage is the subset of the message payload the pipeline needs.
type chatwootMessage struct {
	Content     string `json:"content"`
	MessageType int    `json:"message_type"`
	Private     bool   `json:"private"`
}

// History fetches the conversation's messages and maps them to chat turns:
// incoming messages become user turns, outgoing ones assistant turns. Private
// notes and empty messages are dropped; only the trailing window is returned.
func (c *Chatwoot) History(ctx context.Context, conversationID string) ([]models.ChatMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.messagesURL(conversationID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("api_access_token", c.apiToken)

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("Chatwoot History failed", "error", err, "conversationID", conversationID)
		return nil, fmt.Errorf("failed to fetch history for conversation %s: %w", conversationID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("Chatwoot History rejected", "status", resp.StatusCode, "conversationID", conversationID)
		return nil, fmt.Errorf("chatwoot returned status %d", resp.StatusCode)
	}

	var body struct {
		Payload []chatwootMessage `json:"payload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}

	raw := body.Payload
	if len(raw) > historyLimit {
		raw = raw[len(raw)-historyLimit:]
	}

	var history []models.ChatMessage
	for _, msg := range raw {
		content := strings.TrimSpace(msg.Content)
		if content == "" || msg.Private {
			continue
		}
		role := models.RoleAssistant
		if msg.MessageType == chatwootIncoming {
			role = models.RoleUser
		}
		history = append(history, models.ChatMessage{Role: role, Content: content})
	}
	slog.Debug("Chatwoot History succeeded", "conversationID", conversationID, "messages", len(history))
	return history, nil
}

func (c *Chatwoot) messagesURL(conversationID string) string {
	return fmt.Sprintf("%s/api/v1/accounts/%s/conversations/%s/messages", c.baseURL, c.accountID, conversationID)
}
