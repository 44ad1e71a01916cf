// Package messaging delivers bot replies to the customer-facing inbox.
//
// The primary backend is Chatwoot, which fronts the WhatsApp conversations.
// A Twilio-backed notifier alerts human advisors out of band.
package messaging

import (
	"context"
	"sync"

	"github.com/iaclub/salesbot/internal/models"
)

// Service sends replies into a conversation and reads its history.
type Service interface {
	// SendMessage posts an outgoing reply visible to the customer.
	SendMessage(ctx context.Context, conversationID, content string) error
	// SendPrivateNote posts an internal note visible only to agents.
	SendPrivateNote(ctx context.Context, conversationID, content string) error
	// History returns the most recent turns of the conversation, oldest
	// first, mapped to chat roles.
	History(ctx context.Context, conversationID string) ([]models.ChatMessage, error)
}

// MockService records sent messages for tests.
type MockService struct {
	mu       sync.Mutex
	Sent     []MockMessage
	Messages []models.ChatMessage
	Err      error
}

// MockMessage is one message captured by the mock.
type MockMessage struct {
	ConversationID string
	Content        string
	Private        bool
}

func NewMockService() *MockService {
	return &MockService{}
}

func (m *MockService) SendMessage(ctx context.Context, conversationID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, MockMessage{ConversationID: conversationID, Content: content})
	return nil
}

func (m *MockService) SendPrivateNote(ctx context.Context, conversationID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, MockMessage{ConversationID: conversationID, Content: content, Private: true})
	return nil
}

func (m *MockService) History(ctx context.Context, conversationID string) ([]models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Messages, m.Err
}

// SentMessages returns a copy of everything the mock has sent.
func (m *MockService) SentMessages() []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockMessage, len(m.Sent))
	copy(out, m.Sent)
	return out
}
