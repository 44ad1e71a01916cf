package genai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp       openai.ChatCompletion
	err        error
	lastParams openai.ChatCompletionNewParams
}

func (m *mockChatService) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.lastParams = params
	if m.err != nil {
		return nil, m.err
	}
	return &m.resp, nil
}

func newTestClient(mock *mockChatService) *Client {
	return &Client{chat: mock, model: openai.ChatModelGPT4oMini, timeout: DefaultTimeout}
}

func TestGenerate_Success(t *testing.T) {
	mock := &mockChatService{
		resp: openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "Hello World"}},
			},
		},
	}
	client := newTestClient(mock)
	out, err := client.Generate(context.Background(), "system prompt", "user prompt", 0.7, 150)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "Hello World" {
		t.Errorf("expected 'Hello World', got '%s'", out)
	}
	if mock.lastParams.MaxTokens.Value != 150 {
		t.Errorf("expected max tokens 150, got %d", mock.lastParams.MaxTokens.Value)
	}
}

func TestGenerate_ServiceError(t *testing.T) {
	client := newTestClient(&mockChatService{err: errors.New("service failure")})
	_, err := client.Generate(context.Background(), "sys", "usr", 0.7, 0)
	if err == nil || !strings.Contains(err.Error(), "service failure") {
		t.Errorf("expected service failure error, got %v", err)
	}
}

func TestGenerate_NoChoices(t *testing.T) {
	client := newTestClient(&mockChatService{resp: openai.ChatCompletion{}})
	_, err := client.Generate(context.Background(), "sys", "usr", 0.7, 0)
	if !errors.Is(err, ErrNoChoicesReturned) {
		t.Errorf("expected no choices returned error, got %v", err)
	}
}

func TestGenerateStructured_SetsJSONMode(t *testing.T) {
	mock := &mockChatService{
		resp: openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: `{"intent":"sales"}`}},
			},
		},
	}
	client := newTestClient(mock)
	out, err := client.GenerateStructured(context.Background(), "sys", "usr", 0.3, 100)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != `{"intent":"sales"}` {
		t.Errorf("unexpected output: %s", out)
	}
	if mock.lastParams.ResponseFormat.OfJSONObject == nil {
		t.Error("expected JSON response format to be set")
	}
}

func TestNewClient_NoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient()
	if err == nil {
		t.Error("expected error when API key not provided, got nil")
	}
}

func TestNewClient_WithOptions(t *testing.T) {
	cli, err := NewClient(WithAPIKey("test-key"), WithModel("gpt-4o"), WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("expected no error with API key, got %v", err)
	}
	if cli == nil {
		t.Fatal("expected client instance, got nil")
	}
	if cli.model != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %s", cli.model)
	}
	if cli.timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cli.timeout)
	}
}
