package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iaclub/salesbot/internal/models"
)

func newTestChatwoot(t *testing.T, handler http.Handler) (*Chatwoot, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewChatwoot(
		WithBaseURL(srv.URL),
		WithAccountID("7"),
		WithAPIToken("secret"),
		WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewChatwoot failed: %v", err)
	}
	return c, srv
}

func TestNewChatwootRequiresCredentials(t *testing.T) {
	t.Setenv("CHATWOOT_URL", "")
	t.Setenv("CHATWOOT_ACCOUNT_ID", "")
	t.Setenv("CHATWOOT_API_TOKEN", "")
	if _, err := NewChatwoot(); err == nil {
		t.Error("expected an error without credentials")
	}
}

func TestSendMessagePostsOutgoing(t *testing.T) {
	var gotPath, gotToken string
	var gotBody map[string]any

	c, _ := newTestChatwoot(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("api_access_token")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		fmt.Fprint(w, `{"id": 1}`)
	}))

	if err := c.SendMessage(context.Background(), "42", "¡Hola!"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if gotPath != "/api/v1/accounts/7/conversations/42/messages" {
		t.Errorf("path = %q", gotPath)
	}
	if gotToken != "secret" {
		t.Errorf("token header = %q", gotToken)
	}
	if gotBody["content"] != "¡Hola!" || gotBody["message_type"] != "outgoing" || gotBody["private"] != false {
		t.Errorf("payload = %v", gotBody)
	}
}

func TestSendPrivateNoteMarksPrivate(t *testing.T) {
	var gotBody map[string]any
	c, _ := newTestChatwoot(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{"id": 2}`)
	}))

	if err := c.SendPrivateNote(context.Background(), "42", "nota interna"); err != nil {
		t.Fatalf("SendPrivateNote failed: %v", err)
	}
	if gotBody["private"] != true {
		t.Errorf("payload = %v; want private true", gotBody)
	}
}

func TestSendMessageSurfacesAPIError(t *testing.T) {
	c, _ := newTestChatwoot(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	if err := c.SendMessage(context.Background(), "42", "hola"); err == nil {
		t.Error("expected an error on 401")
	}
}

func TestHistoryMapsRolesAndFilters(t *testing.T) {
	c, _ := newTestChatwoot(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"payload": [
			{"content": "hola", "message_type": 0},
			{"content": "¡Hola! ¿En qué ayudo?", "message_type": 1},
			{"content": "nota", "message_type": 1, "private": true},
			{"content": "   ", "message_type": 0},
			{"content": "precios", "message_type": 0}
		]}`)
	}))

	history, err := c.History(context.Background(), "42")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	want := []models.ChatMessage{
		{Role: models.RoleUser, Content: "hola"},
		{Role: models.RoleAssistant, Content: "¡Hola! ¿En qué ayudo?"},
		{Role: models.RoleUser, Content: "precios"},
	}
	if len(history) != len(want) {
		t.Fatalf("history = %+v; want %d turns", history, len(want))
	}
	for i := range want {
		if history[i] != want[i] {
			t.Errorf("history[%d] = %+v; want %+v", i, history[i], want[i])
		}
	}
}

func TestHistoryKeepsTrailingWindow(t *testing.T) {
	c, _ := newTestChatwoot(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		msgs := make([]map[string]any, 0, historyLimit+5)
		for i := 0; i < historyLimit+5; i++ {
			msgs = append(msgs, map[string]any{
				"content":      fmt.Sprintf("m%d", i),
				"message_type": 0,
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"payload": msgs})
	}))

	history, err := c.History(context.Background(), "42")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != historyLimit {
		t.Fatalf("len = %d; want %d", len(history), historyLimit)
	}
	if history[0].Content != "m5" {
		t.Errorf("oldest kept = %q; want m5", history[0].Content)
	}
}

func TestMockServiceRecordsMessages(t *testing.T) {
	m := NewMockService()
	if err := m.SendMessage(context.Background(), "1", "hola"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if err := m.SendPrivateNote(context.Background(), "1", "nota"); err != nil {
		t.Fatalf("SendPrivateNote failed: %v", err)
	}
	sent := m.SentMessages()
	if len(sent) != 2 || sent[0].Private || !sent[1].Private {
		t.Errorf("sent = %+v", sent)
	}
}
