// Package testutil provides common test utilities and helpers for salesbot
// tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iaclub/salesbot/internal/models"
	"github.com/iaclub/salesbot/internal/store"
)

// StubGenerator is a canned GenAI client: plain completions return Reply,
// JSON-mode completions return Classification.
type StubGenerator struct {
	Reply          string
	Classification string
	Err            error
}

func (g StubGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error) {
	if g.Err != nil {
		return "", g.Err
	}
	if g.Reply == "" {
		return "Respuesta de prueba.", nil
	}
	return g.Reply, nil
}

func (g StubGenerator) GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error) {
	if g.Err != nil {
		return "", g.Err
	}
	if g.Classification == "" {
		return `{"intent":"general","confidence":0.8,"reasoning":"test"}`, nil
	}
	return g.Classification, nil
}

// SeedStore loads a small knowledge base, FAQ set, and one triggered template
// into the store.
func SeedStore(t *testing.T, s store.Store) {
	t.Helper()

	items := []models.KnowledgeItem{
		{Title: "Precios del MEGAPACK", Content: "30 soles al mes, 50 por dos meses, 70 por tres", Priority: 10, Active: true},
		{Title: "IAs incluidas", Content: "ChatGPT Plus, Claude, Sora 2, Veo 3.1, Midjourney", Priority: 8, Active: true},
	}
	for _, item := range items {
		if _, err := s.AddKnowledgeItem(item); err != nil {
			t.Fatalf("failed to seed knowledge item: %v", err)
		}
	}

	faqs := []models.FAQItem{
		{Question: "¿Cómo pago?", Answer: "Yape, Plin o transferencia", Priority: 5, Active: true},
	}
	for _, faq := range faqs {
		if _, err := s.AddFAQ(faq); err != nil {
			t.Fatalf("failed to seed FAQ: %v", err)
		}
	}

	template := models.Template{
		Name:            "bienvenida",
		TriggerKeywords: []string{"catálogo"},
		Active:          true,
		Messages: []models.MessageItem{
			{Order: 0, Type: models.MessageItemText, Content: "¡Hola {customer_name}! Este es nuestro catálogo."},
		},
	}
	if _, err := s.AddTemplate(template); err != nil {
		t.Fatalf("failed to seed template: %v", err)
	}
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it
// doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes a JSON response and validates the status field.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for
// testing.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}

// MustMarshalJSON marshals an object to JSON and fails the test on error.
func MustMarshalJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails the test on
// error.
func MustUnmarshalJSON(t *testing.T, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
