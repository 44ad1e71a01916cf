package bot

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/iaclub/salesbot/internal/models"
	"github.com/iaclub/salesbot/internal/store"
)

// defaultCustomerName fills the {customer_name} variable when the customer's
// name is unknown.
const defaultCustomerName = "Cliente"

// TemplateMatcher finds and renders stored message templates triggered by
// keywords in the customer's message.
type TemplateMatcher struct {
	store store.Store
}

// NewTemplateMatcher creates a matcher over the given store.
func NewTemplateMatcher(s store.Store) *TemplateMatcher {
	return &TemplateMatcher{store: s}
}

// FindByKeyword returns the first active template whose trigger keywords
// appear in the message (case-insensitive). Store failures are logged and
// reported as no match so the pipeline continues to the next stage.
func (m *TemplateMatcher) FindByKeyword(message string) (models.Template, bool) {
	templates, err := m.store.ListActiveTemplates()
	if err != nil {
		slog.Error("TemplateMatcher FindByKeyword failed", "error", err)
		return models.Template{}, false
	}

	lower := strings.ToLower(message)
	for _, t := range templates {
		for _, keyword := range t.TriggerKeywords {
			if keyword != "" && strings.Contains(lower, strings.ToLower(keyword)) {
				slog.Info("TemplateMatcher matched", "template", t.Name, "keyword", keyword)
				return t, true
			}
		}
	}
	return models.Template{}, false
}

// Render joins the template's message items in order with blank lines. Text
// items get basic variable substitution; media items are rendered as a typed
// placeholder for transports that deliver text only.
func (m *TemplateMatcher) Render(t models.Template, customerName string) string {
	if customerName == "" {
		customerName = defaultCustomerName
	}

	var parts []string
	for _, item := range t.OrderedMessages() {
		if item.Type == models.MessageItemText {
			parts = append(parts, strings.ReplaceAll(item.Content, "{customer_name}", customerName))
			continue
		}
		parts = append(parts, fmt.Sprintf("[%s: %s]", strings.ToUpper(string(item.Type)), item.Content))
	}
	return strings.Join(parts, "\n\n")
}
