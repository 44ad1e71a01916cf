package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/iaclub/salesbot/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// marshalStringList serializes a string slice as JSON for a text column.
// An empty slice is stored as the empty string.
func marshalStringList(list []string) (string, error) {
	if len(list) == 0 {
		return "", nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("marshal string list failed: %w", err)
	}
	return string(data), nil
}

// unmarshalStringList parses a JSON text column back into a string slice.
// Malformed data yields an empty slice rather than an error.
func unmarshalStringList(s string) []string {
	if s == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil
	}
	return list
}

// scanTemplate scans a template row including its serialized message items.
func scanTemplate(rows *sql.Rows) (models.Template, error) {
	var t models.Template
	var description, category, triggers, messagesJSON sql.NullString
	err := rows.Scan(&t.ID, &t.Name, &description, &messagesJSON, &category, &triggers, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, fmt.Errorf("scan template failed: %w", err)
	}
	t.Description = description.String
	t.Category = category.String
	t.TriggerKeywords = unmarshalStringList(triggers.String)
	if messagesJSON.String != "" {
		if err := json.Unmarshal([]byte(messagesJSON.String), &t.Messages); err != nil {
			return t, fmt.Errorf("unmarshal template messages failed: %w", err)
		}
	}
	return t, nil
}

// scanKnowledgeItem scans a knowledge item row.
func scanKnowledgeItem(rows *sql.Rows) (models.KnowledgeItem, error) {
	var item models.KnowledgeItem
	var category, keywords, source sql.NullString
	var lastUsedAt sql.NullTime
	err := rows.Scan(&item.ID, &item.Title, &category, &item.Content, &keywords, &source,
		&item.Priority, &item.Active, &item.TimesUsed, &lastUsedAt, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return item, fmt.Errorf("scan knowledge item failed: %w", err)
	}
	item.Category = category.String
	item.Keywords = unmarshalStringList(keywords.String)
	item.Source = source.String
	if lastUsedAt.Valid {
		item.LastUsedAt = &lastUsedAt.Time
	}
	return item, nil
}

// scanFAQ scans an FAQ row.
func scanFAQ(rows *sql.Rows) (models.FAQItem, error) {
	var item models.FAQItem
	var category, tags, variations sql.NullString
	err := rows.Scan(&item.ID, &item.Question, &item.Answer, &category, &tags, &variations,
		&item.Active, &item.Priority, &item.TimesUsed, &item.HelpfulCount, &item.NotHelpfulCount,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return item, fmt.Errorf("scan faq failed: %w", err)
	}
	item.Category = category.String
	item.Tags = unmarshalStringList(tags.String)
	item.QuestionVariations = unmarshalStringList(variations.String)
	return item, nil
}
