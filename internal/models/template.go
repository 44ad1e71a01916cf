package models

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// MessageItemType defines the kind of content in a template message item.
type MessageItemType string

const (
	MessageItemText     MessageItemType = "text"
	MessageItemImage    MessageItemType = "image"
	MessageItemDocument MessageItemType = "document"
	MessageItemAudio    MessageItemType = "audio"
	MessageItemVideo    MessageItemType = "video"
)

// Validation constants for message templates.
const (
	// MaxTemplateNameLength defines the maximum allowed length for a template name
	MaxTemplateNameLength = 200
	// MaxItemDelaySeconds defines the maximum allowed per-item send delay
	MaxItemDelaySeconds = 60
)

// Error variables for template validation.
var (
	ErrEmptyTemplateName    = errors.New("template name cannot be empty")
	ErrTemplateNameTooLong  = errors.New("template name exceeds maximum length")
	ErrNoTemplateMessages   = errors.New("at least one message item is required")
	ErrDuplicateOrder       = errors.New("message item orders must be unique")
	ErrNonContiguousOrder   = errors.New("message item orders must be sequential starting from 0")
	ErrEmptyItemContent     = errors.New("message item content cannot be empty")
	ErrInvalidItemType      = errors.New("invalid message item type")
	ErrMissingFileReference = errors.New("file reference is required for non-text message items")
	ErrInvalidItemDelay     = errors.New("message item delay must be between 0 and 60 seconds")
)

// IsValidMessageItemType checks if the given item type is supported.
func IsValidMessageItemType(t MessageItemType) bool {
	switch t {
	case MessageItemText, MessageItemImage, MessageItemDocument, MessageItemAudio, MessageItemVideo:
		return true
	default:
		return false
	}
}

// MessageItem is a single message in a template sequence.
type MessageItem struct {
	Order        int             `json:"order"`
	Type         MessageItemType `json:"type"`
	Content      string          `json:"content"`
	FileURL      string          `json:"file_url,omitempty"`
	DelaySeconds int             `json:"delay_seconds,omitempty"`
}

// Validate checks a single message item.
func (m *MessageItem) Validate() error {
	if !IsValidMessageItemType(m.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidItemType, m.Type)
	}
	if m.Content == "" {
		return ErrEmptyItemContent
	}
	if m.Type != MessageItemText && m.FileURL == "" {
		return fmt.Errorf("%w: item order %d (%s)", ErrMissingFileReference, m.Order, m.Type)
	}
	if m.DelaySeconds < 0 || m.DelaySeconds > MaxItemDelaySeconds {
		return fmt.Errorf("%w: got %d", ErrInvalidItemDelay, m.DelaySeconds)
	}
	return nil
}

// Template is a predefined message sequence triggered by keywords.
type Template struct {
	ID              int64         `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description,omitempty"`
	Messages        []MessageItem `json:"messages"`
	Category        string        `json:"category,omitempty"`
	TriggerKeywords []string      `json:"trigger_keywords,omitempty"`
	Active          bool          `json:"is_active"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Validate performs definition-time validation on a template. Invariant:
// item orders form a contiguous zero-based sequence with no duplicates.
func (t *Template) Validate() error {
	if t.Name == "" {
		return ErrEmptyTemplateName
	}
	if len(t.Name) > MaxTemplateNameLength {
		return ErrTemplateNameTooLong
	}
	if len(t.Messages) == 0 {
		return ErrNoTemplateMessages
	}

	seen := make(map[int]bool, len(t.Messages))
	for i := range t.Messages {
		if err := t.Messages[i].Validate(); err != nil {
			return err
		}
		if seen[t.Messages[i].Order] {
			return fmt.Errorf("%w: order %d", ErrDuplicateOrder, t.Messages[i].Order)
		}
		seen[t.Messages[i].Order] = true
	}
	for i := 0; i < len(t.Messages); i++ {
		if !seen[i] {
			return fmt.Errorf("%w: missing order %d", ErrNonContiguousOrder, i)
		}
	}
	return nil
}

// OrderedMessages returns the template's message items sorted by order.
func (t *Template) OrderedMessages() []MessageItem {
	items := make([]MessageItem, len(t.Messages))
	copy(items, t.Messages)
	sort.Slice(items, func(i, j int) bool { return items[i].Order < items[j].Order })
	return items
}
