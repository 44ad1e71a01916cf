// Package models defines the core data structures for salesbot.
//
// It includes types for bot responses, chat history, message templates,
// knowledge/FAQ items, and agent profiles, which are shared across modules.
package models

import (
	"time"
)

// Intent labels produced by the routing pipeline.
const (
	IntentTemplate      = "template"
	IntentFlow          = "flow"
	IntentSales         = "sales"
	IntentDesign        = "design"
	IntentOrderTracking = "order_tracking"
	IntentSupport       = "support"
	IntentGeneral       = "general"
	IntentError         = "error"
)

// Engagement tiers derived from per-conversation activity.
const (
	EngagementLow    = "low"
	EngagementMedium = "medium"
	EngagementHigh   = "high"
)

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single turn of conversation history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// KnowledgeRef identifies a knowledge item that contributed to a reply.
type KnowledgeRef struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// FAQRef identifies an FAQ item that contributed to a reply.
type FAQRef struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Category string `json:"category"`
}

// BotResponse is the result record produced for every inbound message.
// The orchestrator always returns a well-formed BotResponse; it never
// propagates an error past its public entry point.
type BotResponse struct {
	ID              string         `json:"id"`
	ConversationID  string         `json:"conversation_id"`
	Text            string         `json:"response"`
	Intent          string         `json:"intent"`
	AgentUsed       string         `json:"agent_used"`
	Confidence      float64        `json:"confidence"`
	KnowledgeUsed   []KnowledgeRef `json:"knowledge_used"`
	FAQsUsed        []FAQRef       `json:"faqs_used"`
	TemplateUsed    string         `json:"template_used,omitempty"`
	InFlow          bool           `json:"in_flow,omitempty"`
	FlowCompleted   bool           `json:"flow_completed,omitempty"`
	CustomerProfile string         `json:"customer_profile,omitempty"`
	CustomerSummary string         `json:"customer_context,omitempty"`
	EngagementLevel string         `json:"engagement_level,omitempty"`
	// Sales posture signals derived from the customer context, for agents
	// and downstream tooling reading the processing result.
	ShouldPushSale      bool `json:"should_push_sale,omitempty"`
	ShouldOfferDiscount bool `json:"should_offer_discount,omitempty"`
	// Err carries the underlying failure for diagnostics only. It is never
	// serialized and never shown to the customer.
	Err error `json:"-"`
}

// KnowledgeItem is an entry in the knowledge base used to ground replies.
type KnowledgeItem struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Category   string     `json:"category,omitempty"`
	Content    string     `json:"content"`
	Keywords   []string   `json:"keywords,omitempty"`
	Source     string     `json:"source,omitempty"`
	Priority   int        `json:"priority"`
	Active     bool       `json:"is_active"`
	TimesUsed  int        `json:"times_used"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// FAQItem is a question/answer pair with matching variations and tags.
type FAQItem struct {
	ID                 int64     `json:"id"`
	Question           string    `json:"question"`
	Answer             string    `json:"answer"`
	Category           string    `json:"category,omitempty"`
	Tags               []string  `json:"tags,omitempty"`
	QuestionVariations []string  `json:"question_variations,omitempty"`
	Active             bool      `json:"is_active"`
	Priority           int       `json:"priority"`
	TimesUsed          int       `json:"times_used"`
	HelpfulCount       int       `json:"helpful_count"`
	NotHelpfulCount    int       `json:"not_helpful_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// AgentProfile configures a specialized response persona for one intent.
type AgentProfile struct {
	Intent       string  `json:"intent"`
	Name         string  `json:"name"`
	Role         string  `json:"role"`
	Instructions string  `json:"instructions"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
}

// Settings keys read by the pipeline from the mutable runtime settings store.
const (
	SettingResponseStyle     = "response_style"
	SettingMaxResponseTokens = "max_response_tokens"
)
