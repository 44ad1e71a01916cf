// Package customer tracks per-conversation customer state for salesbot.
//
// It accumulates what the customer reveals over a conversation (name, contact
// info, budget, interests, objections) and derives engagement signals the
// sales pipeline uses to decide when to push for a close or offer a discount.
package customer

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

// BasePrice is the monthly MEGAPACK price in soles, used for discount logic.
const BasePrice = 30

// Engagement levels.
const (
	EngagementLow    = "low"
	EngagementMedium = "medium"
	EngagementHigh   = "high"
)

var (
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:soy|me llamo|mi nombre es)\s+([a-záéíóúñ]+)`),
		regexp.MustCompile(`(?i)(?:^|\s)([a-záéíóúñ]+)\s+(?:aquí|acá|presente)`),
	}
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	// Peruvian mobile numbers: nine digits starting with 9.
	phonePattern = regexp.MustCompile(`\b9\d{8}\b`)
	// Ordered budget patterns: the first match wins.
	budgetPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)\s*soles?`),
		regexp.MustCompile(`(?i)(?:tengo|presupuesto|dispongo).*?(\d+)`),
		regexp.MustCompile(`(?i)(?:hasta|máximo).*?(\d+)`),
	}
)

// interestRule maps an interest label to its trigger keywords. Rules are
// non-exclusive: one message can add several interests.
type interestRule struct {
	interest string
	keywords []string
}

var interestRules = []interestRule{
	{"video", []string{"video", "sora", "veo", "contenido audiovisual"}},
	{"diseño", []string{"diseño", "midjourney", "imagen", "arte"}},
	{"programación", []string{"código", "programar", "desarrollo", "copilot"}},
	{"académico", []string{"tesis", "investigación", "universidad", "turnitin"}},
	{"negocio", []string{"empresa", "negocio", "productividad"}},
}

// productRule maps a product name to the keywords that signal interest in it.
type productRule struct {
	product  string
	keywords []string
}

var productRules = []productRule{
	{"MEGAPACK", []string{"megapack", "mega pack"}},
	{"VIP", []string{"vip"}},
}

// ContactInfo holds extracted customer contact details.
type ContactInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Context is the accumulated state of one customer conversation.
//
// Context is not safe for concurrent use; the orchestrator serializes access
// per conversation.
type Context struct {
	Name               string      `json:"name,omitempty"`
	Interests          []string    `json:"interests,omitempty"`
	Profile            string      `json:"profile,omitempty"`
	Objections         []string    `json:"objections_mentioned,omitempty"`
	ProductsInterested []string    `json:"products_interested,omitempty"`
	Budget             int         `json:"budget_mentioned,omitempty"`
	Contact            ContactInfo `json:"contact_info,omitempty"`
	SessionStart       time.Time   `json:"session_start"`
	MessageCount       int         `json:"message_count"`
	Engagement         string      `json:"engagement_level"`
}

// NewContext creates an empty customer context.
func NewContext() *Context {
	return &Context{
		SessionStart: time.Now(),
		Engagement:   EngagementLow,
	}
}

// UpdateFromMessage ingests one customer message: bumps the message counter,
// extracts name, contact info, and budget, and detects interests and product
// mentions.
func (c *Context) UpdateFromMessage(message string) {
	c.MessageCount++
	c.extractName(message)
	c.extractContactInfo(message)
	c.extractBudget(message)

	lower := strings.ToLower(message)
	for _, rule := range interestRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				c.AddInterest(rule.interest)
				break
			}
		}
	}
	for _, rule := range productRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				c.AddProductInterest(rule.product)
				break
			}
		}
	}
	c.updateEngagement()
}

func (c *Context) extractName(message string) {
	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(message); m != nil {
			c.Name = m[1]
			return
		}
	}
}

func (c *Context) extractContactInfo(message string) {
	if m := emailPattern.FindString(message); m != "" {
		c.Contact.Email = m
	}
	if m := phonePattern.FindString(message); m != "" {
		c.Contact.Phone = m
	}
}

func (c *Context) extractBudget(message string) {
	for _, re := range budgetPatterns {
		if m := re.FindStringSubmatch(message); m != nil {
			var budget int
			if _, err := fmt.Sscanf(m[1], "%d", &budget); err == nil {
				c.Budget = budget
				return
			}
		}
	}
}

// AddInterest records an interest once.
func (c *Context) AddInterest(interest string) {
	for _, existing := range c.Interests {
		if existing == interest {
			return
		}
	}
	c.Interests = append(c.Interests, interest)
}

// AddObjection records an objection type once.
func (c *Context) AddObjection(objectionType string) {
	for _, existing := range c.Objections {
		if existing == objectionType {
			return
		}
	}
	c.Objections = append(c.Objections, objectionType)
}

// AddProductInterest records interest in a specific product once.
func (c *Context) AddProductInterest(product string) {
	for _, existing := range c.ProductsInterested {
		if existing == product {
			return
		}
	}
	c.ProductsInterested = append(c.ProductsInterested, product)
}

// SetProfile sets the detected customer persona.
func (c *Context) SetProfile(profile string) {
	c.Profile = profile
}

// updateEngagement recomputes the engagement tier. High requires sustained
// conversation plus a concrete buying signal.
func (c *Context) updateEngagement() {
	switch {
	case c.MessageCount >= 5 && (len(c.Objections) > 0 || len(c.Interests) > 0):
		c.Engagement = EngagementHigh
	case c.MessageCount >= 3:
		c.Engagement = EngagementMedium
	default:
		c.Engagement = EngagementLow
	}
}

// Summary renders the context as a compact " | "-joined line for prompts.
func (c *Context) Summary() string {
	var parts []string
	if c.Name != "" {
		parts = append(parts, "Cliente: "+c.Name)
	}
	if c.Profile != "" {
		parts = append(parts, "Perfil: "+c.Profile)
	}
	if len(c.Interests) > 0 {
		parts = append(parts, "Intereses: "+strings.Join(c.Interests, ", "))
	}
	if len(c.ProductsInterested) > 0 {
		parts = append(parts, "Productos de interés: "+strings.Join(c.ProductsInterested, ", "))
	}
	if c.Budget > 0 {
		parts = append(parts, fmt.Sprintf("Presupuesto: %d soles", c.Budget))
	}
	if len(c.Objections) > 0 {
		parts = append(parts, "Objeciones: "+strings.Join(c.Objections, ", "))
	}
	parts = append(parts, "Nivel de engagement: "+c.Engagement)
	parts = append(parts, fmt.Sprintf("Mensajes: %d", c.MessageCount))
	return strings.Join(parts, " | ")
}

// ShouldPushForSale reports whether the conversation is warm enough to push
// for a close.
func (c *Context) ShouldPushForSale() bool {
	return c.Engagement == EngagementHigh ||
		c.MessageCount >= 5 ||
		len(c.ProductsInterested) > 0
}

// ShouldOfferDiscount reports whether a discount is warranted: a recorded
// price objection, or a stated budget below the base price.
func (c *Context) ShouldOfferDiscount() bool {
	for _, obj := range c.Objections {
		if obj == "precio_alto" {
			return true
		}
	}
	return c.Budget > 0 && c.Budget < BasePrice
}

// PersonalizedGreeting greets returning customers by name.
func (c *Context) PersonalizedGreeting() string {
	if c.Name != "" {
		return fmt.Sprintf("¡Hola de nuevo, %s! 👋", c.Name)
	}
	return "¡Hola! 👋"
}

// Manager holds customer contexts keyed by conversation id.
type Manager struct {
	mu       sync.Mutex
	contexts map[string]*Context
}

// NewManager creates an empty context manager.
func NewManager() *Manager {
	return &Manager{contexts: make(map[string]*Context)}
}

// Get returns the conversation's context, creating it on first use.
func (m *Manager) Get(conversationID string) *Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, ok := m.contexts[conversationID]
	if !ok {
		ctx = NewContext()
		m.contexts[conversationID] = ctx
	}
	return ctx
}

// Clear removes the conversation's context.
func (m *Manager) Clear(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.contexts, conversationID)
}
