// Package bot orchestrates the message processing pipeline.
//
// Every inbound customer message passes through a fixed stage order: stored
// template triggers, active conversation flows, customer context tracking,
// objection handling, profile detection, intent classification, knowledge
// retrieval, persona composition (or the canned price block when a pricing
// question finds no stored knowledge), and sales enhancement. Earlier stages
// short-circuit later ones; the orchestrator always returns a well-formed
// response even when a stage panics.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/iaclub/salesbot/internal/agents"
	"github.com/iaclub/salesbot/internal/customer"
	"github.com/iaclub/salesbot/internal/flow"
	"github.com/iaclub/salesbot/internal/knowledge"
	"github.com/iaclub/salesbot/internal/models"
	"github.com/iaclub/salesbot/internal/store"
)

// ErrorFallback is sent to the customer when the pipeline fails outright.
const ErrorFallback = "Lo siento, estoy teniendo problemas técnicos en este momento. ¿Podrías intentar de nuevo?"

// objectionThreshold is the minimum detection confidence that lets an
// objection response short-circuit the pipeline.
const objectionThreshold = 0.3

// Generator is the completion surface the pipeline needs from the GenAI
// client.
type Generator interface {
	agents.Generator
	agents.StructuredGenerator
}

// Opts holds the optional collaborators of an Orchestrator.
type Opts struct {
	FlowManager *flow.Manager
	Objections  *customer.ObjectionDetector
	Profiler    *customer.Profiler
	Templates   *agents.Templates
}

// Option configures the orchestrator.
type Option func(*Opts)

// WithFlowManager sets the conversation flow manager.
func WithFlowManager(m *flow.Manager) Option {
	return func(o *Opts) { o.FlowManager = m }
}

// WithObjectionDetector sets the objection detector.
func WithObjectionDetector(d *customer.ObjectionDetector) Option {
	return func(o *Opts) { o.Objections = d }
}

// WithProfiler sets the customer profiler.
func WithProfiler(p *customer.Profiler) Option {
	return func(o *Opts) { o.Profiler = p }
}

// WithTemplates sets the response copy pool used for sales enhancement.
func WithTemplates(t *agents.Templates) Option {
	return func(o *Opts) { o.Templates = t }
}

// Orchestrator runs the multi-stage routing pipeline and owns the
// per-conversation state that survives between messages.
type Orchestrator struct {
	matcher    *TemplateMatcher
	flows      *flow.Manager
	contexts   *customer.Manager
	objections *customer.ObjectionDetector
	profiler   *customer.Profiler
	classifier *agents.Classifier
	retriever  *knowledge.Retriever
	registry   *agents.Registry
	composer   *agents.Composer
	enhancer   *agents.Enhancer
	templates  *agents.Templates

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

// NewOrchestrator wires the full pipeline over the given generator and store.
func NewOrchestrator(gen Generator, s store.Store, opts ...Option) *Orchestrator {
	cfg := Opts{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.FlowManager == nil {
		cfg.FlowManager = flow.NewManager()
	}
	if cfg.Objections == nil {
		cfg.Objections = customer.NewObjectionDetector()
	}
	if cfg.Profiler == nil {
		cfg.Profiler = customer.NewProfiler()
	}
	if cfg.Templates == nil {
		cfg.Templates = agents.NewTemplates()
	}

	return &Orchestrator{
		matcher:    NewTemplateMatcher(s),
		flows:      cfg.FlowManager,
		contexts:   customer.NewManager(),
		objections: cfg.Objections,
		profiler:   cfg.Profiler,
		classifier: agents.NewClassifier(gen),
		retriever:  knowledge.NewRetriever(s),
		registry:   agents.NewRegistry(),
		composer:   agents.NewComposer(gen, s),
		enhancer:   agents.NewEnhancer(cfg.Templates, cfg.Profiler),
		templates:  cfg.Templates,
	}
}

// ProcessMessage runs one customer message through the pipeline. Messages for
// the same conversation are serialized; the returned response is always
// well-formed, with Err set for diagnostics when the pipeline degraded.
func (o *Orchestrator) ProcessMessage(ctx context.Context, conversationID, message string, history []models.ChatMessage) (resp models.BotResponse) {
	unlock := o.lockSession(conversationID)
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Orchestrator ProcessMessage panicked", "panic", r, "conversationID", conversationID)
			resp = models.BotResponse{
				ID:             uuid.NewString(),
				ConversationID: conversationID,
				Text:           ErrorFallback,
				Intent:         models.IntentError,
				AgentUsed:      "Error Handler",
				Confidence:     0.0,
			}
		}
	}()

	base := models.BotResponse{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
	}

	// Stored templates answer before anything else runs.
	if t, ok := o.matcher.FindByKeyword(message); ok {
		base.Text = o.matcher.Render(t, o.contexts.Get(conversationID).Name)
		base.Intent = models.IntentTemplate
		base.AgentUsed = "Template: " + t.Name
		base.Confidence = 1.0
		base.TemplateUsed = t.Name
		return base
	}

	// An active flow consumes the message entirely.
	if o.flows.HasActiveFlow(conversationID) {
		if result, handled := o.flows.ProcessMessage(conversationID, message); handled {
			base.Text = result.Message
			base.Intent = models.IntentFlow
			base.AgentUsed = "Flow Manager"
			base.Confidence = 1.0
			base.InFlow = true
			base.FlowCompleted = result.Completed
			base.Err = result.Err
			return base
		}
	}

	cust := o.contexts.Get(conversationID)
	cust.UpdateFromMessage(message)

	// Objections get a scripted sales answer, skipping generation.
	if obj := o.objections.Detect(message); obj != nil && obj.Confidence > objectionThreshold {
		cust.AddObjection(obj.Type)
		base.Text = obj.SuggestedResponse
		base.Intent = models.IntentSales
		base.AgentUsed = "Objection Handler (Sales)"
		base.Confidence = obj.Confidence
		base.CustomerSummary = cust.Summary()
		base.EngagementLevel = cust.Engagement
		base.ShouldPushSale = cust.ShouldPushForSale()
		base.ShouldOfferDiscount = cust.ShouldOfferDiscount()
		return base
	}

	profile := o.profiler.Detect(message, history)
	if profile.Profile != customer.ProfileGeneral {
		cust.SetProfile(profile.Profile)
		slog.Info("Orchestrator customer profile detected", "profile", profile.Profile, "confidence", profile.Confidence)
	}

	classification := o.classifier.Classify(ctx, message, history)

	items, err := o.retriever.SearchKnowledge(message, knowledge.DefaultKnowledgeLimit)
	if err != nil {
		items = nil
	}
	faqs, err := o.retriever.SearchFAQs(message, knowledge.DefaultFAQLimit)
	if err != nil {
		faqs = nil
	}

	agent := o.registry.Get(classification.Intent)
	pushSale := cust.ShouldPushForSale()

	var text string
	if classification.Intent == models.IntentSales && asksPrice(message) && len(items) == 0 && len(faqs) == 0 {
		// Without stored pricing knowledge the model would improvise numbers;
		// answer from the canned price block instead.
		text = o.templates.BuildPriceResponse(mentionsVIP(message), pushSale)
		if cust.MessageCount <= 1 {
			text = o.templates.RandomGreeting() + "\n\n" + text
		}
		slog.Info("Orchestrator answered price question from templates", "conversationID", conversationID)
	} else {
		text = o.composer.Compose(ctx, agent, message, history, knowledge.BuildContext(items, faqs))
		if classification.Intent == models.IntentSales {
			text = o.enhancer.EnhanceSales(text, profile, pushSale)
		}
	}

	knowledgeIDs := make([]int64, 0, len(items))
	for _, item := range items {
		base.KnowledgeUsed = append(base.KnowledgeUsed, models.KnowledgeRef{ID: item.ID, Title: item.Title, Category: item.Category})
		knowledgeIDs = append(knowledgeIDs, item.ID)
	}
	faqIDs := make([]int64, 0, len(faqs))
	for _, faq := range faqs {
		base.FAQsUsed = append(base.FAQsUsed, models.FAQRef{ID: faq.ID, Question: faq.Question, Category: faq.Category})
		faqIDs = append(faqIDs, faq.ID)
	}
	// Usage bookkeeping never delays the reply.
	go o.retriever.UpdateUsageStats(knowledgeIDs, faqIDs)

	base.Text = text
	base.Intent = classification.Intent
	base.AgentUsed = agent.Name
	base.Confidence = classification.Confidence
	base.CustomerProfile = profile.Profile
	base.CustomerSummary = cust.Summary()
	base.EngagementLevel = cust.Engagement
	base.ShouldPushSale = pushSale
	base.ShouldOfferDiscount = cust.ShouldOfferDiscount()

	slog.Info("Orchestrator ProcessMessage succeeded",
		"conversationID", conversationID,
		"intent", base.Intent,
		"agent", base.AgentUsed,
		"knowledge", len(items),
		"faqs", len(faqs))
	return base
}

// StartFlow activates a registered flow for the conversation.
func (o *Orchestrator) StartFlow(conversationID, flowID string) (flow.StartResult, error) {
	return o.flows.StartFlow(conversationID, flowID)
}

// AvailableFlows lists the registered flow ids.
func (o *Orchestrator) AvailableFlows() []string {
	return o.flows.AvailableFlows()
}

// ClearSession drops all per-conversation state: customer context, any active
// flow, and the session lock.
func (o *Orchestrator) ClearSession(conversationID string) {
	unlock := o.lockSession(conversationID)
	o.contexts.Clear(conversationID)
	o.flows.AbandonFlow(conversationID)

	// The registry entry is removed while the session lock is still held, so
	// callers blocked on it revalidate and re-arm on a fresh mutex instead of
	// proceeding on the retired one.
	o.mu.Lock()
	delete(o.sessions, conversationID)
	o.mu.Unlock()
	unlock()
	slog.Info("Orchestrator ClearSession succeeded", "conversationID", conversationID)
}

// priceKeywords mark a direct pricing question.
var priceKeywords = []string{"precio", "cuánto cuesta", "cuanto cuesta", "cuánto sale", "cuanto sale", "costo", "planes"}

func asksPrice(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range priceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func mentionsVIP(message string) bool {
	return strings.Contains(strings.ToLower(message), "vip")
}

func (o *Orchestrator) lockSession(conversationID string) func() {
	for {
		o.mu.Lock()
		if o.sessions == nil {
			o.sessions = make(map[string]*sync.Mutex)
		}
		lock, ok := o.sessions[conversationID]
		if !ok {
			lock = &sync.Mutex{}
			o.sessions[conversationID] = lock
		}
		o.mu.Unlock()

		lock.Lock()

		// A ClearSession may have retired this mutex while we were blocked
		// on it; only a mutex still registered for the conversation counts.
		o.mu.Lock()
		current := o.sessions[conversationID]
		o.mu.Unlock()
		if current == lock {
			return lock.Unlock
		}
		lock.Unlock()
	}
}
