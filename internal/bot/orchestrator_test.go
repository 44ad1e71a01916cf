package bot

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iaclub/salesbot/internal/agents"
	"github.com/iaclub/salesbot/internal/customer"
	"github.com/iaclub/salesbot/internal/models"
	"github.com/iaclub/salesbot/internal/store"
)

// pipelineGenerator answers JSON-mode calls with a canned classification and
// plain calls with a canned reply.
type pipelineGenerator struct {
	classification string
	reply          string
}

func (g *pipelineGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error) {
	return g.reply, nil
}

func (g *pipelineGenerator) GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error) {
	return g.classification, nil
}

func newTestOrchestrator(t *testing.T, gen Generator, s store.Store) *Orchestrator {
	t.Helper()
	return NewOrchestrator(gen, s,
		WithObjectionDetector(customer.NewObjectionDetector(
			customer.WithObjectionRand(rand.New(rand.NewPCG(1, 2))),
		)),
		WithTemplates(agents.NewTemplates(
			agents.WithTemplatesRand(rand.New(rand.NewPCG(1, 2))),
		)),
	)
}

func generalGenerator() *pipelineGenerator {
	return &pipelineGenerator{
		classification: `{"intent":"general","confidence":0.8,"reasoning":"greeting"}`,
		reply:          "¡Hola! ¿En qué puedo ayudarte?",
	}
}

func TestProcessMessageTemplateShortCircuits(t *testing.T) {
	s := store.NewInMemoryStore()
	_, err := s.AddTemplate(models.Template{
		Name:            "promo_megapack",
		TriggerKeywords: []string{"promo"},
		Active:          true,
		Messages: []models.MessageItem{
			{Order: 0, Type: models.MessageItemText, Content: "¡Hola {customer_name}! Tenemos una promo."},
			{Order: 1, Type: models.MessageItemImage, Content: "flyer.png", FileURL: "https://cdn.iaclub.pe/flyer.png"},
		},
	})
	if err != nil {
		t.Fatalf("AddTemplate failed: %v", err)
	}

	o := newTestOrchestrator(t, generalGenerator(), s)
	resp := o.ProcessMessage(context.Background(), "conv1", "¿tienen alguna promo?", nil)

	if resp.Intent != models.IntentTemplate {
		t.Errorf("intent = %q; want template", resp.Intent)
	}
	if resp.AgentUsed != "Template: promo_megapack" {
		t.Errorf("agent = %q", resp.AgentUsed)
	}
	if resp.Confidence != 1.0 {
		t.Errorf("confidence = %f; want 1.0", resp.Confidence)
	}
	want := "¡Hola Cliente! Tenemos una promo.\n\n[IMAGE: flyer.png]"
	if resp.Text != want {
		t.Errorf("text = %q; want %q", resp.Text, want)
	}
	if resp.TemplateUsed != "promo_megapack" {
		t.Errorf("template_used = %q", resp.TemplateUsed)
	}
}

func TestProcessMessageRoutesActiveFlow(t *testing.T) {
	o := newTestOrchestrator(t, generalGenerator(), store.NewInMemoryStore())

	start, err := o.StartFlow("conv1", "onboarding")
	if err != nil {
		t.Fatalf("StartFlow failed: %v", err)
	}
	if !start.Started || start.Message == "" {
		t.Fatalf("unexpected start result: %+v", start)
	}

	resp := o.ProcessMessage(context.Background(), "conv1", "1", nil)
	if resp.Intent != models.IntentFlow {
		t.Errorf("intent = %q; want flow", resp.Intent)
	}
	if resp.AgentUsed != "Flow Manager" {
		t.Errorf("agent = %q", resp.AgentUsed)
	}
	if !resp.InFlow {
		t.Error("expected in_flow")
	}
	if resp.FlowCompleted {
		t.Error("flow should still be in progress")
	}
}

func TestProcessMessageObjectionShortCircuits(t *testing.T) {
	o := newTestOrchestrator(t, generalGenerator(), store.NewInMemoryStore())

	resp := o.ProcessMessage(context.Background(), "conv1", "es muy caro", nil)
	if resp.Intent != models.IntentSales {
		t.Errorf("intent = %q; want sales", resp.Intent)
	}
	if resp.AgentUsed != "Objection Handler (Sales)" {
		t.Errorf("agent = %q", resp.AgentUsed)
	}
	if resp.Confidence <= objectionThreshold || resp.Confidence > 1.0 {
		t.Errorf("confidence = %f; want above threshold", resp.Confidence)
	}
	if resp.Text == "" {
		t.Error("expected a scripted objection response")
	}
	if !strings.Contains(resp.CustomerSummary, "precio_alto") {
		t.Errorf("summary should record the objection: %s", resp.CustomerSummary)
	}
	if !resp.ShouldOfferDiscount {
		t.Error("a price objection should mark the customer discount-eligible")
	}
}

func TestProcessMessageFullPipeline(t *testing.T) {
	s := store.NewInMemoryStore()
	id, err := s.AddKnowledgeItem(models.KnowledgeItem{
		Title:    "Precios del MEGAPACK",
		Content:  "30 soles al mes",
		Priority: 10,
		Active:   true,
	})
	if err != nil {
		t.Fatalf("AddKnowledgeItem failed: %v", err)
	}

	gen := &pipelineGenerator{
		classification: `{"intent":"sales","confidence":0.9,"reasoning":"pricing question"}`,
		reply:          "El MEGAPACK cuesta 30 soles al mes.",
	}
	o := newTestOrchestrator(t, gen, s)

	resp := o.ProcessMessage(context.Background(), "conv1", "cuánto cuesta el megapack", nil)
	if resp.Intent != models.IntentSales {
		t.Errorf("intent = %q; want sales", resp.Intent)
	}
	if resp.AgentUsed != "Sales Agent" {
		t.Errorf("agent = %q; want Sales Agent", resp.AgentUsed)
	}
	if resp.Confidence != 0.9 {
		t.Errorf("confidence = %f; want 0.9", resp.Confidence)
	}
	if len(resp.KnowledgeUsed) != 1 || resp.KnowledgeUsed[0].ID != id {
		t.Errorf("knowledge_used = %+v; want the seeded item", resp.KnowledgeUsed)
	}
	if !strings.HasPrefix(resp.Text, "El MEGAPACK cuesta 30 soles al mes.") {
		t.Errorf("text lost the composed reply: %q", resp.Text)
	}
	// sales replies without a closing question get proof and a CTA appended
	if resp.Text == gen.reply {
		t.Error("expected the sales reply to be enhanced")
	}
	if !strings.Contains(resp.Text, "?") {
		t.Errorf("expected a closing question, got %q", resp.Text)
	}
	if resp.EngagementLevel != models.EngagementLow {
		t.Errorf("engagement = %q; want low on first message", resp.EngagementLevel)
	}
	// asking for MEGAPACK pricing records product interest, which warms the
	// conversation enough to push for a close
	if !resp.ShouldPushSale {
		t.Error("expected should_push_sale after a MEGAPACK pricing question")
	}
}

func TestProcessMessagePriceQuestionAnsweredFromTemplates(t *testing.T) {
	gen := &pipelineGenerator{
		classification: `{"intent":"sales","confidence":0.9,"reasoning":"pricing question"}`,
		reply:          "Respuesta inventada del modelo.",
	}
	o := newTestOrchestrator(t, gen, store.NewInMemoryStore())

	resp := o.ProcessMessage(context.Background(), "conv1", "cuánto cuesta el plan vip", nil)
	if resp.Intent != models.IntentSales {
		t.Errorf("intent = %q; want sales", resp.Intent)
	}
	if strings.Contains(resp.Text, gen.reply) {
		t.Error("price questions without stored knowledge must not use the generated reply")
	}
	if !strings.Contains(resp.Text, "**PLANES MEGAPACK** 💰") {
		t.Errorf("missing the price block: %q", resp.Text)
	}
	if !strings.Contains(resp.Text, "**PLANES VIP** 💎") {
		t.Errorf("a VIP question should include the VIP plans: %q", resp.Text)
	}
	if !strings.Contains(resp.Text, "Tío IA") {
		t.Errorf("first contact should open with a greeting: %q", resp.Text)
	}
	if !strings.Contains(resp.Text, "?") {
		t.Errorf("expected a closing question, got %q", resp.Text)
	}
}

func TestProcessMessageNonSalesSkipsEnhancement(t *testing.T) {
	gen := &pipelineGenerator{
		classification: `{"intent":"support","confidence":0.8,"reasoning":"login issue"}`,
		reply:          "Revisa tus credenciales e intenta de nuevo.",
	}
	o := newTestOrchestrator(t, gen, store.NewInMemoryStore())

	resp := o.ProcessMessage(context.Background(), "conv1", "no puedo entrar a mi cuenta", nil)
	if resp.AgentUsed != "Support Agent" {
		t.Errorf("agent = %q; want Support Agent", resp.AgentUsed)
	}
	if resp.Text != "Revisa tus credenciales e intenta de nuevo." {
		t.Errorf("support reply should pass through unchanged, got %q", resp.Text)
	}
}

type panicStore struct {
	*store.InMemoryStore
}

func (p *panicStore) ListActiveTemplates() ([]models.Template, error) {
	panic("boom")
}

func TestProcessMessageRecoversFromPanic(t *testing.T) {
	o := newTestOrchestrator(t, generalGenerator(), &panicStore{store.NewInMemoryStore()})

	resp := o.ProcessMessage(context.Background(), "conv1", "hola", nil)
	if resp.Text != ErrorFallback {
		t.Errorf("text = %q; want error fallback", resp.Text)
	}
	if resp.Intent != models.IntentError {
		t.Errorf("intent = %q; want error", resp.Intent)
	}
	if resp.AgentUsed != "Error Handler" {
		t.Errorf("agent = %q; want Error Handler", resp.AgentUsed)
	}
	if resp.Confidence != 0.0 {
		t.Errorf("confidence = %f; want 0.0", resp.Confidence)
	}
}

func TestClearSessionResetsContextAndFlow(t *testing.T) {
	o := newTestOrchestrator(t, generalGenerator(), store.NewInMemoryStore())

	o.ProcessMessage(context.Background(), "conv1", "me llamo Juan", nil)
	if _, err := o.StartFlow("conv1", "onboarding"); err != nil {
		t.Fatalf("StartFlow failed: %v", err)
	}
	o.ClearSession("conv1")

	resp := o.ProcessMessage(context.Background(), "conv1", "hola", nil)
	if resp.Intent == models.IntentFlow {
		t.Error("cleared session should not have an active flow")
	}
	if strings.Contains(resp.CustomerSummary, "Juan") {
		t.Errorf("cleared session should forget the customer, got %s", resp.CustomerSummary)
	}
}

// overlapStore reports whether two pipeline runs ever queried it at the same
// time.
type overlapStore struct {
	*store.InMemoryStore
	inFlight   atomic.Int32
	overlapped atomic.Bool
}

func (s *overlapStore) ListActiveTemplates() ([]models.Template, error) {
	if s.inFlight.Add(1) > 1 {
		s.overlapped.Store(true)
	}
	time.Sleep(200 * time.Microsecond)
	s.inFlight.Add(-1)
	return s.InMemoryStore.ListActiveTemplates()
}

func TestProcessMessageSerializedAcrossClearSession(t *testing.T) {
	s := &overlapStore{InMemoryStore: store.NewInMemoryStore()}
	o := newTestOrchestrator(t, generalGenerator(), s)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				o.ProcessMessage(context.Background(), "conv1", "hola", nil)
			}
		}()
	}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				o.ClearSession("conv1")
			}
		}()
	}
	wg.Wait()

	if s.overlapped.Load() {
		t.Error("messages for one conversation must never run concurrently, even across a session clear")
	}
}

func TestAvailableFlows(t *testing.T) {
	o := newTestOrchestrator(t, generalGenerator(), store.NewInMemoryStore())
	flows := o.AvailableFlows()
	if len(flows) != 2 || flows[0] != "onboarding" || flows[1] != "recovery" {
		t.Errorf("flows = %v; want [onboarding recovery]", flows)
	}
}
