package flow

import (
	"fmt"
	"log/slog"
	"sync"
)

// StartResult is returned when a flow is started for a conversation.
type StartResult struct {
	Message  string   `json:"message"`
	FlowID   string   `json:"flow_id"`
	Started  bool     `json:"flow_started"`
	Progress Progress `json:"progress"`
}

// Manager tracks the active flow instance per conversation.
//
// Starting a flow for a conversation that already has one replaces it; a flow
// that completes or is abandoned is removed from the registry.
type Manager struct {
	mu        sync.RWMutex
	active    map[string]*Instance
	available map[string]func() *Definition
	order     []string
}

// NewManager creates a Manager with the built-in flows registered.
func NewManager() *Manager {
	m := &Manager{
		active:    make(map[string]*Instance),
		available: make(map[string]func() *Definition),
	}
	m.Register("onboarding", OnboardingFlow)
	m.Register("recovery", RecoveryFlow)
	return m
}

// Register adds a flow definition builder under the given id.
func (m *Manager) Register(id string, build func() *Definition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.available[id]; !exists {
		m.order = append(m.order, id)
	}
	m.available[id] = build
}

// AvailableFlows lists registered flow ids in registration order.
func (m *Manager) AvailableFlows() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// StartFlow creates a fresh instance of the flow and activates it for the
// conversation, replacing any flow already in progress.
func (m *Manager) StartFlow(conversationID, flowID string) (StartResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	build, ok := m.available[flowID]
	if !ok {
		slog.Warn("FlowManager StartFlow unknown flow", "flowID", flowID, "conversationID", conversationID)
		return StartResult{}, fmt.Errorf("flow %s not found", flowID)
	}

	instance := NewInstance(build())
	m.active[conversationID] = instance
	message := instance.Start()

	slog.Info("FlowManager StartFlow succeeded", "flowID", flowID, "conversationID", conversationID)
	return StartResult{
		Message:  message,
		FlowID:   flowID,
		Started:  true,
		Progress: instance.Progress(),
	}, nil
}

// ProcessMessage routes a customer message into the conversation's active
// flow. The second return value reports whether a flow handled the message.
func (m *Manager) ProcessMessage(conversationID, message string) (Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	instance, ok := m.active[conversationID]
	if !ok {
		return Result{}, false
	}

	result := instance.Process(message)
	if result.Completed || instance.State() == StateAbandoned {
		delete(m.active, conversationID)
		slog.Info("FlowManager flow finished", "conversationID", conversationID, "state", instance.State())
	}
	return result, true
}

// HasActiveFlow reports whether the conversation has a flow in progress.
func (m *Manager) HasActiveFlow(conversationID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.active[conversationID]
	return ok
}

// ActiveProgress returns the progress of the conversation's active flow.
func (m *Manager) ActiveProgress(conversationID string) (Progress, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	instance, ok := m.active[conversationID]
	if !ok {
		return Progress{}, false
	}
	return instance.Progress(), true
}

// AbandonFlow abandons and removes the conversation's active flow.
func (m *Manager) AbandonFlow(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if instance, ok := m.active[conversationID]; ok {
		instance.Abandon()
		delete(m.active, conversationID)
		slog.Info("FlowManager AbandonFlow succeeded", "conversationID", conversationID)
	}
}
