// Package api provides HTTP handlers for salesbot endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iaclub/salesbot/internal/models"
	"github.com/iaclub/salesbot/internal/util"
)

// webhookApology is sent to the customer when reply delivery fails after a
// message was processed.
const webhookApology = "Disculpa, estoy teniendo problemas técnicos. Un agente humano te atenderá pronto."

// chatwootEvent is the subset of the Chatwoot webhook payload the bot needs.
type chatwootEvent struct {
	Event        string `json:"event"`
	MessageType  string `json:"message_type"`
	Content      string `json:"content"`
	Conversation struct {
		ID int64 `json:"id"`
	} `json:"conversation"`
	Sender struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"sender"`
}

// webhookResult summarizes a processed webhook for the caller.
type webhookResult struct {
	ConversationID string  `json:"conversation_id"`
	Intent         string  `json:"intent"`
	Confidence     float64 `json:"confidence"`
	KnowledgeUsed  int     `json:"knowledge_used"`
	FAQsUsed       int     `json:"faqs_used"`
}

func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.webhookHandler: processing webhook", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.webhookHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var event chatwootEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		slog.Warn("Server.webhookHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	// Only customer messages enter the pipeline; other events are ack'd so
	// Chatwoot does not retry them.
	if event.Event != "message_created" {
		writeJSONResponse(w, http.StatusOK, models.Ignored("not message_created event"))
		return
	}
	if event.MessageType != "incoming" {
		writeJSONResponse(w, http.StatusOK, models.Ignored("not incoming message"))
		return
	}
	if event.Conversation.ID == 0 || event.Content == "" {
		slog.Warn("Server.webhookHandler: missing conversation id or content")
		writeJSONResponse(w, http.StatusBadRequest, models.Error("missing conversation id or message content"))
		return
	}

	conversationID := strconv.FormatInt(event.Conversation.ID, 10)
	slog.Info("Server.webhookHandler: processing message", "conversationID", conversationID)

	// History is best effort: a failed fetch degrades to a contextless reply.
	history, err := s.msgService.History(r.Context(), conversationID)
	if err != nil {
		slog.Warn("Server.webhookHandler: history fetch failed", "error", err, "conversationID", conversationID)
		history = nil
	}

	result := s.orchestrator.ProcessMessage(r.Context(), conversationID, event.Content, history)

	// Flag broken conversations for the human agents without exposing the
	// failure to the customer.
	if result.Intent == models.IntentError {
		if noteErr := s.msgService.SendPrivateNote(r.Context(), conversationID, "El bot no pudo procesar el último mensaje; se envió una respuesta de disculpa. Revisar la conversación."); noteErr != nil {
			slog.Warn("Server.webhookHandler: failed to post private note", "error", noteErr, "conversationID", conversationID)
		}
	}

	if err := s.msgService.SendMessage(r.Context(), conversationID, result.Text); err != nil {
		slog.Error("Server.webhookHandler: failed to send reply", "error", err, "conversationID", conversationID)
		if apologyErr := s.msgService.SendMessage(r.Context(), conversationID, webhookApology); apologyErr != nil {
			slog.Error("Server.webhookHandler: failed to send apology", "error", apologyErr, "conversationID", conversationID)
		}
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to deliver reply"))
		return
	}

	slog.Info("Server.webhookHandler: reply sent", "conversationID", conversationID, "intent", result.Intent, "confidence", result.Confidence)
	writeJSONResponse(w, http.StatusOK, models.Processed(webhookResult{
		ConversationID: conversationID,
		Intent:         result.Intent,
		Confidence:     result.Confidence,
		KnowledgeUsed:  len(result.KnowledgeUsed),
		FAQsUsed:       len(result.FAQsUsed),
	}))
}

// testRequest is the payload of the direct pipeline testing endpoint.
type testRequest struct {
	ConversationID string               `json:"conversation_id"`
	Message        string               `json:"message"`
	History        []models.ChatMessage `json:"history,omitempty"`
}

func (s *Server) testHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.testHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req testRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.testHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.Message == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("message is required"))
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = util.GenerateTestConversationID()
	}

	result := s.orchestrator.ProcessMessage(r.Context(), req.ConversationID, req.Message, req.History)
	slog.Info("Server.testHandler: processed", "conversationID", req.ConversationID, "intent", result.Intent)
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

// startFlowRequest is the payload for activating a flow.
type startFlowRequest struct {
	ConversationID string `json:"conversation_id"`
	FlowID         string `json:"flow_id"`
}

func (s *Server) startFlowHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.startFlowHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req startFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.startFlowHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.ConversationID == "" || req.FlowID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("conversation_id and flow_id are required"))
		return
	}

	result, err := s.orchestrator.StartFlow(req.ConversationID, req.FlowID)
	if err != nil {
		slog.Warn("Server.startFlowHandler: start failed", "error", err, "flowID", req.FlowID)
		writeJSONResponse(w, http.StatusNotFound, models.Error(err.Error()))
		return
	}

	// The opening step must reach the customer for the flow to make sense.
	if err := s.msgService.SendMessage(r.Context(), req.ConversationID, result.Message); err != nil {
		slog.Error("Server.startFlowHandler: failed to deliver opening message", "error", err, "conversationID", req.ConversationID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to deliver flow message"))
		return
	}

	slog.Info("Server.startFlowHandler: flow started", "conversationID", req.ConversationID, "flowID", req.FlowID)
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

func (s *Server) listFlowsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(s.orchestrator.AvailableFlows()))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok", "webhook": "chatwoot"})
}
