package webchat

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/dental-premium/internal/conversation"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

// Greeting is the first assistant line shown by the widget.
const Greeting = "¡Hola! Soy el asistente de Dental Premium. ¿En qué puedo ayudarte hoy?"

const historyLimit = 50

// Handler serves the chat widget over a websocket.
type Handler struct {
	responder   conversation.Responder
	transcripts conversation.TranscriptReader
	logger      *logging.Logger
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string           `json:"type"` // "session", "greeting", "history", "typing", "message", "pong"
	Text      string           `json:"text,omitempty"`
	Role      string           `json:"role,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Messages  []HistoryMessage `json:"messages,omitempty"`
}

// HistoryMessage is a simplified transcript entry.
type HistoryMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NewHandler creates a web chat handler. transcripts may be nil.
func NewHandler(responder conversation.Responder, transcripts conversation.TranscriptReader, logger *logging.Logger) *Handler {
	if responder == nil {
		panic("webchat: responder cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		responder:   responder,
		transcripts: transcripts,
		logger:      logger,
	}
}

// HandleWebSocket upgrades GET /chat/ws?session= and answers each message.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(r.Context(), conn, r.URL.Query().Get("session"))
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(ctx context.Context, conn *websocket.Conn, sessionID string) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = conversation.NewSessionID()
	}

	// Widget connections outlive the http.Server read/write timeouts.
	_ = conn.SetDeadline(time.Time{})

	h.send(conn, OutboundMessage{Type: "session", SessionID: sessionID})
	if history := h.history(ctx, sessionID); len(history) > 0 {
		h.send(conn, OutboundMessage{Type: "history", Messages: history})
	} else {
		h.send(conn, OutboundMessage{Type: "greeting", Role: conversation.ChatRoleAssistant, Text: Greeting})
	}

	h.logger.Info("webchat: connection opened", "session_id", sessionID)
	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		switch {
		case msg.Type == "ping":
			h.send(conn, OutboundMessage{Type: "pong"})
		case msg.Type == "message" && strings.TrimSpace(msg.Text) != "":
			h.send(conn, OutboundMessage{Type: "typing"})
			reply := h.responder.Respond(ctx, msg.Text, sessionID)
			h.send(conn, OutboundMessage{
				Type:      "message",
				Role:      conversation.ChatRoleAssistant,
				Text:      reply,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
		}
	}
}

func (h *Handler) history(ctx context.Context, sessionID string) []HistoryMessage {
	if h.transcripts == nil {
		return nil
	}
	msgs, err := h.transcripts.List(ctx, sessionID)
	if err != nil {
		h.logger.Warn("webchat: failed to load history", "error", err, "session_id", sessionID)
		return nil
	}
	if len(msgs) > historyLimit {
		msgs = msgs[len(msgs)-historyLimit:]
	}
	history := make([]HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, HistoryMessage{
			Role:      m.Role,
			Text:      m.Content,
			Timestamp: m.Timestamp.Format(time.RFC3339),
		})
	}
	return history
}

func (h *Handler) send(conn *websocket.Conn, msg OutboundMessage) {
	if err := websocket.JSON.Send(conn, msg); err != nil {
		h.logger.Debug("webchat: send failed", "type", msg.Type, "error", err)
	}
}
