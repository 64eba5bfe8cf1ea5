package conversation

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

const maxChatBodyBytes = 16 << 10

// Responder produces a reply for a visitor message.
type Responder interface {
	Respond(ctx context.Context, message, sessionID string) string
}

// TranscriptReader is the read side used by the admin audit endpoints.
type TranscriptReader interface {
	List(ctx context.Context, sessionID string) ([]TranscriptMessage, error)
	ListSessions(ctx context.Context) ([]ChatSession, error)
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// ChatResponse is returned for every accepted chat message.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// Handler wires HTTP requests to the orchestrator and transcript store.
type Handler struct {
	responder   Responder
	transcripts TranscriptReader
	logger      *logging.Logger
}

// NewHandler creates a conversation handler.
func NewHandler(responder Responder, transcripts TranscriptReader, logger *logging.Logger) *Handler {
	if responder == nil {
		panic("conversation: responder cannot be nil")
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

// PublicRoutes are mounted under /api.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/chat", h.Chat)
}

// AdminRoutes are mounted under /admin.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/chats", h.ListSessions)
	r.Get("/chats/{sessionID}/messages", h.ListMessages)
}

// Chat handles POST /api/chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes)).Decode(&req); err != nil {
		h.logger.Warn("failed to decode chat request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = NewSessionID()
	}

	reply := h.responder.Respond(r.Context(), req.Message, sessionID)
	writeJSON(w, http.StatusOK, ChatResponse{SessionID: sessionID, Reply: reply})
}

// ListSessions handles GET /admin/chats.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	if h.transcripts == nil {
		writeJSON(w, http.StatusOK, []ChatSession{})
		return
	}
	sessions, err := h.transcripts.ListSessions(r.Context())
	if err != nil {
		h.logger.Error("failed to list chat sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list chat sessions")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// ListMessages handles GET /admin/chats/{sessionID}/messages.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if h.transcripts == nil {
		writeJSON(w, http.StatusOK, []TranscriptMessage{})
		return
	}
	messages, err := h.transcripts.List(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to list chat messages", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "failed to list chat messages")
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

const sessionAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewSessionID returns an id of the form sess_<9 base36 chars>.
func NewSessionID() string {
	buf := make([]byte, 9)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = sessionAlphabet[int(b)%len(sessionAlphabet)]
	}
	return "sess_" + string(buf)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
