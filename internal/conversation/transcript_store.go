package conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/dental-premium/internal/docstore"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

const chatsCollection = "chats"

// ErrInvalidRole is returned when a transcript entry is neither user nor assistant.
var ErrInvalidRole = errors.New("conversation: transcript role must be user or assistant")

// TranscriptMessage is one persisted chat turn.
type TranscriptMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession marks that a session has at least one stored message.
type ChatSession struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TranscriptStore appends chat turns to chats/{session}/messages. Message ids
// are UUIDv7 so id order is insertion order on every backend.
type TranscriptStore struct {
	docs   docstore.Store
	logger *logging.Logger
	now    func() time.Time
	tracer trace.Tracer
}

func NewTranscriptStore(docs docstore.Store, logger *logging.Logger) *TranscriptStore {
	if docs == nil {
		panic("conversation: document store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TranscriptStore{
		docs:   docs,
		logger: logger,
		now:    time.Now,
		tracer: otel.Tracer("dental.internal.conversation.transcripts"),
	}
}

func messagesCollection(sessionID string) string {
	return chatsCollection + "/" + sessionID + "/messages"
}

// Append stores a message with a server timestamp.
func (s *TranscriptStore) Append(ctx context.Context, sessionID, role, content string) (TranscriptMessage, error) {
	ctx, span := s.tracer.Start(ctx, "transcripts.append", trace.WithAttributes(
		attribute.String("chat.session_id", sessionID),
		attribute.String("chat.role", role),
	))
	defer span.End()

	if strings.TrimSpace(sessionID) == "" {
		return TranscriptMessage{}, fmt.Errorf("conversation: append transcript: %w", docstore.ErrInvalidKey)
	}
	if role != ChatRoleUser && role != ChatRoleAssistant {
		return TranscriptMessage{}, ErrInvalidRole
	}

	id, err := uuid.NewV7()
	if err != nil {
		span.RecordError(err)
		return TranscriptMessage{}, fmt.Errorf("conversation: transcript id: %w", err)
	}
	now := s.now().UTC()
	msg := TranscriptMessage{
		ID:        id.String(),
		Role:      role,
		Content:   content,
		Timestamp: now,
	}

	err = s.docs.Create(ctx, chatsCollection, sessionID, ChatSession{SessionID: sessionID, CreatedAt: now})
	if err != nil && !errors.Is(err, docstore.ErrAlreadyExists) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session marker write failed")
		return TranscriptMessage{}, fmt.Errorf("conversation: register session %s: %w", sessionID, err)
	}
	if err := s.docs.Create(ctx, messagesCollection(sessionID), msg.ID, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "message write failed")
		return TranscriptMessage{}, fmt.Errorf("conversation: append transcript %s: %w", sessionID, err)
	}
	return msg, nil
}

// List returns the messages of one session in insertion order.
func (s *TranscriptStore) List(ctx context.Context, sessionID string) ([]TranscriptMessage, error) {
	ctx, span := s.tracer.Start(ctx, "transcripts.list", trace.WithAttributes(
		attribute.String("chat.session_id", sessionID),
	))
	defer span.End()

	docs, err := s.docs.List(ctx, messagesCollection(sessionID))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: list transcript %s: %w", sessionID, err)
	}
	out := make([]TranscriptMessage, 0, len(docs))
	for _, doc := range docs {
		var msg TranscriptMessage
		if err := doc.Decode(&msg); err != nil {
			span.RecordError(err)
			s.logger.Warn("skipping unreadable transcript message", "session_id", sessionID, "id", doc.ID, "error", err)
			continue
		}
		msg.ID = doc.ID
		out = append(out, msg)
	}
	return out, nil
}

// ListSessions returns known sessions, most recent first.
func (s *TranscriptStore) ListSessions(ctx context.Context) ([]ChatSession, error) {
	docs, err := s.docs.List(ctx, chatsCollection)
	if err != nil {
		return nil, fmt.Errorf("conversation: list sessions: %w", err)
	}
	out := make([]ChatSession, 0, len(docs))
	for _, doc := range docs {
		var session ChatSession
		if err := doc.Decode(&session); err != nil {
			s.logger.Warn("skipping unreadable chat session", "session_id", doc.ID, "error", err)
			continue
		}
		session.SessionID = doc.ID
		out = append(out, session)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
