package repo

import (
	"context"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/domain"
)

// DirectoryRepo is the client-scoped agent/session directory interface.
// Backed by the remote agent platform; everything here is a plain HTTP call.
type DirectoryRepo interface {
	// ListAgents lists the agents visible to a client.
	ListAgents(ctx context.Context, clientID string) ([]domain.Agent, error)

	// ListSessions lists the chat sessions owned by a client.
	ListSessions(ctx context.Context, clientID string) ([]domain.ChatSession, error)

	// SessionMessages returns the full message list for a session.
	SessionMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)

	// SendMessage delivers a user message. When the remote answers inline,
	// reply holds the agent text and hasReply is true; otherwise the caller
	// must re-fetch the session messages.
	SendMessage(ctx context.Context, sessionID, agentID, text string) (reply string, hasReply bool, err error)
}
