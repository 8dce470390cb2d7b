package data

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/domain"
	"github.com/EvolutionAPI/evo-ai-console/internal/biz/repo"
)

// directoryRepo implements the agent/session directory against the agent
// platform API. Auth travels in the x-api-key header.
type directoryRepo struct {
	api *apiClient
}

// NewDirectoryRepo creates the agent directory repository.
func NewDirectoryRepo(cfg RemoteConfig, timeout time.Duration, rps float64) repo.DirectoryRepo {
	return &directoryRepo{api: newAPIClient(cfg, "x-api-key", timeout, rps)}
}

func (r *directoryRepo) ListAgents(ctx context.Context, clientID string) ([]domain.Agent, error) {
	var agents []domain.Agent
	path := "/api/v1/clients/" + url.PathEscape(clientID) + "/agents"
	if err := r.api.do(ctx, http.MethodGet, path, nil, &agents); err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	return agents, nil
}

func (r *directoryRepo) ListSessions(ctx context.Context, clientID string) ([]domain.ChatSession, error) {
	var sessions []domain.ChatSession
	path := "/api/v1/clients/" + url.PathEscape(clientID) + "/sessions"
	if err := r.api.do(ctx, http.MethodGet, path, nil, &sessions); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func (r *directoryRepo) SessionMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	var messages []domain.ChatMessage
	path := "/api/v1/sessions/" + url.PathEscape(sessionID) + "/messages"
	if err := r.api.do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return messages, nil
}

func (r *directoryRepo) SendMessage(ctx context.Context, sessionID, agentID, text string) (string, bool, error) {
	request := struct {
		AgentID string `json:"agent_id"`
		Text    string `json:"text"`
	}{
		AgentID: agentID,
		Text:    text,
	}
	var response struct {
		Response *string `json:"response"`
	}
	path := "/api/v1/sessions/" + url.PathEscape(sessionID) + "/messages"
	if err := r.api.do(ctx, http.MethodPost, path, request, &response); err != nil {
		return "", false, fmt.Errorf("failed to send message: %w", err)
	}
	if response.Response != nil && *response.Response != "" {
		return *response.Response, true, nil
	}
	return "", false, nil
}
