package mcpserver

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/domain"
	"github.com/EvolutionAPI/evo-ai-console/internal/biz/repo"
	"github.com/EvolutionAPI/evo-ai-console/internal/biz/usecase"
)

// ConsoleMCPServer exposes the agent directory as MCP tools so an MCP host
// can browse sessions and talk to agents on behalf of the client.
type ConsoleMCPServer struct {
	server    *mcp.Server
	directory repo.DirectoryRepo
	clientID  string
}

// NewServer creates a new console MCP server
func NewServer(directory repo.DirectoryRepo, clientID string) *ConsoleMCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "evo-console",
		Version: "v1.0.0",
	}, nil)

	s := &ConsoleMCPServer{
		server:    server,
		directory: directory,
		clientID:  clientID,
	}

	s.registerTools()

	return s
}

// registerTools registers all directory-backed MCP tools
func (s *ConsoleMCPServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_agents",
		Description: "List the AI agents available to this client. Optionally filter by a search term matched against name and description.",
	}, s.handleListAgents)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List this client's chat sessions, newest first. Optionally filter by a search term or by agent ID.",
	}, s.handleListSessions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_session_messages",
		Description: "Get the full message history of one chat session.",
	}, s.handleGetSessionMessages)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "send_message",
		Description: "Send a message to an agent. Omit session_id to start a new conversation; the new session ID is returned.",
	}, s.handleSendMessage)
}

// ListAgentsInput is the input for list_agents
type ListAgentsInput struct {
	Search string `json:"search,omitempty" jsonschema:"Optional search term matched against agent name and description"`
}

// ListAgentsOutput is the output for list_agents
type ListAgentsOutput struct {
	Agents []domain.Agent `json:"agents"`
	Error  string         `json:"error,omitempty"`
}

func (s *ConsoleMCPServer) handleListAgents(ctx context.Context, req *mcp.CallToolRequest, input ListAgentsInput) (*mcp.CallToolResult, ListAgentsOutput, error) {
	agents, err := s.directory.ListAgents(ctx, s.clientID)
	if err != nil {
		return nil, ListAgentsOutput{Error: err.Error()}, nil
	}
	if input.Search != "" {
		agents = domain.FilterAgents(agents, input.Search)
	}
	return nil, ListAgentsOutput{Agents: agents}, nil
}

// ListSessionsInput is the input for list_sessions
type ListSessionsInput struct {
	Search  string `json:"search,omitempty" jsonschema:"Optional search term matched against the session ID"`
	AgentID string `json:"agent_id,omitempty" jsonschema:"Optional agent ID; only sessions with this agent are returned"`
}

// SessionSummary is one session row
type SessionSummary struct {
	ID          string `json:"id"`
	AgentID     string `json:"agent_id"`
	UpdateTime  string `json:"update_time"`
	DisplayTime string `json:"display_time"`
}

// ListSessionsOutput is the output for list_sessions
type ListSessionsOutput struct {
	Sessions []SessionSummary `json:"sessions"`
	Error    string           `json:"error,omitempty"`
}

func (s *ConsoleMCPServer) handleListSessions(ctx context.Context, req *mcp.CallToolRequest, input ListSessionsInput) (*mcp.CallToolResult, ListSessionsOutput, error) {
	sessions, err := s.directory.ListSessions(ctx, s.clientID)
	if err != nil {
		return nil, ListSessionsOutput{Error: err.Error()}, nil
	}

	agentFilter := input.AgentID
	if agentFilter == "" {
		agentFilter = usecase.AgentFilterAll
	}
	sessions = usecase.FilterAndSort(sessions, input.Search, agentFilter)

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, SessionSummary{
			ID:          session.ID,
			AgentID:     session.AgentID(),
			UpdateTime:  session.UpdateTime,
			DisplayTime: session.DisplayTime(),
		})
	}
	return nil, ListSessionsOutput{Sessions: summaries}, nil
}

// GetSessionMessagesInput is the input for get_session_messages
type GetSessionMessagesInput struct {
	SessionID string `json:"session_id" jsonschema:"The session to read"`
}

// MessageSummary is one message row
type MessageSummary struct {
	ID        string  `json:"id"`
	Author    string  `json:"author"`
	Role      string  `json:"role"`
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
}

// GetSessionMessagesOutput is the output for get_session_messages
type GetSessionMessagesOutput struct {
	Messages []MessageSummary `json:"messages"`
	Error    string           `json:"error,omitempty"`
}

func (s *ConsoleMCPServer) handleGetSessionMessages(ctx context.Context, req *mcp.CallToolRequest, input GetSessionMessagesInput) (*mcp.CallToolResult, GetSessionMessagesOutput, error) {
	if input.SessionID == "" {
		return nil, GetSessionMessagesOutput{Error: "session_id is required"}, nil
	}
	messages, err := s.directory.SessionMessages(ctx, input.SessionID)
	if err != nil {
		return nil, GetSessionMessagesOutput{Error: err.Error()}, nil
	}

	summaries := make([]MessageSummary, 0, len(messages))
	for _, message := range messages {
		summaries = append(summaries, MessageSummary{
			ID:        message.ID,
			Author:    message.Author,
			Role:      message.Content.Role,
			Text:      message.DisplayText(),
			Timestamp: message.Timestamp,
		})
	}
	return nil, GetSessionMessagesOutput{Messages: summaries}, nil
}

// SendMessageInput is the input for send_message
type SendMessageInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"Existing session to continue. Leave empty to start a new conversation."`
	AgentID   string `json:"agent_id" jsonschema:"The agent to talk to. Required when starting a new conversation."`
	Text      string `json:"text" jsonschema:"The message text"`
}

// SendMessageOutput is the output for send_message
type SendMessageOutput struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	Reply     string `json:"reply,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *ConsoleMCPServer) handleSendMessage(ctx context.Context, req *mcp.CallToolRequest, input SendMessageInput) (*mcp.CallToolResult, SendMessageOutput, error) {
	if input.Text == "" {
		return nil, SendMessageOutput{Error: "text is required"}, nil
	}

	sessionID := input.SessionID
	agentID := input.AgentID
	if sessionID == "" {
		if agentID == "" {
			return nil, SendMessageOutput{Error: "agent_id is required for a new conversation"}, nil
		}
		sessionID = domain.JoinSessionID(domain.NewContactID(time.Now()), agentID)
	} else if agentID == "" {
		_, agentID = domain.SplitSessionID(sessionID)
	}

	reply, hasReply, err := s.directory.SendMessage(ctx, sessionID, agentID, input.Text)
	if err != nil {
		return nil, SendMessageOutput{Success: false, SessionID: sessionID, Error: err.Error()}, nil
	}
	out := SendMessageOutput{Success: true, SessionID: sessionID}
	if hasReply {
		out.Reply = reply
	}
	return nil, out, nil
}

// Run starts the MCP server with stdio transport
func (s *ConsoleMCPServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// GetServer returns the underlying MCP server
func (s *ConsoleMCPServer) GetServer() *mcp.Server {
	return s.server
}
