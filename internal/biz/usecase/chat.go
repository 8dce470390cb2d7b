package usecase

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/domain"
	"github.com/EvolutionAPI/evo-ai-console/internal/biz/repo"
)

// AgentFilterAll disables agent filtering in FilterAndSort.
const AgentFilterAll = "all"

// fallbackAssistantName labels inline replies when the agent directory has
// no entry for the resolved agent.
const fallbackAssistantName = "Assistente"

// ChatUsecase keeps the locally visible set of sessions and messages for
// one client consistent with the remote store. It is the single writer of
// its own state; reads get copies.
type ChatUsecase struct {
	directory repo.DirectoryRepo
	notifier  Notifier
	clientID  string
	now       func() time.Time

	mu       sync.Mutex
	agents   []domain.Agent
	sessions []domain.ChatSession
	messages []domain.ChatMessage
	selected string // active session ID, "" when none
	agentID  string // active agent, derived from the session or chosen for a new chat
	loading  bool
	sending  bool
}

// NewChatUsecase creates a chat usecase bound to one client identity.
func NewChatUsecase(directory repo.DirectoryRepo, clientID string, notifier Notifier) *ChatUsecase {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &ChatUsecase{
		directory: directory,
		notifier:  notifier,
		clientID:  clientID,
		now:       time.Now,
	}
}

// LoadInitialData fetches the agent directory and the session list
// concurrently. Either failure is logged and leaves previously loaded state
// untouched; the loading flag clears no matter what.
func (uc *ChatUsecase) LoadInitialData(ctx context.Context) {
	uc.setLoading(true)
	defer uc.setLoading(false)

	var (
		wg          sync.WaitGroup
		agents      []domain.Agent
		sessions    []domain.ChatSession
		agentErr    error
		sessionsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		agents, agentErr = uc.directory.ListAgents(ctx, uc.clientID)
	}()
	go func() {
		defer wg.Done()
		sessions, sessionsErr = uc.directory.ListSessions(ctx, uc.clientID)
	}()
	wg.Wait()

	uc.mu.Lock()
	defer uc.mu.Unlock()
	if agentErr != nil {
		log.Printf("[chat] load agents: %v", agentErr)
	} else {
		uc.agents = agents
	}
	if sessionsErr != nil {
		log.Printf("[chat] load sessions: %v", sessionsErr)
	} else {
		uc.sessions = sessions
	}
}

// SelectSession switches the active session. A non-empty ID triggers a
// message load and derives the active agent from the second token of the
// session key; an empty ID clears messages synchronously with no network
// call.
func (uc *ChatUsecase) SelectSession(ctx context.Context, sessionID string) {
	if sessionID == "" {
		uc.mu.Lock()
		uc.selected = ""
		uc.messages = nil
		uc.mu.Unlock()
		return
	}

	_, agentID := domain.SplitSessionID(sessionID)
	uc.mu.Lock()
	uc.selected = sessionID
	uc.agentID = agentID
	uc.loading = true
	uc.mu.Unlock()
	defer uc.setLoading(false)

	messages, err := uc.directory.SessionMessages(ctx, sessionID)
	if err != nil {
		log.Printf("[chat] load messages for %s: %v", sessionID, err)
		return
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.selected != sessionID {
		// The user moved on while the fetch was in flight.
		return
	}
	uc.messages = confirm(messages)
}

// SelectAgent starts a new conversation with an agent: the current session
// and messages are cleared and the first SendMessage will synthesize a
// session key.
func (uc *ChatUsecase) SelectAgent(agentID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.agentID = agentID
	uc.selected = ""
	uc.messages = nil
}

// SendMessage appends an optimistic user message, delivers it, and
// reconciles with the server response. Empty text or a missing agent is a
// no-op. A failed send marks the optimistic message failed but keeps it
// visible.
func (uc *ChatUsecase) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	uc.mu.Lock()
	if uc.agentID == "" {
		uc.mu.Unlock()
		return nil
	}
	agentID := uc.agentID
	if uc.selected == "" {
		uc.selected = domain.JoinSessionID(domain.NewContactID(uc.now()), agentID)
	}
	sessionID := uc.selected

	pending := domain.NewPendingMessage(text, uc.now())
	uc.messages = append(uc.messages, pending)
	uc.sending = true
	uc.mu.Unlock()
	defer uc.setSending(false)

	reply, hasReply, err := uc.directory.SendMessage(ctx, sessionID, agentID, text)
	if err != nil {
		uc.markDelivery(pending.ID, domain.DeliveryFailed)
		uc.notifier.Notify("Erro ao enviar mensagem", err.Error())
		return err
	}
	uc.markDelivery(pending.ID, domain.DeliveryConfirmed)

	if hasReply {
		// Inline reply: append the agent's answer and refresh the session
		// list so ordering reflects the new update_time.
		author := fallbackAssistantName
		uc.mu.Lock()
		if agent, ok := domain.FindAgent(uc.agents, agentID); ok {
			author = agent.DisplayName()
		}
		uc.messages = append(uc.messages, domain.NewAssistantMessage(author, reply, uc.now()))
		uc.mu.Unlock()

		sessions, err := uc.directory.ListSessions(ctx, uc.clientID)
		if err != nil {
			log.Printf("[chat] refresh sessions: %v", err)
			return nil
		}
		uc.mu.Lock()
		uc.sessions = sessions
		uc.mu.Unlock()
		return nil
	}

	// No inline payload: server truth replaces the optimistic state.
	messages, err := uc.directory.SessionMessages(ctx, sessionID)
	if err != nil {
		// The send itself succeeded; only the local view is stale.
		log.Printf("[chat] reload messages for %s: %v", sessionID, err)
		uc.notifier.Notify("Erro ao carregar mensagens", err.Error())
		return nil
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.selected == sessionID {
		uc.messages = confirm(messages)
	}
	return nil
}

// FilterAndSort returns the sessions whose ID contains term
// case-insensitively and, unless agentFilter is "all", whose agent token
// equals agentFilter, sorted descending by update time. Pure and
// idempotent.
func FilterAndSort(sessions []domain.ChatSession, term, agentFilter string) []domain.ChatSession {
	term = strings.ToLower(term)
	out := make([]domain.ChatSession, 0, len(sessions))
	for _, s := range sessions {
		if !strings.Contains(strings.ToLower(s.ID), term) {
			continue
		}
		if agentFilter != AgentFilterAll && s.AgentID() != agentFilter {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt().After(out[j].UpdatedAt())
	})
	return out
}

// Snapshot accessors. All return copies so callers never alias internal
// state.

func (uc *ChatUsecase) Agents() []domain.Agent {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return append([]domain.Agent(nil), uc.agents...)
}

func (uc *ChatUsecase) Sessions() []domain.ChatSession {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return append([]domain.ChatSession(nil), uc.sessions...)
}

func (uc *ChatUsecase) Messages() []domain.ChatMessage {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return append([]domain.ChatMessage(nil), uc.messages...)
}

func (uc *ChatUsecase) Selected() string {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.selected
}

func (uc *ChatUsecase) CurrentAgent() string {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.agentID
}

func (uc *ChatUsecase) Loading() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.loading
}

func (uc *ChatUsecase) Sending() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.sending
}

func (uc *ChatUsecase) setLoading(v bool) {
	uc.mu.Lock()
	uc.loading = v
	uc.mu.Unlock()
}

func (uc *ChatUsecase) setSending(v bool) {
	uc.mu.Lock()
	uc.sending = v
	uc.mu.Unlock()
}

func (uc *ChatUsecase) markDelivery(id string, status domain.DeliveryStatus) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	for i := range uc.messages {
		if uc.messages[i].ID == id {
			uc.messages[i].Delivery = status
			return
		}
	}
}

// confirm tags a server-fetched message list as confirmed.
func confirm(messages []domain.ChatMessage) []domain.ChatMessage {
	for i := range messages {
		messages[i].Delivery = domain.DeliveryConfirmed
	}
	return messages
}
