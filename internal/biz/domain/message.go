package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// AuthorUser is the sentinel author value for messages typed by the human.
const AuthorUser = "user"

// DeliveryStatus tracks the local reconciliation state of a message.
// Remote messages arrive confirmed; optimistic local messages start pending
// and are marked failed when the send does not reach the server.
type DeliveryStatus string

const (
	DeliveryConfirmed DeliveryStatus = "confirmed"
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryFailed    DeliveryStatus = "failed"
)

// FunctionCall is a structured part emitted by agents that reason in steps.
// The "thought" argument doubles as the display fallback.
type FunctionCall struct {
	Name string         `json:"name,omitempty"`
	Args map[string]any `json:"args,omitempty"`
}

// MessagePart is one element of a message payload: either plain text or a
// function call.
type MessagePart struct {
	Text         string        `json:"text,omitempty"`
	FunctionCall *FunctionCall `json:"functionCall,omitempty"`
}

// MessageContent is the ordered payload of a chat message.
type MessageContent struct {
	Role  string        `json:"role"`
	Parts []MessagePart `json:"parts"`
}

// ChatMessage is a single message in a session. Timestamp is seconds since
// epoch as the remote API reports it.
type ChatMessage struct {
	ID        string         `json:"id"`
	Author    string         `json:"author"`
	Content   MessageContent `json:"content"`
	Timestamp float64        `json:"timestamp"`

	// Delivery is local-only state; it never round-trips to the server.
	Delivery DeliveryStatus `json:"-"`
}

// DisplayText resolves the text to show for a message. The fallback order is
// fixed: first part text, then the function-call thought, then a raw JSON
// dump of the parts.
func (m ChatMessage) DisplayText() string {
	parts := m.Content.Parts
	if len(parts) == 0 {
		return "empty content"
	}
	if parts[0].Text != "" {
		return parts[0].Text
	}
	if fc := parts[0].FunctionCall; fc != nil {
		if thought, ok := fc.Args["thought"].(string); ok && thought != "" {
			return thought
		}
	}
	raw, err := json.Marshal(parts)
	if err != nil {
		return ""
	}
	return string(raw)
}

// IsTemporary reports whether the message was generated locally and is still
// awaiting server reconciliation.
func (m ChatMessage) IsTemporary() bool {
	return m.Delivery == DeliveryPending || m.Delivery == DeliveryFailed
}

// NewPendingMessage builds the optimistic user message appended before the
// network send. The temp- prefix keeps the synthetic ID distinguishable from
// server-issued ones.
func NewPendingMessage(text string, now time.Time) ChatMessage {
	return ChatMessage{
		ID:     fmt.Sprintf("temp-%d", now.UnixMilli()),
		Author: AuthorUser,
		Content: MessageContent{
			Role:  "user",
			Parts: []MessagePart{{Text: text}},
		},
		Timestamp: float64(now.UnixMilli()) / 1000,
		Delivery:  DeliveryPending,
	}
}

// NewAssistantMessage builds the local message for an inline agent reply.
func NewAssistantMessage(author, text string, now time.Time) ChatMessage {
	return ChatMessage{
		ID:     fmt.Sprintf("response-%d", now.UnixMilli()),
		Author: author,
		Content: MessageContent{
			Role:  "assistant",
			Parts: []MessagePart{{Text: text}},
		},
		Timestamp: float64(now.UnixMilli()) / 1000,
		Delivery:  DeliveryConfirmed,
	}
}
