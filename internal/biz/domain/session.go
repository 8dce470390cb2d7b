package domain

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// ChatSession is one conversation thread in the remote store. The ID is the
// composite key contactId_agentId; the remote API creates it on the first
// message and it is read-only here.
type ChatSession struct {
	ID         string `json:"id"`
	UpdateTime string `json:"update_time"`
}

// SplitSessionID recovers the contact and agent tokens from a session ID.
// A malformed ID (no underscore) yields an empty agent token instead of an
// error so that display code can degrade gracefully.
func SplitSessionID(id string) (contactID, agentID string) {
	parts := strings.Split(id, "_")
	contactID = parts[0]
	if len(parts) > 1 {
		agentID = parts[1]
	}
	return contactID, agentID
}

// ContactID returns the first token of the composite session ID.
func (s ChatSession) ContactID() string {
	contactID, _ := SplitSessionID(s.ID)
	return contactID
}

// AgentID returns the second token of the composite session ID.
func (s ChatSession) AgentID() string {
	_, agentID := SplitSessionID(s.ID)
	return agentID
}

// UpdatedAt parses the remote update_time field. Unparseable values return
// the zero time, which sorts last.
func (s ChatSession) UpdatedAt() time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s.UpdateTime); err == nil {
			return t
		}
	}
	return time.Time{}
}

// InvalidDate is shown when a session carries an unparseable update_time.
const InvalidDate = "Invalid date"

// DisplayTime formats the last-update timestamp as DD/MM/YYYY HH:MM.
func (s ChatSession) DisplayTime() string {
	t := s.UpdatedAt()
	if t.IsZero() {
		return InvalidDate
	}
	return t.Format("02/01/2006 15:04")
}

var contactSeq atomic.Uint64

// NewContactID generates a contact identifier for an implicitly created
// session. The timestamp prefix keeps the ID human-readable (YYYYMMDDHHMMSS)
// and the sequence suffix makes it unique per call within a client run.
func NewContactID(now time.Time) string {
	return fmt.Sprintf("%s%03d", now.Format("20060102150405"), contactSeq.Add(1)%1000)
}

// JoinSessionID builds the composite session key.
func JoinSessionID(contactID, agentID string) string {
	return contactID + "_" + agentID
}
