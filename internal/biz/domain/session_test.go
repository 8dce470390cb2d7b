package domain

import (
	"regexp"
	"testing"
	"time"
)

func TestSplitSessionID(t *testing.T) {
	tests := []struct {
		name        string
		id          string
		wantContact string
		wantAgent   string
	}{
		{"well formed", "20250101_agentA", "20250101", "agentA"},
		{"extra tokens keep second", "a_b_c", "a", "b"},
		{"missing underscore", "loneToken", "loneToken", ""},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contact, agent := SplitSessionID(tt.id)
			if contact != tt.wantContact || agent != tt.wantAgent {
				t.Errorf("SplitSessionID(%q) = (%q, %q), want (%q, %q)",
					tt.id, contact, agent, tt.wantContact, tt.wantAgent)
			}
		})
	}
}

func TestDisplayTime_InvalidDate(t *testing.T) {
	s := ChatSession{ID: "a_b", UpdateTime: "not-a-date"}
	if got := s.DisplayTime(); got != InvalidDate {
		t.Errorf("DisplayTime() = %q, want %q", got, InvalidDate)
	}
}

func TestDisplayTime_Formats(t *testing.T) {
	s := ChatSession{ID: "a_b", UpdateTime: "2025-03-09T14:05:00Z"}
	if got := s.DisplayTime(); got != "09/03/2025 14:05" {
		t.Errorf("DisplayTime() = %q", got)
	}
}

func TestNewContactID_ShapeAndUniqueness(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	pattern := regexp.MustCompile(`^20250102030405\d{3}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewContactID(now)
		if !pattern.MatchString(id) {
			t.Fatalf("NewContactID() = %q, want match for %s", id, pattern)
		}
		if seen[id] {
			t.Fatalf("NewContactID() repeated %q within a run", id)
		}
		seen[id] = true
	}
}

func TestJoinSplitRoundTrip(t *testing.T) {
	id := JoinSessionID("20250101123045001", "A1")
	contact, agent := SplitSessionID(id)
	if contact != "20250101123045001" || agent != "A1" {
		t.Errorf("round trip broke: got (%q, %q)", contact, agent)
	}
}
