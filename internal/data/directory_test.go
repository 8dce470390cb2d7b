package data

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/repo"
)

func newTestDirectory(handler http.Handler) (repo.DirectoryRepo, *httptest.Server) {
	server := httptest.NewServer(handler)
	r := NewDirectoryRepo(RemoteConfig{BaseURL: server.URL, APIKey: "dir-key"}, 5*time.Second, 100)
	return r, server
}

func TestDirectoryListSessions(t *testing.T) {
	r, server := newTestDirectory(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/api/v1/clients/c1/sessions" {
			t.Errorf("path = %s", req.URL.Path)
		}
		if req.Header.Get("x-api-key") != "dir-key" {
			t.Errorf("x-api-key = %q", req.Header.Get("x-api-key"))
		}
		w.Write([]byte(`[{"id": "20250101_a1", "update_time": "2025-01-01T10:00:00Z"}]`))
	}))
	defer server.Close()

	sessions, err := r.ListSessions(context.Background(), "c1")
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 1 || sessions[0].AgentID() != "a1" {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestDirectorySessionMessages(t *testing.T) {
	r, server := newTestDirectory(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[{
			"id": "m1",
			"author": "a1",
			"content": {"role": "assistant", "parts": [{"functionCall": {"name": "plan", "args": {"thought": "thinking it through"}}}]},
			"timestamp": 1735725600.25
		}]`))
	}))
	defer server.Close()

	messages, err := r.SessionMessages(context.Background(), "20250101_a1")
	if err != nil {
		t.Fatalf("SessionMessages() error = %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("messages = %d", len(messages))
	}
	if got := messages[0].DisplayText(); got != "thinking it through" {
		t.Errorf("DisplayText() = %q", got)
	}
}

func TestDirectorySendMessage(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		wantReply string
		wantHas   bool
	}{
		{"inline reply", `{"response": "olá"}`, "olá", true},
		{"empty reply", `{"response": ""}`, "", false},
		{"no reply field", `{}`, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, server := newTestDirectory(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				var payload struct {
					AgentID string `json:"agent_id"`
					Text    string `json:"text"`
				}
				if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
					t.Errorf("decode request: %v", err)
				}
				if payload.AgentID != "a1" || payload.Text != "oi" {
					t.Errorf("payload = %+v", payload)
				}
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			reply, hasReply, err := r.SendMessage(context.Background(), "20250101_a1", "a1", "oi")
			if err != nil {
				t.Fatalf("SendMessage() error = %v", err)
			}
			if reply != tc.wantReply || hasReply != tc.wantHas {
				t.Errorf("got (%q, %v), want (%q, %v)", reply, hasReply, tc.wantReply, tc.wantHas)
			}
		})
	}
}
