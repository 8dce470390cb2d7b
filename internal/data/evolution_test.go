package data

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/domain"
	"github.com/EvolutionAPI/evo-ai-console/internal/biz/repo"
)

func newTestEvolution(handler http.Handler) (repo.InstanceRepo, *httptest.Server) {
	server := httptest.NewServer(handler)
	r := NewEvolutionRepo(RemoteConfig{BaseURL: server.URL, APIKey: "secret"}, 5*time.Second, 100)
	return r, server
}

func TestEvolutionSendsAPIKeyHeader(t *testing.T) {
	var gotKey string
	r, server := newTestEvolution(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotKey = req.Header.Get("apikey")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	if _, err := r.ListInstances(context.Background()); err != nil {
		t.Fatalf("ListInstances() error = %v", err)
	}
	if gotKey != "secret" {
		t.Errorf("apikey header = %q", gotKey)
	}
}

func TestEvolutionCreateInstanceMapsNestedResponse(t *testing.T) {
	r, server := newTestEvolution(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/instance/create" || req.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", req.Method, req.URL.Path)
		}
		w.Write([]byte(`{
			"instance": {"instanceId": "uuid-1", "instanceName": "shop", "status": "connecting"},
			"hash": "token-abc"
		}`))
	}))
	defer server.Close()

	instance, err := r.CreateInstance(context.Background(), "shop", domain.IntegrationBaileys)
	if err != nil {
		t.Fatalf("CreateInstance() error = %v", err)
	}
	if instance.ID != "uuid-1" || instance.Name != "shop" || instance.Token != "token-abc" {
		t.Errorf("instance = %+v", instance)
	}
	if instance.ConnectionStatus != domain.StatusConnecting {
		t.Errorf("status = %q", instance.ConnectionStatus)
	}
}

func TestEvolutionConnectionState(t *testing.T) {
	r, server := newTestEvolution(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/instance/connectionState/shop" {
			t.Errorf("path = %s", req.URL.Path)
		}
		w.Write([]byte(`{"instance": {"instanceName": "shop", "state": "open"}}`))
	}))
	defer server.Close()

	state, err := r.ConnectionState(context.Background(), "shop")
	if err != nil {
		t.Fatalf("ConnectionState() error = %v", err)
	}
	if state != domain.StatusOpen {
		t.Errorf("state = %q, want open", state)
	}
}

func TestEvolutionConnectFallsBackToPairingCode(t *testing.T) {
	r, server := newTestEvolution(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"pairingCode": "ABCD-1234"}`))
	}))
	defer server.Close()

	image, err := r.Connect(context.Background(), "shop")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if image.Code != "ABCD-1234" || image.Base64 != "" {
		t.Errorf("image = %+v", image)
	}
	if image.Empty() {
		t.Error("image with a code must not be empty")
	}
}

func TestEvolutionRemoteErrorCarriesServerMessage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"string message", `{"response": {"message": "Trigger already exists"}}`, "Trigger already exists"},
		{"array message", `{"response": {"message": ["Invalid trigger", "Missing value"]}}`, "Invalid trigger; Missing value"},
		{"flat message", `{"message": "Unauthorized"}`, "Unauthorized"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, server := newTestEvolution(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := r.CreateBotConfig(context.Background(), "shop", domain.BotConfig{AgentURL: "https://a"})
			var remote *repo.RemoteError
			if !errors.As(err, &remote) {
				t.Fatalf("error = %v, want RemoteError", err)
			}
			if remote.Message != tc.want {
				t.Errorf("message = %q, want %q", remote.Message, tc.want)
			}
			if remote.Status != http.StatusBadRequest {
				t.Errorf("status = %d", remote.Status)
			}
		})
	}
}

func TestEvolutionBotConfigRoutes(t *testing.T) {
	var paths []string
	r, server := newTestEvolution(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		paths = append(paths, req.URL.Path)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	ctx := context.Background()
	r.BotConfigs(ctx, "shop")
	r.CreateBotConfig(ctx, "shop", domain.BotConfig{AgentURL: "https://a"})
	r.UpdateBotConfig(ctx, "shop", "bot-1", domain.BotConfig{AgentURL: "https://a"})
	r.DeleteBotConfig(ctx, "shop", "bot-1")

	want := []string{
		"/EvoAI/find/shop",
		"/EvoAI/create/shop",
		"/EvoAI/update/bot-1/shop",
		"/EvoAI/delete/bot-1/shop",
	}
	if len(paths) != len(want) {
		t.Fatalf("requests = %v", paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("request %d path = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestEvolutionCreateBotConfigAliasesAgentURL(t *testing.T) {
	var payload map[string]any
	r, server := newTestEvolution(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	cfg := domain.DefaultBotConfig()
	cfg.AgentURL = "https://agents.example/a1"
	if _, err := r.CreateBotConfig(context.Background(), "shop", cfg); err != nil {
		t.Fatalf("CreateBotConfig() error = %v", err)
	}

	if payload["agentUrl"] != "https://agents.example/a1" {
		t.Errorf("agentUrl = %v", payload["agentUrl"])
	}
	if payload["apiUrl"] != "https://agents.example/a1" {
		t.Errorf("apiUrl = %v, want the agentUrl alias", payload["apiUrl"])
	}
}

func TestEvolutionBotConfigs404MeansEmpty(t *testing.T) {
	r, server := newTestEvolution(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"response": {"message": "Evoai not found"}}`))
	}))
	defer server.Close()

	configs, err := r.BotConfigs(context.Background(), "shop")
	if err != nil {
		t.Fatalf("BotConfigs() error = %v", err)
	}
	if configs != nil {
		t.Errorf("configs = %v, want nil", configs)
	}
}
