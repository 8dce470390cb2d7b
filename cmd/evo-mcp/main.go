package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/domain"
	"github.com/EvolutionAPI/evo-ai-console/internal/conf"
	"github.com/EvolutionAPI/evo-ai-console/internal/data"
	"github.com/EvolutionAPI/evo-ai-console/mcpserver"
)

// evo-mcp exposes the agent directory as MCP tools over stdio.
func main() {
	cfg, err := conf.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DirectoryURL == "" {
		log.Fatal("DIRECTORY_API_URL is required")
	}

	repos, err := data.NewRepositories(cfg.Evolution(), cfg.Directory(), cfg.IdentityDBPath, cfg.HTTPTimeout(), cfg.RequestsPerSecond)
	if err != nil {
		log.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clientID := domain.DefaultClientID
	if identity, found, err := repos.Identity.Load(ctx); err == nil && found {
		clientID = identity.ClientID
	}

	server := mcpserver.NewServer(repos.Directory, clientID)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
