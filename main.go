package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EvolutionAPI/evo-ai-console/internal/api"
	"github.com/EvolutionAPI/evo-ai-console/internal/biz/domain"
	"github.com/EvolutionAPI/evo-ai-console/internal/biz/usecase"
	"github.com/EvolutionAPI/evo-ai-console/internal/conf"
	"github.com/EvolutionAPI/evo-ai-console/internal/data"
	"github.com/EvolutionAPI/evo-ai-console/internal/service"
)

func main() {
	cfg, err := conf.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	repos, err := data.NewRepositories(cfg.Evolution(), cfg.Directory(), cfg.IdentityDBPath, cfg.HTTPTimeout(), cfg.RequestsPerSecond)
	if err != nil {
		log.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	clientID := domain.DefaultClientID
	identity, found, err := repos.Identity.Load(ctx)
	switch {
	case err != nil:
		log.Printf("[main] load identity: %v, falling back to client %q", err, clientID)
	case found:
		clientID = identity.ClientID
	default:
		log.Printf("[main] no stored identity, using default client %q", clientID)
		if err := repos.Identity.Save(ctx, domain.Identity{ClientID: clientID}); err != nil {
			log.Printf("[main] save identity: %v", err)
		}
	}

	notifier := usecase.LogNotifier{}
	chat := usecase.NewChatUsecase(repos.Directory, clientID, notifier)
	instances := usecase.NewInstanceUsecase(repos.Instances, notifier)

	chat.LoadInitialData(ctx)

	refresher := service.NewRefresher(chat, cfg.RefreshInterval())
	refresher.Start(ctx)

	server := api.NewServer(chat, instances, repos.Instances, notifier, cfg.Port)

	// 优雅退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		refresher.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			log.Printf("[main] shutdown: %v", err)
		}
	}()

	log.Printf("Starting Evolution console API on :%d (client %s)", cfg.Port, clientID)
	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
