package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/repo"
	"github.com/EvolutionAPI/evo-ai-console/internal/biz/usecase"
)

// Server exposes the console over a JSON API. One pairing flow can be
// active at a time, mirroring the single pairing dialog.
type Server struct {
	chat         *usecase.ChatUsecase
	instances    *usecase.InstanceUsecase
	instanceRepo repo.InstanceRepo
	notifier     usecase.Notifier
	timings      usecase.PairingTimings

	pairingMu sync.Mutex
	pairing   *usecase.PairingUsecase

	router *gin.Engine
	server *http.Server
}

// NewServer creates a new API server
func NewServer(
	chat *usecase.ChatUsecase,
	instances *usecase.InstanceUsecase,
	instanceRepo repo.InstanceRepo,
	notifier usecase.Notifier,
	port int,
) *Server {
	router := gin.Default()

	return &Server{
		chat:         chat,
		instances:    instances,
		instanceRepo: instanceRepo,
		notifier:     notifier,
		timings:      usecase.DefaultPairingTimings(),
		router:       router,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		},
	}
}

// Response represents a generic API response
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (s *Server) Start() error {
	s.registerRoutes(s.router)

	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.stopPairing()
	return s.server.Shutdown(ctx)
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func fail(c *gin.Context, status int, format string, args ...any) {
	c.JSON(status, Response{Success: false, Message: fmt.Sprintf(format, args...)})
}
