package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/domain"
	"github.com/EvolutionAPI/evo-ai-console/internal/biz/usecase"
)

func (s *Server) registerRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/refresh", s.handleRefresh)
		api.GET("/agents", s.handleAgents)
		api.POST("/agents/select", s.handleSelectAgent)

		api.GET("/sessions", s.handleSessions)
		api.POST("/sessions/select", s.handleSelectSession)
		api.GET("/messages", s.handleMessages)
		api.POST("/send", s.handleSend)

		api.GET("/instances", s.handleInstances)
		api.POST("/instances", s.handleCreateInstance)
		api.DELETE("/instances/:name", s.handleDeleteInstance)
		api.GET("/instances/:name/status", s.handleInstanceStatus)
		api.GET("/instances/:name/settings", s.handleGetSettings)
		api.POST("/instances/:name/settings", s.handleSaveSettings)

		api.GET("/instances/:name/bots", s.handleBots)
		api.POST("/instances/:name/bots", s.handleCreateBot)
		api.PUT("/instances/:name/bots/:id", s.handleUpdateBot)
		api.DELETE("/instances/:name/bots/:id", s.handleDeleteBot)

		api.POST("/instances/:name/pairing", s.handleStartPairing)
		api.GET("/pairing", s.handlePairingState)
		api.DELETE("/pairing", s.handleStopPairing)
	}
}

// Chat

func (s *Server) handleRefresh(c *gin.Context) {
	s.chat.LoadInitialData(c.Request.Context())
	ok(c, nil)
}

func (s *Server) handleAgents(c *gin.Context) {
	agents := s.chat.Agents()
	if term := c.Query("search"); term != "" {
		agents = domain.FilterAgents(agents, term)
	}
	ok(c, agents)
}

func (s *Server) handleSelectAgent(c *gin.Context) {
	var req struct {
		AgentID string `json:"agent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.chat.SelectAgent(req.AgentID)
	ok(c, nil)
}

type sessionView struct {
	domain.ChatSession
	AgentID     string `json:"agent_id"`
	DisplayTime string `json:"display_time"`
}

func (s *Server) handleSessions(c *gin.Context) {
	agentFilter := c.Query("agent")
	if agentFilter == "" {
		agentFilter = usecase.AgentFilterAll
	}
	sessions := usecase.FilterAndSort(s.chat.Sessions(), c.Query("search"), agentFilter)

	views := make([]sessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, sessionView{
			ChatSession: session,
			AgentID:     session.AgentID(),
			DisplayTime: session.DisplayTime(),
		})
	}
	ok(c, views)
}

func (s *Server) handleSelectSession(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.chat.SelectSession(c.Request.Context(), req.SessionID)
	ok(c, gin.H{"selected": s.chat.Selected(), "agent_id": s.chat.CurrentAgent()})
}

type messageView struct {
	domain.ChatMessage
	Text     string `json:"text"`
	Delivery string `json:"delivery"`
}

func (s *Server) handleMessages(c *gin.Context) {
	messages := s.chat.Messages()
	views := make([]messageView, 0, len(messages))
	for _, message := range messages {
		views = append(views, messageView{
			ChatMessage: message,
			Text:        message.DisplayText(),
			Delivery:    string(message.Delivery),
		})
	}
	ok(c, views)
}

func (s *Server) handleSend(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.chat.SendMessage(c.Request.Context(), req.Text); err != nil {
		fail(c, http.StatusBadGateway, "Failed to send message: %v", err)
		return
	}
	ok(c, gin.H{"session_id": s.chat.Selected()})
}

// Instances

func (s *Server) handleInstances(c *gin.Context) {
	if err := s.instances.Refresh(c.Request.Context()); err != nil {
		fail(c, http.StatusBadGateway, "Failed to load instances: %v", err)
		return
	}
	ok(c, s.instances.Instances())
}

func (s *Server) handleCreateInstance(c *gin.Context) {
	var req struct {
		Name        string `json:"name"`
		Integration string `json:"integration"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		fail(c, http.StatusBadRequest, "Instance name is required")
		return
	}
	integration := domain.Integration(req.Integration)
	if integration == "" {
		integration = domain.IntegrationBaileys
	}
	instance, err := s.instances.Create(c.Request.Context(), req.Name, integration)
	if err != nil {
		fail(c, http.StatusBadGateway, "Failed to create instance: %v", err)
		return
	}
	ok(c, instance)
}

func (s *Server) handleDeleteInstance(c *gin.Context) {
	if err := s.instances.Delete(c.Request.Context(), c.Param("name")); err != nil {
		fail(c, http.StatusBadGateway, "Failed to delete instance: %v", err)
		return
	}
	ok(c, nil)
}

func (s *Server) handleInstanceStatus(c *gin.Context) {
	status := s.instances.RefreshStatus(c.Request.Context(), c.Param("name"))
	ok(c, gin.H{"status": status})
}

func (s *Server) handleGetSettings(c *gin.Context) {
	settings, err := s.instances.Settings(c.Request.Context(), c.Param("name"))
	if err != nil {
		fail(c, http.StatusBadGateway, "Failed to load settings: %v", err)
		return
	}
	ok(c, settings)
}

func (s *Server) handleSaveSettings(c *gin.Context) {
	var settings domain.InstanceSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.instances.SaveSettings(c.Request.Context(), c.Param("name"), settings); err != nil {
		fail(c, http.StatusBadGateway, "Failed to save settings: %v", err)
		return
	}
	ok(c, nil)
}

// Bot integrations

func (s *Server) handleBots(c *gin.Context) {
	configs, err := s.instances.LoadBotConfigs(c.Request.Context(), c.Param("name"))
	if err != nil {
		fail(c, http.StatusBadGateway, "Failed to load bot configs: %v", err)
		return
	}
	ok(c, configs)
}

func (s *Server) handleCreateBot(c *gin.Context) {
	cfg := domain.DefaultBotConfig()
	if err := c.ShouldBindJSON(&cfg); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	created, err := s.instances.CreateBotConfig(c.Request.Context(), c.Param("name"), cfg)
	if err != nil {
		fail(c, http.StatusBadGateway, "%v", err)
		return
	}
	ok(c, created)
}

func (s *Server) handleUpdateBot(c *gin.Context) {
	cfg := domain.DefaultBotConfig()
	if err := c.ShouldBindJSON(&cfg); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	updated, err := s.instances.UpdateBotConfig(c.Request.Context(), c.Param("name"), c.Param("id"), cfg)
	if err != nil {
		fail(c, http.StatusBadGateway, "%v", err)
		return
	}
	ok(c, updated)
}

func (s *Server) handleDeleteBot(c *gin.Context) {
	if err := s.instances.DeleteBotConfig(c.Request.Context(), c.Param("name"), c.Param("id")); err != nil {
		fail(c, http.StatusBadGateway, "%v", err)
		return
	}
	ok(c, nil)
}

// Pairing

func (s *Server) handleStartPairing(c *gin.Context) {
	name := c.Param("name")
	var target domain.WhatsAppInstance
	found := false
	for _, instance := range s.instances.Instances() {
		if instance.Name == name {
			target = instance
			found = true
			break
		}
	}
	if !found {
		fail(c, http.StatusNotFound, "Unknown instance: %s", name)
		return
	}

	s.pairingMu.Lock()
	if s.pairing != nil {
		s.pairing.Stop()
	}
	s.pairing = usecase.NewPairingUsecase(s.instanceRepo, s.notifier, s.timings)
	pairing := s.pairing
	s.pairingMu.Unlock()

	// The run outlives this request; it is bounded by Stop, not by the
	// request context.
	pairing.Start(context.Background(), target)
	ok(c, pairing.Snapshot())
}

func (s *Server) handlePairingState(c *gin.Context) {
	s.pairingMu.Lock()
	pairing := s.pairing
	s.pairingMu.Unlock()
	if pairing == nil {
		fail(c, http.StatusNotFound, "No pairing in progress")
		return
	}
	ok(c, pairing.Snapshot())
}

func (s *Server) handleStopPairing(c *gin.Context) {
	s.stopPairing()
	ok(c, nil)
}

func (s *Server) stopPairing() {
	s.pairingMu.Lock()
	pairing := s.pairing
	s.pairing = nil
	s.pairingMu.Unlock()
	if pairing != nil {
		pairing.Stop()
	}
}
