package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/usecase"
)

// Refresher keeps the session list current while the console runs: the
// remote store is written by agents and other channels, so the local view
// drifts without periodic reloads.
type Refresher struct {
	chat     *usecase.ChatUsecase
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRefresher creates a new background refresher
func NewRefresher(chat *usecase.ChatUsecase, interval time.Duration) *Refresher {
	return &Refresher{
		chat:     chat,
		interval: interval,
	}
}

// Start starts the refresh loop
func (r *Refresher) Start(ctx context.Context) {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.loop()

	log.Printf("[refresher] started with interval %v", r.interval)
}

// Stop stops the refresh loop and waits for it to exit
func (r *Refresher) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	log.Println("[refresher] stopped")
}

func (r *Refresher) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.chat.LoadInitialData(r.ctx)
		}
	}
}
