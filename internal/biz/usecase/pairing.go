package usecase

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/domain"
	"github.com/EvolutionAPI/evo-ai-console/internal/biz/repo"
)

// PairingTimings are the fixed windows of the pairing flow. Tests shrink
// them; production uses the defaults.
type PairingTimings struct {
	ImageTTL     time.Duration // validity window of one pairing image
	TickInterval time.Duration // countdown resolution
	PollInterval time.Duration // connection-state poll cadence
	GraceDelay   time.Duration // delay before a connected run closes
}

// DefaultPairingTimings matches the dialog behavior: 45s image validity,
// 1s countdown ticks, 5s polling, 1.5s auto-close grace.
func DefaultPairingTimings() PairingTimings {
	return PairingTimings{
		ImageTTL:     45 * time.Second,
		TickInterval: time.Second,
		PollInterval: 5 * time.Second,
		GraceDelay:   1500 * time.Millisecond,
	}
}

// ttlTicks converts the image validity window to countdown ticks.
func (t PairingTimings) ttlTicks() int {
	if t.TickInterval <= 0 {
		return 0
	}
	return int(t.ImageTTL / t.TickInterval)
}

// PairingUsecase drives one instance's pairing flow to a terminal state.
// Countdown and poll timers run in a single goroutine and funnel their
// events through domain.NextPairing, so exactly one terminal transition
// wins and the loser is cancelled by the loop exiting. Cancelling the
// context tears down both timers unconditionally.
type PairingUsecase struct {
	instances repo.InstanceRepo
	notifier  Notifier
	timings   PairingTimings

	mu      sync.Mutex
	snap    domain.PairingSnapshot
	updates chan domain.PairingSnapshot
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPairingUsecase creates a pairing manager for one dialog lifetime.
func NewPairingUsecase(instances repo.InstanceRepo, notifier Notifier, timings PairingTimings) *PairingUsecase {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &PairingUsecase{
		instances: instances,
		notifier:  notifier,
		timings:   timings,
		snap:      domain.NewPairingSnapshot(),
	}
}

// Start begins a pairing run for the instance. Calling Start again after a
// failed or expired run is the retry affordance: the state machine re-enters
// loading. Starting while a run is active is a no-op.
func (uc *PairingUsecase) Start(ctx context.Context, instance domain.WhatsAppInstance) {
	uc.mu.Lock()
	if uc.running || uc.snap.State == domain.PairingConnected {
		uc.mu.Unlock()
		return
	}
	if uc.snap.State.Terminal() {
		if next, err := domain.NextPairing(uc.snap, domain.PairingEvent{Type: domain.PairingEventRetry}); err == nil {
			uc.snap = next
		}
	}
	runCtx, cancel := context.WithCancel(ctx)
	uc.running = true
	uc.cancel = cancel
	uc.done = make(chan struct{})
	uc.updates = make(chan domain.PairingSnapshot, 16)
	done := uc.done
	uc.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		uc.run(runCtx, instance)
		uc.mu.Lock()
		uc.running = false
		close(uc.updates)
		uc.mu.Unlock()
	}()
}

// Stop cancels the run and both of its timers. Safe to call at any time;
// it is the dialog-close/unmount teardown.
func (uc *PairingUsecase) Stop() {
	uc.mu.Lock()
	cancel := uc.cancel
	done := uc.done
	uc.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Snapshot returns the current observable state.
func (uc *PairingUsecase) Snapshot() domain.PairingSnapshot {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.snap
}

// Updates exposes the state transitions of the active run. The channel
// closes when the run ends (terminal state reached or torn down).
func (uc *PairingUsecase) Updates() <-chan domain.PairingSnapshot {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.updates
}

func (uc *PairingUsecase) run(ctx context.Context, instance domain.WhatsAppInstance) {
	// Already connected: skip the network entirely and report connected
	// after the fixed grace delay.
	if instance.Connected() {
		if !uc.sleep(ctx, uc.timings.GraceDelay) {
			return
		}
		uc.apply(domain.PairingEvent{Type: domain.PairingEventRemoteOpen})
		return
	}

	image, err := uc.instances.Connect(ctx, instance.Name)
	if err != nil {
		uc.apply(domain.PairingEvent{Type: domain.PairingEventTransportError, ErrorText: err.Error()})
		uc.notifier.Notify("Error", "Failed to connect to server.")
		return
	}
	if image.Empty() {
		uc.apply(domain.PairingEvent{Type: domain.PairingEventTransportError, ErrorText: "empty pairing response"})
		uc.notifier.Notify("Error", "Failed to connect to server.")
		return
	}

	uc.apply(domain.PairingEvent{
		Type:     domain.PairingEventImageReady,
		Image:    image.Base64,
		Code:     image.Code,
		TTLTicks: uc.timings.ttlTicks(),
	})

	countdown := time.NewTicker(uc.timings.TickInterval)
	defer countdown.Stop()
	poll := time.NewTicker(uc.timings.PollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-countdown.C:
			snap := uc.apply(domain.PairingEvent{Type: domain.PairingEventTick})
			if snap.State == domain.PairingExpired {
				return
			}

		case <-poll.C:
			state, err := uc.instances.ConnectionState(ctx, instance.Name)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				uc.apply(domain.PairingEvent{Type: domain.PairingEventTransportError, ErrorText: err.Error()})
				uc.notifier.Notify("Error", "Failed to connect to server.")
				return
			}
			if state == domain.StatusOpen {
				uc.apply(domain.PairingEvent{Type: domain.PairingEventRemoteOpen})
				uc.notifier.Notify("Connected", "WhatsApp instance connected successfully.")
				// Auto-close grace: keep the connected state visible
				// briefly before the run ends.
				uc.sleep(ctx, uc.timings.GraceDelay)
				return
			}
		}
	}
}

// apply feeds one event through the transition function and publishes the
// new snapshot. Rejected transitions are logged and leave state untouched.
func (uc *PairingUsecase) apply(ev domain.PairingEvent) domain.PairingSnapshot {
	uc.mu.Lock()
	next, err := domain.NextPairing(uc.snap, ev)
	if err != nil {
		uc.mu.Unlock()
		log.Printf("[pairing] %v", err)
		return next
	}
	uc.snap = next
	updates := uc.updates
	uc.mu.Unlock()

	if updates != nil {
		select {
		case updates <- next:
		default:
			// A slow consumer must not stall the timers.
		}
	}
	return next
}

// sleep waits for d unless the context is cancelled first.
func (uc *PairingUsecase) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
