package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/domain"
	"github.com/EvolutionAPI/evo-ai-console/internal/biz/repo"
)

type mockInstances struct {
	mu sync.Mutex

	image      repo.PairingImage
	connectErr error

	state    domain.ConnectionStatus
	stateErr error

	connectCalls int
	stateCalls   int
}

func (m *mockInstances) ListInstances(ctx context.Context) ([]domain.WhatsAppInstance, error) {
	return nil, nil
}

func (m *mockInstances) CreateInstance(ctx context.Context, name string, integration domain.Integration) (domain.WhatsAppInstance, error) {
	return domain.WhatsAppInstance{Name: name}, nil
}

func (m *mockInstances) DeleteInstance(ctx context.Context, name string) error { return nil }

func (m *mockInstances) ConnectionState(ctx context.Context, name string) (domain.ConnectionStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateCalls++
	if m.stateErr != nil {
		return "", m.stateErr
	}
	return m.state, nil
}

func (m *mockInstances) Connect(ctx context.Context, name string) (repo.PairingImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectCalls++
	if m.connectErr != nil {
		return repo.PairingImage{}, m.connectErr
	}
	return m.image, nil
}

func (m *mockInstances) Settings(ctx context.Context, name string) (domain.InstanceSettings, error) {
	return domain.InstanceSettings{}, nil
}

func (m *mockInstances) SaveSettings(ctx context.Context, name string, settings domain.InstanceSettings) error {
	return nil
}

func (m *mockInstances) BotConfigs(ctx context.Context, name string) ([]domain.BotConfig, error) {
	return nil, nil
}

func (m *mockInstances) CreateBotConfig(ctx context.Context, name string, cfg domain.BotConfig) (domain.BotConfig, error) {
	return cfg, nil
}

func (m *mockInstances) UpdateBotConfig(ctx context.Context, name, configID string, cfg domain.BotConfig) (domain.BotConfig, error) {
	return cfg, nil
}

func (m *mockInstances) DeleteBotConfig(ctx context.Context, name, configID string) error {
	return nil
}

func (m *mockInstances) counts() (connect, state int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectCalls, m.stateCalls
}

func testTimings() PairingTimings {
	return PairingTimings{
		ImageTTL:     30 * time.Millisecond,
		TickInterval: 10 * time.Millisecond,
		PollInterval: time.Hour,
		GraceDelay:   time.Millisecond,
	}
}

// drain collects every published snapshot until the run ends.
func drain(t *testing.T, ch <-chan domain.PairingSnapshot) []domain.PairingSnapshot {
	t.Helper()
	var got []domain.PairingSnapshot
	timeout := time.After(5 * time.Second)
	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, snap)
		case <-timeout:
			t.Fatal("pairing run did not finish")
		}
	}
}

func TestPairing_AlreadyConnectedSkipsNetwork(t *testing.T) {
	instances := &mockInstances{}
	uc := NewPairingUsecase(instances, &recordNotifier{}, testTimings())

	uc.Start(context.Background(), domain.WhatsAppInstance{Name: "a", ConnectionStatus: domain.StatusOpen})
	drain(t, uc.Updates())

	if uc.Snapshot().State != domain.PairingConnected {
		t.Errorf("state = %q, want connected", uc.Snapshot().State)
	}
	if connect, state := instances.counts(); connect != 0 || state != 0 {
		t.Errorf("network calls = (%d, %d), want none", connect, state)
	}
}

func TestPairing_CountdownExpiresExactlyOnce(t *testing.T) {
	instances := &mockInstances{image: repo.PairingImage{Base64: "data:image/png;base64,abc"}}
	uc := NewPairingUsecase(instances, &recordNotifier{}, testTimings())

	uc.Start(context.Background(), domain.WhatsAppInstance{Name: "a", ConnectionStatus: domain.StatusClose})
	snaps := drain(t, uc.Updates())

	expired := 0
	for _, s := range snaps {
		if s.State == domain.PairingExpired {
			expired++
			if s.SecondsLeft != 0 {
				t.Errorf("expired with SecondsLeft = %d", s.SecondsLeft)
			}
		}
		if s.SecondsLeft < 0 {
			t.Errorf("countdown went negative: %d", s.SecondsLeft)
		}
	}
	if expired != 1 {
		t.Errorf("expired snapshots = %d, want exactly 1", expired)
	}
	if uc.Snapshot().State != domain.PairingExpired {
		t.Errorf("final state = %q, want expired", uc.Snapshot().State)
	}
}

func TestPairing_PollObservesOpen(t *testing.T) {
	instances := &mockInstances{
		image: repo.PairingImage{Base64: "data:image/png;base64,abc"},
		state: domain.StatusOpen,
	}
	timings := testTimings()
	timings.ImageTTL = time.Hour
	timings.TickInterval = time.Hour
	timings.PollInterval = 10 * time.Millisecond
	notifier := &recordNotifier{}
	uc := NewPairingUsecase(instances, notifier, timings)

	uc.Start(context.Background(), domain.WhatsAppInstance{Name: "a", ConnectionStatus: domain.StatusClose})
	drain(t, uc.Updates())

	if uc.Snapshot().State != domain.PairingConnected {
		t.Fatalf("state = %q, want connected", uc.Snapshot().State)
	}
	if notifier.count() != 1 {
		t.Errorf("notifications = %d, want 1", notifier.count())
	}

	// The run is over; the poll timer must be dead.
	_, before := instances.counts()
	time.Sleep(50 * time.Millisecond)
	if _, after := instances.counts(); after != before {
		t.Errorf("poll kept firing after the run ended: %d -> %d", before, after)
	}
}

func TestPairing_ConnectFailureIsTerminal(t *testing.T) {
	notifier := &recordNotifier{}
	instances := &mockInstances{connectErr: errors.New("dial tcp: refused")}
	uc := NewPairingUsecase(instances, notifier, testTimings())

	uc.Start(context.Background(), domain.WhatsAppInstance{Name: "a", ConnectionStatus: domain.StatusClose})
	drain(t, uc.Updates())

	snap := uc.Snapshot()
	if snap.State != domain.PairingFailed {
		t.Fatalf("state = %q, want failed", snap.State)
	}
	if snap.LastError == "" {
		t.Error("LastError not recorded")
	}
	if notifier.count() != 1 {
		t.Errorf("notifications = %d, want 1", notifier.count())
	}
}

func TestPairing_PollFailureIsTerminal(t *testing.T) {
	instances := &mockInstances{
		image:    repo.PairingImage{Code: "ABCD-1234"},
		stateErr: errors.New("502 bad gateway"),
	}
	timings := testTimings()
	timings.ImageTTL = time.Hour
	timings.TickInterval = time.Hour
	timings.PollInterval = 10 * time.Millisecond
	uc := NewPairingUsecase(instances, &recordNotifier{}, timings)

	uc.Start(context.Background(), domain.WhatsAppInstance{Name: "a", ConnectionStatus: domain.StatusClose})
	drain(t, uc.Updates())

	if uc.Snapshot().State != domain.PairingFailed {
		t.Errorf("state = %q, want failed", uc.Snapshot().State)
	}
}

func TestPairing_StopCancelsTimers(t *testing.T) {
	instances := &mockInstances{image: repo.PairingImage{Base64: "data:image/png;base64,abc"}}
	timings := testTimings()
	timings.ImageTTL = time.Hour
	timings.TickInterval = time.Hour
	timings.PollInterval = time.Hour
	uc := NewPairingUsecase(instances, &recordNotifier{}, timings)

	uc.Start(context.Background(), domain.WhatsAppInstance{Name: "a", ConnectionStatus: domain.StatusClose})

	done := make(chan struct{})
	go func() {
		uc.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}

	// Teardown mid-run leaves the last applied state, not a terminal one.
	if state := uc.Snapshot().State; state != domain.PairingReady {
		t.Errorf("state after Stop = %q, want ready", state)
	}
}

func TestPairing_RestartAfterFailureRetries(t *testing.T) {
	instances := &mockInstances{connectErr: errors.New("refused")}
	uc := NewPairingUsecase(instances, &recordNotifier{}, testTimings())

	uc.Start(context.Background(), domain.WhatsAppInstance{Name: "a", ConnectionStatus: domain.StatusClose})
	drain(t, uc.Updates())
	if uc.Snapshot().State != domain.PairingFailed {
		t.Fatalf("setup: state = %q", uc.Snapshot().State)
	}

	instances.mu.Lock()
	instances.connectErr = nil
	instances.image = repo.PairingImage{Code: "WXYZ-9876"}
	instances.mu.Unlock()

	uc.Start(context.Background(), domain.WhatsAppInstance{Name: "a", ConnectionStatus: domain.StatusClose})
	snaps := drain(t, uc.Updates())

	if len(snaps) == 0 || snaps[0].State != domain.PairingReady {
		t.Fatalf("first snapshot after retry = %+v, want ready", snaps)
	}
	if connect, _ := instances.counts(); connect != 2 {
		t.Errorf("connect calls = %d, want 2", connect)
	}
}

func TestPairing_StartWhileConnectedIsNoop(t *testing.T) {
	instances := &mockInstances{}
	uc := NewPairingUsecase(instances, &recordNotifier{}, testTimings())

	uc.Start(context.Background(), domain.WhatsAppInstance{Name: "a", ConnectionStatus: domain.StatusOpen})
	drain(t, uc.Updates())

	uc.Start(context.Background(), domain.WhatsAppInstance{Name: "a", ConnectionStatus: domain.StatusClose})
	if connect, _ := instances.counts(); connect != 0 {
		t.Errorf("connect calls = %d, want 0 after reaching connected", connect)
	}
}
