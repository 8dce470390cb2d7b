package usecase

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/domain"
	"github.com/EvolutionAPI/evo-ai-console/internal/biz/repo"
)

// InstanceUsecase manages the locally visible instance table and the bot
// integrations of the instance being configured. Instance state is
// overwritten wholesale on each remote refresh; only transient status
// markers are written locally.
type InstanceUsecase struct {
	instances repo.InstanceRepo
	notifier  Notifier

	mu          sync.Mutex
	list        []domain.WhatsAppInstance
	botConfigs  []domain.BotConfig
	selectedBot int // index into botConfigs, -1 when none
}

// NewInstanceUsecase creates the instance manager.
func NewInstanceUsecase(instances repo.InstanceRepo, notifier Notifier) *InstanceUsecase {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &InstanceUsecase{
		instances:   instances,
		notifier:    notifier,
		selectedBot: -1,
	}
}

// Refresh replaces the instance table with the remote list. On failure the
// previous list stays visible.
func (uc *InstanceUsecase) Refresh(ctx context.Context) error {
	list, err := uc.instances.ListInstances(ctx)
	if err != nil {
		log.Printf("[instances] refresh: %v", err)
		uc.notifier.Notify("Erro", "Failed to load WhatsApp instances.")
		return err
	}
	uc.mu.Lock()
	uc.list = list
	uc.mu.Unlock()
	return nil
}

// Create registers a new instance under the given name and adds the result
// to the local table.
func (uc *InstanceUsecase) Create(ctx context.Context, name string, integration domain.Integration) (domain.WhatsAppInstance, error) {
	instance, err := uc.instances.CreateInstance(ctx, name, integration)
	if err != nil {
		uc.notifier.Notify("Erro", "Failed to add WhatsApp instance.")
		return domain.WhatsAppInstance{}, err
	}
	uc.mu.Lock()
	uc.list = append(uc.list, instance)
	uc.mu.Unlock()
	return instance, nil
}

// Delete removes an instance remotely and from the local table.
func (uc *InstanceUsecase) Delete(ctx context.Context, name string) error {
	if err := uc.instances.DeleteInstance(ctx, name); err != nil {
		uc.notifier.Notify("Erro", "Failed to delete WhatsApp instance.")
		return err
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	kept := uc.list[:0]
	for _, inst := range uc.list {
		if inst.Name != name {
			kept = append(kept, inst)
		}
	}
	uc.list = kept
	return nil
}

// RefreshStatus re-reads one instance's connection state. The local row is
// optimistically marked connecting while the call is in flight; a transport
// failure degrades to close rather than surfacing an error.
func (uc *InstanceUsecase) RefreshStatus(ctx context.Context, name string) domain.ConnectionStatus {
	uc.setStatus(name, domain.StatusConnecting)

	status, err := uc.instances.ConnectionState(ctx, name)
	if err != nil {
		log.Printf("[instances] connection state for %s: %v", name, err)
		status = domain.StatusClose
	}
	uc.setStatus(name, status)
	return status
}

// Settings reads the behavior toggles of an instance.
func (uc *InstanceUsecase) Settings(ctx context.Context, name string) (domain.InstanceSettings, error) {
	settings, err := uc.instances.Settings(ctx, name)
	if err != nil {
		log.Printf("[instances] settings for %s: %v", name, err)
		return domain.InstanceSettings{}, err
	}
	return settings, nil
}

// SaveSettings writes the behavior toggles of an instance.
func (uc *InstanceUsecase) SaveSettings(ctx context.Context, name string, settings domain.InstanceSettings) error {
	if err := uc.instances.SaveSettings(ctx, name, settings); err != nil {
		uc.notifier.Notify("Erro", "Failed to save instance configuration.")
		return err
	}
	return nil
}

// LoadBotConfigs replaces the bot integration list for the instance being
// configured and resets the selection.
func (uc *InstanceUsecase) LoadBotConfigs(ctx context.Context, name string) ([]domain.BotConfig, error) {
	configs, err := uc.instances.BotConfigs(ctx, name)
	if err != nil {
		log.Printf("[instances] bot configs for %s: %v", name, err)
		return nil, err
	}
	uc.mu.Lock()
	uc.botConfigs = configs
	uc.selectedBot = -1
	uc.mu.Unlock()
	return configs, nil
}

// SelectBotConfig marks one config as selected by list position. At most
// one is selected at a time; an out-of-range index clears the selection.
func (uc *InstanceUsecase) SelectBotConfig(index int) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if index < 0 || index >= len(uc.botConfigs) {
		uc.selectedBot = -1
		return
	}
	uc.selectedBot = index
}

// SelectedBotConfig returns the currently selected config, if any.
func (uc *InstanceUsecase) SelectedBotConfig() (domain.BotConfig, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.selectedBot < 0 || uc.selectedBot >= len(uc.botConfigs) {
		return domain.BotConfig{}, false
	}
	return uc.botConfigs[uc.selectedBot], true
}

// CreateBotConfig creates a bot integration. A remote business rejection is
// surfaced with the literal server message; everything else gets the
// generic notification.
func (uc *InstanceUsecase) CreateBotConfig(ctx context.Context, name string, cfg domain.BotConfig) (domain.BotConfig, error) {
	if err := cfg.Validate(); err != nil {
		uc.notifier.Notify("Erro", err.Error())
		return domain.BotConfig{}, err
	}
	created, err := uc.instances.CreateBotConfig(ctx, name, cfg)
	if err != nil {
		uc.notifyBotError(err, "Failed to create bot configuration.")
		return domain.BotConfig{}, err
	}
	uc.mu.Lock()
	uc.botConfigs = append(uc.botConfigs, created)
	uc.mu.Unlock()
	return created, nil
}

// UpdateBotConfig updates a bot integration in place.
func (uc *InstanceUsecase) UpdateBotConfig(ctx context.Context, name, configID string, cfg domain.BotConfig) (domain.BotConfig, error) {
	if err := cfg.Validate(); err != nil {
		uc.notifier.Notify("Erro", err.Error())
		return domain.BotConfig{}, err
	}
	updated, err := uc.instances.UpdateBotConfig(ctx, name, configID, cfg)
	if err != nil {
		uc.notifyBotError(err, "Failed to update bot configuration.")
		return domain.BotConfig{}, err
	}
	uc.mu.Lock()
	for i := range uc.botConfigs {
		if uc.botConfigs[i].ID == configID {
			uc.botConfigs[i] = updated
		}
	}
	uc.mu.Unlock()
	return updated, nil
}

// DeleteBotConfig removes a bot integration.
func (uc *InstanceUsecase) DeleteBotConfig(ctx context.Context, name, configID string) error {
	if err := uc.instances.DeleteBotConfig(ctx, name, configID); err != nil {
		uc.notifyBotError(err, "Failed to delete bot configuration.")
		return err
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	kept := uc.botConfigs[:0]
	for _, c := range uc.botConfigs {
		if c.ID != configID {
			kept = append(kept, c)
		}
	}
	uc.botConfigs = kept
	uc.selectedBot = -1
	return nil
}

// Instances returns a copy of the local instance table.
func (uc *InstanceUsecase) Instances() []domain.WhatsAppInstance {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return append([]domain.WhatsAppInstance(nil), uc.list...)
}

// BotConfigs returns a copy of the loaded bot integration list.
func (uc *InstanceUsecase) BotConfigs() []domain.BotConfig {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return append([]domain.BotConfig(nil), uc.botConfigs...)
}

func (uc *InstanceUsecase) setStatus(name string, status domain.ConnectionStatus) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	for i := range uc.list {
		if uc.list[i].Name == name {
			uc.list[i].ConnectionStatus = status
			return
		}
	}
}

// notifyBotError passes remote-authored messages through verbatim; this is
// the only path where server text reaches the user unmodified.
func (uc *InstanceUsecase) notifyBotError(err error, generic string) {
	var remote *repo.RemoteError
	if errors.As(err, &remote) {
		uc.notifier.Notify("Erro", remote.Message)
		return
	}
	uc.notifier.Notify("Erro", generic)
}
