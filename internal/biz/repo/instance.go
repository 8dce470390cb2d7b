package repo

import (
	"context"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/domain"
)

// PairingImage is the payload of a connect call. The remote may return a
// rendered image, a raw pairing code, or both.
type PairingImage struct {
	Base64 string
	Code   string
}

// Empty reports whether the remote returned no scannable data.
func (p PairingImage) Empty() bool {
	return p.Base64 == "" && p.Code == ""
}

// InstanceRepo covers every remote operation on WhatsApp instances. All
// operations are keyed by instance name; the remote API does not accept IDs.
type InstanceRepo interface {
	ListInstances(ctx context.Context) ([]domain.WhatsAppInstance, error)
	CreateInstance(ctx context.Context, name string, integration domain.Integration) (domain.WhatsAppInstance, error)
	DeleteInstance(ctx context.Context, name string) error

	// ConnectionState reads the live connection status of an instance.
	ConnectionState(ctx context.Context, name string) (domain.ConnectionStatus, error)

	// Connect requests a fresh pairing image for an instance.
	Connect(ctx context.Context, name string) (PairingImage, error)

	Settings(ctx context.Context, name string) (domain.InstanceSettings, error)
	SaveSettings(ctx context.Context, name string, settings domain.InstanceSettings) error

	BotConfigs(ctx context.Context, name string) ([]domain.BotConfig, error)
	CreateBotConfig(ctx context.Context, name string, cfg domain.BotConfig) (domain.BotConfig, error)
	UpdateBotConfig(ctx context.Context, name, configID string, cfg domain.BotConfig) (domain.BotConfig, error)
	DeleteBotConfig(ctx context.Context, name, configID string) error
}
