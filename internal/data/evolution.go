package data

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/domain"
	"github.com/EvolutionAPI/evo-ai-console/internal/biz/repo"
)

// evolutionRepo implements the Instance repository against the Evolution
// API. All instance routes are name-keyed path segments; the API key goes in
// the apikey header.
type evolutionRepo struct {
	api *apiClient
}

// NewEvolutionRepo creates the Evolution API instance repository.
func NewEvolutionRepo(cfg RemoteConfig, timeout time.Duration, rps float64) repo.InstanceRepo {
	return &evolutionRepo{api: newAPIClient(cfg, "apikey", timeout, rps)}
}

func (r *evolutionRepo) ListInstances(ctx context.Context) ([]domain.WhatsAppInstance, error) {
	var instances []domain.WhatsAppInstance
	if err := r.api.do(ctx, http.MethodGet, "/instance/fetchInstances", nil, &instances); err != nil {
		return nil, fmt.Errorf("failed to fetch instances: %w", err)
	}
	return instances, nil
}

func (r *evolutionRepo) CreateInstance(ctx context.Context, name string, integration domain.Integration) (domain.WhatsAppInstance, error) {
	request := struct {
		InstanceName string `json:"instanceName"`
		Integration  string `json:"integration"`
		QRCode       bool   `json:"qrcode"`
	}{
		InstanceName: name,
		Integration:  string(integration),
		QRCode:       true,
	}
	var response struct {
		Instance struct {
			InstanceID   string `json:"instanceId"`
			InstanceName string `json:"instanceName"`
			Status       string `json:"status"`
		} `json:"instance"`
		Hash string `json:"hash"`
	}
	if err := r.api.do(ctx, http.MethodPost, "/instance/create", request, &response); err != nil {
		return domain.WhatsAppInstance{}, fmt.Errorf("failed to create instance: %w", err)
	}
	return domain.WhatsAppInstance{
		ID:               response.Instance.InstanceID,
		Name:             response.Instance.InstanceName,
		Token:            response.Hash,
		ConnectionStatus: domain.ConnectionStatus(response.Instance.Status),
	}, nil
}

func (r *evolutionRepo) DeleteInstance(ctx context.Context, name string) error {
	if err := r.api.do(ctx, http.MethodDelete, "/instance/delete/"+url.PathEscape(name), nil, nil); err != nil {
		return fmt.Errorf("failed to delete instance: %w", err)
	}
	return nil
}

func (r *evolutionRepo) ConnectionState(ctx context.Context, name string) (domain.ConnectionStatus, error) {
	var response struct {
		Instance struct {
			State string `json:"state"`
		} `json:"instance"`
	}
	if err := r.api.do(ctx, http.MethodGet, "/instance/connectionState/"+url.PathEscape(name), nil, &response); err != nil {
		return "", fmt.Errorf("failed to read connection state: %w", err)
	}
	return domain.ConnectionStatus(response.Instance.State), nil
}

func (r *evolutionRepo) Connect(ctx context.Context, name string) (repo.PairingImage, error) {
	var response struct {
		Base64      string `json:"base64"`
		Code        string `json:"code"`
		PairingCode string `json:"pairingCode"`
	}
	if err := r.api.do(ctx, http.MethodGet, "/instance/connect/"+url.PathEscape(name), nil, &response); err != nil {
		return repo.PairingImage{}, fmt.Errorf("failed to request pairing: %w", err)
	}
	code := response.Code
	if code == "" {
		code = response.PairingCode
	}
	return repo.PairingImage{Base64: response.Base64, Code: code}, nil
}

func (r *evolutionRepo) Settings(ctx context.Context, name string) (domain.InstanceSettings, error) {
	var settings domain.InstanceSettings
	if err := r.api.do(ctx, http.MethodGet, "/settings/find/"+url.PathEscape(name), nil, &settings); err != nil {
		return domain.InstanceSettings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

func (r *evolutionRepo) SaveSettings(ctx context.Context, name string, settings domain.InstanceSettings) error {
	if err := r.api.do(ctx, http.MethodPost, "/settings/set/"+url.PathEscape(name), settings, nil); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (r *evolutionRepo) BotConfigs(ctx context.Context, name string) ([]domain.BotConfig, error) {
	var configs []domain.BotConfig
	err := r.api.do(ctx, http.MethodGet, "/EvoAI/find/"+url.PathEscape(name), nil, &configs)
	if err != nil {
		// The API answers 404 for an instance with no bots yet.
		var remote *repo.RemoteError
		if errors.As(err, &remote) && remote.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load bot configs: %w", err)
	}
	return configs, nil
}

func (r *evolutionRepo) CreateBotConfig(ctx context.Context, name string, cfg domain.BotConfig) (domain.BotConfig, error) {
	// The create endpoint keys the bot on apiUrl, an alias of agentUrl.
	request := struct {
		domain.BotConfig
		APIURL string `json:"apiUrl"`
	}{
		BotConfig: cfg,
		APIURL:    cfg.AgentURL,
	}
	var created domain.BotConfig
	if err := r.api.do(ctx, http.MethodPost, "/EvoAI/create/"+url.PathEscape(name), request, &created); err != nil {
		return domain.BotConfig{}, err
	}
	return created, nil
}

func (r *evolutionRepo) UpdateBotConfig(ctx context.Context, name, configID string, cfg domain.BotConfig) (domain.BotConfig, error) {
	path := "/EvoAI/update/" + url.PathEscape(configID) + "/" + url.PathEscape(name)
	var updated domain.BotConfig
	if err := r.api.do(ctx, http.MethodPut, path, cfg, &updated); err != nil {
		return domain.BotConfig{}, err
	}
	return updated, nil
}

func (r *evolutionRepo) DeleteBotConfig(ctx context.Context, name, configID string) error {
	path := "/EvoAI/delete/" + url.PathEscape(configID) + "/" + url.PathEscape(name)
	return r.api.do(ctx, http.MethodDelete, path, nil, nil)
}
