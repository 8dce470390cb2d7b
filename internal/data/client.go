package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/EvolutionAPI/evo-ai-console/internal/biz/repo"
)

// RemoteConfig locates one remote API.
type RemoteConfig struct {
	BaseURL string
	APIKey  string
}

// apiClient is the shared JSON transport. Every request waits on the rate
// limiter, carries the auth header, and is bounded by the client timeout.
type apiClient struct {
	base      string
	keyHeader string
	key       string
	client    *http.Client
	limiter   *rate.Limiter
}

func newAPIClient(cfg RemoteConfig, keyHeader string, timeout time.Duration, rps float64) *apiClient {
	return &apiClient{
		base:      strings.TrimRight(cfg.BaseURL, "/"),
		keyHeader: keyHeader,
		key:       cfg.APIKey,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}
}

// do performs one JSON round trip. A non-2xx response is returned as a
// RemoteError carrying the server's own message when the body has one.
func (c *apiClient) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.key != "" {
		req.Header.Set(c.keyHeader, c.key)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &repo.RemoteError{
			Status:  resp.StatusCode,
			Message: remoteMessage(raw, resp.StatusCode),
		}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// remoteMessage digs the human-readable message out of an error body. The
// API nests it under response.message as either a string or a string array;
// a flat message field is the secondary shape.
func remoteMessage(raw []byte, status int) string {
	var envelope struct {
		Response struct {
			Message json.RawMessage `json:"message"`
		} `json:"response"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if msg := decodeMessage(envelope.Response.Message); msg != "" {
			return msg
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && len(text) < 200 {
		return text
	}
	return http.StatusText(status)
}

func decodeMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return strings.Join(many, "; ")
	}
	return ""
}
