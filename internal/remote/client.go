// Package remote is the device's HTTP client for the backend settings store.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/focuspact/focuspact/internal/models"
)

// Client talks to the backend as the signed-in trainee. Session auth, not
// HMAC: this path only runs in the interactive app process.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type settingsEnvelope struct {
	Success  bool                 `json:"success"`
	Message  string               `json:"message"`
	Settings *models.UserSettings `json:"settings,omitempty"`
}

// GetSettings fetches the trainee's durable settings document.
func (c *Client) GetSettings(ctx context.Context, uid string) (*models.UserSettings, error) {
	endpoint := c.BaseURL + "/api/settings?uid=" + url.QueryEscape(uid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope settingsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode settings response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !envelope.Success || envelope.Settings == nil {
		return nil, fmt.Errorf("get settings for %s: %s", uid, envelope.Message)
	}
	return envelope.Settings, nil
}

// PatchSettings sends only the changed fields through the merge endpoint.
// The backend owns fields the device never touches, coach and trainee lists
// in particular, so a full-document write from a stale device would roll
// server-side changes back. Reconciliation treats a failure here as
// best-effort: the local cache already holds the merge and the next sync
// retries implicitly.
func (c *Client) PatchSettings(ctx context.Context, patch models.SettingsPatch) error {
	encoded, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		c.BaseURL+"/api/settings", bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("patch settings: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}
