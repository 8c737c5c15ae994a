package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smart-home-assistant/internal/infra"
)

// Client posts assistant notifications to a Home Assistant instance as
// persistent notifications, so they show up in its dashboard.
type Client struct {
	baseURL    string
	token      string
	title      string
	httpClient *http.Client
}

func NewClient(baseURL, token, title string) *Client {
	if title == "" {
		title = "Smart Home Assistant"
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		title:      title,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Notify calls the persistent_notification.create service. Without a base
// URL or token it is a no-op.
func (c *Client) Notify(ctx context.Context, message string) error {
	if c.baseURL == "" || c.token == "" {
		return nil
	}

	body, err := json.Marshal(map[string]string{
		"title":           c.title,
		"message":         message,
		"notification_id": "smart_home_assistant",
	})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	if err := c.callService(ctx, "persistent_notification", "create", body); err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	return nil
}

func (c *Client) callService(ctx context.Context, domain, service string, body []byte) error {
	path := fmt.Sprintf("/api/services/%s/%s", domain, service)

	return infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return &infra.StatusError{Service: "home assistant", Code: resp.StatusCode, Body: string(respBody)}
		}
		return nil
	})
}
