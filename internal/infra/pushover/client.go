package pushover

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"smart-home-assistant/internal/infra"
)

const (
	defaultURL = "https://api.pushover.net/1/messages.json"
	// Pushover rejects messages longer than 1024 characters.
	maxMessageRunes = 1024
)

type Client struct {
	token      string
	userKey    string
	title      string
	url        string
	httpClient *http.Client
}

func NewClient(token, userKey, title string) *Client {
	return NewClientWithURL(token, userKey, title, defaultURL)
}

func NewClientWithURL(token, userKey, title, apiURL string) *Client {
	if title == "" {
		title = "Smart Home"
	}
	return &Client{
		token:      token,
		userKey:    userKey,
		title:      title,
		url:        apiURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify pushes one message. Without credentials it is a no-op.
func (c *Client) Notify(ctx context.Context, message string) error {
	if c.token == "" || c.userKey == "" {
		return nil
	}

	data := url.Values{}
	data.Set("token", c.token)
	data.Set("user", c.userKey)
	data.Set("message", truncate(message, maxMessageRunes))
	data.Set("title", c.title)
	body := data.Encode()

	return infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending notification: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return &infra.StatusError{Service: "pushover", Code: resp.StatusCode, Body: string(respBody)}
		}

		return nil
	})
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
