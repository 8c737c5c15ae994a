package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smart-home-assistant/internal/domain"
	"smart-home-assistant/internal/infra"
	"smart-home-assistant/internal/intent"
	"smart-home-assistant/internal/language"
)

type ClaudeClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewClaudeClient(apiKey, model string) *ClaudeClient {
	return NewClaudeClientWithURL(apiKey, model, "https://api.anthropic.com/v1")
}

func NewClaudeClientWithURL(apiKey, model, baseURL string) *ClaudeClient {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &ClaudeClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type request struct {
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	System      string         `json:"system"`
	Messages    []message      `json:"messages"`
	Tools       []tool         `json:"tools,omitempty"`
	ToolChoice  map[string]any `json:"tool_choice,omitempty"`
	Temperature float64        `json:"temperature"`
}

type contentBlock struct {
	Type  string         `json:"type"`
	Text  string         `json:"text"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

type response struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

// CallFunction offers the prompt's functions as tools. The first tool_use
// block wins; without one the text blocks are returned as free text.
func (c *ClaudeClient) CallFunction(ctx context.Context, prompt intent.Prompt) (intent.Reply, error) {
	tools := make([]tool, len(prompt.Functions))
	for i, f := range prompt.Functions {
		tools[i] = tool{Name: f.Name, Description: f.Description, InputSchema: f.Parameters}
	}

	result, err := c.send(ctx, infra.SingleAttempt(), request{
		Model:       c.model,
		MaxTokens:   512,
		System:      prompt.System,
		Messages:    []message{{Role: "user", Content: prompt.User}},
		Tools:       tools,
		ToolChoice:  map[string]any{"type": "auto"},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, err
	}

	var texts []string
	for _, block := range result.Content {
		switch block.Type {
		case "tool_use":
			args := block.Input
			if args == nil {
				args = map[string]any{}
			}
			return intent.FunctionCall{Name: block.Name, Args: args}, nil
		case "text":
			texts = append(texts, strings.TrimSpace(block.Text))
		}
	}
	return intent.FreeText{Text: strings.Join(texts, " ")}, nil
}

func (c *ClaudeClient) Translate(ctx context.Context, text string, from, to domain.Language) (string, error) {
	result, err := c.send(ctx, infra.DefaultRetryConfig(), request{
		Model:       c.model,
		MaxTokens:   300,
		System:      language.TranslationPrompt(from, to),
		Messages:    []message{{Role: "user", Content: text}},
		Temperature: 0.1,
	})
	if err != nil {
		return "", err
	}

	for _, block := range result.Content {
		if block.Type == "text" {
			return strings.Trim(strings.TrimSpace(block.Text), `"`), nil
		}
	}
	return "", fmt.Errorf("empty response from claude")
}

func (c *ClaudeClient) send(ctx context.Context, retry infra.RetryConfig, reqBody request) (response, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return response{}, fmt.Errorf("marshaling request: %w", err)
	}

	var result response
	retryErr := infra.WithRetry(ctx, retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(bodyBytes))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return &infra.StatusError{Service: "claude", Code: resp.StatusCode, Body: string(respBody)}
		}

		if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}

		return nil
	})

	if retryErr != nil {
		return response{}, retryErr
	}

	if len(result.Content) == 0 {
		return response{}, fmt.Errorf("empty response from claude")
	}

	return result, nil
}
