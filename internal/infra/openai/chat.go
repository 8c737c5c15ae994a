package openai

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

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"
)

// ChatClient talks to any OpenAI-compatible chat completions endpoint
// (Groq by default). It serves intent function calling and translation.
type ChatClient struct {
	apiKey      string
	httpClient  *http.Client
	baseURL     string
	model       string
	temperature float64
}

func NewChatClient(apiKey, model string) *ChatClient {
	return NewChatClientWithURL(apiKey, model, DefaultBaseURL)
}

func NewChatClientWithURL(apiKey, model, baseURL string) *ChatClient {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &ChatClient{
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		model:       model,
		temperature: 0.1,
	}
}

type message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
}

type toolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type toolDefinition struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type request struct {
	Model       string           `json:"model"`
	Messages    []message        `json:"messages"`
	Tools       []toolDefinition `json:"tools,omitempty"`
	ToolChoice  string           `json:"tool_choice,omitempty"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
}

type response struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

// CallFunction asks the model to pick one of the prompt's functions.
func (c *ChatClient) CallFunction(ctx context.Context, prompt intent.Prompt) (intent.Reply, error) {
	tools := make([]toolDefinition, len(prompt.Functions))
	for i, f := range prompt.Functions {
		tools[i] = toolDefinition{
			Type: "function",
			Function: toolFunction{
				Name:        f.Name,
				Description: f.Description,
				Parameters:  f.Parameters,
			},
		}
	}

	msg, err := c.complete(ctx, infra.SingleAttempt(), request{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Tools:       tools,
		ToolChoice:  "auto",
		Temperature: c.temperature,
		MaxTokens:   500,
	})
	if err != nil {
		return nil, err
	}

	if len(msg.ToolCalls) == 0 {
		return intent.FreeText{Text: strings.TrimSpace(msg.Content)}, nil
	}

	call := msg.ToolCalls[0]
	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, fmt.Errorf("parsing arguments of %s (%s): %w", call.Function.Name, raw, err)
		}
	}
	return intent.FunctionCall{Name: call.Function.Name, Args: args}, nil
}

func (c *ChatClient) Translate(ctx context.Context, text string, from, to domain.Language) (string, error) {
	msg, err := c.complete(ctx, infra.DefaultRetryConfig(), request{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: language.TranslationPrompt(from, to)},
			{Role: "user", Content: text},
		},
		Temperature: c.temperature,
		MaxTokens:   300,
	})
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(msg.Content), `"`), nil
}

func (c *ChatClient) complete(ctx context.Context, retry infra.RetryConfig, reqBody request) (message, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return message{}, fmt.Errorf("marshaling request: %w", err)
	}

	var result response
	retryErr := infra.WithRetry(ctx, retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return &infra.StatusError{Service: "chat", Code: resp.StatusCode, Body: string(respBody)}
		}

		if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}

		return nil
	})

	if retryErr != nil {
		return message{}, retryErr
	}

	if len(result.Choices) == 0 {
		return message{}, fmt.Errorf("empty response from chat API")
	}

	return result.Choices[0].Message, nil
}
