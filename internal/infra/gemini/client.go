package gemini

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

type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewClient(apiKey, model string) *Client {
	return NewClientWithURL(apiKey, model, "https://generativelanguage.googleapis.com/v1beta")
}

func NewClientWithURL(apiKey, model, baseURL string) *Client {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
	}
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type part struct {
	Text         string        `json:"text,omitempty"`
	FunctionCall *functionCall `json:"functionCall,omitempty"`
}

type functionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type functionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type tool struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations"`
}

type toolConfig struct {
	FunctionCallingConfig struct {
		Mode string `json:"mode"`
	} `json:"functionCallingConfig"`
}

type request struct {
	Contents         []content        `json:"contents"`
	SystemInstruct   *content         `json:"systemInstruction,omitempty"`
	Tools            []tool           `json:"tools,omitempty"`
	ToolConfig       *toolConfig      `json:"toolConfig,omitempty"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

type response struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// CallFunction offers the prompt's functions as function declarations in
// AUTO mode. The first functionCall part wins; otherwise the text parts are
// returned as free text.
func (c *Client) CallFunction(ctx context.Context, prompt intent.Prompt) (intent.Reply, error) {
	decls := make([]functionDeclaration, len(prompt.Functions))
	for i, f := range prompt.Functions {
		decls[i] = functionDeclaration{Name: f.Name, Description: f.Description}
		// Gemini rejects object schemas without properties.
		if props, _ := f.Parameters["properties"].(map[string]any); len(props) > 0 {
			decls[i].Parameters = f.Parameters
		}
	}

	cfg := &toolConfig{}
	cfg.FunctionCallingConfig.Mode = "AUTO"

	parts, err := c.generate(ctx, infra.SingleAttempt(), request{
		SystemInstruct: &content{Parts: []part{{Text: prompt.System}}},
		Contents:       []content{{Role: "user", Parts: []part{{Text: prompt.User}}}},
		Tools:          []tool{{FunctionDeclarations: decls}},
		ToolConfig:     cfg,
		GenerationConfig: generationConfig{
			MaxOutputTokens: 256,
			Temperature:     0.1,
		},
	})
	if err != nil {
		return nil, err
	}

	var texts []string
	for _, p := range parts {
		if p.FunctionCall != nil {
			args := p.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			return intent.FunctionCall{Name: p.FunctionCall.Name, Args: args}, nil
		}
		if t := strings.TrimSpace(p.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return intent.FreeText{Text: strings.Join(texts, " ")}, nil
}

func (c *Client) Translate(ctx context.Context, text string, from, to domain.Language) (string, error) {
	parts, err := c.generate(ctx, infra.DefaultRetryConfig(), request{
		SystemInstruct: &content{Parts: []part{{Text: language.TranslationPrompt(from, to)}}},
		Contents:       []content{{Role: "user", Parts: []part{{Text: text}}}},
		GenerationConfig: generationConfig{
			MaxOutputTokens: 300,
			Temperature:     0.1,
		},
	})
	if err != nil {
		return "", err
	}

	for _, p := range parts {
		if p.Text != "" {
			return strings.Trim(strings.TrimSpace(p.Text), `"`), nil
		}
	}
	return "", fmt.Errorf("empty response from gemini")
}

func (c *Client) generate(ctx context.Context, retry infra.RetryConfig, reqBody request) ([]part, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var result response
	retryErr := infra.WithRetry(ctx, retry, func() error {
		url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return &infra.StatusError{Service: "gemini", Code: resp.StatusCode, Body: string(respBody)}
		}

		if err = json.Unmarshal(respBody, &result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}

		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	if result.Error != nil {
		return nil, fmt.Errorf("gemini error: %s", result.Error.Message)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from gemini")
	}

	return result.Candidates[0].Content.Parts, nil
}
