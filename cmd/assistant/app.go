package main

import (
	"context"
	"fmt"
	"log/slog"

	"smart-home-assistant/config"
	"smart-home-assistant/internal/application"
	"smart-home-assistant/internal/capability"
	"smart-home-assistant/internal/executor"
	"smart-home-assistant/internal/infra/anthropic"
	"smart-home-assistant/internal/infra/gemini"
	"smart-home-assistant/internal/infra/homeassistant"
	"smart-home-assistant/internal/infra/openai"
	"smart-home-assistant/internal/infra/pushover"
	"smart-home-assistant/internal/intent"
	"smart-home-assistant/internal/language"
	"smart-home-assistant/internal/registry"
	"smart-home-assistant/internal/response"
)

// llmClient serves both intent function calling and translation.
type llmClient interface {
	intent.FunctionCaller
	language.Translator
}

type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *registry.Registry
	assistant *application.Assistant
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	inventory := registry.Inventory{
		Lamps:           cfg.Devices.Lamps,
		AirConditioners: cfg.Devices.AirConditioners,
		Televisions:     cfg.Devices.Televisions,
	}
	reg, err := registry.New(inventory.Devices(), logger)
	if err != nil {
		return nil, fmt.Errorf("creating device registry: %w", err)
	}

	llm, err := newLLMClient(cfg.LLM)
	if err != nil {
		return nil, err
	}
	if cfg.LLM.APIKey == "" {
		logger.Warn("llm.api_key is empty; commands that need the model will fail", "provider", cfg.LLM.Provider)
	}

	schema := capability.New()
	lang := language.NewService(llm, cfg.LLM.TranslationTimeout, logger)

	assistant := application.NewAssistant(
		lang,
		intent.NewResolver(llm, schema, cfg.LLM.Timeout, logger),
		executor.New(schema, nil, logger),
		response.New(lang, logger),
		reg,
		newNotifier(cfg),
		cfg.Session.MaxHistory,
		logger,
	)

	logger.Info("assistant ready",
		"provider", cfg.LLM.Provider,
		"devices", len(reg.List("")),
	)

	return &app{cfg: cfg, logger: logger, registry: reg, assistant: assistant}, nil
}

func newLLMClient(cfg config.LLMConfig) (llmClient, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewChatClientWithURL(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case "anthropic":
		if cfg.BaseURL != "" {
			return anthropic.NewClaudeClientWithURL(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
		}
		return anthropic.NewClaudeClient(cfg.APIKey, cfg.Model), nil
	case "gemini":
		if cfg.BaseURL != "" {
			return gemini.NewClientWithURL(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
		}
		return gemini.NewClient(cfg.APIKey, cfg.Model), nil
	}
	return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
}

func newNotifier(cfg *config.Config) application.Notifier {
	var notifiers application.MultiNotifier
	if cfg.Pushover.Enabled {
		notifiers = append(notifiers, pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey, cfg.Pushover.Title))
	}
	if cfg.HomeAssistant.Enabled {
		notifiers = append(notifiers, homeassistant.NewClient(cfg.HomeAssistant.URL, cfg.HomeAssistant.Token, ""))
	}

	switch len(notifiers) {
	case 0:
		return &application.NoopNotifier{}
	case 1:
		return notifiers[0]
	}
	return notifiers
}

// shutdown powers every device off, as the assistant does on every exit.
func (a *app) shutdown(ctx context.Context) {
	result := a.assistant.Shutdown(ctx)
	if !result.Success {
		a.logger.Warn("shutdown left devices on", "error", result.Err)
	}
}
