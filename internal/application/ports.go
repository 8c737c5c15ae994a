package application

import (
	"context"

	"smart-home-assistant/internal/domain"
	"smart-home-assistant/internal/executor"
	"smart-home-assistant/internal/language"
	"smart-home-assistant/internal/response"
)

type LanguageService interface {
	Detect(text string) domain.Language
	ToEnglish(ctx context.Context, text string) language.Translation
}

type IntentResolver interface {
	Resolve(ctx context.Context, text string, snapshot []domain.Device) (domain.ActionRequest, error)
}

type CommandExecutor interface {
	Execute(req domain.ActionRequest, devices executor.Devices) domain.ActionResult
}

type ResponseRenderer interface {
	RenderResult(ctx context.Context, result domain.ActionResult, target domain.Language) response.Reply
	RenderError(ctx context.Context, err error, target domain.Language) response.Reply
}
