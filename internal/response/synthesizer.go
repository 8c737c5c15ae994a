// Package response turns execution results and resolution errors into the
// single text reply a user sees, in the language they spoke.
package response

import (
	"context"
	"log/slog"

	"smart-home-assistant/internal/domain"
	"smart-home-assistant/internal/language"
)

// Translator is satisfied by *language.Service.
type Translator interface {
	Translate(ctx context.Context, text string, from, to domain.Language) language.Translation
}

// Reply is the rendered answer. English always holds the untranslated
// template so a failed translation can fall back to it.
type Reply struct {
	Text     string
	English  string
	Success  bool
	Language domain.Language
	Degraded bool
}

type Synthesizer struct {
	translator Translator
	logger     *slog.Logger
}

func New(translator Translator, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		translator: translator,
		logger:     logger,
	}
}

// English renders a result with the fixed English templates.
func English(result domain.ActionResult) string {
	switch {
	case result.RenderedSummary != "":
		return result.RenderedSummary
	case result.Err != nil:
		return domain.Explain(result.Err)
	case result.Success:
		return "✅ Done"
	}
	return "❌ Nothing was changed"
}

func (s *Synthesizer) RenderResult(ctx context.Context, result domain.ActionResult, target domain.Language) Reply {
	return s.render(ctx, English(result), result.Success, target)
}

// RenderError renders a failure that happened before execution, such as an
// ambiguous selector or an unreachable model.
func (s *Synthesizer) RenderError(ctx context.Context, err error, target domain.Language) Reply {
	return s.render(ctx, domain.Explain(err), false, target)
}

func (s *Synthesizer) render(ctx context.Context, english string, success bool, target domain.Language) Reply {
	reply := Reply{
		Text:     english,
		English:  english,
		Success:  success,
		Language: domain.LanguageEnglish,
	}
	if target != domain.LanguagePersian || s.translator == nil {
		return reply
	}

	t := s.translator.Translate(ctx, english, domain.LanguageEnglish, domain.LanguagePersian)
	if t.Degraded() {
		s.logger.Warn("reply left in english", "error", t.Err)
		reply.Degraded = true
		return reply
	}
	if t.Translated {
		reply.Text = t.Text
		reply.Language = domain.LanguagePersian
	}
	return reply
}
