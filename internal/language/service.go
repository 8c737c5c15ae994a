// Package language detects whether a command is English or Persian and
// translates between the two. Translation is delegated to an external
// collaborator; when it fails the original text passes through and the
// result says so.
package language

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"smart-home-assistant/internal/domain"
)

// Translator is the external translation capability.
type Translator interface {
	Translate(ctx context.Context, text string, from, to domain.Language) (string, error)
}

// Method tells how a translation was produced.
type Method string

const (
	MethodNone    Method = "none"
	MethodPattern Method = "pattern"
	MethodModel   Method = "model"
)

// Translation is the outcome of one translation attempt. When Translated is
// false, Text holds the original input.
type Translation struct {
	Text       string
	Translated bool
	Method     Method
	Err        error
}

// Degraded reports a translation that was needed but could not be made.
func (t Translation) Degraded() bool {
	return !t.Translated && t.Err != nil
}

type Service struct {
	translator Translator
	timeout    time.Duration
	logger     *slog.Logger
}

func NewService(translator Translator, timeout time.Duration, logger *slog.Logger) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		translator: translator,
		timeout:    timeout,
		logger:     logger,
	}
}

func (s *Service) Detect(text string) domain.Language {
	return Detect(text)
}

// ToEnglish prepares a Persian command for intent resolution: digits and
// letter variants are normalized, local patterns are tried, and the model
// is asked only when nothing matched.
func (s *Service) ToEnglish(ctx context.Context, text string) Translation {
	normalized := Normalize(text)

	if english, ok := matchLocal(normalized); ok {
		s.logger.Debug("quick pattern match", "input", text, "english", english)
		return Translation{Text: english, Translated: true, Method: MethodPattern}
	}

	t := s.Translate(ctx, normalized, domain.LanguagePersian, domain.LanguageEnglish)
	if !t.Translated {
		t.Text = text
	}
	return t
}

// Translate asks the external translator. Failures never escape: the
// original text is returned with Translated=false and Err set.
func (s *Service) Translate(ctx context.Context, text string, from, to domain.Language) Translation {
	if from == to || strings.TrimSpace(text) == "" {
		return Translation{Text: text, Method: MethodNone}
	}

	if s.translator == nil {
		return s.degraded(text, errors.New("no translator configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.translator.Translate(ctx, text, from, to)
	if err != nil {
		return s.degraded(text, err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return s.degraded(text, errors.New("empty translation"))
	}

	return Translation{Text: out, Translated: true, Method: MethodModel}
}

func (s *Service) degraded(text string, err error) Translation {
	s.logger.Warn("translation unavailable, passing text through", "error", err)
	return Translation{
		Text:   text,
		Method: MethodNone,
		Err:    &domain.UnavailableError{Service: "translation", Err: err},
	}
}
