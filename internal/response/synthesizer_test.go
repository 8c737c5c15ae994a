package response_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"smart-home-assistant/internal/domain"
	"smart-home-assistant/internal/language"
	"smart-home-assistant/internal/response"
)

// phrasebook translates whole sentences it knows and fails on the rest.
type phrasebook map[string]string

func (p phrasebook) Translate(_ context.Context, text string, _, _ domain.Language) (string, error) {
	if out, ok := p[text]; ok {
		return out, nil
	}
	return "", errors.New("unknown phrase")
}

func newSynthesizer(tr language.Translator) *response.Synthesizer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return response.New(language.NewService(tr, time.Second, logger), logger)
}

func TestRenderResult_English(t *testing.T) {
	s := newSynthesizer(nil)
	result := domain.ActionResult{Success: true, RenderedSummary: "✅ Kitchen Lamp turned on"}

	reply := s.RenderResult(context.Background(), result, domain.LanguageEnglish)

	if reply.Text != "✅ Kitchen Lamp turned on" || !reply.Success || reply.Degraded {
		t.Errorf("got %+v", reply)
	}
}

func TestRenderError_Templates(t *testing.T) {
	s := newSynthesizer(nil)

	tests := []struct {
		err  error
		want string
	}{
		{
			&domain.ValidationError{Field: "temperature", Reason: domain.ReasonOutOfRange, Value: 50, Allowed: "16-30°C"},
			"❌ Invalid temperature. Please use 16-30°C",
		},
		{
			&domain.IntentError{Kind: domain.KindAmbiguous, Candidates: []string{"Room 1 AC", "Kitchen AC"}},
			"❓ Which one do you mean: Room 1 AC, Kitchen AC?",
		},
		{
			&domain.IntentError{Kind: domain.KindServiceUnavailable, Err: context.DeadlineExceeded},
			"😔 Sorry, I can't understand commands right now. Please try again in a moment.",
		},
		{
			&domain.IntentError{Kind: domain.KindUnactionable},
			"🤔 Sorry, I can only help with your lamps, air conditioners and TV.",
		},
		{
			&domain.NotFoundError{ID: "garage_lamp"},
			"❌ Device 'garage_lamp' not found",
		},
	}

	for _, tt := range tests {
		reply := s.RenderError(context.Background(), tt.err, domain.LanguageEnglish)
		if reply.Success {
			t.Errorf("%v: error reply marked successful", tt.err)
		}
		if reply.Text != tt.want {
			t.Errorf("%v: got %q, want %q", tt.err, reply.Text, tt.want)
		}
	}
}

func TestRenderResult_FailedResultUsesError(t *testing.T) {
	s := newSynthesizer(nil)
	result := domain.Failed(&domain.ValidationError{Field: "power", Reason: domain.ReasonDeviceOff, Device: "Kitchen Lamp"})

	reply := s.RenderResult(context.Background(), result, domain.LanguageEnglish)

	if reply.Text != "❌ Kitchen Lamp is off. Turn it on first" {
		t.Errorf("got %q", reply.Text)
	}
}

func TestRenderResult_PersianRoundTrip(t *testing.T) {
	book := phrasebook{
		"✅ Kitchen Lamp turned on":   "✅ چراغ آشپزخانه (Kitchen Lamp) روشن شد",
		"✅ چراغ آشپزخانه (Kitchen Lamp) روشن شد": "✅ Kitchen Lamp is now on",
	}
	s := newSynthesizer(book)
	result := domain.ActionResult{Success: true, RenderedSummary: "✅ Kitchen Lamp turned on"}

	reply := s.RenderResult(context.Background(), result, domain.LanguagePersian)
	if reply.Language != domain.LanguagePersian || reply.Degraded {
		t.Fatalf("got %+v, want persian reply", reply)
	}
	if language.Detect(reply.Text) != domain.LanguagePersian {
		t.Errorf("reply %q is not persian", reply.Text)
	}

	back, _ := book.Translate(context.Background(), reply.Text, domain.LanguagePersian, domain.LanguageEnglish)
	for _, token := range []string{"✅", "Kitchen Lamp", "on"} {
		if !strings.Contains(back, token) {
			t.Errorf("round trip %q lost %q", back, token)
		}
	}
}

func TestRenderResult_TranslationFailureFallsBackToEnglish(t *testing.T) {
	s := newSynthesizer(phrasebook{})
	result := domain.ActionResult{Success: true, RenderedSummary: "🔌 Kitchen Lamp turned off"}

	reply := s.RenderResult(context.Background(), result, domain.LanguagePersian)

	if reply.Text != "🔌 Kitchen Lamp turned off" {
		t.Errorf("Text: got %q, want english fallback", reply.Text)
	}
	if !reply.Degraded || reply.Language != domain.LanguageEnglish {
		t.Errorf("got %+v, want degraded english reply", reply)
	}
}
