package domain

import (
	"strings"
	"time"
)

type Language string

const (
	LanguageEnglish Language = "english"
	LanguagePersian Language = "persian"
)

// ParseLanguage maps a caller hint to a language. "auto", "" and unknown
// hints return false so the caller falls back to detection.
func ParseLanguage(hint string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "en", "english":
		return LanguageEnglish, true
	case "fa", "persian", "farsi":
		return LanguagePersian, true
	}
	return "", false
}

type ConversationTurn struct {
	ID               string
	InputText        string
	DetectedLanguage Language
	ResponseText     string
	Success          bool
	Timestamp        time.Time
}
