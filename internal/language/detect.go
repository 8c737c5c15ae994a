package language

import (
	"strings"
	"unicode"

	"smart-home-assistant/internal/domain"
)

// persianShare is the fraction of letters above which text counts as Persian.
const persianShare = 0.3

var persianRanges = []*unicode.RangeTable{
	{R16: []unicode.Range16{
		{Lo: 0x0600, Hi: 0x06FF, Stride: 1},
		{Lo: 0xFB50, Hi: 0xFDFF, Stride: 1},
		{Lo: 0xFE70, Hi: 0xFEFF, Stride: 1},
	}},
}

// indicatorWords mark Persian even in mostly-Latin input,
// e.g. "kitchen lamp روشن".
var indicatorWords = []string{
	"روشن", "خاموش", "چراغ", "تلویزیون", "کولر", "هوا", "خبر", "وقت", "ساعت",
	"دما", "درجه", "کانال", "صدا", "رنگ", "صبح", "شب", "آشپزخانه", "حمام",
	"اتاق", "پذیرایی", "سلام", "چطور", "چی", "چه", "کن", "بده", "همه", "تمام",
}

// Detect classifies text as English or Persian. Empty and pure-Latin input
// is English.
func Detect(text string) domain.Language {
	if strings.TrimSpace(text) == "" {
		return domain.LanguageEnglish
	}

	var letters, persian int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.In(r, persianRanges...) {
			persian++
		}
	}

	if letters > 0 && float64(persian)/float64(letters) > persianShare {
		return domain.LanguagePersian
	}

	if persian > 0 {
		for _, w := range indicatorWords {
			if strings.Contains(text, w) {
				return domain.LanguagePersian
			}
		}
	}

	return domain.LanguageEnglish
}
