package language

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var digitReplacer = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// letterReplacer maps Arabic code points commonly typed on Arabic
// keyboards to their Persian forms and turns ZWNJ into a plain space.
var letterReplacer = strings.NewReplacer(
	"ي", "ی", "ى", "ی", "ك", "ک", "\u200c", " ",
)

// Normalize folds presentation forms, Arabic letter variants, Persian and
// Arabic-Indic digits and whitespace so that patterns match typed input.
func Normalize(text string) string {
	text = norm.NFKC.String(text)
	text = digitReplacer.Replace(text)
	text = letterReplacer.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

type quickPattern struct {
	persian string
	english string
}

// quickPatterns translate the most common commands without a model call.
// Keys are stored in normalized form.
var quickPatterns = normalizePatterns([]quickPattern{
	{"چراغ آشپزخانه را روشن کن", "turn on the kitchen lamp"},
	{"چراغ حمام را روشن کن", "turn on the bathroom lamp"},
	{"چراغ اتاق یک را روشن کن", "turn on the room 1 lamp"},
	{"چراغ اتاق دو را روشن کن", "turn on the room 2 lamp"},
	{"چراغ آشپزخانه را خاموش کن", "turn off the kitchen lamp"},
	{"چراغ حمام را خاموش کن", "turn off the bathroom lamp"},
	{"چراغ اتاق یک را خاموش کن", "turn off the room 1 lamp"},
	{"چراغ اتاق دو را خاموش کن", "turn off the room 2 lamp"},
	{"همه چراغ‌ها را روشن کن", "turn on all lamps"},
	{"همه چراغ‌ها را خاموش کن", "turn off all lamps"},

	{"کولر اتاق یک را روشن کن", "turn on the room 1 AC"},
	{"کولر آشپزخانه را روشن کن", "turn on the kitchen AC"},
	{"کولر اتاق یک را خاموش کن", "turn off the room 1 AC"},
	{"کولر آشپزخانه را خاموش کن", "turn off the kitchen AC"},
	{"کولر را روشن کن", "turn on the AC"},
	{"کولر را خاموش کن", "turn off the AC"},

	{"تلویزیون را روشن کن", "turn on the TV"},
	{"تلویزیون را خاموش کن", "turn off the TV"},
	{"تی وی را روشن کن", "turn on the TV"},
	{"تی وی را خاموش کن", "turn off the TV"},

	{"همه دستگاه‌ها را خاموش کن", "turn off all devices"},
	{"تمام دستگاه‌ها را خاموش کن", "turn off all devices"},

	{"وضعیت دستگاه‌ها چیه", "what is the status of all devices"},
	{"وضعیت دستگاه‌ها را نشان بده", "show device status"},
	{"دستگاه‌ها چطورن", "how are the devices"},

	{"الان ساعت چنده", "what time is it now"},
	{"ساعت چنده", "what time is it"},
	{"وقت چیه", "what time is it"},
	{"زمان چقدره", "what time is it"},
})

func normalizePatterns(patterns []quickPattern) []quickPattern {
	for i := range patterns {
		patterns[i].persian = Normalize(patterns[i].persian)
	}
	return patterns
}

type regexPattern struct {
	re      *regexp.Regexp
	english string
}

var regexPatterns = []regexPattern{
	{regexp.MustCompile(`کولر را روی (\d+) درجه تنظیم کن`), "set AC to $1 degrees"},
	{regexp.MustCompile(`کولر (.+) را روی (\d+) درجه تنظیم کن`), "set $1 AC to $2 degrees"},
	{regexp.MustCompile(`دما را روی (\d+) تنظیم کن`), "set temperature to $1"},
	{regexp.MustCompile(`چراغ را روی (\d+) درصد روشنی تنظیم کن`), "set lamp to $1% brightness"},
	{regexp.MustCompile(`چراغ (.+) را روی (\d+) درصد تنظیم کن`), "set $1 lamp to $2% brightness"},
	{regexp.MustCompile(`روشنی چراغ را (\d+) درصد کن`), "set lamp brightness to $1%"},
}

var locationReplacer = strings.NewReplacer(
	"اتاق یک", "room 1",
	"اتاق دو", "room 2",
	"اتاق 1", "room 1",
	"اتاق 2", "room 2",
	"آشپزخانه", "kitchen",
	"حمام", "bathroom",
	"پذیرایی", "living room",
)

// matchLocal tries the quick patterns and the regex patterns on normalized
// Persian text. It returns false when a model translation is needed.
func matchLocal(normalized string) (string, bool) {
	for _, p := range quickPatterns {
		if strings.Contains(normalized, p.persian) {
			return p.english, true
		}
	}

	for _, p := range regexPatterns {
		m := p.re.FindStringSubmatchIndex(normalized)
		if m == nil {
			continue
		}
		out := p.re.ExpandString(nil, p.english, normalized, m)
		return locationReplacer.Replace(string(out)), true
	}

	return "", false
}
