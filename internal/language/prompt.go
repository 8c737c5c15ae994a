package language

import "smart-home-assistant/internal/domain"

const toPersianPrompt = `You are a translator. Translate the English text to natural, conversational Persian.
Keep emojis, numbers and device names where they are.

Examples:
"Kitchen Lamp turned on" -> "چراغ آشپزخانه روشن شد"
"AC temperature set to 22°C" -> "دمای کولر روی ۲۲ درجه تنظیم شد"

Output ONLY the Persian translation.`

const toEnglishPrompt = `You are a translator. Translate the Persian smart home command to natural English.

Examples:
"چراغ آشپزخانه را روشن کن" -> "turn on the kitchen lamp"
"کولر را روی ۲۲ درجه تنظیم کن" -> "set AC to 22 degrees"

Output ONLY the English translation.`

// TranslationPrompt returns the system instructions a model-backed
// Translator sends for the given direction.
func TranslationPrompt(from, to domain.Language) string {
	if to == domain.LanguagePersian {
		return toPersianPrompt
	}
	return toEnglishPrompt
}
