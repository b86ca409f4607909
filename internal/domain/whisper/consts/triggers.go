package consts

import "strings"

// Trigger words that start a whisper when sent as a reply in a group.
// Matching is done on the normalized message text.
var TriggerWords = []string{
	"whisper",
	"نجوا",
	"درگوشی",
	"سکرت",
}

const zwnj = "‌"

// NormalizeTrigger lowercases the text, strips slashes, zero-width
// joiners and a trailing @botusername mention, and trims whitespace
func NormalizeTrigger(text, botUsername string) string {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, zwnj, "")
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ToLower(s)
	if botUsername != "" {
		s = strings.TrimSuffix(s, "@"+strings.ToLower(botUsername))
		s = strings.TrimSpace(s)
	}
	return s
}

// IsTrigger reports whether the text is one of the whisper trigger words
func IsTrigger(text, botUsername string) bool {
	normalized := NormalizeTrigger(text, botUsername)
	for _, w := range TriggerWords {
		if normalized == w {
			return true
		}
	}
	return false
}
