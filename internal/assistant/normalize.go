package assistant

import "strings"

// numberWords maps spoken number terms to digit strings. Cardinals and
// ordinals are replaced wherever they appear.
var numberWords = map[string]string{
	"one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
	"six": "6", "seven": "7", "eight": "8", "nine": "9", "ten": "10",
	"first": "1", "second": "2", "third": "3", "fourth": "4", "fifth": "5",
	"sixth": "6", "seventh": "7", "eighth": "8", "ninth": "9", "tenth": "10",
}

// homophones are words transcription engines commonly emit in place of
// numbers ("read email to" for "read email two"). Unlike numberWords
// these have legitimate non-numeric uses, so they are only substituted
// when the preceding word is a numeric trigger.
var homophones = map[string]string{
	"to": "2", "too": "2", "for": "4", "fore": "4", "ate": "8", "won": "1",
}

// homophoneTriggers are the words after which a homophone is taken to
// mean a number.
var homophoneTriggers = map[string]bool{
	"read":    true,
	"open":    true,
	"email":   true,
	"mail":    true,
	"message": true,
	"number":  true,
	"#":       true,
}

// Normalize lower-cases the utterance and canonicalizes spoken number
// forms into digits. Pure function; always returns a string. The
// homophone table is a best-effort heuristic for transcription errors,
// scoped to follow trigger words so that "reply to john" survives
// intact.
func Normalize(raw string) string {
	words := strings.Fields(strings.ToLower(raw))

	prev := ""
	for i, w := range words {
		core, trailing := splitTrailingPunct(w)

		if digit, ok := numberWords[core]; ok {
			words[i] = digit + trailing
			prev = digit
			continue
		}
		if digit, ok := homophones[core]; ok && homophoneTriggers[prev] {
			words[i] = digit + trailing
			prev = digit
			continue
		}
		prev = core
	}

	return strings.Join(words, " ")
}

// splitTrailingPunct separates trailing punctuation so "two?" still
// matches the number table.
func splitTrailingPunct(w string) (core, trailing string) {
	end := len(w)
	for end > 0 {
		switch w[end-1] {
		case '.', ',', '!', '?', ';', ':':
			end--
		default:
			return w[:end], w[end:]
		}
	}
	return "", w
}
