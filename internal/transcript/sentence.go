package transcript

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	pronounIPattern = regexp.MustCompile(`\bi('(m|d|ll|ve|re|s))?\b`)

	// Tokens whose trailing period does not end a sentence.
	nonTerminalAbbreviations = map[string]struct{}{
		"e.g": {}, "i.e": {}, "cf": {}, "vs": {}, "etc": {},
		"dr": {}, "mr": {}, "mrs": {}, "ms": {}, "prof": {}, "sr": {}, "jr": {},
		"approx": {}, "dept": {}, "no": {}, "inc": {}, "st": {},
	}
)

func capitalizeSentences(text string) string {
	runes := []rune(text)
	capitalizeNext := true

	for i, r := range runes {
		if capitalizeNext && unicode.IsLetter(r) {
			if !lowercaseLead(runes, i) {
				runes[i] = unicode.ToUpper(r)
			}
			capitalizeNext = false
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			capitalizeNext = false
			continue
		}
		switch r {
		case '!', '?':
			capitalizeNext = true
		case '.':
			capitalizeNext = periodEndsSentence(runes, i)
		}
	}

	return capitalizePronounI(string(runes))
}

// capitalizePronounI upper-cases standalone "i" and its contractions, leaving
// dotted forms like "i.e." alone.
func capitalizePronounI(text string) string {
	matches := pronounIPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var out strings.Builder
	out.Grow(len(text))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		out.WriteString(text[last:start])
		if end+1 < len(text) && text[end] == '.' && unicode.IsLetter(rune(text[end+1])) {
			out.WriteString(text[start:end])
		} else {
			out.WriteString("I" + text[start+1:end])
		}
		last = end
	}
	out.WriteString(text[last:])
	return out.String()
}

// periodEndsSentence rejects decimals, dotted initialisms, and known abbreviations.
func periodEndsSentence(runes []rune, idx int) bool {
	if idx+1 < len(runes) && !unicode.IsSpace(runes[idx+1]) && runes[idx+1] != '"' && runes[idx+1] != ')' {
		return false
	}

	start := idx
	for start > 0 && (unicode.IsLetter(runes[start-1]) || runes[start-1] == '.') {
		start--
	}
	token := strings.ToLower(string(runes[start:idx]))
	if _, ok := nonTerminalAbbreviations[token]; ok {
		return false
	}
	// Single-letter initialism like "J. Smith" but not the pronoun "I."
	if len([]rune(token)) == 1 && token != "i" {
		return false
	}
	return true
}

func lowercaseLead(runes []rune, idx int) bool {
	end := idx
	for end < len(runes) && (unicode.IsLetter(runes[end]) || runes[end] == '.') {
		end++
	}
	token := strings.TrimSuffix(strings.ToLower(string(runes[idx:end])), ".")
	return token == "e.g" || token == "i.e" || token == "etc" || token == "vs"
}
