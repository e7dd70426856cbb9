// Package transcript cleans recognized answer text for display and editing.
package transcript

import (
	"regexp"
	"strings"
)

// Options controls answer text normalization.
type Options struct {
	CapitalizeSentences bool
	StripFillers        bool
}

var (
	labelPrefixPattern = regexp.MustCompile(`(?i)^\s*(transcript(ion)?|answer)\s*:\s*`)
	markerPattern      = regexp.MustCompile(`(?i)[\[(](silence|inaudible|no speech|music|noise|pause)[\])]`)
	fillerPattern      = regexp.MustCompile(`(?i)(^|[\s,])(um+|uh+|erm+|ah+|hmm+)([\s,.!?]|$)`)
)

// Normalize strips recognizer artifacts, collapses whitespace, and applies
// configured casing. Output of Normalize is a fixed point.
func Normalize(raw string, opts Options) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	text = labelPrefixPattern.ReplaceAllString(text, "")
	text = unquote(strings.TrimSpace(text))
	text = markerPattern.ReplaceAllString(text, " ")
	if opts.StripFillers {
		text = stripFillers(text)
	}

	text = strings.Join(strings.Fields(text), " ")
	text = tidyPunctuationSpacing(text)
	if text == "" {
		return ""
	}

	if opts.CapitalizeSentences {
		text = capitalizeSentences(text)
	}
	return text
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// WordsPerMinute reports speaking pace; zero when duration is unknown.
func WordsPerMinute(text string, seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return WordCount(text) * 60 / seconds
}

func unquote(text string) string {
	if len(text) < 2 {
		return text
	}
	pairs := [][2]string{{`"`, `"`}, {"“", "”"}, {"'", "'"}}
	for _, p := range pairs {
		if strings.HasPrefix(text, p[0]) && strings.HasSuffix(text, p[1]) && len(text) > len(p[0])+len(p[1]) {
			inner := text[len(p[0]) : len(text)-len(p[1])]
			if !strings.Contains(inner, p[0]) {
				return strings.TrimSpace(inner)
			}
		}
	}
	return text
}

func stripFillers(text string) string {
	// Matches share boundary characters, so repeat until stable.
	for {
		next := fillerPattern.ReplaceAllString(text, "$1$3")
		if next == text {
			return text
		}
		text = next
	}
}

func tidyPunctuationSpacing(text string) string {
	for _, p := range []string{" ,", " .", " !", " ?", " ;", " :"} {
		text = strings.ReplaceAll(text, p, p[1:])
	}
	text = strings.TrimLeft(text, ",;: ")
	return strings.ReplaceAll(text, ",,", ",")
}
