package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	errUnterminatedQuote  = errors.New("unterminated quote")
	errUnterminatedEscape = errors.New("unterminated escape sequence")
)

// argvLexer splits a command line the way a POSIX shell would for plain
// words, quotes, and backslash escapes. No expansion happens.
type argvLexer struct {
	words   []string
	word    strings.Builder
	inWord  bool
	quote   rune
	escaped bool
}

func (l *argvLexer) feed(r rune) {
	switch {
	case l.escaped:
		l.escaped = false
		l.add(r)
	case r == '\\' && l.quote != '\'':
		l.escaped = true
		l.inWord = true
	case l.quote != 0 && r == l.quote:
		l.quote = 0
	case l.quote != 0:
		l.add(r)
	case r == '\'' || r == '"':
		l.quote = r
		l.inWord = true
	case unicode.IsSpace(r):
		l.end()
	default:
		l.add(r)
	}
}

func (l *argvLexer) add(r rune) {
	l.word.WriteRune(r)
	l.inWord = true
}

func (l *argvLexer) end() {
	if !l.inWord {
		return
	}
	l.words = append(l.words, l.word.String())
	l.word.Reset()
	l.inWord = false
}

// parseArgv splits a configured command. Blank input and input starting with
// '#' disable the command.
func parseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var l argvLexer
	for _, r := range input {
		l.feed(r)
	}
	switch {
	case l.escaped:
		return nil, fmt.Errorf("%w in command %q", errUnterminatedEscape, input)
	case l.quote != 0:
		return nil, fmt.Errorf("%w in command %q", errUnterminatedQuote, input)
	}
	l.end()
	return l.words, nil
}

func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic(err)
	}
	return argv
}
