// Package bank holds the built-in interview questions and the user's own.
package bank

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Type labels how a question probes the candidate.
type Type string

const (
	TypeBackground  Type = "Background"
	TypeSituational Type = "Situational"
	TypeTechnical   Type = "Technical"
	TypeCustom      Type = "Custom"
)

// ParseType maps free-form labels to a Type. Unknown labels become Background.
func ParseType(raw string) Type {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "situational", "behavioral", "behavioural":
		return TypeSituational
	case "technical":
		return TypeTechnical
	case "custom", "custom question":
		return TypeCustom
	default:
		return TypeBackground
	}
}

const (
	CategoryUXDesign      = "UX Design"
	CategoryEngineering   = "Engineering"
	CategoryDataAnalytics = "Data Analytics"
	CategoryCybersecurity = "Cybersecurity"
	CategoryCustom        = "Custom Practice"
)

// Categories lists practice categories in menu order.
var Categories = []string{
	CategoryUXDesign,
	CategoryEngineering,
	CategoryDataAnalytics,
	CategoryCybersecurity,
	CategoryCustom,
}

// Question is immutable once handed to a session.
type Question struct {
	ID       string
	Text     string
	Category string
	Type     Type
	Answer   string
}

// Draft is a question proposed by the generator before it gets an ID.
type Draft struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// ResolveCategory matches a category case-insensitively by name or prefix.
func ResolveCategory(raw string) (string, error) {
	term := strings.ToLower(strings.TrimSpace(raw))
	if term == "" {
		return "", fmt.Errorf("category must not be empty")
	}
	var prefixed []string
	for _, c := range Categories {
		lc := strings.ToLower(c)
		if lc == term {
			return c, nil
		}
		if strings.HasPrefix(lc, term) {
			prefixed = append(prefixed, c)
		}
	}
	switch len(prefixed) {
	case 1:
		return prefixed[0], nil
	case 0:
		return "", fmt.Errorf("unknown category %q (choose one of: %s)", raw, strings.Join(Categories, ", "))
	default:
		return "", fmt.Errorf("category %q is ambiguous: %s", raw, strings.Join(prefixed, ", "))
	}
}

// Pick shuffles questions and returns at most n of them.
func Pick(questions []Question, n int, rng *rand.Rand) []Question {
	if n <= 0 || len(questions) == 0 {
		return nil
	}
	shuffled := append([]Question(nil), questions...)
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if len(shuffled) > n {
		shuffled = shuffled[:n]
	}
	return shuffled
}
