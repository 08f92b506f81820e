package game

import (
	"strings"
	"unicode/utf8"
)

const (
	minNameLength     = 2
	maxNameLength     = 24
	minTokenLength    = 8
	maxTokenLength    = 128
	minCardTextLength = 2
	maxCardTextLength = 48
)

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// normalizeText trims and collapses internal whitespace runs to a single
// space.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func validatePlayerName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if length := utf8.RuneCountInString(trimmed); length < minNameLength || length > maxNameLength {
		return "", invalidInput("name must be between %d and %d characters", minNameLength, maxNameLength)
	}
	return trimmed, nil
}

func validatePlayerToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if length := len(trimmed); length < minTokenLength || length > maxTokenLength {
		return "", invalidInput("invalid player token")
	}
	return trimmed, nil
}
