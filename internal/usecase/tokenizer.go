package usecase

import (
	"regexp"
	"strings"
)

// Package-level compiled regex patterns for performance
var (
	nonAlphanumericRunRegex = regexp.MustCompile(`[^a-z0-9]+`)
	nonAlphanumericRegex    = regexp.MustCompile(`[^a-z0-9]`)
)

// stopWords are dropped from queries before scoring
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true,
}

// NormalizeCompact lowercases text and drops every character outside [a-z0-9],
// so "iPhone 11" and "iphone-11" both become "iphone11".
func NormalizeCompact(text string) string {
	return nonAlphanumericRegex.ReplaceAllString(strings.ToLower(text), "")
}

// Tokenize splits a query into ordered lowercase tokens.
// Empty tokens and stop words are dropped; duplicates are kept.
func Tokenize(query string) []string {
	parts := nonAlphanumericRunRegex.Split(strings.ToLower(query), -1)

	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || stopWords[part] {
			continue
		}
		tokens = append(tokens, part)
	}
	return tokens
}

// IsModelLike reports whether token looks like a model name: it has a letter
// directly followed by a digit or a digit directly followed by a letter
// (iphone11, s24ultra, 12pro).
func IsModelLike(token string) bool {
	for i := 1; i < len(token); i++ {
		prev, curr := token[i-1], token[i]
		if (isLetter(prev) && isDigit(curr)) || (isDigit(prev) && isLetter(curr)) {
			return true
		}
	}
	return false
}

// splitWords splits text into its alphanumeric runs
func splitWords(text string) []string {
	parts := nonAlphanumericRunRegex.Split(text, -1)
	words := parts[:0]
	for _, p := range parts {
		if p != "" {
			words = append(words, p)
		}
	}
	return words
}

// hasDigit checks if a string contains at least one ASCII digit
func hasDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			return true
		}
	}
	return false
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
