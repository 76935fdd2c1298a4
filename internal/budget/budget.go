// Package budget estimates token counts and trims retrieved context so a chat
// turn fits a configured window. Responders may sit in front of backends with
// different tokenizers, so this package uses a conservative character-based
// heuristic: 1 token ≈ 4 characters (English prose and code).
package budget

import (
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the character-to-token ratio used for estimation.
	charsPerToken = 4

	// separatorTokens is charged for the newline joining two context entries.
	separatorTokens = 1
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		// Each message has a small per-message overhead (~4 tokens in most APIs).
		total += 4
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// TrimHistory removes the oldest messages from history until the total
// estimated token count of fixed + history fits within maxTokens. fixed holds
// messages that must not be dropped (the latest user message, the retrieved
// context); history holds earlier conversation turns, oldest first.
//
// If even an empty history exceeds the budget, the empty slice is returned.
// A maxTokens of zero or less disables trimming.
func TrimHistory(fixed, history []*schema.Message, maxTokens int) []*schema.Message {
	if len(history) == 0 || maxTokens <= 0 {
		return history
	}

	fixedTokens := EstimateMessages(fixed)
	for len(history) > 0 {
		if fixedTokens+EstimateMessages(history) <= maxTokens {
			break
		}
		history = history[1:]
	}
	return history
}

// FitContents drops entries from the end of contents until the estimated
// token count of the newline-joined result fits within maxTokens. contents
// must be ordered best-first, so the lowest-ranked entries go first.
// A maxTokens of zero or less disables trimming.
func FitContents(contents []string, maxTokens int) []string {
	if maxTokens <= 0 || len(contents) == 0 {
		return contents
	}

	total := 0
	for i, c := range contents {
		cost := Estimate(c)
		if i > 0 {
			cost += separatorTokens
		}
		if total+cost > maxTokens {
			return contents[:i]
		}
		total += cost
	}
	return contents
}

// Preview returns at most n runes of s. It never splits a multi-byte rune.
func Preview(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
