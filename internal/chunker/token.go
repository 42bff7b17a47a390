package chunker

import "strings"

// EstimateTokens approximates a token count. Prose counts about 4/3 tokens
// per word; code and long identifiers are closer to one token per four
// bytes. The larger estimate wins.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	byWords := len(strings.Fields(text)) * 4 / 3
	byBytes := len(text) / 4
	return max(byWords, byBytes, 1)
}
