package inference

import "strings"

// EstimateTokens gives a rough token count from word count. Exact
// tokenization is not required: the count only feeds page metadata.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	// Roughly 0.75 tokens per word for English text.
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
