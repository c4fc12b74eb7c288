package tokenizer

import "unicode/utf8"

// charsPerToken is the rough English average used when a provider does not
// report usage.
const charsPerToken = 4

// EstimateTokens returns ceil(len(text)/4), counting characters rather than bytes.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + charsPerToken - 1) / charsPerToken
}
