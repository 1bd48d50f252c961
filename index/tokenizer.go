package index

import "strings"

// Tokenizer turns text into the terms used for keyword ranking.
// It is a pluggable collaborator: the sparse index depends only on this
// capability contract, not on a specific tokenization scheme.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Stop words filtered out during tokenization
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// DefaultTokenizer lowercases, trims punctuation, and removes stop words.
type DefaultTokenizer struct{}

var _ Tokenizer = DefaultTokenizer{}

// Tokenize splits text into cleaned terms.
func (DefaultTokenizer) Tokenize(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}
