package lexicon

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
)

// Token is the canonical identifier for one symptom concept.
type Token string

// Lexicon maps free-text symptom phrases to canonical tokens.
// It is built once at startup and is read-only afterwards.
type Lexicon struct {
	synonyms map[string]Token
	tokens   map[Token]bool
}

// New builds a lexicon from a phrase -> token synonym table.
// Phrases are normalized (lowercased, trimmed) on the way in.
func New(entries map[string]Token) (*Lexicon, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("lexicon has no synonym entries")
	}

	synonyms := make(map[string]Token, len(entries))
	tokens := make(map[Token]bool)

	for phrase, token := range entries {
		normalized := normalizePhrase(phrase)
		if normalized == "" {
			return nil, fmt.Errorf("empty synonym phrase for token %q", token)
		}
		if token == "" {
			return nil, fmt.Errorf("synonym %q maps to empty token", phrase)
		}
		if existing, ok := synonyms[normalized]; ok && existing != token {
			return nil, fmt.Errorf("synonym %q maps to both %q and %q", normalized, existing, token)
		}
		synonyms[normalized] = token
		tokens[token] = true
	}

	return &Lexicon{synonyms: synonyms, tokens: tokens}, nil
}

// LoadFile loads a lexicon from a JSON file of the form
// {"fever": "FEVER", "high temperature": "FEVER", ...}.
func LoadFile(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}

	var entries map[string]Token
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon file: %w", err)
	}

	return New(entries)
}

// Normalize extracts the distinct symptom tokens recognized in free text.
// Candidates are single words and two-word windows, matched case-insensitively
// against the synonym table. Unrecognized candidates are skipped silently;
// an empty result means "no recognizable symptom" and is not an error.
// Bigram matches win over their component words so that "stomach ache" does
// not also surface a token for a bare "ache" entry.
func (l *Lexicon) Normalize(text string) []Token {
	words := splitWords(text)
	if len(words) == 0 {
		return nil
	}

	found := make(map[Token]bool)
	claimed := make([]bool, len(words))

	// Bigram windows first
	for i := 0; i+1 < len(words); i++ {
		phrase := words[i] + " " + words[i+1]
		if token, ok := l.synonyms[phrase]; ok {
			found[token] = true
			claimed[i] = true
			claimed[i+1] = true
		}
	}

	// Remaining single words
	for i, word := range words {
		if claimed[i] {
			continue
		}
		if token, ok := l.synonyms[word]; ok {
			found[token] = true
		}
	}

	if len(found) == 0 {
		return nil
	}

	tokens := make([]Token, 0, len(found))
	for token := range found {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })

	return tokens
}

// HasToken reports whether a canonical token is defined in the lexicon.
// Used by the catalog to validate disease records at load time.
func (l *Lexicon) HasToken(token Token) bool {
	return l.tokens[token]
}

// Size returns the number of synonym entries.
func (l *Lexicon) Size() int {
	return len(l.synonyms)
}

func normalizePhrase(phrase string) string {
	return strings.Join(splitWords(phrase), " ")
}

func splitWords(text string) []string {
	lower := strings.ToLower(text)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
