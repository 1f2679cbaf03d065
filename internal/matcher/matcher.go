package matcher

import (
	"sort"

	"github.com/themobileprof/medimatch-be/internal/catalog"
	"github.com/themobileprof/medimatch-be/internal/lexicon"
)

// Candidate pairs a disease with its match score: the number of the
// disease's required symptoms present in the input token set.
type Candidate struct {
	Disease *catalog.Disease `json:"disease"`
	Score   int              `json:"score"`
}

// Matcher scores diseases against a set of canonical symptom tokens.
type Matcher struct {
	catalog *catalog.Catalog
}

// New creates a matcher over an immutable catalog.
func New(c *catalog.Catalog) *Matcher {
	return &Matcher{catalog: c}
}

// Match scores every disease by set intersection with the input tokens.
// Diseases with score zero are excluded. Ordering is score descending,
// tie-broken by disease ID ascending, so the result is deterministic
// regardless of catalog storage order. An empty result is a normal
// "no match" outcome, not a failure.
func (m *Matcher) Match(tokens []lexicon.Token) []Candidate {
	if len(tokens) == 0 {
		return nil
	}

	have := make(map[lexicon.Token]bool, len(tokens))
	for _, t := range tokens {
		have[t] = true
	}

	diseases := m.catalog.Diseases()
	candidates := make([]Candidate, 0, len(diseases))
	for i := range diseases {
		d := &diseases[i]
		score := 0
		for _, required := range d.Symptoms {
			if have[required] {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, Candidate{Disease: d, Score: score})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Disease.ID < candidates[j].Disease.ID
	})

	return candidates
}
