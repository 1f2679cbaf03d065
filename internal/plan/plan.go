package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// MedicineDepth controls how much medicine information a plan tier may see.
type MedicineDepth string

const (
	DepthNames  MedicineDepth = "names"            // names only
	DepthPrices MedicineDepth = "names_price"      // names + price range
	DepthFull   MedicineDepth = "names_price_link" // names + price + purchase link
)

// IncludesPrice reports whether the depth entitles the viewer to prices.
func (d MedicineDepth) IncludesPrice() bool {
	return d == DepthPrices || d == DepthFull
}

// IncludesLink reports whether the depth entitles the viewer to purchase links.
func (d MedicineDepth) IncludesLink() bool {
	return d == DepthFull
}

func (d MedicineDepth) valid() bool {
	switch d {
	case DepthNames, DepthPrices, DepthFull:
		return true
	}
	return false
}

// Limit is a usage ceiling that is either a non-negative integer or
// unlimited. In JSON it is a number or the string "unlimited".
type Limit struct {
	N         int
	Unlimited bool
}

// Reached reports whether a used count has hit the ceiling.
// An unlimited limit is never reached.
func (l Limit) Reached(used int) bool {
	return !l.Unlimited && used >= l.N
}

func (l *Limit) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "unlimited" {
			return fmt.Errorf("invalid limit %q: want a number or \"unlimited\"", s)
		}
		l.Unlimited = true
		l.N = 0
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid limit %s: want a number or \"unlimited\"", data)
	}
	if n < 0 {
		return fmt.Errorf("invalid limit %d: must be non-negative", n)
	}
	l.N = n
	l.Unlimited = false
	return nil
}

func (l Limit) MarshalJSON() ([]byte, error) {
	if l.Unlimited {
		return json.Marshal("unlimited")
	}
	return json.Marshal(l.N)
}

// Plan is one subscription tier. Plans are read-only reference data loaded
// once at process start.
type Plan struct {
	Key                 string        `json:"key"`
	Rank                int           `json:"rank"`
	Name                string        `json:"name"`
	Price               string        `json:"price"`
	MaxChatsPerDay      Limit         `json:"max_chats_per_day"`
	MaxResponsesPerChat Limit         `json:"max_responses_per_chat"`
	Languages           []string      `json:"languages"`
	MedicineDepth       MedicineDepth `json:"medicine_depth"`
	Features            []string      `json:"features"`
	Layout              string        `json:"layout"`
}

// AllowsLanguage reports whether a language code is in the plan's allowed set.
func (p *Plan) AllowsLanguage(code string) bool {
	for _, lang := range p.Languages {
		if lang == code {
			return true
		}
	}
	return false
}

// HasFeature reports whether a feature key is granted by the plan.
func (p *Plan) HasFeature(key string) bool {
	for _, f := range p.Features {
		if f == key {
			return true
		}
	}
	return false
}

// Registry holds all plan tiers, keyed by plan key, ordered by rank.
type Registry struct {
	plans map[string]*Plan
	order []*Plan
}

// NewRegistry validates and indexes a set of plans. A plan missing a
// required field is a reference-data integrity fault: the process must
// refuse to start rather than serve with a corrupt plan set.
func NewRegistry(plans []Plan) (*Registry, error) {
	if len(plans) == 0 {
		return nil, fmt.Errorf("no plans defined")
	}

	r := &Registry{plans: make(map[string]*Plan, len(plans))}
	for i := range plans {
		p := &plans[i]
		if p.Key == "" {
			return nil, fmt.Errorf("plan %q has no key", p.Name)
		}
		if p.Name == "" {
			return nil, fmt.Errorf("plan %q has no name", p.Key)
		}
		if p.Rank <= 0 {
			return nil, fmt.Errorf("plan %q has no rank", p.Key)
		}
		if len(p.Languages) == 0 {
			return nil, fmt.Errorf("plan %q has an empty language set", p.Key)
		}
		if !p.MedicineDepth.valid() {
			return nil, fmt.Errorf("plan %q has invalid medicine depth %q", p.Key, p.MedicineDepth)
		}
		if _, dup := r.plans[p.Key]; dup {
			return nil, fmt.Errorf("duplicate plan key %q", p.Key)
		}
		r.plans[p.Key] = p
		r.order = append(r.order, p)
	}

	sort.Slice(r.order, func(i, j int) bool { return r.order[i].Rank < r.order[j].Rank })

	return r, nil
}

// LoadFile loads the plan registry from a JSON array of plans.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plans file: %w", err)
	}

	var plans []Plan
	if err := json.Unmarshal(data, &plans); err != nil {
		return nil, fmt.Errorf("failed to parse plans file: %w", err)
	}

	return NewRegistry(plans)
}

// Get looks up a plan by key.
func (r *Registry) Get(key string) (*Plan, bool) {
	p, ok := r.plans[key]
	return p, ok
}

// Default returns the lowest-ranked plan, used for new users.
func (r *Registry) Default() *Plan {
	return r.order[0]
}

// List returns all plans ordered by rank.
func (r *Registry) List() []*Plan {
	return r.order
}
