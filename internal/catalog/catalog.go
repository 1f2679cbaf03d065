package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/themobileprof/medimatch-be/internal/lexicon"
)

// PriceRange is a currency-tagged low/high price for a medicine.
type PriceRange struct {
	Currency string  `json:"currency"`
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
}

// Medicine describes one recommended medicine for a disease.
// Price and BuyLink are reference data; whether a viewer sees them is
// decided by the response shaper, not here.
type Medicine struct {
	Name    string      `json:"name"`
	Price   *PriceRange `json:"price,omitempty"`
	BuyLink string      `json:"buy_link,omitempty"`
}

// Localization holds the translated name and description of a disease.
type Localization struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Disease is one record in the catalog. Name and Description are the
// English defaults; Localized carries translations keyed by language code.
type Disease struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Symptoms    []lexicon.Token         `json:"symptoms"`
	Medicines   []Medicine              `json:"medicines"`
	Localized   map[string]Localization `json:"localized,omitempty"`
	Advice      []string                `json:"advice,omitempty"`
}

// Catalog is the immutable disease reference data, loaded once at startup.
type Catalog struct {
	diseases []Disease
	byID     map[string]*Disease
}

// New builds a catalog and checks structural invariants that do not need
// the lexicon: unique non-empty IDs, non-empty symptom sets.
func New(diseases []Disease) (*Catalog, error) {
	if len(diseases) == 0 {
		return nil, fmt.Errorf("catalog has no diseases")
	}

	c := &Catalog{
		diseases: diseases,
		byID:     make(map[string]*Disease, len(diseases)),
	}

	for i := range c.diseases {
		d := &c.diseases[i]
		if d.ID == "" {
			return nil, fmt.Errorf("disease %q has no id", d.Name)
		}
		if d.Name == "" {
			return nil, fmt.Errorf("disease %q has no name", d.ID)
		}
		if len(d.Symptoms) == 0 {
			return nil, fmt.Errorf("disease %q has an empty symptom set", d.ID)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate disease id %q", d.ID)
		}
		c.byID[d.ID] = d
	}

	return c, nil
}

// LoadFile loads the catalog from a JSON array of disease records.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var diseases []Disease
	if err := json.Unmarshal(data, &diseases); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	return New(diseases)
}

// Validate cross-checks every required symptom token against the lexicon.
// A disease referencing an undefined token is a reference-data integrity
// fault: the caller must refuse to start rather than serve a corrupt catalog.
func (c *Catalog) Validate(lex *lexicon.Lexicon) error {
	for _, d := range c.diseases {
		for _, token := range d.Symptoms {
			if !lex.HasToken(token) {
				return fmt.Errorf("disease %q requires undefined symptom token %q", d.ID, token)
			}
		}
	}
	return nil
}

// Diseases returns all disease records.
func (c *Catalog) Diseases() []Disease {
	return c.diseases
}

// ByID looks up a disease record by identifier.
func (c *Catalog) ByID(id string) (*Disease, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// Localize returns the disease name and description for a language.
// The second return value reports whether the English default was used
// because no translation exists; the caller decides how to surface that.
func (d *Disease) Localize(language string) (Localization, bool) {
	if loc, ok := d.Localized[language]; ok && loc.Name != "" {
		return loc, false
	}
	return Localization{Name: d.Name, Description: d.Description}, true
}
