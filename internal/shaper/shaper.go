package shaper

import (
	"errors"
	"log"

	"github.com/themobileprof/medimatch-be/internal/catalog"
	"github.com/themobileprof/medimatch-be/internal/matcher"
	"github.com/themobileprof/medimatch-be/internal/plan"
)

// DefaultLanguage is the fallback for disease localizations.
const DefaultLanguage = "en"

// ErrLanguageNotEntitled is returned when the requested language is outside
// the plan's allowed set. It is an entitlement denial, not a server fault.
var ErrLanguageNotEntitled = errors.New("language not entitled for plan")

// MedicineView is a medicine filtered to what the viewer's plan may see.
type MedicineView struct {
	Name    string              `json:"name"`
	Price   *catalog.PriceRange `json:"price,omitempty"`
	BuyLink string              `json:"buy_link,omitempty"`
}

// Response is the plan-filtered payload for one chat turn.
type Response struct {
	Matched          bool           `json:"matched"`
	DiseaseID        string         `json:"disease_id,omitempty"`
	DiseaseName      string         `json:"disease_name,omitempty"`
	Description      string         `json:"description,omitempty"`
	Score            int            `json:"score,omitempty"`
	Medicines        []MedicineView `json:"medicines,omitempty"`
	Advice           []string       `json:"advice,omitempty"`
	Language         string         `json:"language"`
	LanguageFallback bool           `json:"language_fallback,omitempty"`
}

// Shape filters a match result down to what the plan entitles the viewer
// to see in the requested language. The language entitlement check runs
// first; an empty match result produces an explicit unmatched payload.
func Shape(result []matcher.Candidate, p *plan.Plan, language string) (*Response, error) {
	if !p.AllowsLanguage(language) {
		return nil, ErrLanguageNotEntitled
	}

	if len(result) == 0 {
		return &Response{Matched: false, Language: language}, nil
	}

	top := result[0]
	loc, usedDefault := top.Disease.Localize(language)
	fallback := usedDefault && language != DefaultLanguage
	if fallback {
		log.Printf("shaper: no %q localization for disease %s, falling back to %s",
			language, top.Disease.ID, DefaultLanguage)
	}

	resp := &Response{
		Matched:          true,
		DiseaseID:        top.Disease.ID,
		DiseaseName:      loc.Name,
		Description:      loc.Description,
		Score:            top.Score,
		Medicines:        shapeMedicines(top.Disease.Medicines, p.MedicineDepth),
		Language:         language,
		LanguageFallback: fallback,
	}

	if p.HasFeature("care_advice") {
		resp.Advice = top.Disease.Advice
	}

	return resp, nil
}

func shapeMedicines(medicines []catalog.Medicine, depth plan.MedicineDepth) []MedicineView {
	views := make([]MedicineView, 0, len(medicines))
	for _, med := range medicines {
		view := MedicineView{Name: med.Name}
		if depth.IncludesPrice() {
			view.Price = med.Price
		}
		if depth.IncludesLink() {
			view.BuyLink = med.BuyLink
		}
		views = append(views, view)
	}
	return views
}
