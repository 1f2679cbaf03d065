package shaper

import (
	"errors"
	"testing"

	"github.com/themobileprof/medimatch-be/internal/catalog"
	"github.com/themobileprof/medimatch-be/internal/lexicon"
	"github.com/themobileprof/medimatch-be/internal/matcher"
	"github.com/themobileprof/medimatch-be/internal/plan"
)

func testDisease() *catalog.Disease {
	return &catalog.Disease{
		ID:          "common_cold",
		Name:        "Common Cold",
		Description: "A viral infection of the upper respiratory tract.",
		Symptoms:    []lexicon.Token{"RUNNY_NOSE", "SNEEZING"},
		Medicines: []catalog.Medicine{
			{
				Name:    "Cetirizine",
				Price:   &catalog.PriceRange{Currency: "INR", Low: 30, High: 60},
				BuyLink: "https://pharmacy.example.com/buy?med=cetirizine",
			},
			{
				Name: "Steam inhalation",
			},
		},
		Localized: map[string]catalog.Localization{
			"hi": {Name: "सामान्य जुकाम", Description: "ऊपरी श्वसन तंत्र का वायरल संक्रमण।"},
		},
		Advice: []string{"Stay hydrated.", "Get adequate rest."},
	}
}

func testResult() []matcher.Candidate {
	return []matcher.Candidate{{Disease: testDisease(), Score: 2}}
}

func tierPlans() map[string]*plan.Plan {
	return map[string]*plan.Plan{
		"basic": {
			Key:           "basic",
			Languages:     []string{"en", "hi"},
			MedicineDepth: plan.DepthNames,
		},
		"pro": {
			Key:           "pro",
			Languages:     []string{"en", "hi", "es", "ta"},
			MedicineDepth: plan.DepthPrices,
		},
		"deluxe": {
			Key:           "deluxe",
			Languages:     []string{"en", "hi", "es", "ta", "fr"},
			MedicineDepth: plan.DepthFull,
			Features:      []string{"care_advice"},
		},
	}
}

func TestShape_MedicineDepthPerTier(t *testing.T) {
	plans := tierPlans()

	tests := []struct {
		name       string
		plan       *plan.Plan
		wantPrice  bool
		wantLink   bool
		wantAdvice bool
	}{
		{name: "basic sees names only", plan: plans["basic"]},
		{name: "pro sees prices but no links", plan: plans["pro"], wantPrice: true},
		{name: "deluxe sees everything", plan: plans["deluxe"], wantPrice: true, wantLink: true, wantAdvice: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Shape(testResult(), tt.plan, "en")
			if err != nil {
				t.Fatalf("Shape: %v", err)
			}
			if !resp.Matched {
				t.Fatal("Matched = false, want true")
			}
			if len(resp.Medicines) != 2 {
				t.Fatalf("got %d medicines, want 2", len(resp.Medicines))
			}

			med := resp.Medicines[0]
			if med.Name != "Cetirizine" {
				t.Errorf("medicine name = %q", med.Name)
			}
			if (med.Price != nil) != tt.wantPrice {
				t.Errorf("price present = %v, want %v", med.Price != nil, tt.wantPrice)
			}
			if (med.BuyLink != "") != tt.wantLink {
				t.Errorf("buy link present = %v, want %v", med.BuyLink != "", tt.wantLink)
			}
			if (len(resp.Advice) > 0) != tt.wantAdvice {
				t.Errorf("advice present = %v, want %v", len(resp.Advice) > 0, tt.wantAdvice)
			}
		})
	}
}

func TestShape_LanguageNotEntitled(t *testing.T) {
	plans := tierPlans()

	_, err := Shape(testResult(), plans["basic"], "fr")
	if !errors.Is(err, ErrLanguageNotEntitled) {
		t.Errorf("Shape(basic, fr) error = %v, want ErrLanguageNotEntitled", err)
	}

	if _, err := Shape(testResult(), plans["deluxe"], "fr"); err != nil {
		t.Errorf("Shape(deluxe, fr) error = %v, want nil", err)
	}
}

func TestShape_Localization(t *testing.T) {
	plans := tierPlans()

	resp, err := Shape(testResult(), plans["basic"], "hi")
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if resp.DiseaseName != "सामान्य जुकाम" {
		t.Errorf("hi name = %q", resp.DiseaseName)
	}
	if resp.LanguageFallback {
		t.Error("hi translation exists, fallback flag should be false")
	}

	// No Spanish translation: must fall back to English explicitly.
	resp, err = Shape(testResult(), plans["pro"], "es")
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if resp.DiseaseName != "Common Cold" {
		t.Errorf("es fallback name = %q, want English default", resp.DiseaseName)
	}
	if !resp.LanguageFallback {
		t.Error("fallback flag should be set when no translation exists")
	}
}

func TestShape_EmptyResult(t *testing.T) {
	plans := tierPlans()

	resp, err := Shape(nil, plans["basic"], "en")
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if resp.Matched {
		t.Error("empty result must produce an unmatched payload")
	}
	if len(resp.Medicines) != 0 {
		t.Error("unmatched payload must carry no medicines")
	}

	// The language entitlement check applies even with no match.
	if _, err := Shape(nil, plans["basic"], "fr"); !errors.Is(err, ErrLanguageNotEntitled) {
		t.Errorf("Shape(nil, basic, fr) error = %v, want ErrLanguageNotEntitled", err)
	}
}
