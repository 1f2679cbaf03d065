package matcher

import (
	"testing"

	"github.com/themobileprof/medimatch-be/internal/catalog"
	"github.com/themobileprof/medimatch-be/internal/lexicon"
)

func buildCatalog(t *testing.T, diseases []catalog.Disease) *catalog.Catalog {
	t.Helper()

	c, err := catalog.New(diseases)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

func TestMatcher_Match_Scoring(t *testing.T) {
	// D1 requires {FEVER, HEADACHE, COUGH}, D2 requires {FEVER}.
	// Input {FEVER, HEADACHE} must rank D1 (score 2) above D2 (score 1).
	c := buildCatalog(t, []catalog.Disease{
		{ID: "d1", Name: "D1", Symptoms: []lexicon.Token{"FEVER", "HEADACHE", "COUGH"}},
		{ID: "d2", Name: "D2", Symptoms: []lexicon.Token{"FEVER"}},
	})

	got := New(c).Match([]lexicon.Token{"FEVER", "HEADACHE"})

	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].Disease.ID != "d1" || got[0].Score != 2 {
		t.Errorf("top candidate = (%s, %d), want (d1, 2)", got[0].Disease.ID, got[0].Score)
	}
	if got[1].Disease.ID != "d2" || got[1].Score != 1 {
		t.Errorf("second candidate = (%s, %d), want (d2, 1)", got[1].Disease.ID, got[1].Score)
	}
}

func TestMatcher_Match_ZeroScoreExcluded(t *testing.T) {
	c := buildCatalog(t, []catalog.Disease{
		{ID: "cold", Name: "Common Cold", Symptoms: []lexicon.Token{"RUNNY_NOSE", "SNEEZING"}},
		{ID: "fever", Name: "Fever", Symptoms: []lexicon.Token{"FEVER"}},
	})

	got := New(c).Match([]lexicon.Token{"FEVER"})

	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].Disease.ID != "fever" {
		t.Errorf("candidate = %s, want fever", got[0].Disease.ID)
	}
}

func TestMatcher_Match_EmptyInput(t *testing.T) {
	c := buildCatalog(t, []catalog.Disease{
		{ID: "fever", Name: "Fever", Symptoms: []lexicon.Token{"FEVER"}},
	})

	if got := New(c).Match(nil); len(got) != 0 {
		t.Errorf("Match(nil) returned %d candidates, want 0", len(got))
	}
	if got := New(c).Match([]lexicon.Token{"UNKNOWN"}); len(got) != 0 {
		t.Errorf("Match with no overlap returned %d candidates, want 0", len(got))
	}
}

func TestMatcher_Match_TieBreakByID(t *testing.T) {
	// Same required set, so equal scores; ordering must be by ID ascending
	// regardless of the order diseases were stored in.
	orders := [][]catalog.Disease{
		{
			{ID: "allergy", Name: "Allergy", Symptoms: []lexicon.Token{"SNEEZING"}},
			{ID: "cold", Name: "Cold", Symptoms: []lexicon.Token{"SNEEZING"}},
			{ID: "flu", Name: "Flu", Symptoms: []lexicon.Token{"SNEEZING"}},
		},
		{
			{ID: "flu", Name: "Flu", Symptoms: []lexicon.Token{"SNEEZING"}},
			{ID: "cold", Name: "Cold", Symptoms: []lexicon.Token{"SNEEZING"}},
			{ID: "allergy", Name: "Allergy", Symptoms: []lexicon.Token{"SNEEZING"}},
		},
	}

	for _, diseases := range orders {
		got := New(buildCatalog(t, diseases)).Match([]lexicon.Token{"SNEEZING"})
		if len(got) != 3 {
			t.Fatalf("got %d candidates, want 3", len(got))
		}
		wantOrder := []string{"allergy", "cold", "flu"}
		for i, want := range wantOrder {
			if got[i].Disease.ID != want {
				t.Errorf("candidate[%d] = %s, want %s", i, got[i].Disease.ID, want)
			}
		}
	}
}
