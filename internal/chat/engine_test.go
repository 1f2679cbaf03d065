package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/themobileprof/medimatch-be/internal/catalog"
	"github.com/themobileprof/medimatch-be/internal/db"
	"github.com/themobileprof/medimatch-be/internal/lexicon"
	"github.com/themobileprof/medimatch-be/internal/matcher"
	"github.com/themobileprof/medimatch-be/internal/plan"
	"github.com/themobileprof/medimatch-be/internal/usage"
)

type fakeGate struct {
	decisions map[usage.Action]usage.Decision
	calls     []usage.Action
}

func (g *fakeGate) Authorize(_ context.Context, _, _ string, _ *plan.Plan, action usage.Action) usage.Decision {
	g.calls = append(g.calls, action)
	return g.decisions[action]
}

type savedMessage struct {
	sessionID string
	role      string
	content   string
	diseaseID *string
}

type fakeDB struct {
	sessionID string
	messages  []savedMessage
}

func (f *fakeDB) CreateSession(_ context.Context, userID string) (*db.ChatSession, error) {
	return &db.ChatSession{ID: f.sessionID, UserID: userID}, nil
}

func (f *fakeDB) SaveMessage(_ context.Context, sessionID, _, role, content string, diseaseID *string) (*db.Message, error) {
	f.messages = append(f.messages, savedMessage{sessionID, role, content, diseaseID})
	return &db.Message{SessionID: sessionID, Role: role, Content: content, DiseaseID: diseaseID}, nil
}

func testEngine(t *testing.T, gate GateInterface, database DBInterface) *Engine {
	t.Helper()

	lex, err := lexicon.New(map[string]lexicon.Token{
		"fever":    "FEVER",
		"headache": "HEADACHE",
		"cough":    "COUGH",
		"rash":     "RASH",
		"nausea":   "NAUSEA",
	})
	if err != nil {
		t.Fatalf("lexicon.New: %v", err)
	}

	cat, err := catalog.New([]catalog.Disease{
		{
			ID:          "flu",
			Name:        "Flu",
			Description: "A viral infection.",
			Symptoms:    []lexicon.Token{"FEVER", "HEADACHE", "COUGH"},
			Medicines: []catalog.Medicine{
				{
					Name:    "Paracetamol",
					Price:   &catalog.PriceRange{Currency: "USD", Low: 2, High: 4},
					BuyLink: "https://pharmacy.example/paracetamol",
				},
			},
			Advice: []string{"Rest and drink fluids."},
		},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}

	return NewEngine(lex, matcher.New(cat), gate, database)
}

func allowAll() *fakeGate {
	return &fakeGate{decisions: map[usage.Action]usage.Decision{
		usage.ActionNewChat:     {Allowed: true, Used: 1, Limit: plan.Limit{N: 2}},
		usage.ActionBotResponse: {Allowed: true, Used: 1, Limit: plan.Limit{N: 2}},
	}}
}

func basicPlan() *plan.Plan {
	return &plan.Plan{
		Key:                 "basic",
		Rank:                1,
		Name:                "Basic",
		MaxChatsPerDay:      plan.Limit{N: 2},
		MaxResponsesPerChat: plan.Limit{N: 2},
		Languages:           []string{"en", "hi"},
		MedicineDepth:       plan.DepthNames,
	}
}

func deluxePlan() *plan.Plan {
	return &plan.Plan{
		Key:                 "deluxe",
		Rank:                3,
		Name:                "Deluxe",
		MaxChatsPerDay:      plan.Limit{Unlimited: true},
		MaxResponsesPerChat: plan.Limit{Unlimited: true},
		Languages:           []string{"en", "hi", "es", "ta", "fr"},
		MedicineDepth:       plan.DepthFull,
		Features:            []string{"care_advice"},
	}
}

func TestEngine_NewChat(t *testing.T) {
	t.Run("allowed opens a session and greets", func(t *testing.T) {
		database := &fakeDB{sessionID: "s1"}
		engine := testEngine(t, allowAll(), database)

		result, err := engine.NewChat(context.Background(), "u1", "en", basicPlan())
		if err != nil {
			t.Fatalf("NewChat: %v", err)
		}
		if result.Denied {
			t.Fatalf("NewChat denied: %s", result.Reason)
		}
		if result.SessionID != "s1" {
			t.Errorf("SessionID = %q, want s1", result.SessionID)
		}
		if result.Text == "" {
			t.Error("expected a welcome text")
		}
		if len(database.messages) != 1 || database.messages[0].role != "assistant" {
			t.Errorf("expected one saved assistant message, got %+v", database.messages)
		}
	})

	t.Run("daily limit denial carries the limit in the notice", func(t *testing.T) {
		gate := &fakeGate{decisions: map[usage.Action]usage.Decision{
			usage.ActionNewChat: {Reason: usage.ReasonDailyLimitExceeded, Used: 2, Limit: plan.Limit{N: 2}},
		}}
		database := &fakeDB{sessionID: "s1"}
		engine := testEngine(t, gate, database)

		result, err := engine.NewChat(context.Background(), "u1", "en", basicPlan())
		if err != nil {
			t.Fatalf("NewChat: %v", err)
		}
		if !result.Denied || result.Reason != usage.ReasonDailyLimitExceeded {
			t.Fatalf("result = %+v, want daily limit denial", result)
		}
		if !strings.Contains(result.Text, "2") {
			t.Errorf("notice %q should mention the limit", result.Text)
		}
		if len(database.messages) != 0 {
			t.Errorf("denial must not persist messages, got %+v", database.messages)
		}
	})
}

func TestEngine_ProcessMessage_Denials(t *testing.T) {
	t.Run("language outside plan is denied before gating", func(t *testing.T) {
		gate := allowAll()
		engine := testEngine(t, gate, &fakeDB{sessionID: "s1"})

		result, err := engine.ProcessMessage(context.Background(), TurnRequest{
			UserID: "u1", SessionID: "s1", Message: "fever", Language: "fr", Plan: basicPlan(),
		})
		if err != nil {
			t.Fatalf("ProcessMessage: %v", err)
		}
		if !result.Denied || result.Reason != ReasonLanguageNotEntitled {
			t.Fatalf("result = %+v, want language denial", result)
		}
		if len(gate.calls) != 0 {
			t.Errorf("language denial must not touch counters, gate calls = %v", gate.calls)
		}
	})

	t.Run("response limit denial persists nothing", func(t *testing.T) {
		gate := &fakeGate{decisions: map[usage.Action]usage.Decision{
			usage.ActionBotResponse: {Reason: usage.ReasonChatResponseLimitExceeded, Used: 2, Limit: plan.Limit{N: 2}},
		}}
		database := &fakeDB{sessionID: "s1"}
		engine := testEngine(t, gate, database)

		result, err := engine.ProcessMessage(context.Background(), TurnRequest{
			UserID: "u1", SessionID: "s1", Message: "fever", Language: "en", Plan: basicPlan(),
		})
		if err != nil {
			t.Fatalf("ProcessMessage: %v", err)
		}
		if !result.Denied || result.Reason != usage.ReasonChatResponseLimitExceeded {
			t.Fatalf("result = %+v, want response limit denial", result)
		}
		if len(database.messages) != 0 {
			t.Errorf("denial must not persist messages, got %+v", database.messages)
		}
	})

	t.Run("store failure surfaces as temporarily unavailable", func(t *testing.T) {
		gate := &fakeGate{decisions: map[usage.Action]usage.Decision{
			usage.ActionBotResponse: {Reason: usage.ReasonTemporarilyUnavailable},
		}}
		engine := testEngine(t, gate, &fakeDB{sessionID: "s1"})

		result, err := engine.ProcessMessage(context.Background(), TurnRequest{
			UserID: "u1", SessionID: "s1", Message: "fever", Language: "en", Plan: basicPlan(),
		})
		if err != nil {
			t.Fatalf("ProcessMessage: %v", err)
		}
		if !result.Denied || result.Reason != usage.ReasonTemporarilyUnavailable {
			t.Fatalf("result = %+v, want unavailable denial", result)
		}
	})
}

func TestEngine_ProcessMessage_SymptomFlow(t *testing.T) {
	database := &fakeDB{sessionID: "s1"}
	engine := testEngine(t, allowAll(), database)
	ctx := context.Background()

	// Turn 1: nothing recognized on a fresh session, the bot greets.
	result, err := engine.ProcessMessage(ctx, TurnRequest{
		UserID: "u1", SessionID: "s1", Message: "hello there", Language: "en", Plan: basicPlan(),
	})
	if err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	if result.Diagnosis != nil || len(result.Symptoms) != 0 {
		t.Fatalf("turn 1 result = %+v, want plain greeting", result)
	}

	// Turn 2: still nothing recognized, the bot asks to rephrase instead.
	result, err = engine.ProcessMessage(ctx, TurnRequest{
		UserID: "u1", SessionID: "s1", Message: "how are you", Language: "en", Plan: basicPlan(),
	})
	if err != nil {
		t.Fatalf("turn 2: %v", err)
	}
	if result.Text == "" || result.Diagnosis != nil {
		t.Fatalf("turn 2 result = %+v, want rephrase prompt", result)
	}

	// Turn 3: one symptom is not enough to match.
	result, err = engine.ProcessMessage(ctx, TurnRequest{
		UserID: "u1", SessionID: "s1", Message: "I have a fever", Language: "en", Plan: basicPlan(),
	})
	if err != nil {
		t.Fatalf("turn 3: %v", err)
	}
	if result.Diagnosis != nil {
		t.Fatal("turn 3 should not attempt a match with one symptom")
	}
	if !strings.Contains(result.Text, "fever") {
		t.Errorf("turn 3 text %q should echo the noted symptom", result.Text)
	}

	// Turn 4: the second symptom accumulates and triggers a match.
	result, err = engine.ProcessMessage(ctx, TurnRequest{
		UserID: "u1", SessionID: "s1", Message: "and a headache too", Language: "en", Plan: basicPlan(),
	})
	if err != nil {
		t.Fatalf("turn 4: %v", err)
	}
	if result.Diagnosis == nil || !result.Diagnosis.Matched {
		t.Fatalf("turn 4 result = %+v, want a matched diagnosis", result)
	}
	if result.Diagnosis.DiseaseID != "flu" || result.Diagnosis.Score != 2 {
		t.Errorf("diagnosis = %+v, want flu with score 2", result.Diagnosis)
	}
	if len(result.Symptoms) != 2 {
		t.Errorf("accumulated symptoms = %v, want 2", result.Symptoms)
	}
	if strings.Contains(result.Text, "https://pharmacy.example") {
		t.Errorf("basic plan reply %q must not carry purchase links", result.Text)
	}

	// The matched turn saved the assistant message tagged with the disease.
	last := database.messages[len(database.messages)-1]
	if last.role != "assistant" || last.diseaseID == nil || *last.diseaseID != "flu" {
		t.Errorf("last saved message = %+v, want assistant message tagged flu", last)
	}
}

func TestEngine_ProcessMessage_NoCatalogMatch(t *testing.T) {
	engine := testEngine(t, allowAll(), &fakeDB{sessionID: "s1"})
	ctx := context.Background()

	// RASH and NAUSEA are in the lexicon but required by no disease, so the
	// match attempt comes back empty and the bot says so.
	if _, err := engine.ProcessMessage(ctx, TurnRequest{
		UserID: "u1", SessionID: "s1", Message: "I have a rash", Language: "en", Plan: basicPlan(),
	}); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	result, err := engine.ProcessMessage(ctx, TurnRequest{
		UserID: "u1", SessionID: "s1", Message: "and nausea", Language: "en", Plan: basicPlan(),
	})
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if result.Denied {
		t.Fatalf("unexpected denial: %s", result.Reason)
	}
	if result.Diagnosis == nil || result.Diagnosis.Matched {
		t.Fatalf("diagnosis = %+v, want an explicit unmatched payload", result.Diagnosis)
	}
	if !strings.Contains(result.Text, "nausea") {
		t.Errorf("text %q should echo the noted symptoms", result.Text)
	}
}

func TestEngine_ProcessMessage_DeluxeCarriesAdviceAndLinks(t *testing.T) {
	gate := &fakeGate{decisions: map[usage.Action]usage.Decision{
		usage.ActionBotResponse: {Allowed: true, Used: 7, Limit: plan.Limit{Unlimited: true}},
	}}
	engine := testEngine(t, gate, &fakeDB{sessionID: "s1"})
	ctx := context.Background()

	if _, err := engine.ProcessMessage(ctx, TurnRequest{
		UserID: "u1", SessionID: "s1", Message: "fever", Language: "en", Plan: deluxePlan(),
	}); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	result, err := engine.ProcessMessage(ctx, TurnRequest{
		UserID: "u1", SessionID: "s1", Message: "headache", Language: "en", Plan: deluxePlan(),
	})
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if result.Diagnosis == nil || !result.Diagnosis.Matched {
		t.Fatalf("result = %+v, want a matched diagnosis", result)
	}
	if len(result.Diagnosis.Advice) == 0 {
		t.Error("deluxe diagnosis should carry care advice")
	}
	if !strings.Contains(result.Text, "https://pharmacy.example/paracetamol") {
		t.Errorf("deluxe reply %q should carry the purchase link", result.Text)
	}
	if result.ResponsesLeft != nil {
		t.Errorf("unlimited plan should have nil ResponsesLeft, got %d", *result.ResponsesLeft)
	}
}

func TestEngine_ProcessMessage_ResponsesLeft(t *testing.T) {
	gate := &fakeGate{decisions: map[usage.Action]usage.Decision{
		usage.ActionBotResponse: {Allowed: true, Used: 1, Limit: plan.Limit{N: 2}},
	}}
	engine := testEngine(t, gate, &fakeDB{sessionID: "s1"})

	result, err := engine.ProcessMessage(context.Background(), TurnRequest{
		UserID: "u1", SessionID: "s1", Message: "fever", Language: "en", Plan: basicPlan(),
	})
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if result.ResponsesLeft == nil || *result.ResponsesLeft != 1 {
		t.Errorf("ResponsesLeft = %v, want 1", result.ResponsesLeft)
	}
}

func TestEngine_ProcessMessage_ImplicitSession(t *testing.T) {
	gate := allowAll()
	database := &fakeDB{sessionID: "s9"}
	engine := testEngine(t, gate, database)

	result, err := engine.ProcessMessage(context.Background(), TurnRequest{
		UserID: "u1", Message: "fever", Language: "en", Plan: basicPlan(),
	})
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if result.SessionID != "s9" {
		t.Errorf("SessionID = %q, want s9", result.SessionID)
	}
	if len(gate.calls) != 2 || gate.calls[0] != usage.ActionNewChat || gate.calls[1] != usage.ActionBotResponse {
		t.Errorf("gate calls = %v, want [new_chat bot_response]", gate.calls)
	}
}
