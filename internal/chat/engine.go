package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/themobileprof/medimatch-be/internal/conversation"
	"github.com/themobileprof/medimatch-be/internal/db"
	"github.com/themobileprof/medimatch-be/internal/lexicon"
	"github.com/themobileprof/medimatch-be/internal/matcher"
	"github.com/themobileprof/medimatch-be/internal/plan"
	"github.com/themobileprof/medimatch-be/internal/replies"
	"github.com/themobileprof/medimatch-be/internal/shaper"
	"github.com/themobileprof/medimatch-be/internal/usage"
)

// ReasonLanguageNotEntitled marks a turn denied because the requested
// language is outside the user's plan. The usage gate never emits it;
// the engine does, before any counter is touched.
const ReasonLanguageNotEntitled usage.Reason = "language_not_entitled"

// minSymptomsToMatch is how many distinct symptoms a session must
// accumulate before a disease match is attempted. With fewer, the bot
// asks for more detail instead of guessing from a single symptom.
const minSymptomsToMatch = 2

// DBInterface is the persistence the engine needs.
type DBInterface interface {
	CreateSession(ctx context.Context, userID string) (*db.ChatSession, error)
	SaveMessage(ctx context.Context, sessionID, userID, role, content string, diseaseID *string) (*db.Message, error)
}

// GateInterface authorizes gated chat actions before the engine does any work.
type GateInterface interface {
	Authorize(ctx context.Context, userID, sessionID string, p *plan.Plan, action usage.Action) usage.Decision
}

// TurnRequest contains all data needed to process one chat turn.
type TurnRequest struct {
	UserID    string
	SessionID string // empty means open a new session first
	Message   string
	Language  string
	Plan      *plan.Plan
}

// TurnResult is the outcome of one chat turn. A denied turn carries the
// reason and a user-facing notice in Text; an allowed turn carries the
// bot reply in Text and, when a disease matched, the shaped diagnosis.
type TurnResult struct {
	SessionID     string           `json:"session_id"`
	Denied        bool             `json:"denied,omitempty"`
	Reason        usage.Reason     `json:"reason,omitempty"`
	Text          string           `json:"text"`
	Diagnosis     *shaper.Response `json:"diagnosis,omitempty"`
	Symptoms      []lexicon.Token  `json:"symptoms,omitempty"`
	ResponsesLeft *int             `json:"responses_left,omitempty"` // nil on unlimited plans
}

// Engine handles core chat logic independent of transport. Both the REST
// handler and the WebSocket handler drive the same engine.
type Engine struct {
	lexicon *lexicon.Lexicon
	matcher *matcher.Matcher
	gate    GateInterface
	db      DBInterface
	conv    *conversation.Manager
}

// NewEngine creates a new transport-agnostic chat engine.
func NewEngine(lex *lexicon.Lexicon, m *matcher.Matcher, gate GateInterface, database DBInterface) *Engine {
	return &Engine{
		lexicon: lex,
		matcher: m,
		gate:    gate,
		db:      database,
		conv:    conversation.NewManager(),
	}
}

// NewChat opens a new chat session for a user, counting it against the
// plan's daily chat limit. The welcome message does not count against the
// session's response limit.
func (e *Engine) NewChat(ctx context.Context, userID, language string, p *plan.Plan) (*TurnResult, error) {
	decision := e.gate.Authorize(ctx, userID, "", p, usage.ActionNewChat)
	if !decision.Allowed {
		return denied(language, decision), nil
	}

	session, err := e.db.CreateSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	log.Printf("chat: new session %s for user=%s (%d/%s chats today)",
		session.ID, userID, decision.Used, limitLabel(decision.Limit))

	e.conv.MarkGreeted(session.ID)

	welcome := replies.Get(language, replies.KeyWelcome)
	if _, err := e.db.SaveMessage(ctx, session.ID, userID, "assistant", welcome, nil); err != nil {
		log.Printf("chat: failed to save welcome message: %v", err)
	}

	return &TurnResult{SessionID: session.ID, Text: welcome}, nil
}

// ProcessMessage processes one chat turn: gate, recognize symptoms, match,
// shape, persist. Denials short-circuit before the matcher runs and before
// any message is persisted; the counter increment is the only side effect.
func (e *Engine) ProcessMessage(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	language := req.Language
	if language == "" {
		language = shaper.DefaultLanguage
	}

	if !req.Plan.AllowsLanguage(language) {
		return &TurnResult{
			SessionID: req.SessionID,
			Denied:    true,
			Reason:    ReasonLanguageNotEntitled,
			Text:      replies.Get(language, replies.KeyBadLanguage),
		}, nil
	}

	sessionID := req.SessionID
	if sessionID == "" {
		decision := e.gate.Authorize(ctx, req.UserID, "", req.Plan, usage.ActionNewChat)
		if !decision.Allowed {
			return denied(language, decision), nil
		}
		session, err := e.db.CreateSession(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		sessionID = session.ID
		log.Printf("chat: implicit new session %s for user=%s", sessionID, req.UserID)
	}

	decision := e.gate.Authorize(ctx, req.UserID, sessionID, req.Plan, usage.ActionBotResponse)
	if !decision.Allowed {
		if decision.Reason == usage.ReasonChatResponseLimitExceeded {
			// The session can never produce another response; drop its state.
			e.conv.Reset(sessionID)
		}
		result := denied(language, decision)
		result.SessionID = sessionID
		return result, nil
	}

	result := &TurnResult{SessionID: sessionID}
	if !decision.Limit.Unlimited {
		left := decision.Limit.N - decision.Used
		if left < 0 {
			left = 0
		}
		result.ResponsesLeft = &left
	}

	if _, err := e.db.SaveMessage(ctx, sessionID, req.UserID, "user", req.Message, nil); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	tokens := e.lexicon.Normalize(req.Message)
	accumulated := e.conv.AddSymptoms(sessionID, tokens)
	result.Symptoms = accumulated

	var diseaseID *string
	switch {
	case len(accumulated) == 0:
		if e.conv.MarkGreeted(sessionID) {
			result.Text = replies.Get(language, replies.KeyWelcome)
		} else {
			result.Text = replies.Get(language, replies.KeyNoSymptoms)
		}

	case len(accumulated) < minSymptomsToMatch:
		result.Text = fmt.Sprintf(replies.Get(language, replies.KeyMoreSymptoms), joinTokens(accumulated))

	default:
		candidates := e.matcher.Match(accumulated)
		resp, err := shaper.Shape(candidates, req.Plan, language)
		if err != nil {
			// Unreachable after the entitlement check above, but the
			// shaper owns the final say on language access.
			return &TurnResult{
				SessionID: sessionID,
				Denied:    true,
				Reason:    ReasonLanguageNotEntitled,
				Text:      replies.Get(language, replies.KeyBadLanguage),
			}, nil
		}

		result.Diagnosis = resp
		if resp.Matched {
			result.Text = fmt.Sprintf(replies.Get(language, replies.KeyDiagnosis),
				joinTokens(accumulated), resp.DiseaseName, medicineLines(resp.Medicines))
			if len(resp.Advice) > 0 {
				result.Text += "\n\n" + fmt.Sprintf(replies.Get(language, replies.KeyAdvice),
					adviceLines(resp.Advice))
			}
			diseaseID = &resp.DiseaseID
		} else {
			result.Text = fmt.Sprintf(replies.Get(language, replies.KeySymptomsNoted), joinTokens(accumulated))
		}
	}

	if _, err := e.db.SaveMessage(ctx, sessionID, req.UserID, "assistant", result.Text, diseaseID); err != nil {
		log.Printf("chat: failed to save assistant message: %v", err)
	}

	return result, nil
}

func denied(language string, d usage.Decision) *TurnResult {
	result := &TurnResult{Denied: true, Reason: d.Reason}
	switch d.Reason {
	case usage.ReasonDailyLimitExceeded:
		result.Text = fmt.Sprintf(replies.Get(language, replies.KeyDailyLimit), d.Limit.N)
	case usage.ReasonChatResponseLimitExceeded:
		result.Text = fmt.Sprintf(replies.Get(language, replies.KeyResponseLimit), d.Limit.N)
	default:
		result.Text = replies.Get(language, replies.KeyUnavailable)
	}
	return result
}

func joinTokens(tokens []lexicon.Token) string {
	names := make([]string, len(tokens))
	for i, t := range tokens {
		names[i] = strings.ToLower(string(t))
	}
	return strings.Join(names, ", ")
}

func medicineLines(views []shaper.MedicineView) string {
	lines := make([]string, 0, len(views))
	for _, v := range views {
		line := "- " + v.Name
		if v.Price != nil {
			line += fmt.Sprintf(" (%s %.2f to %.2f)", v.Price.Currency, v.Price.Low, v.Price.High)
		}
		if v.BuyLink != "" {
			line += " " + v.BuyLink
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func adviceLines(advice []string) string {
	lines := make([]string, len(advice))
	for i, a := range advice {
		lines[i] = "- " + a
	}
	return strings.Join(lines, "\n")
}

func limitLabel(l plan.Limit) string {
	if l.Unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", l.N)
}
