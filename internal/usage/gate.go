package usage

import (
	"context"
	"log"
	"time"

	"github.com/themobileprof/medimatch-be/internal/plan"
)

// Action is a gated chat event.
type Action string

const (
	ActionNewChat     Action = "new_chat"
	ActionBotResponse Action = "bot_response"
)

// Reason is a structured denial code. Denials are expected outcomes, not
// errors; the caller renders a user-facing notice per code.
type Reason string

const (
	ReasonDailyLimitExceeded        Reason = "daily_limit_exceeded"
	ReasonChatResponseLimitExceeded Reason = "chat_response_limit_exceeded"
	ReasonTemporarilyUnavailable    Reason = "temporarily_unavailable"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
	Used    int        // counter value after the check
	Limit   plan.Limit // the limit that applied
}

// CounterStore persists usage counters. Increment operations must be
// atomic: check-against-limit and increment happen as one operation so
// that concurrent requests for the same key cannot both pass the check.
type CounterStore interface {
	// IncrementChats atomically increments the (userID, day) chat counter
	// if it is below the limit. Returns whether the increment happened and
	// the counter value after the call.
	IncrementChats(ctx context.Context, userID, day string, limit plan.Limit) (allowed bool, used int, err error)

	// IncrementResponses does the same for the per-session bot response counter.
	IncrementResponses(ctx context.Context, sessionID string, limit plan.Limit) (allowed bool, used int, err error)

	// ChatsToday reads the (userID, day) chat counter without incrementing.
	ChatsToday(ctx context.Context, userID, day string) (int, error)
}

// Gate decides whether a chat action is permitted under a plan, before the
// matcher is ever invoked. All counter state lives in the store; the gate
// itself is stateless.
type Gate struct {
	store CounterStore
}

// NewGate creates a usage gate over a counter store.
func NewGate(store CounterStore) *Gate {
	return &Gate{store: store}
}

// Authorize checks and records one action for a user. Store failures fail
// closed: limit enforcement must not be bypassable by taking the counter
// store down, so errors surface as Denied(TemporarilyUnavailable).
func (g *Gate) Authorize(ctx context.Context, userID, sessionID string, p *plan.Plan, action Action) Decision {
	switch action {
	case ActionNewChat:
		allowed, used, err := g.store.IncrementChats(ctx, userID, Today(), p.MaxChatsPerDay)
		if err != nil {
			log.Printf("usage: chat counter store error for user=%s: %v", userID, err)
			return Decision{Reason: ReasonTemporarilyUnavailable, Limit: p.MaxChatsPerDay}
		}
		if !allowed {
			return Decision{Reason: ReasonDailyLimitExceeded, Used: used, Limit: p.MaxChatsPerDay}
		}
		return Decision{Allowed: true, Used: used, Limit: p.MaxChatsPerDay}

	case ActionBotResponse:
		allowed, used, err := g.store.IncrementResponses(ctx, sessionID, p.MaxResponsesPerChat)
		if err != nil {
			log.Printf("usage: response counter store error for session=%s: %v", sessionID, err)
			return Decision{Reason: ReasonTemporarilyUnavailable, Limit: p.MaxResponsesPerChat}
		}
		if !allowed {
			return Decision{Reason: ReasonChatResponseLimitExceeded, Used: used, Limit: p.MaxResponsesPerChat}
		}
		return Decision{Allowed: true, Used: used, Limit: p.MaxResponsesPerChat}
	}

	log.Printf("usage: unknown action %q", action)
	return Decision{Reason: ReasonTemporarilyUnavailable}
}

// ChatsToday reads the user's chat count for the current day.
func (g *Gate) ChatsToday(ctx context.Context, userID string) (int, error) {
	return g.store.ChatsToday(ctx, userID, Today())
}

// Today returns the current calendar-day counter key. A date rollover is an
// implicit reset: yesterday's counters are simply never consulted again.
func Today() string {
	return time.Now().Format("2006-01-02")
}
