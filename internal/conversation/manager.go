package conversation

import (
	"sort"
	"sync"

	"github.com/themobileprof/medimatch-be/internal/lexicon"
)

// State tracks what a chat session has accumulated so far.
type State struct {
	SessionID string
	Symptoms  map[lexicon.Token]bool
	Greeted   bool
}

// Manager tracks per-session conversation state in memory. Symptoms
// accumulate across turns so the matcher works on everything the user has
// mentioned in the session, not just the latest message.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*State
}

// NewManager creates a conversation state manager.
func NewManager() *Manager {
	return &Manager{states: make(map[string]*State)}
}

func (m *Manager) getOrCreate(sessionID string) *State {
	state, exists := m.states[sessionID]
	if !exists {
		state = &State{
			SessionID: sessionID,
			Symptoms:  make(map[lexicon.Token]bool),
		}
		m.states[sessionID] = state
	}
	return state
}

// AddSymptoms merges newly recognized tokens into the session's set and
// returns the full accumulated set in sorted order.
func (m *Manager) AddSymptoms(sessionID string, tokens []lexicon.Token) []lexicon.Token {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.getOrCreate(sessionID)
	for _, t := range tokens {
		state.Symptoms[t] = true
	}
	return sortedTokens(state.Symptoms)
}

// Symptoms returns the session's accumulated symptom set in sorted order.
func (m *Manager) Symptoms(sessionID string) []lexicon.Token {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.states[sessionID]
	if !exists {
		return nil
	}
	return sortedTokens(state.Symptoms)
}

// MarkGreeted records that the session's opening reply was sent and
// reports whether this call was the first to do so.
func (m *Manager) MarkGreeted(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.getOrCreate(sessionID)
	if state.Greeted {
		return false
	}
	state.Greeted = true
	return true
}

// Reset clears a session's state (e.g. when the user starts a new chat).
func (m *Manager) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, sessionID)
}

func sortedTokens(set map[lexicon.Token]bool) []lexicon.Token {
	if len(set) == 0 {
		return nil
	}
	tokens := make([]lexicon.Token, 0, len(set))
	for t := range set {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
	return tokens
}
