package state

import (
	"time"

	contractx "github.com/pattadon/shoppilot/agent/contract"
)

// ConversationTurn records one completed exchange.
type ConversationTurn struct {
	TurnID            int                        `json:"turn_id"`
	UserInput         string                     `json:"user_input"`
	ExtractedEntities map[string]any             `json:"extracted_entities,omitempty"`
	Timestamp         time.Time                  `json:"timestamp"`
	SearchResults     []contractx.ScoredCandidate `json:"search_results,omitempty"`
	ContextSnapshot   map[string]any             `json:"context_snapshot,omitempty"`
}

// ConversationMemory is the cross-turn state of a session. ActiveContext is
// the single source of truth for what the user is currently looking for; it
// is overwritten wholesale by context stitching each turn and must stay in
// sync with the latest turn's ContextSnapshot.
type ConversationMemory struct {
	ActiveContext      map[string]any     `json:"active_context,omitempty"`
	TurnHistory        []ConversationTurn `json:"turn_history,omitempty"`
	ClarificationCount int                `json:"clarification_count"`
}

// AddTurn appends to the turn history. History is append-only.
func (m *ConversationMemory) AddTurn(turn ConversationTurn) {
	m.TurnHistory = append(m.TurnHistory, turn)
}

// SetActiveContext replaces the active context with a copy of entities.
func (m *ConversationMemory) SetActiveContext(entities map[string]any) {
	next := make(map[string]any, len(entities))
	for k, v := range entities {
		next[k] = v
	}
	m.ActiveContext = next
}

// LastEntities returns the most recent turn's extracted entities.
func (m *ConversationMemory) LastEntities() map[string]any {
	if len(m.TurnHistory) == 0 {
		return map[string]any{}
	}
	return m.TurnHistory[len(m.TurnHistory)-1].ExtractedEntities
}

// LastSearchResults walks history backwards and returns the most recent
// non-empty result set, or nil when no turn produced results.
func (m *ConversationMemory) LastSearchResults() []contractx.ScoredCandidate {
	for i := len(m.TurnHistory) - 1; i >= 0; i-- {
		if len(m.TurnHistory[i].SearchResults) > 0 {
			return m.TurnHistory[i].SearchResults
		}
	}
	return nil
}

// HasSearchResults reports whether any historical turn produced results.
func (m *ConversationMemory) HasSearchResults() bool {
	return m.LastSearchResults() != nil
}

// RecentContext merges the extracted entities of up to the last n turns with
// the active context, active context winning. Used for pronoun resolution.
func (m *ConversationMemory) RecentContext(n int) map[string]any {
	merged := map[string]any{}
	start := len(m.TurnHistory) - n
	if start < 0 {
		start = 0
	}
	for _, turn := range m.TurnHistory[start:] {
		for k, v := range turn.ExtractedEntities {
			merged[k] = v
		}
	}
	for k, v := range m.ActiveContext {
		merged[k] = v
	}
	return merged
}
