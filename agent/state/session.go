package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNilSession       = errors.New("session is nil")
	ErrInvalidSessionID = errors.New("session id is empty")
	ErrContextDiverged  = errors.New("active context diverged from latest snapshot")
)

// Session bundles the per-conversation state: cart, memory, and the turn
// counter. One session must never process two turns concurrently; the
// orchestration engine mutates Cart and Memory in place.
type Session struct {
	SessionID string              `json:"session_id"`
	Cart      *ShoppingCart       `json:"cart"`
	Memory    *ConversationMemory `json:"memory"`
	TurnCount int                 `json:"turn_count"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// NewSession creates an empty session. An empty id gets a generated UUID.
func NewSession(sessionID string) *Session {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &Session{
		SessionID: sessionID,
		Cart:      &ShoppingCart{},
		Memory:    &ConversationMemory{ActiveContext: map[string]any{}},
		UpdatedAt: time.Now().UTC(),
	}
}

// Reset clears cart and memory and zeroes the turn counter, keeping the id.
func (s *Session) Reset() {
	s.Cart = &ShoppingCart{}
	s.Memory = &ConversationMemory{ActiveContext: map[string]any{}}
	s.TurnCount = 0
	s.Touch(time.Now())
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// EnsureInitialized backfills nil holders after deserialization.
func (s *Session) EnsureInitialized() {
	if s.Cart == nil {
		s.Cart = &ShoppingCart{}
	}
	if s.Memory == nil {
		s.Memory = &ConversationMemory{}
	}
	if s.Memory.ActiveContext == nil {
		s.Memory.ActiveContext = map[string]any{}
	}
}

// Validate checks structural invariants: a usable id, a recomputable cart
// total, and an active context that matches the latest turn's snapshot when
// that turn recorded one.
func (s *Session) Validate() error {
	if s == nil {
		return ErrNilSession
	}
	if s.SessionID == "" {
		return ErrInvalidSessionID
	}
	if s.Cart != nil {
		total := 0.0
		for _, item := range s.Cart.Items {
			total += item.Price * float64(item.Quantity)
		}
		if total != s.Cart.TotalAmount {
			return fmt.Errorf("cart total %.2f does not match item sum %.2f", s.Cart.TotalAmount, total)
		}
	}
	if s.Memory != nil && len(s.Memory.TurnHistory) > 0 {
		last := s.Memory.TurnHistory[len(s.Memory.TurnHistory)-1]
		if len(last.ContextSnapshot) > 0 {
			for k, want := range last.ContextSnapshot {
				if got, ok := s.Memory.ActiveContext[k]; !ok || fmt.Sprint(got) != fmt.Sprint(want) {
					return fmt.Errorf("%w: key=%s", ErrContextDiverged, k)
				}
			}
		}
	}
	return nil
}
