package node

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/pattadon/shoppilot/agent/contract"
	statex "github.com/pattadon/shoppilot/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrNilTurnState   = errors.New("turn state is nil")
)

// Routing targets the supervisor can choose.
const (
	ActionSafety           = "safety"
	ActionCartManager      = "cart_manager"
	ActionSmallTalk        = "small_talk"
	ActionOutOfDomain      = "out_of_domain"
	ActionIntentClassifier = "intent_classifier"
)

// TurnState is the mutable state of one turn, threaded through every stage.
// It is created fresh per turn and discarded afterwards; Cart and Memory
// point into the session and survive the turn. Stages run strictly in
// sequence, so no field needs synchronization.
type TurnState struct {
	UserInput string
	HasImage  bool
	ImagePath string
	Turn      int
	Now       time.Time

	Intent           contractx.Intent
	IntentConfidence float64
	RawEntities      map[string]any
	StitchedEntities map[string]any
	SearchResults    []contractx.ScoredCandidate

	SQLQuery   string
	SQLResults string

	CartAction string

	IsSafe       bool
	SafetyIssues []string

	NeedsClarification    bool
	ClarificationQuestion string

	NextAction          string
	SupervisorReasoning string

	AgentResponse string

	Cart   *statex.ShoppingCart
	Memory *statex.ConversationMemory
}

// NewTurnState validates the input and builds the initial state for a turn.
func NewTurnState(userInput, imagePath string, turn int, session *statex.Session, now time.Time) (*TurnState, error) {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return nil, ErrInvalidMessage
	}
	if session == nil {
		return nil, statex.ErrNilSession
	}
	session.EnsureInitialized()

	return &TurnState{
		UserInput:        userInput,
		HasImage:         imagePath != "",
		ImagePath:        imagePath,
		Turn:             turn,
		Now:              now.UTC(),
		IsSafe:           true,
		RawEntities:      map[string]any{},
		StitchedEntities: map[string]any{},
		Cart:             session.Cart,
		Memory:           session.Memory,
	}, nil
}
