package contract

// Intent is the classified purpose of a single user turn.
type Intent string

const (
	IntentProductSearch         Intent = "product_search"
	IntentFAQ                   Intent = "faq"
	IntentClarificationResponse Intent = "clarification_response"
	IntentModification          Intent = "modification"
	IntentContinuation          Intent = "continuation"
	IntentCartAction            Intent = "cart_action"
	IntentSmallTalk             Intent = "small_talk"
	IntentOutOfDomain           Intent = "out_of_domain"
	IntentSafetyViolation       Intent = "safety_violation"
)

// ParseIntent maps a model label onto the intent enum. Unknown labels fall
// back to product_search, which routes to a search instead of a dead end.
func ParseIntent(label string) Intent {
	switch Intent(label) {
	case IntentProductSearch, IntentFAQ, IntentClarificationResponse,
		IntentModification, IntentContinuation, IntentCartAction,
		IntentSmallTalk, IntentOutOfDomain, IntentSafetyViolation:
		return Intent(label)
	default:
		return IntentProductSearch
	}
}

// ScoredCandidate is one normalized retrieval result. Score is in [0,1],
// higher is better. Metadata always carries the standardized key set with
// defaults filled in; Raw keeps the backend envelope for legacy consumers.
type ScoredCandidate struct {
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
	Raw      map[string]any `json:"raw_result,omitempty"`
}

// CompletionRequest is one call to the external reasoning service.
// ImageB64, when set, is a single base64-encoded JPEG carried alongside the
// text prompt.
type CompletionRequest struct {
	System      string
	Prompt      string
	ImageB64    string
	Temperature float64
	MaxTokens   int
}

// Severity grades a safety verdict.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SafetyVerdict is the reasoning service's judgment of one utterance.
type SafetyVerdict struct {
	IsSafe   bool     `json:"is_safe"`
	Issues   []string `json:"issues,omitempty"`
	Severity Severity `json:"severity,omitempty"`
	Action   string   `json:"recommended_action,omitempty"`
}

// SupervisorDecision is the router's first-branch choice for a turn.
type SupervisorDecision struct {
	Action     string  `json:"action"`
	Reasoning  string  `json:"reasoning,omitempty"`
	IsSafe     bool    `json:"is_safe"`
	IsInDomain bool    `json:"is_in_domain"`
	Intent     string  `json:"intent,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// QueryResult is one structured-query execution: rows as field-value maps
// plus the column order the backend returned them in.
type QueryResult struct {
	Columns []string
	Rows    []map[string]any
}
