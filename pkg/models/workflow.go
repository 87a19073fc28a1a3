package models

// Terminal response values written by the validation step. Validate is the
// only writer of WorkflowState.Response.
const (
	ResponseValid   = "Recommendations valid"
	ResponseInvalid = "Recommendations invalid"
)

// WorkflowState is the unit of data threaded through every workflow step.
// Pred, AllowedCreditLimit and UserProfileIP are write-once per run; every
// step after the credit-profile step treats them as read-only.
type WorkflowState struct {
	UserID string `json:"user_id"`
	RunID  string `json:"run_id"`

	Pred               HealthLabel    `json:"pred,omitempty"`
	AllowedCreditLimit int64          `json:"allowed_credit_limit,omitempty"`
	UserProfileIP      FeatureProfile `json:"user_profile_ip,omitempty"`

	// UserProfile is the free-text explanation. It stays empty when the
	// reuse guard routed the run straight to recommendations.
	UserProfile string `json:"user_profile,omitempty"`

	CardSuggestions      []CardSuggestion   `json:"card_suggestions,omitempty"`
	FinalRecommendations *RecommendationSet `json:"final_recommendations,omitempty"`

	// Response is one of ResponseValid/ResponseInvalid once terminal.
	Response string `json:"response,omitempty"`
}

// Terminal reports whether the state has reached a terminal response.
func (s *WorkflowState) Terminal() bool {
	return s.Response != ""
}
