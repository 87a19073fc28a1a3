// Package models defines the domain models for the credit advisor service
package models

import (
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
)

// HealthLabel represents the credit health classification of a user
type HealthLabel string

const (
	HealthGood     HealthLabel = "Good"
	HealthStandard HealthLabel = "Standard"
	HealthPoor     HealthLabel = "Poor"
)

// ParseHealthLabel converts a stored string into a HealthLabel
func ParseHealthLabel(s string) (HealthLabel, error) {
	switch HealthLabel(s) {
	case HealthGood, HealthStandard, HealthPoor:
		return HealthLabel(s), nil
	}
	return "", fmt.Errorf("unknown credit health label %q", s)
}

// FeatureProfile holds the numeric/categorical feature mapping the classifier scored
type FeatureProfile map[string]any

// ScoreResult is the output of the scoring service for one user
type ScoreResult struct {
	Pred               HealthLabel    `json:"pred"`
	AllowedCreditLimit int64          `json:"allowed_credit_limit"`
	Profile            FeatureProfile `json:"profile"`
}

// CardSuggestion is a coarse candidate product returned by retrieval
type CardSuggestion struct {
	Name     string `json:"name"`
	Features string `json:"features"`
}

// CardRecommendation is a final, personalized recommendation item
type CardRecommendation struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RecommendationSet is the structured result of the re-ranking service
type RecommendationSet struct {
	Cards []CardRecommendation `json:"cards"`
}

// CardProduct is a credit card product document with its retrieval embedding
type CardProduct struct {
	ID        int             `json:"id" db:"id"`
	Title     string          `json:"title" db:"title"`
	Features  string          `json:"features" db:"features"`
	Embedding pgvector.Vector `json:"-" db:"embedding"`
}

// PersistedRecord is the denormalized per-user snapshot held by the profile
// store. Upserts key on UserID, so the store always holds the latest known
// state for a user, never history.
type PersistedRecord struct {
	UserID               string               `json:"user_id" db:"user_id"`
	Pred                 HealthLabel          `json:"pred,omitempty" db:"pred"`
	AllowedCreditLimit   int64                `json:"allowed_credit_limit,omitempty" db:"allowed_credit_limit"`
	UserProfile          string               `json:"user_profile,omitempty" db:"user_profile"`
	UserProfileIP        FeatureProfile       `json:"user_profile_ip,omitempty" db:"user_profile_ip"`
	CardSuggestions      []CardSuggestion     `json:"card_suggestions,omitempty" db:"card_suggestions"`
	FinalRecommendations []CardRecommendation `json:"final_recommendations,omitempty" db:"final_recommendations"`
	Response             string               `json:"response,omitempty" db:"response"`
	UpdatedAt            time.Time            `json:"updated_at" db:"updated_at"`
}

// HealthStatus represents service health
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProblemDetails represents RFC 7807 Problem Details
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}
