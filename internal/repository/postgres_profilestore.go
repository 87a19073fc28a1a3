package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"credit-advisor/backend/pkg/models"
)

// PostgresProfileStore is a PostgreSQL implementation of the ProfileStore
// interface. Each milestone upsert touches only its own columns, so partial
// writes from one milestone never clobber fields written by another.
type PostgresProfileStore struct {
	db *pgxpool.Pool
}

// NewPostgresProfileStore creates a new PostgresProfileStore.
func NewPostgresProfileStore(db *pgxpool.Pool) *PostgresProfileStore {
	return &PostgresProfileStore{db: db}
}

// Get retrieves the latest persisted record for a user.
func (s *PostgresProfileStore) Get(ctx context.Context, userID string) (*models.PersistedRecord, error) {
	var (
		rec       models.PersistedRecord
		profileIP []byte
		suggs     []byte
		final     []byte
	)
	err := s.db.QueryRow(ctx,
		`SELECT user_id, COALESCE(pred, ''), COALESCE(allowed_credit_limit, 0),
		        COALESCE(user_profile, ''), user_profile_ip, card_suggestions,
		        final_recommendations, COALESCE(response, ''), updated_at
		 FROM user_profiles WHERE user_id = $1`, userID).
		Scan(&rec.UserID, &rec.Pred, &rec.AllowedCreditLimit, &rec.UserProfile,
			&profileIP, &suggs, &final, &rec.Response, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for user %s: %w", userID, err)
	}
	if len(profileIP) > 0 {
		if err := json.Unmarshal(profileIP, &rec.UserProfileIP); err != nil {
			return nil, fmt.Errorf("malformed user_profile_ip for user %s: %w", userID, err)
		}
	}
	if len(suggs) > 0 {
		if err := json.Unmarshal(suggs, &rec.CardSuggestions); err != nil {
			return nil, fmt.Errorf("malformed card_suggestions for user %s: %w", userID, err)
		}
	}
	if len(final) > 0 {
		if err := json.Unmarshal(final, &rec.FinalRecommendations); err != nil {
			return nil, fmt.Errorf("malformed final_recommendations for user %s: %w", userID, err)
		}
	}
	return &rec, nil
}

// UpsertProfile writes the scoring/narration milestone.
func (s *PostgresProfileStore) UpsertProfile(ctx context.Context, userID string, pred models.HealthLabel, limit int64, profile string, profileIP models.FeatureProfile) error {
	ipJSON, err := json.Marshal(profileIP)
	if err != nil {
		return fmt.Errorf("failed to encode user profile features: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO user_profiles (user_id, pred, allowed_credit_limit, user_profile, user_profile_ip, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (user_id) DO UPDATE SET
		   pred = EXCLUDED.pred,
		   allowed_credit_limit = EXCLUDED.allowed_credit_limit,
		   user_profile = EXCLUDED.user_profile,
		   user_profile_ip = EXCLUDED.user_profile_ip,
		   updated_at = now()`,
		userID, string(pred), limit, profile, ipJSON)
	if err != nil {
		return fmt.Errorf("failed to upsert profile milestone for user %s: %w", userID, err)
	}
	return nil
}

// UpsertSuggestions writes the candidate-retrieval milestone.
func (s *PostgresProfileStore) UpsertSuggestions(ctx context.Context, userID string, suggestions []models.CardSuggestion) error {
	payload, err := json.Marshal(suggestions)
	if err != nil {
		return fmt.Errorf("failed to encode card suggestions: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO user_profiles (user_id, card_suggestions, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE SET
		   card_suggestions = EXCLUDED.card_suggestions,
		   updated_at = now()`,
		userID, payload)
	if err != nil {
		return fmt.Errorf("failed to upsert suggestions for user %s: %w", userID, err)
	}
	return nil
}

// UpsertFinal writes the re-ranking milestone.
func (s *PostgresProfileStore) UpsertFinal(ctx context.Context, userID string, cards []models.CardRecommendation) error {
	payload, err := json.Marshal(cards)
	if err != nil {
		return fmt.Errorf("failed to encode recommendations: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO user_profiles (user_id, final_recommendations, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE SET
		   final_recommendations = EXCLUDED.final_recommendations,
		   updated_at = now()`,
		userID, payload)
	if err != nil {
		return fmt.Errorf("failed to upsert recommendations for user %s: %w", userID, err)
	}
	return nil
}

// UpsertOutcome writes the terminal milestone from the validation step. Only
// the fields present on the record are written; an invalid outcome carries
// just the response.
func (s *PostgresProfileStore) UpsertOutcome(ctx context.Context, rec *models.PersistedRecord) error {
	if rec.Response == "" {
		return fmt.Errorf("outcome record for user %s has no response", rec.UserID)
	}
	if rec.FinalRecommendations == nil {
		_, err := s.db.Exec(ctx,
			`INSERT INTO user_profiles (user_id, response, updated_at)
			 VALUES ($1, $2, now())
			 ON CONFLICT (user_id) DO UPDATE SET
			   response = EXCLUDED.response,
			   updated_at = now()`,
			rec.UserID, rec.Response)
		if err != nil {
			return fmt.Errorf("failed to upsert outcome for user %s: %w", rec.UserID, err)
		}
		return nil
	}

	ipJSON, err := json.Marshal(rec.UserProfileIP)
	if err != nil {
		return fmt.Errorf("failed to encode user profile features: %w", err)
	}
	finalJSON, err := json.Marshal(rec.FinalRecommendations)
	if err != nil {
		return fmt.Errorf("failed to encode recommendations: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO user_profiles (user_id, pred, allowed_credit_limit, user_profile, user_profile_ip, final_recommendations, response, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		 ON CONFLICT (user_id) DO UPDATE SET
		   pred = EXCLUDED.pred,
		   allowed_credit_limit = EXCLUDED.allowed_credit_limit,
		   user_profile = EXCLUDED.user_profile,
		   user_profile_ip = EXCLUDED.user_profile_ip,
		   final_recommendations = EXCLUDED.final_recommendations,
		   response = EXCLUDED.response,
		   updated_at = now()`,
		rec.UserID, string(rec.Pred), rec.AllowedCreditLimit, rec.UserProfile,
		ipJSON, finalJSON, rec.Response)
	if err != nil {
		return fmt.Errorf("failed to upsert outcome for user %s: %w", rec.UserID, err)
	}
	return nil
}
