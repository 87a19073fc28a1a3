package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"credit-advisor/backend/pkg/models"
)

func setupTestPool(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pgContainer, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	if err := EnsureSchema(ctx, pool); err != nil {
		t.Fatal(err)
	}
	return pool
}

func TestPostgresProfileStore(t *testing.T) {
	ctx := context.Background()
	pool := setupTestPool(t, ctx)
	store := NewPostgresProfileStore(pool)

	t.Run("Get unknown user returns ErrNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Milestone upserts collapse to one row", func(t *testing.T) {
		userID := "user-1"
		profileIP := models.FeatureProfile{"Annual_Income": 52000.0, "Occupation": "Engineer"}

		require.NoError(t, store.UpsertProfile(ctx, userID, models.HealthGood, 9000, "a healthy profile", profileIP))
		require.NoError(t, store.UpsertSuggestions(ctx, userID, []models.CardSuggestion{
			{Name: "platinum travel card", Features: "lounge access"},
		}))
		require.NoError(t, store.UpsertFinal(ctx, userID, []models.CardRecommendation{
			{Name: "platinum travel card", Description: "fits frequent flyers"},
		}))
		require.NoError(t, store.UpsertOutcome(ctx, &models.PersistedRecord{
			UserID:             userID,
			Pred:               models.HealthGood,
			AllowedCreditLimit: 9000,
			UserProfile:        "a healthy profile",
			UserProfileIP:      profileIP,
			FinalRecommendations: []models.CardRecommendation{
				{Name: "platinum travel card", Description: "fits frequent flyers"},
			},
			Response: models.ResponseValid,
		}))

		var count int
		require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM user_profiles WHERE user_id = $1`, userID).Scan(&count))
		assert.Equal(t, 1, count)

		rec, err := store.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, models.HealthGood, rec.Pred)
		assert.Equal(t, int64(9000), rec.AllowedCreditLimit)
		assert.Equal(t, "a healthy profile", rec.UserProfile)
		assert.Equal(t, "Engineer", rec.UserProfileIP["Occupation"])
		assert.Len(t, rec.CardSuggestions, 1)
		assert.Len(t, rec.FinalRecommendations, 1)
		assert.Equal(t, models.ResponseValid, rec.Response)
	})

	t.Run("Invalid outcome overwrites only the response", func(t *testing.T) {
		userID := "user-2"
		require.NoError(t, store.UpsertProfile(ctx, userID, models.HealthPoor, 1500, "a strained profile", models.FeatureProfile{"Num_of_Loan": 4.0}))
		require.NoError(t, store.UpsertOutcome(ctx, &models.PersistedRecord{
			UserID:   userID,
			Response: models.ResponseInvalid,
		}))

		rec, err := store.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, models.ResponseInvalid, rec.Response)
		// earlier milestone fields survive
		assert.Equal(t, models.HealthPoor, rec.Pred)
		assert.Equal(t, int64(1500), rec.AllowedCreditLimit)
		assert.Equal(t, "a strained profile", rec.UserProfile)
		assert.Nil(t, rec.FinalRecommendations)
	})
}

func TestPostgresCheckpointStore(t *testing.T) {
	ctx := context.Background()
	pool := setupTestPool(t, ctx)
	store := NewPostgresCheckpointStore(pool)

	t.Run("Load unknown instance returns ErrNotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Save and Load", func(t *testing.T) {
		cp := &Checkpoint{
			InstanceKey: "user-1",
			RunID:       uuid.New().String(),
			Node:        "recommendations",
			State:       []byte(`{"userId":"user-1"}`),
		}
		require.NoError(t, store.Save(ctx, cp))

		loaded, err := store.Load(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, cp.RunID, loaded.RunID)
		assert.Equal(t, cp.Node, loaded.Node)
		assert.JSONEq(t, string(cp.State), string(loaded.State))
		assert.False(t, loaded.UpdatedAt.IsZero())
	})

	t.Run("Save replaces the previous checkpoint", func(t *testing.T) {
		first := &Checkpoint{
			InstanceKey: "user-3",
			RunID:       uuid.New().String(),
			Node:        "rerank",
			State:       []byte(`{"userId":"user-3","pred":"Good"}`),
		}
		require.NoError(t, store.Save(ctx, first))

		second := &Checkpoint{
			InstanceKey: "user-3",
			RunID:       first.RunID,
			Node:        "end",
			State:       []byte(`{"userId":"user-3","pred":"Good","response":"Recommendations valid"}`),
		}
		require.NoError(t, store.Save(ctx, second))

		loaded, err := store.Load(ctx, "user-3")
		require.NoError(t, err)
		assert.Equal(t, "end", loaded.Node)
		assert.JSONEq(t, string(second.State), string(loaded.State))

		var count int
		require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM workflow_checkpoints WHERE instance_key = $1`, "user-3").Scan(&count))
		assert.Equal(t, 1, count)
	})
}

func TestPostgresProductStore(t *testing.T) {
	ctx := context.Background()
	pool := setupTestPool(t, ctx)
	store := NewPostgresProductStore(pool)

	embed := func(seed float32) []float32 {
		v := make([]float32, 768)
		v[0] = seed
		return v
	}

	t.Run("Insert is idempotent by title", func(t *testing.T) {
		p := &models.CardProduct{Title: "everyday-cashback", Features: "flat cashback", Embedding: pgvector.NewVector(embed(0.1))}
		require.NoError(t, store.Insert(ctx, p))
		p.Features = "flat-rate cashback, no annual fee"
		require.NoError(t, store.Insert(ctx, p))

		var count int
		require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM card_products WHERE title = $1`, p.Title).Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("SearchSimilar orders by distance and honors k", func(t *testing.T) {
		require.NoError(t, store.Insert(ctx, &models.CardProduct{Title: "platinum-travel", Features: "travel rewards", Embedding: pgvector.NewVector(embed(1.0))}))
		require.NoError(t, store.Insert(ctx, &models.CardProduct{Title: "secured-credit-builder", Features: "secured deposit", Embedding: pgvector.NewVector(embed(-1.0))}))

		products, err := store.SearchSimilar(ctx, embed(0.9), 2)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "platinum-travel", products[0].Title)
	})
}
