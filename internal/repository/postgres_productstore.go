package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"credit-advisor/backend/pkg/models"
)

// PostgresProductStore holds credit card product documents with pgvector
// embeddings for similarity retrieval.
type PostgresProductStore struct {
	db *pgxpool.Pool
}

// NewPostgresProductStore creates a new PostgresProductStore.
func NewPostgresProductStore(db *pgxpool.Pool) *PostgresProductStore {
	return &PostgresProductStore{db: db}
}

// Insert adds a product document with its embedding, replacing any existing
// document with the same title so seeding is idempotent.
func (s *PostgresProductStore) Insert(ctx context.Context, product *models.CardProduct) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO card_products (title, features, embedding) VALUES ($1, $2, $3)
		 ON CONFLICT (title) DO UPDATE SET features = EXCLUDED.features, embedding = EXCLUDED.embedding`,
		product.Title, product.Features, product.Embedding)
	if err != nil {
		return fmt.Errorf("failed to insert card product %q: %w", product.Title, err)
	}
	return nil
}

// SearchSimilar returns the k products nearest to the query embedding.
func (s *PostgresProductStore) SearchSimilar(ctx context.Context, embedding []float32, k int) ([]models.CardProduct, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, title, features FROM card_products ORDER BY embedding <-> $1 LIMIT $2`,
		pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("product similarity query failed: %w", err)
	}
	defer rows.Close()

	var products []models.CardProduct
	for rows.Next() {
		var p models.CardProduct
		if err := rows.Scan(&p.ID, &p.Title, &p.Features); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
