package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL for all tables this service owns. The embedding dimension
// matches the instructor-base model served by the ML sidecar.
const Schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS user_profiles (
	user_id TEXT PRIMARY KEY,
	pred TEXT,
	allowed_credit_limit BIGINT,
	user_profile TEXT,
	user_profile_ip JSONB,
	card_suggestions JSONB,
	final_recommendations JSONB,
	response TEXT,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS workflow_checkpoints (
	instance_key TEXT PRIMARY KEY,
	run_id UUID NOT NULL,
	node TEXT NOT NULL,
	state JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS card_products (
	id SERIAL PRIMARY KEY,
	title TEXT NOT NULL UNIQUE,
	features TEXT NOT NULL,
	embedding VECTOR(768)
);
`

// EnsureSchema applies the schema. Used by the seed command and tests.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, Schema)
	return err
}
