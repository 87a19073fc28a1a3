package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2/clientcredentials"

	"credit-advisor/backend/internal/config"
	"credit-advisor/backend/internal/logging"
	"credit-advisor/backend/internal/repository"
	"credit-advisor/backend/internal/services"
	"credit-advisor/backend/internal/workflow"
)

// app holds the assembled collaborators shared by the serve and run commands.
type app struct {
	cfg    *config.Config
	logger *logging.Logger

	pool  *pgxpool.Pool
	redis *redis.Client

	engine    *workflow.Engine
	scorer    services.Scorer
	narrator  services.Narrator
	retriever services.CandidateRetriever
	reranker  services.Reranker
}

// buildApp connects the stores and constructs the service layer and engine.
func buildApp(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*app, error) {
	pool, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("database initialization failed: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, pool: pool}

	var checkpoints repository.CheckpointStore
	switch cfg.Checkpoints.Backend {
	case "redis":
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		checkpoints = repository.NewRedisCheckpointStore(a.redis)
	case "postgres":
		checkpoints = repository.NewPostgresCheckpointStore(pool)
	default:
		a.Close()
		return nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Checkpoints.Backend)
	}

	profiles := repository.NewPostgresProfileStore(pool)
	products := repository.NewPostgresProductStore(pool)

	mlClient := services.NewHTTPMLClient(cfg.MLSidecar.URL)
	llmClient, err := services.NewHTTPLLMClient(services.LLMConfig{
		URL:         cfg.LLM.URL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		CacheSize:   cfg.Workflow.NarrationCacheSize,
		HTTPClient:  llmHTTPClient(ctx, cfg),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.scorer = mlClient
	a.narrator = services.NewCreditNarrator(llmClient, mlClient)
	a.retriever = services.NewVectorRetriever(mlClient, products, cfg.Workflow.RetrievalK)
	a.reranker = services.NewLLMReranker(llmClient)

	a.engine = workflow.NewEngine(workflow.Deps{
		Scorer:      a.scorer,
		Narrator:    a.narrator,
		Retriever:   a.retriever,
		Reranker:    a.reranker,
		Profiles:    profiles,
		Checkpoints: checkpoints,
		Logger:      logger,
		MaxSteps:    cfg.Workflow.MaxSteps,
	})

	return a, nil
}

// llmHTTPClient returns an HTTP client carrying client-credentials auth for
// the LLM gateway, or nil when the gateway is unauthenticated.
func llmHTTPClient(ctx context.Context, cfg *config.Config) *http.Client {
	if cfg.LLM.TokenURL == "" {
		return nil
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.LLM.ClientID,
		ClientSecret: cfg.LLM.ClientSecret,
		TokenURL:     cfg.LLM.TokenURL,
	}
	return cc.Client(ctx)
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("failed to close redis client: %v", err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	logger.Debug("Initializing database connection")

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
