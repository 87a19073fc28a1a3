package cli

import (
	"github.com/pgvector/pgvector-go"
	"github.com/spf13/cobra"

	"credit-advisor/backend/internal/config"
	"credit-advisor/backend/internal/logging"
	"credit-advisor/backend/internal/repository"
	"credit-advisor/backend/internal/services"
	"credit-advisor/backend/pkg/models"
)

// seedProducts is the development card catalog. Titles are dash-separated;
// the retriever turns them into display names.
var seedProducts = []struct {
	Title    string
	Features string
}{
	{
		Title:    "platinum-travel",
		Features: "Premium travel rewards card. 3x points on flights and hotels, airport lounge access, no foreign transaction fees. Annual fee applies. Requires excellent credit history and high income.",
	},
	{
		Title:    "everyday-cashback",
		Features: "Flat-rate cashback card for daily spending. 1.5% cash back on every purchase, no annual fee, introductory 0% APR on purchases for 12 months. Suited to applicants with a good credit mix.",
	},
	{
		Title:    "grocery-rewards-plus",
		Features: "Category rewards card. 4% cash back on groceries and fuel up to a quarterly cap, 1% elsewhere. Moderate annual fee waived the first year. Standard credit profiles accepted.",
	},
	{
		Title:    "secured-credit-builder",
		Features: "Secured card for building or repairing credit. Refundable security deposit sets the credit line, monthly reporting to all bureaus, automatic limit reviews after six on-time payments. No annual fee.",
	},
	{
		Title:    "student-starter",
		Features: "First card for students and thin-file applicants. Low credit limit, no annual fee, 1% cash back with on-time payment bonus. Lenient approval for short credit histories.",
	},
	{
		Title:    "low-interest-balance",
		Features: "Low ongoing APR card aimed at carrying a balance. Extended 0% balance transfer window, no rewards program, no penalty APR. Good option for high utilization profiles reducing debt.",
	},
}

// NewSeedCommand creates the seed command, which applies the database schema
// and loads the card product catalog with embeddings from the ML sidecar.
func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Apply the schema and load the card product catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd)
		},
	}
}

func runSeed(cmd *cobra.Command) error {
	ctx := cmd.Context()
	logger := logging.NewLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		return err
	}

	pool, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize database: %v", err)
		return err
	}
	defer pool.Close()

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		logger.Error("Failed to apply schema: %v", err)
		return err
	}
	logger.Info("Schema applied")

	store := repository.NewPostgresProductStore(pool)
	mlClient := services.NewHTTPMLClient(cfg.MLSidecar.URL)

	for _, p := range seedProducts {
		embedding, err := mlClient.GetEmbedding(ctx, p.Features)
		if err != nil {
			logger.Error("Failed to embed product %s: %v", p.Title, err)
			return err
		}
		if err := store.Insert(ctx, &models.CardProduct{
			Title:     p.Title,
			Features:  p.Features,
			Embedding: pgvector.NewVector(embedding),
		}); err != nil {
			logger.Error("Failed to insert product %s: %v", p.Title, err)
			return err
		}
		logger.Info("Seeded card product", "title", p.Title)
	}

	logger.Info("Seeding complete!")
	return nil
}
