// Package api contains the HTTP handlers for the credit advisor service
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"credit-advisor/backend/internal/logging"
	"credit-advisor/backend/internal/services"
	"credit-advisor/backend/internal/workflow"
	"credit-advisor/backend/pkg/models"
)

// Server holds the dependencies for the API server.
type Server struct {
	Engine    *workflow.Engine
	Scorer    services.Scorer
	Narrator  services.Narrator
	Retriever services.CandidateRetriever
	Reranker  services.Reranker
	Logger    *logging.Logger
}

// NewServer creates a new Server.
func NewServer(engine *workflow.Engine, scorer services.Scorer, narrator services.Narrator, retriever services.CandidateRetriever, reranker services.Reranker, logger *logging.Logger) *Server {
	return &Server{
		Engine:    engine,
		Scorer:    scorer,
		Narrator:  narrator,
		Retriever: retriever,
		Reranker:  reranker,
		Logger:    logger,
	}
}

// Register mounts the API routes on a group.
func (s *Server) Register(g *echo.Group) {
	g.GET("/credit_score/:user_id", s.GetCreditScore)
	g.POST("/product_suggestions", s.PostProductSuggestions)
	g.POST("/recommendations/:user_id", s.RunRecommendations)
}

// HandleHealth returns basic health status (always returns 200 OK)
func (s *Server) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthStatus{
		Status:    "ok",
		Service:   "credit-advisor",
		Version:   "1.0.0",
		Timestamp: time.Now(),
	})
}

// problem writes an RFC 7807 Problem Details JSON error response
func problem(c echo.Context, status int, title, detail string) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	return c.JSON(status, models.ProblemDetails{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
	})
}
