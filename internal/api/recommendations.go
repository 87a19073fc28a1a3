package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"credit-advisor/backend/internal/services"
	"credit-advisor/backend/internal/workflow"
	"credit-advisor/backend/pkg/models"
)

// CreditScoreResponse is the payload of the direct scoring endpoint.
type CreditScoreResponse struct {
	UserProfile        string             `json:"userProfile"`
	UserCreditProfile  models.HealthLabel `json:"userCreditProfile"`
	AllowedCreditLimit int64              `json:"allowedCreditLimit"`
	UserID             string             `json:"userId"`
}

// GetCreditScore scores a user and narrates the result, without running the
// full workflow.
// (GET /api/v1/credit_score/:user_id)
func (s *Server) GetCreditScore(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("user_id")

	score, err := s.Scorer.Score(ctx, userID)
	if err != nil {
		return s.collaboratorProblem(c, err)
	}
	explanation, err := s.Narrator.Narrate(ctx, score.Profile, score.Pred, score.AllowedCreditLimit)
	if err != nil {
		return s.collaboratorProblem(c, err)
	}

	return c.JSON(http.StatusOK, CreditScoreResponse{
		UserProfile:        explanation,
		UserCreditProfile:  score.Pred,
		AllowedCreditLimit: score.AllowedCreditLimit,
		UserID:             userID,
	})
}

// ProductSuggestionsRequest carries the profile context from a prior scoring
// call back into retrieval and re-ranking.
type ProductSuggestionsRequest struct {
	UserID             string `json:"userId"`
	UserProfile        string `json:"userProfile"`
	UserCreditProfile  string `json:"userCreditProfile"`
	AllowedCreditLimit int64  `json:"allowedCreditLimit"`
}

// PostProductSuggestions retrieves candidates for a profile and re-ranks them
// in one shot, without workflow persistence.
// (POST /api/v1/product_suggestions)
func (s *Server) PostProductSuggestions(c echo.Context) error {
	ctx := c.Request().Context()

	var req ProductSuggestionsRequest
	if err := c.Bind(&req); err != nil {
		return problem(c, http.StatusBadRequest, "Invalid request body", err.Error())
	}
	pred, err := models.ParseHealthLabel(req.UserCreditProfile)
	if err != nil {
		return problem(c, http.StatusBadRequest, "Invalid credit profile", err.Error())
	}

	// The feature profile is not part of the request contract; recompute it
	// from the stored record.
	score, err := s.Scorer.Score(ctx, req.UserID)
	if err != nil {
		return s.collaboratorProblem(c, err)
	}

	candidates, err := s.Retriever.RetrieveCandidates(ctx, req.UserProfile, score.Profile, pred, req.AllowedCreditLimit)
	if err != nil {
		return s.collaboratorProblem(c, err)
	}
	final, err := s.Reranker.Rerank(ctx, req.UserProfile, score.Profile, pred, req.AllowedCreditLimit, candidates)
	if err != nil {
		if errors.Is(err, services.ErrValidationFailed) {
			return problem(c, http.StatusBadGateway, "Recommendation output invalid", err.Error())
		}
		return s.collaboratorProblem(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"productRecommendations": final.Cards})
}

// RunRecommendations executes the full recommendation workflow for a user.
// (POST /api/v1/recommendations/:user_id?max_steps=N)
func (s *Server) RunRecommendations(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("user_id")

	var opts []workflow.RunOption
	if raw := c.QueryParam("max_steps"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return problem(c, http.StatusBadRequest, "Invalid max_steps", "max_steps must be a positive integer")
		}
		opts = append(opts, workflow.WithMaxSteps(n))
	}

	state, err := s.Engine.Run(ctx, userID, opts...)
	if errors.Is(err, workflow.ErrIterationCeiling) {
		// Distinct from a confirmed invalid result: the engine gave up.
		return problem(c, http.StatusConflict, "Recommendation retries exhausted", err.Error())
	}
	if err != nil {
		return s.collaboratorProblem(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// collaboratorProblem maps collaborator contract failures onto HTTP statuses.
func (s *Server) collaboratorProblem(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return problem(c, http.StatusNotFound, "Unknown user", err.Error())
	case errors.Is(err, services.ErrMalformedInput):
		return problem(c, http.StatusUnprocessableEntity, "Malformed stored profile", err.Error())
	case errors.Is(err, services.ErrServiceUnavailable):
		return problem(c, http.StatusBadGateway, "Upstream service unavailable", err.Error())
	}
	s.Logger.Error("request failed: %v", err)
	return problem(c, http.StatusInternalServerError, "Internal error", err.Error())
}
