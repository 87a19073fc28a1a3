package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"credit-advisor/backend/internal/services"
	"credit-advisor/backend/internal/workflow"
)

// Server exposes the credit advisor over the MCP protocol.
type Server struct {
	mcpServer *server.MCPServer
	engine    *workflow.Engine
	scorer    services.Scorer
	narrator  services.Narrator
}

// NewServer creates a new Server.
func NewServer(engine *workflow.Engine, scorer services.Scorer, narrator services.Narrator) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Credit Advisor",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		engine:   engine,
		scorer:   scorer,
		narrator: narrator,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"credit_score",
			mcp.WithDescription("Assess a user's credit health and explain the decision"),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("The user identifier")),
		),
		s.handleCreditScore,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"recommend_cards",
			mcp.WithDescription("Run the full recommendation workflow for a user"),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("The user identifier")),
			mcp.WithNumber("max_steps", mcp.Description("Iteration ceiling for the retry loop")),
		),
		s.handleRecommendCards,
	)
}

func (s *Server) handleCreditScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	userID, ok := args["user_id"].(string)
	if !ok || userID == "" {
		return mcp.NewToolResultError("Missing required parameter: user_id"), nil
	}

	score, err := s.scorer.Score(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to score user: %v", err)), nil
	}
	explanation, err := s.narrator.Narrate(ctx, score.Profile, score.Pred, score.AllowedCreditLimit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to narrate score: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(map[string]interface{}{
		"userId":             userID,
		"userCreditProfile":  score.Pred,
		"allowedCreditLimit": score.AllowedCreditLimit,
		"userProfile":        explanation,
	})
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleRecommendCards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	userID, ok := args["user_id"].(string)
	if !ok || userID == "" {
		return mcp.NewToolResultError("Missing required parameter: user_id"), nil
	}

	var opts []workflow.RunOption
	if maxSteps, ok := args["max_steps"].(float64); ok && maxSteps > 0 {
		opts = append(opts, workflow.WithMaxSteps(int(maxSteps)))
	}

	state, err := s.engine.Run(ctx, userID, opts...)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Workflow failed: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(state)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// Use SSE server for /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// SSE endpoints
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
