// Package workflow implements the credit recommendation state machine: a
// persisted, resumable sequence of scoring, narration, candidate retrieval,
// re-ranking and validation, with a bounded retry loop on invalid output.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"credit-advisor/backend/internal/logging"
	"credit-advisor/backend/internal/repository"
	"credit-advisor/backend/internal/services"
	"credit-advisor/backend/pkg/models"
)

// DefaultMaxSteps bounds the retry loop when no ceiling is configured.
const DefaultMaxSteps = 15

// Deps are the collaborators the engine sequences. Every call into them is a
// blocking external call; the engine never retries them itself.
type Deps struct {
	Scorer      services.Scorer
	Narrator    services.Narrator
	Retriever   services.CandidateRetriever
	Reranker    services.Reranker
	Profiles    repository.ProfileStore
	Checkpoints repository.CheckpointStore
	Logger      *logging.Logger
	MaxSteps    int
}

// Engine runs workflow instances. Instances for distinct users may run
// concurrently; the engine keeps no shared mutable state beyond the stores.
type Engine struct {
	deps Deps

	runsStarted   metric.Int64Counter
	runsCompleted metric.Int64Counter
	steps         metric.Int64Counter
	retries       metric.Int64Counter
	ceilingHits   metric.Int64Counter
}

// NewEngine creates a new Engine.
func NewEngine(deps Deps) *Engine {
	if deps.MaxSteps <= 0 {
		deps.MaxSteps = DefaultMaxSteps
	}
	meter := otel.Meter("credit-advisor/backend/internal/workflow")
	runsStarted, _ := meter.Int64Counter("workflow.runs.started")
	runsCompleted, _ := meter.Int64Counter("workflow.runs.completed")
	steps, _ := meter.Int64Counter("workflow.steps.executed")
	retries, _ := meter.Int64Counter("workflow.retries")
	ceilingHits, _ := meter.Int64Counter("workflow.ceiling.exhausted")
	return &Engine{
		deps:          deps,
		runsStarted:   runsStarted,
		runsCompleted: runsCompleted,
		steps:         steps,
		retries:       retries,
		ceilingHits:   ceilingHits,
	}
}

type runConfig struct {
	maxSteps    int
	instanceKey string
}

// RunOption adjusts a single workflow run.
type RunOption func(*runConfig)

// WithMaxSteps overrides the engine's iteration ceiling for one run.
func WithMaxSteps(n int) RunOption {
	return func(cfg *runConfig) {
		if n > 0 {
			cfg.maxSteps = n
		}
	}
}

// WithInstanceKey sets the checkpoint instance key. The default is the user
// id, matching one resumable instance per user.
func WithInstanceKey(key string) RunOption {
	return func(cfg *runConfig) {
		if key != "" {
			cfg.instanceKey = key
		}
	}
}

// Run executes the workflow for a user until a terminal response, a fatal
// collaborator error, or ceiling exhaustion. The returned state carries
// whatever was computed, even on error.
func (e *Engine) Run(ctx context.Context, userID string, opts ...RunOption) (*models.WorkflowState, error) {
	if userID == "" {
		return nil, fmt.Errorf("empty user id")
	}
	cfg := runConfig{maxSteps: e.deps.MaxSteps, instanceKey: userID}
	for _, opt := range opts {
		opt(&cfg)
	}
	e.runsStarted.Add(ctx, 1)

	r := &run{e: e, key: cfg.instanceKey}
	cur, err := r.restore(ctx, userID)
	if err != nil {
		return nil, err
	}

	for step := 0; cur != nodeEnd; step++ {
		if step >= cfg.maxSteps {
			return r.state, r.abortAtCeiling(ctx, step)
		}
		if err := r.exec(ctx, cur); err != nil {
			return r.state, fmt.Errorf("workflow step %s for user %s: %w", cur, userID, err)
		}
		e.steps.Add(ctx, 1, metric.WithAttributes(attribute.String("node", string(cur))))

		next := transition(cur, r.state)
		if cur == nodeValidate && next == nodeRecommendations {
			e.deps.Logger.Warn("recommendations invalid for user %s, retrying (reason=%s)", userID, r.invalidReason())
			e.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", r.invalidReason())))
			// The retry edge clears the soft status so the state is not
			// mistaken for terminal while the loop re-runs.
			r.state.Response = ""
		}
		if err := r.checkpoint(ctx, next); err != nil {
			return r.state, err
		}
		cur = next
	}

	e.runsCompleted.Add(ctx, 1)
	return r.state, nil
}

// run holds the in-flight data of one workflow instance.
type run struct {
	e     *Engine
	key   string
	state *models.WorkflowState

	// score is the single scoring result of this run, produced by the reuse
	// guard (or by the credit-profile step after a resume). Scoring is never
	// re-invoked on the retry loop.
	score *models.ScoreResult
}

// restore loads a checkpoint for the instance key and resumes from it, or
// starts a fresh run through the reuse guard.
func (r *run) restore(ctx context.Context, userID string) (node, error) {
	cp, err := r.e.deps.Checkpoints.Load(ctx, r.key)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}
	if cp != nil && knownNode(node(cp.Node)) {
		var state models.WorkflowState
		if err := json.Unmarshal(cp.State, &state); err != nil {
			r.e.deps.Logger.Warn("discarding corrupt checkpoint for instance %s: %v", r.key, err)
		} else if state.UserID == userID {
			r.e.deps.Logger.Info("resuming workflow for user %s at node %s", userID, cp.Node)
			r.state = &state
			return node(cp.Node), nil
		}
	}

	r.state = &models.WorkflowState{UserID: userID, RunID: uuid.New().String()}
	return r.start(ctx)
}

// start is the reuse guard: it recomputes scoring to detect drift, and skips
// the expensive narration path when the stored prediction still holds. Only
// the routing decision and the stored snapshot are reused; narration is never
// re-generated on the skip path.
func (r *run) start(ctx context.Context) (node, error) {
	score, err := r.e.deps.Scorer.Score(ctx, r.state.UserID)
	if err != nil {
		return "", fmt.Errorf("scoring user %s: %w", r.state.UserID, err)
	}
	r.score = score

	rec, err := r.e.deps.Profiles.Get(ctx, r.state.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		r.e.deps.Logger.Info("user %s not in profile store, running full pipeline", r.state.UserID)
		return nodeCreditProfile, nil
	}
	if err != nil {
		return "", err
	}
	if rec.Pred == score.Pred {
		r.e.deps.Logger.Info("user %s known with unchanged pred %s, skipping credit profile", r.state.UserID, score.Pred)
		r.state.Pred = rec.Pred
		r.state.AllowedCreditLimit = rec.AllowedCreditLimit
		r.state.UserProfileIP = rec.UserProfileIP
		r.state.UserProfile = rec.UserProfile
		return nodeRecommendations, nil
	}
	r.e.deps.Logger.Info("pred for user %s changed (%s -> %s), rebuilding credit profile", r.state.UserID, rec.Pred, score.Pred)
	return nodeCreditProfile, nil
}

func (r *run) exec(ctx context.Context, cur node) error {
	switch cur {
	case nodeCreditProfile:
		return r.creditProfile(ctx)
	case nodeRecommendations:
		return r.recommendations(ctx)
	case nodeRerank:
		return r.rerank(ctx)
	case nodeValidate:
		return r.validate(ctx)
	}
	return fmt.Errorf("unknown node %q", cur)
}

// creditProfile scores the user (if the guard's result did not survive a
// crash) and generates the narration. Nothing is persisted unless both
// succeed.
func (r *run) creditProfile(ctx context.Context) error {
	if r.score == nil {
		score, err := r.e.deps.Scorer.Score(ctx, r.state.UserID)
		if err != nil {
			return fmt.Errorf("scoring user %s: %w", r.state.UserID, err)
		}
		r.score = score
	}

	profileText, err := r.e.deps.Narrator.Narrate(ctx, r.score.Profile, r.score.Pred, r.score.AllowedCreditLimit)
	if err != nil {
		return err
	}

	r.state.Pred = r.score.Pred
	r.state.AllowedCreditLimit = r.score.AllowedCreditLimit
	r.state.UserProfileIP = r.score.Profile
	r.state.UserProfile = profileText

	if err := r.e.deps.Profiles.UpsertProfile(ctx, r.state.UserID, r.state.Pred, r.state.AllowedCreditLimit, r.state.UserProfile, r.state.UserProfileIP); err != nil {
		return err
	}
	r.e.deps.Logger.Info("credit profile persisted for user %s (pred=%s limit=%d)", r.state.UserID, r.state.Pred, r.state.AllowedCreditLimit)
	return nil
}

// recommendations is the re-entry point of the retry loop; suggestions from
// a previous iteration are overwritten.
func (r *run) recommendations(ctx context.Context) error {
	suggestions, err := r.e.deps.Retriever.RetrieveCandidates(ctx, r.state.UserProfile, r.state.UserProfileIP, r.state.Pred, r.state.AllowedCreditLimit)
	if err != nil {
		return err
	}
	if len(suggestions) == 0 {
		r.e.deps.Logger.Warn("candidate retrieval returned nothing for user %s", r.state.UserID)
	}
	r.state.CardSuggestions = suggestions
	return r.e.deps.Profiles.UpsertSuggestions(ctx, r.state.UserID, suggestions)
}

// rerank calls the re-ranking service. A validation failure is the one soft
// error: the final list is left absent and the validate step routes the run
// back through the retry edge. Everything else is fatal.
func (r *run) rerank(ctx context.Context) error {
	final, err := r.e.deps.Reranker.Rerank(ctx, r.state.UserProfile, r.state.UserProfileIP, r.state.Pred, r.state.AllowedCreditLimit, r.state.CardSuggestions)
	if errors.Is(err, services.ErrValidationFailed) {
		r.e.deps.Logger.Warn("re-ranker output invalid for user %s: %v", r.state.UserID, err)
		r.state.FinalRecommendations = nil
		return nil
	}
	if err != nil {
		return err
	}
	r.state.FinalRecommendations = final
	return r.e.deps.Profiles.UpsertFinal(ctx, r.state.UserID, final.Cards)
}

// validate is the sole writer of the terminal response. A present, non-empty
// recommendation list is valid; anything else is the soft invalid status
// that drives the retry edge.
func (r *run) validate(ctx context.Context) error {
	if r.state.FinalRecommendations == nil || len(r.state.FinalRecommendations.Cards) == 0 {
		r.state.FinalRecommendations = nil
		r.state.Response = models.ResponseInvalid
		return r.e.deps.Profiles.UpsertOutcome(ctx, &models.PersistedRecord{
			UserID:   r.state.UserID,
			Response: models.ResponseInvalid,
		})
	}

	r.state.Response = models.ResponseValid
	return r.e.deps.Profiles.UpsertOutcome(ctx, &models.PersistedRecord{
		UserID:               r.state.UserID,
		Pred:                 r.state.Pred,
		AllowedCreditLimit:   r.state.AllowedCreditLimit,
		UserProfile:          r.state.UserProfile,
		UserProfileIP:        r.state.UserProfileIP,
		FinalRecommendations: r.state.FinalRecommendations.Cards,
		Response:             models.ResponseValid,
	})
}

// invalidReason tells an empty candidate set apart from malformed re-ranker
// output. Both take the same retry edge; the distinction is observability
// only.
func (r *run) invalidReason() string {
	if len(r.state.CardSuggestions) == 0 {
		return "empty_candidates"
	}
	return "malformed_output"
}

// checkpoint atomically replaces the instance snapshot. The next node is
// recorded so a resumed run re-enters exactly where this one left off.
func (r *run) checkpoint(ctx context.Context, next node) error {
	payload, err := json.Marshal(r.state)
	if err != nil {
		return fmt.Errorf("failed to encode workflow state: %w", err)
	}
	return r.e.deps.Checkpoints.Save(ctx, &repository.Checkpoint{
		InstanceKey: r.key,
		RunID:       r.state.RunID,
		Node:        string(next),
		State:       payload,
	})
}

// abortAtCeiling records the exhausted run: the profile store gets a terminal
// invalid outcome so it is never left mid-loop, the checkpoint is closed, and
// the caller gets ErrIterationCeiling.
func (r *run) abortAtCeiling(ctx context.Context, steps int) error {
	r.e.ceilingHits.Add(ctx, 1)
	r.state.Response = models.ResponseInvalid
	if err := r.e.deps.Profiles.UpsertOutcome(ctx, &models.PersistedRecord{
		UserID:   r.state.UserID,
		Response: models.ResponseInvalid,
	}); err != nil {
		r.e.deps.Logger.Error("failed to persist exhausted outcome for user %s: %v", r.state.UserID, err)
	}
	if err := r.checkpoint(ctx, nodeEnd); err != nil {
		r.e.deps.Logger.Error("failed to close checkpoint for user %s: %v", r.state.UserID, err)
	}
	return fmt.Errorf("workflow for user %s gave up after %d steps: %w", r.state.UserID, steps, ErrIterationCeiling)
}
