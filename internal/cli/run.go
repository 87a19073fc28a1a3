package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"credit-advisor/backend/internal/config"
	"credit-advisor/backend/internal/logging"
	"credit-advisor/backend/internal/workflow"
)

// NewRunCommand creates the run command, which executes the recommendation
// workflow once for a single user and prints the resulting state.
func NewRunCommand() *cobra.Command {
	var maxSteps int

	cmd := &cobra.Command{
		Use:   "run <user-id>",
		Short: "Run the recommendation workflow for one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, args[0], maxSteps)
		},
	}

	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "iteration ceiling for the retry loop (0 uses the configured default)")

	return cmd
}

func runWorkflow(cmd *cobra.Command, userID string, maxSteps int) error {
	ctx := cmd.Context()
	logger := logging.NewLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		return err
	}

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to build application: %v", err)
		return err
	}
	defer a.Close()

	var opts []workflow.RunOption
	if maxSteps > 0 {
		opts = append(opts, workflow.WithMaxSteps(maxSteps))
	}

	state, err := a.engine.Run(ctx, userID, opts...)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
