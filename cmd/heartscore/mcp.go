package main

import (
	"errors"
	"os/signal"
	"syscall"

	"heartscore/internal/clock"
	"heartscore/internal/mcp"

	"github.com/spf13/cobra"
)

var mcpUser int64

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long: `Start the Model Context Protocol (MCP) server so an AI assistant can read
and update one user's HeartScore. The server speaks over stdin/stdout; logs
go to stderr.

AVAILABLE TOOLS:

  calculate_score        Compute and store the HeartScore for a day
  record_activity        Advance a streak for today
  evaluate_achievements  Award newly earned badges
  score_history          Daily scores for recent days

CLIENT CONFIGURATION:

  {
    "mcpServers": {
      "heartscore": { "command": "heartscore", "args": ["mcp", "--user", "1"] }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if mcpUser <= 0 {
			return errors.New("--user is required")
		}
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		return withServices(ctx, func(svc *services) error {
			server, err := mcp.NewServer(mcp.Services{
				Scores:       svc.scores,
				Streaks:      svc.streaks,
				Achievements: svc.achievements,
				History:      svc.history,
			}, mcpUser, clock.Real{}, version)
			if err != nil {
				return err
			}
			logger.Info("mcp server starting", "user_id", mcpUser)
			return server.Serve(ctx)
		})
	},
}

func init() {
	mcpCmd.Flags().Int64VarP(&mcpUser, "user", "u", 0, "user the tools act on")
	rootCmd.AddCommand(mcpCmd)
}
