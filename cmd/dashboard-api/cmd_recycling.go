package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/dashboard-api/internal/schedule"
)

var recyclingAt string

var recyclingCmd = &cobra.Command{
	Use:   "recycling",
	Short: "Print the recycling schedule for an instant",
	Long: `Evaluate the configured recycling schedule without starting the server.

Examples:
  # Schedule as of now
  dashboard-api recycling

  # Schedule for a specific instant
  dashboard-api recycling --at 2024-01-16T20:00:00Z
`,
	RunE: runRecycling,
}

func init() {
	recyclingCmd.Flags().StringVar(&recyclingAt, "at", "", "RFC3339 instant to evaluate (default now)")
	rootCmd.AddCommand(recyclingCmd)
}

func runRecycling(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	at := time.Now()
	if recyclingAt != "" {
		t, err := time.Parse(time.RFC3339, recyclingAt)
		if err != nil {
			return fmt.Errorf("parse --at: %w", err)
		}
		at = t
	}

	return writeRecycling(cmd.OutOrStdout(), at, cfg.Timezone, cfg.Schedule)
}

func writeRecycling(out io.Writer, at time.Time, zone string, sched schedule.Config) error {
	result, err := schedule.EvaluateAt(at, zone, sched)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
