package main

import (
	"fmt"

	"questcycle/internal/service"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:       "run [recurring-quests|generate|expire]",
	Short:     "Run one job once and print its report",
	Long:      `Runs a job once, prints the JSON report and exits non-zero when the run reported errors. Without an argument both expiration and generation run.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{service.JobRecurringQuests, service.JobGenerate, service.JobExpire},
	RunE:      runJob,
}

func runJob(cmd *cobra.Command, args []string) error {
	job := service.JobRecurringQuests
	if len(args) == 1 {
		job = args[0]
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.jobs.Run(cmd.Context(), job)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if !report.Success {
		return fmt.Errorf("job %s finished with %d errors", job, report.ErrorCount())
	}
	return nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the indexes and columns the jobs rely on",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.repo.Migrate(cmd.Context()); err != nil {
			return err
		}
		a.log.Info("migrations applied")
		return nil
	},
}
