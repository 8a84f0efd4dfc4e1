package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"jobboard-ledger/internal/config"
	"jobboard-ledger/internal/models"

	"github.com/spf13/cobra"
)

func newPostJobCmd(a *app) *cobra.Command {
	var (
		description string
		employer    string
		fee         uint64
	)

	cmd := &cobra.Command{
		Use:   "post-job [title]",
		Short: "Post a job listing and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.ledger.PostJob(cmd.Context(), args[0], description, employer, models.Amount(fee))
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]uint64{"job_id": id})
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Job description")
	cmd.Flags().StringVar(&employer, "employer", "", "Employer identifier")
	cmd.Flags().Uint64Var(&fee, "fee", 0, "Application fee in base units")
	_ = cmd.MarkFlagRequired("employer")

	return cmd
}

func newApplyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apply [job-id] [applicant]",
		Short: "Apply for an active job and print the application id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := parseID(args[0])
			if err != nil {
				return err
			}
			id, err := a.ledger.ApplyForJob(cmd.Context(), jobID, args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]uint64{"application_id": id})
		},
	}
}

func newUpdateStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update-status [application-id] [status]",
		Short: "Set an application's status (Pending, Interviewed, Hired, Rejected)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.ledger.UpdateApplicationStatus(cmd.Context(), id, models.ApplicationStatus(args[1]))
		},
	}
}

func newCloseJobCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "close-job [job-id]",
		Short: "Stop a job from accepting applications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.ledger.CloseJob(cmd.Context(), id)
		},
	}
}

func newViewJobCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view-job [job-id]",
		Short: "Print a job listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			job, err := a.ledger.ViewJob(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, job)
		},
	}
}

func newViewApplicationCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view-application [application-id]",
		Short: "Print a job application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, err := a.ledger.ViewApplication(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, app)
		},
	}
}

func newCountersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "counters",
		Short: "Print the highest issued job and application ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.ledger.Counters(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, c)
		},
	}
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ensureDir creates the parent directory of a sqlite database file.
func ensureDir(cfg *config.Config) error {
	if cfg.StorageDriver != config.StorageSQLite {
		return nil
	}

	dir := filepath.Dir(cfg.DatabaseDSN)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}

	return nil
}
