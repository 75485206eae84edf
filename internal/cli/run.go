package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/BartekS5/odoo-etl/internal/config"
	"github.com/BartekS5/odoo-etl/internal/scheduler"
)

// pipelineSteps are extract then load, the two independently retried steps
// of a firing.
func pipelineSteps(cfg *config.Config) []scheduler.Step {
	return []scheduler.Step{
		{Name: "extract", Run: func(ctx context.Context) error {
			_, err := runExtract(ctx, cfg, extractOptions{})
			return err
		}},
		{Name: "load", Run: func(ctx context.Context) error {
			_, err := runLoad(ctx, cfg, cfg.StagingDir)
			return err
		}},
	}
}

func NewRunCmd(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Extract, then load, once",
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := requireConfig(root)
			if err != nil {
				return err
			}
			// no retries: a failed step fails the command
			return scheduler.New("", 0, 0, pipelineSteps(cfg)...).RunOnce(c.Context())
		},
	}
}

func NewScheduleCmd(root *RootOptions) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run extract then load on the SCHEDULE cron spec with bounded retry",
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := requireConfig(root)
			if err != nil {
				return err
			}
			s := scheduler.New(cfg.Schedule, cfg.Retries, cfg.RetryDelay, pipelineSteps(cfg)...)
			if once {
				return s.RunOnce(c.Context())
			}
			return s.Start(c.Context())
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single firing now and exit")
	return cmd
}
