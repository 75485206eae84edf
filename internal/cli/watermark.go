package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BartekS5/odoo-etl/internal/config"
	"github.com/BartekS5/odoo-etl/internal/runlock"
	"github.com/BartekS5/odoo-etl/internal/watermark"
	"github.com/BartekS5/odoo-etl/pkg/logger"
)

func NewWatermarkCmd(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watermark",
		Short: "Inspect or override the extraction watermark",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored watermark",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := requireConfig(root)
			if err != nil {
				return err
			}
			store, err := openWatermarks(c.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ts, err := store.Read(c.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), ts)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <timestamp>",
		Short: `Store a watermark such as "2024-05-01 00:00:00" (UTC)`,
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := requireConfig(root)
			if err != nil {
				return err
			}
			return writeWatermark(c.Context(), cfg, args[0])
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Reset the watermark so the next extract is a full one",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := requireConfig(root)
			if err != nil {
				return err
			}
			return writeWatermark(c.Context(), cfg, watermark.Epoch)
		},
	}

	cmd.AddCommand(show, set, reset)
	return cmd
}

func writeWatermark(ctx context.Context, cfg *config.Config, ts string) error {
	if err := watermark.Validate(ts); err != nil {
		return err
	}
	return runlock.With(cfg.LockFile, cfg.LockStaleAfter, func() error {
		store, err := openWatermarks(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Write(ctx, ts); err != nil {
			return err
		}
		logger.Infof("Watermark set to %s", ts)
		return nil
	})
}
