package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/BartekS5/odoo-etl/internal/config"
	"github.com/BartekS5/odoo-etl/internal/staging"
	"github.com/BartekS5/odoo-etl/pkg/models"
)

type statusReport struct {
	Watermark        string             `json:"watermark"`
	WatermarkBackend string             `json:"watermark_backend"`
	StagingDir       string             `json:"staging_dir"`
	Files            []staging.FileInfo `json:"files"`
}

func collectStatus(ctx context.Context, cfg *config.Config) (*statusReport, error) {
	store, err := openWatermarks(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	wm, err := store.Read(ctx)
	if err != nil {
		return nil, err
	}
	files, err := staging.Describe(cfg.StagingDir, models.Catalog())
	if err != nil {
		return nil, err
	}
	return &statusReport{
		Watermark:        wm,
		WatermarkBackend: cfg.Watermark.Backend,
		StagingDir:       cfg.StagingDir,
		Files:            files,
	}, nil
}

func NewStatusCmd(root *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current watermark and staging files",
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := requireConfig(root)
			if err != nil {
				return err
			}
			st, err := collectStatus(c.Context(), cfg)
			if err != nil {
				return err
			}
			if output != "table" {
				return printStructured(c.OutOrStdout(), output, st)
			}

			fmt.Fprintf(c.OutOrStdout(), "Watermark (%s): %s\n\n", st.WatermarkBackend, st.Watermark)
			rows := make([][]string, 0, len(st.Files))
			for _, f := range st.Files {
				modified := "-"
				if f.Exists {
					modified = f.ModTime.UTC().Format(staging.TimeLayout)
				}
				rows = append(rows, []string{
					string(f.Entity), strconv.FormatBool(f.Exists), strconv.Itoa(f.Rows),
					strconv.FormatInt(f.Size, 10), modified, f.Path,
				})
			}
			return printTable(c.OutOrStdout(), []string{"entity", "staged", "rows", "bytes", "modified", "path"}, rows)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json, yaml")
	return cmd
}
