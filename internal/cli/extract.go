package cli

import (
	"github.com/spf13/cobra"
)

func NewExtractCmd(root *RootOptions) *cobra.Command {
	opts := extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract records changed since the watermark into staging files",
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := requireConfig(root)
			if err != nil {
				return err
			}
			report, err := runExtract(c.Context(), cfg, opts)
			if err != nil {
				return err
			}
			printExtractReport(c.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Fetch and transform without writing staging files or the watermark")
	cmd.Flags().BoolVar(&opts.Full, "full", false, "Ignore the stored watermark and extract everything")
	return cmd
}
