package cli

import (
	"github.com/spf13/cobra"
)

func NewLoadCmd(root *RootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load staged files into the analytics database",
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := requireConfig(root)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.StagingDir
			}
			results, err := runLoad(c.Context(), cfg, dir)
			printLoadResults(c.OutOrStdout(), results)
			return err
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Staging directory (defaults to STAGING_DIR)")
	return cmd
}
