// Package cli wires the pipeline into cobra commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/BartekS5/odoo-etl/internal/config"
	"github.com/BartekS5/odoo-etl/pkg/logger"
)

// RootOptions are the flags shared by every command.
type RootOptions struct {
	ConfigFile string
	LogFile    string
	LogLevel   string

	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &RootOptions{}

	rootCmd := &cobra.Command{
		Use:   "odoo-etl",
		Short: "odoo-etl - incremental Odoo to analytics ETL",
		Long: `odoo-etl extracts sales orders, products, customers and order lines changed
since the last successful run from Odoo over XML-RPC, stages them as CSV files
and loads them into a relational analytics schema.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "Rotating log file (overrides LOG_FILE)")
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Log level: info or debug (overrides LOG_LEVEL)")

	rootCmd.AddCommand(
		NewExtractCmd(opts),
		NewLoadCmd(opts),
		NewRunCmd(opts),
		NewScheduleCmd(opts),
		NewStatusCmd(opts),
		NewWatermarkCmd(opts),
	)

	return rootCmd
}

func (o *RootOptions) setup() error {
	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return err
	}
	if o.LogFile != "" {
		cfg.LogFile = o.LogFile
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if err := logger.InitLogger(cfg.LogFile, logger.ParseLevel(cfg.LogLevel)); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}
