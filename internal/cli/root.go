package cli

import (
	"github.com/spf13/cobra"
	"github.com/terraincognita07/fertility/internal/config"
)

// RootOptions holds flags shared by every command.
type RootOptions struct {
	DBPath string
	Config *config.Config
}

func NewRootCommand(cfg *config.Config) *cobra.Command {
	opts := &RootOptions{Config: cfg}

	cmd := &cobra.Command{
		Use:           "fertility",
		Short:         "Fertility cycle tracker",
		Long:          "Tracks menstrual cycles, predicts ovulation and fertile windows, and serves them over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", cfg.DBPath, "path to the sqlite database")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewMetricsCommand(opts))

	return cmd
}
