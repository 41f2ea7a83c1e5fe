package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/fertility/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var profileID string
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print a profile snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunExportCommand(rootOpts, profileID, format, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&profileID, "profile", "", "profile id (defaults to the only profile)")
	cmd.Flags().StringVar(&format, "format", formatJSON, "output format (json|yaml)")

	return cmd
}

func RunExportCommand(opts *RootOptions, profileID string, format string, out io.Writer) error {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != formatJSON && format != formatYAML {
		return fmt.Errorf("invalid format %q: must be json or yaml", format)
	}

	registry, closeDB, err := openRegistry(opts.DBPath, opts.Config.Location)
	if err != nil {
		return err
	}
	defer closeDB()

	runtime, err := registry.Resolve(profileID)
	if err != nil {
		return fmt.Errorf("resolve profile: %w", err)
	}
	return writeSnapshot(out, runtime.Snapshot(), format)
}

func writeSnapshot(out io.Writer, snapshot models.ProfileSnapshot, format string) error {
	if format == formatYAML {
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(snapshot); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return encoder.Close()
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snapshot); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
