package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/terraincognita07/fertility/internal/models"
	"gopkg.in/yaml.v3"
)

func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var profileID string

	cmd := &cobra.Command{
		Use:   "import <snapshot-file>",
		Short: "Load a JSON or YAML snapshot into a profile",
		Long: `Load a snapshot written by "fertility export" into the database.

An existing profile with the same id is replaced. Without --profile a new
profile is created.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunImportCommand(rootOpts, profileID, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&profileID, "profile", "", "profile id to create or replace")

	return cmd
}

func RunImportCommand(opts *RootOptions, profileID string, path string, out io.Writer) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	snapshot, err := decodeSnapshotFile(path, raw)
	if err != nil {
		return err
	}

	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		profileID = uuid.NewString()
	}

	registry, closeDB, err := openRegistry(opts.DBPath, opts.Config.Location)
	if err != nil {
		return err
	}
	defer closeDB()

	runtime, err := registry.Import(profileID, snapshot)
	if err != nil {
		return fmt.Errorf("import profile: %w", err)
	}

	fmt.Fprintf(out, "Imported profile %s (%s) with %d cycles\n", runtime.Name(), runtime.ID(), len(runtime.Cycles()))
	return nil
}

// decodeSnapshotFile picks the codec from the file extension; anything that
// is not .yaml or .yml is read as JSON.
func decodeSnapshotFile(path string, raw []byte) (models.ProfileSnapshot, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		snapshot := models.ProfileSnapshot{}
		if err := yaml.Unmarshal(raw, &snapshot); err != nil {
			return models.ProfileSnapshot{}, fmt.Errorf("decode yaml snapshot: %w", err)
		}
		return snapshot, nil
	default:
		snapshot, err := models.DecodeSnapshot(raw)
		if err != nil {
			return models.ProfileSnapshot{}, fmt.Errorf("decode json snapshot: %w", err)
		}
		return snapshot, nil
	}
}
