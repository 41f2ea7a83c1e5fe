package cli

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/terraincognita07/fertility/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:               "0",
		DBPath:             filepath.Join(t.TempDir(), "fertility-cli-test.db"),
		Location:           time.UTC,
		DefaultLanguage:    "en",
		DefaultProfileName: "Fertility",
		NotifyPollInterval: time.Minute,
	}
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand(cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, cfg *config.Config, args ...string) string {
	t.Helper()

	out, err := execute(t, cfg, args...)
	require.NoError(t, err, "fertility %v", args)
	return out
}
