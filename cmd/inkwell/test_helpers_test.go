package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"inkwell/internal/config"
	"inkwell/internal/store"
)

// writeTestConfig writes a minimal valid config file backed by temp
// directories and returns its path.
func writeTestConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	path := filepath.Join(base, "inkwell.toml")
	contents := fmt.Sprintf(`data_dir = %q
log_dir = %q

[textgen]
api_key = "test"
`, filepath.Join(base, "data"), filepath.Join(base, "logs"))

	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// openTestStore opens the store behind a config file written by
// writeTestConfig so tests can seed workflows before running commands.
func openTestStore(t *testing.T, configPath string) *store.Store {
	t.Helper()

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// executeCommand runs the root command with args and returns its combined
// output and execution error.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	return executeWith(cmd, args...)
}

func executeWith(cmd *cobra.Command, args ...string) (string, error) {
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
