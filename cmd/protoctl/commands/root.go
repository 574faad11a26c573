package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	workspace string
	repoDir   string
	verbose   bool
	dryRun    bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "protoctl",
		Short: "ZKsync OS protocol release tooling",
		Long: `protoctl drives the repetitive parts of a ZKsync OS protocol release:
rebuilding the local chain state committed to the server repository,
refreshing prover assets, rotating verification keys, and regenerating
era GPU setup data.

Each run executes numbered sections with expected durations, streams
external tool output into a per-run log file under the workspace, and
records its outcome in a local history database.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", defaultWorkspace(), "scratch directory for logs, downloads, and ecosystems")
	rootCmd.PersistentFlags().StringVarP(&repoDir, "repo", "r", os.Getenv("REPO_DIR"), "target repository checkout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", envBool("VERBOSE"), "stream external command output at info level")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", envBool("DRY_RUN"), "print the run header and exit without doing anything")

	// Add subcommands
	rootCmd.AddCommand(newUpdateCommand())
	rootCmd.AddCommand(newEraCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}

func defaultWorkspace() string {
	if ws := os.Getenv("WORKSPACE"); ws != "" {
		return ws
	}
	exe, err := os.Executable()
	if err != nil {
		return ".workspace"
	}
	return filepath.Join(filepath.Dir(exe), ".workspace")
}

// envOr returns the environment value for key, or fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envBool reads a boolean environment toggle.
func envBool(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
