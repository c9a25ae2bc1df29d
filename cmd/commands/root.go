package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Global flags
var (
	baseURL string
	token   string
	project string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "confsync",
	Short: "Diff and synchronize identity-platform configuration",
	Long: `confsync compares configuration exported from an identity platform's
admin API against a previously saved snapshot (local file or Git), showing
what an import would add, modify or remove, and can clean up orphaned items
during sync imports.`,
}

// NewRootCmd creates a new root command
func NewRootCmd() *cobra.Command {
	rootCmd.Version = Version

	rootCmd.AddCommand(NewDiffCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the admin API (defaults to the active project's config)")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("CONFSYNC_TOKEN"), "Bearer token for the admin API")
	rootCmd.PersistentFlags().StringVarP(&project, "project", "p", "", "Project name (defaults to the current project)")
}
