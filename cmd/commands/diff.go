package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yourusername/confsync/internal/config"
	"github.com/yourusername/confsync/internal/diffmgr"
	"github.com/yourusername/confsync/internal/fetch"
	"github.com/yourusername/confsync/internal/registry"
)

// NewDiffCmd creates the diff command
func NewDiffCmd() *cobra.Command {
	var (
		filePath  string
		realm     string
		branch    string
		html      bool
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "diff <collection>",
		Short: "Compare live configuration against a saved snapshot",
		Long: `Compare the current server state of a resource collection against a
previously exported snapshot, read from a local file or from the project's
Git repository depending on the project's storage mode.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection := args[0]
			if _, _, ok := registry.Resolve(collection, realm); !ok {
				return fmt.Errorf("unknown collection %q (known: %s)",
					collection, strings.Join(registry.Collections(), ", "))
			}
			return runDiff(cmd, collection, filePath, realm, branch, html, outputDir)
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Path to the snapshot file to compare against (local storage mode)")
	cmd.Flags().StringVarP(&realm, "realm", "r", "", "Target realm")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "Git branch to read the snapshot from (git storage mode)")
	cmd.Flags().BoolVar(&html, "html", true, "Generate an HTML diff report")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the HTML diff report")

	return cmd
}

func runDiff(cmd *cobra.Command, collection, filePath, realm, branch string, html bool, outputDir string) error {
	store := config.NewStore()

	apiURL := baseURL
	if apiURL == "" {
		if cfg, ok := store.Project(project); ok {
			apiURL = cfg.BaseURL
		}
	}
	if apiURL == "" {
		return fmt.Errorf("no base URL configured; pass --base-url or configure the project")
	}

	exporter := fetch.NewHTTPExporter(apiURL, token)
	manager := diffmgr.New(fetch.New(exporter, store))

	result := manager.PerformDiff(cmd.Context(), diffmgr.Options{
		Collection:    collection,
		FilePath:      filePath,
		Realm:         realm,
		Branch:        branch,
		Project:       project,
		GenerateHTML:  html,
		HTMLOutputDir: outputDir,
	})
	if result == nil {
		return fmt.Errorf("diff could not be performed for %s", collection)
	}
	return nil
}
