package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// These variables are set during build time using ldflags
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("confsync version %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}
