// Package sync implements the sync-mode orphan cleanup used by import
// workflows: diff the live state against the incoming snapshot, then delete
// (after confirmation) everything that exists on the server but not in the
// import data.
package sync

import (
	"context"

	"github.com/yourusername/confsync/internal/deletion"
	"github.com/yourusername/confsync/internal/diffmgr"
	"github.com/yourusername/confsync/internal/logger"
)

// Options configures one sync deletion pass.
type Options struct {
	Collection string
	ItemType   string
	FilePath   string
	Realm      string
	Branch     string
	Project    string
	Token      string
	BaseURL    string
	Force      bool
}

// HandleSyncDeletions identifies and deletes orphaned items. It returns nil
// when the diff could not be performed, no orphans exist, or the user
// declined; otherwise the deletion summary.
func HandleSyncDeletions(ctx context.Context, diffManager *diffmgr.Manager, deletionManager *deletion.Manager, opts Options, deleteFn deletion.DeleteFunc) *deletion.Summary {
	logger.Info("Sync mode: checking for orphaned items to delete...")

	result := diffManager.PerformDiff(ctx, diffmgr.Options{
		Collection: opts.Collection,
		FilePath:   opts.FilePath,
		Realm:      opts.Realm,
		Branch:     opts.Branch,
		Project:    opts.Project,
		// No HTML artifact for sync passes.
		GenerateHTML: false,
	})
	if result == nil {
		logger.Warn("could not perform diff analysis for sync mode")
		return nil
	}

	items := deletionManager.ItemsToDelete(result)
	if len(items) == 0 {
		logger.Info("No orphaned items found - nothing to delete")
		return nil
	}

	if !deletionManager.ConfirmDeletions(items, opts.ItemType, opts.Force) {
		logger.Warn("deletion cancelled by user")
		return nil
	}

	logger.Info("Deleting %d orphaned item(s)...", len(items))
	summary := deletionManager.ExecuteDeletions(items, deleteFn, opts.Token, opts.BaseURL)
	deletionManager.PrintSummary(summary)

	return &summary
}
