// Package fetch resolves "where does the snapshot come from": the live
// admin API (through the authenticated export collaborator) or a previously
// saved file / Git working-tree snapshot. All failures surface as a nil
// snapshot plus a logged error, never as an error return; a failed fetch is
// a reportable non-fatal outcome.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yourusername/confsync/internal/config"
	"github.com/yourusername/confsync/internal/logger"
	"github.com/yourusername/confsync/internal/registry"
)

// Exporter is the narrow contract with the authenticated export/transport
// collaborator: fetch one full (possibly multi-page) JSON document for an
// endpoint.
type Exporter interface {
	Export(ctx context.Context, collection, endpoint string) (interface{}, error)
}

// Fetcher obtains configuration snapshots for diffing.
type Fetcher struct {
	exporter Exporter
	store    *config.Store
}

// New creates a fetcher around an exporter and the project config store.
func New(exporter Exporter, store *config.Store) *Fetcher {
	return &Fetcher{exporter: exporter, store: store}
}

// FetchLive obtains the current server snapshot for a collection and
// applies the registry's optional response filter. Returns nil on any
// failure.
func (f *Fetcher) FetchLive(ctx context.Context, collection, endpoint string, filter registry.ResponseFilter) interface{} {
	if f.exporter == nil {
		logger.Error("no exporter configured for live fetch of %s", collection)
		return nil
	}

	logger.Info("Fetching current %s data from server...", collection)
	data, err := f.exporter.Export(ctx, collection, endpoint)
	if err != nil {
		logger.Error("failed to fetch %s data: %v", collection, err)
		return nil
	}
	if data == nil {
		return nil
	}
	if filter != nil {
		data = filter(data)
	}
	return data
}

// FetchFromFileOrGit loads the "new" snapshot from a local file or from the
// project's local Git clone, depending on the project's storage mode.
// Returns nil on any failure.
func (f *Fetcher) FetchFromFileOrGit(collection, filePath, branch, project, realm string) interface{} {
	if f.store != nil && f.store.StorageMode(project) == config.StorageModeGit {
		return f.fetchFromGit(collection, project, realm)
	}
	return f.fetchFromLocalFile(filePath)
}

func (f *Fetcher) fetchFromLocalFile(filePath string) interface{} {
	if filePath == "" {
		logger.Error("no import file path provided")
		return nil
	}

	raw, err := os.ReadFile(filePath)
	if err != nil {
		logger.Error("failed to read file %s: %v", filePath, err)
		return nil
	}

	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		logger.Error("failed to parse JSON in %s: %v", filePath, err)
		return nil
	}

	logger.Info("Loaded data from %s", filePath)
	return data
}

// fetchFromGit locates the snapshot file for a collection inside the
// project's already-cloned repository. Realm-qualified filenames are
// preferred over generic matches; the first match wins.
func (f *Fetcher) fetchFromGit(collection, project, realm string) interface{} {
	repoPath := f.store.RepoPath(project)
	if repoPath == "" {
		logger.Error("git storage mode is configured but no repo path is set for project %q", project)
		return nil
	}
	if info, err := os.Stat(repoPath); err != nil || !info.IsDir() {
		logger.Warn("local Git repository not found at %s; run an export first", repoPath)
		return nil
	}

	if realm == "" {
		realm = registry.DefaultRealm
	}

	patterns := []string{
		fmt.Sprintf("*%s*%s*.json", collection, realm),
		fmt.Sprintf("*%s*%s*.json", realm, collection),
		fmt.Sprintf("*%s*.json", collection),
	}

	match := findSnapshot(repoPath, patterns)
	if match == "" {
		logger.Warn("no %s snapshot found in Git repository %s; run an export first", collection, repoPath)
		return nil
	}

	logger.Info("Loading %s data from Git: %s", collection, filepath.Base(match))
	return f.fetchFromLocalFile(match)
}

func findSnapshot(root string, patterns []string) string {
	for _, pattern := range patterns {
		var found string
		_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if ok, _ := filepath.Match(pattern, d.Name()); ok && found == "" {
				found = path
			}
			return nil
		})
		if found != "" {
			return found
		}
	}
	return ""
}
