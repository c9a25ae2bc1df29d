// Package diffmgr orchestrates a single diff operation end-to-end: resolve
// the collection, fetch both snapshots, compare, enrich with insights and
// render. A diff that cannot be performed yields nil, never a panic or an
// error return; callers must treat nil as "diff could not be performed",
// which is distinct from "diff found zero changes".
package diffmgr

import (
	"context"

	"github.com/yourusername/confsync/internal/diff"
	"github.com/yourusername/confsync/internal/fetch"
	"github.com/yourusername/confsync/internal/insights"
	"github.com/yourusername/confsync/internal/logger"
	"github.com/yourusername/confsync/internal/registry"
	"github.com/yourusername/confsync/internal/report"
)

// Options configures one PerformDiff invocation.
type Options struct {
	Collection    string
	FilePath      string
	Realm         string
	Branch        string
	Project       string
	GenerateHTML  bool
	HTMLOutputDir string
}

// Manager wires the data fetcher, diff engine, insights generator and
// reporter together.
type Manager struct {
	fetcher  *fetch.Fetcher
	engine   *diff.Engine
	insights *insights.Generator
	reporter *report.Reporter
}

// New creates a diff manager around a fetcher.
func New(fetcher *fetch.Fetcher) *Manager {
	return &Manager{
		fetcher:  fetcher,
		engine:   diff.NewEngine(),
		insights: insights.NewGenerator(),
		reporter: report.NewReporter(),
	}
}

// SetReporter replaces the reporter, mainly for tests that capture output.
func (m *Manager) SetReporter(r *report.Reporter) {
	m.reporter = r
}

// PerformDiff runs a complete live-vs-file diff for a named collection.
// Either fetch failing, or an unknown collection name, yields nil after
// logging.
func (m *Manager) PerformDiff(ctx context.Context, opts Options) (result *diff.Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("diff analysis failed: %v", r)
			result = nil
		}
	}()

	logger.Info("Performing diff analysis for %s...", opts.Collection)

	endpoint, filter, ok := registry.Resolve(opts.Collection, opts.Realm)
	if !ok {
		logger.Error("unknown collection: %s", opts.Collection)
		return nil
	}

	currentData := m.fetcher.FetchLive(ctx, opts.Collection, endpoint, filter)
	if currentData == nil {
		logger.Error("failed to fetch current server data")
		return nil
	}

	logger.Info("Fetching import data (file or git)")
	newData := m.fetcher.FetchFromFileOrGit(opts.Collection, opts.FilePath, opts.Branch, opts.Project, opts.Realm)
	if newData == nil {
		logger.Error("failed to fetch import data")
		return nil
	}

	result = m.compare(currentData, newData, opts.Collection, opts.Realm)
	m.reporter.DisplaySummary(result)

	if opts.GenerateHTML {
		if path, err := m.reporter.GenerateHTMLDiff(result, currentData, newData, opts.HTMLOutputDir); err == nil {
			logger.Info("Open HTML report: %s", path)
		}
	}

	return result
}

// QuickDiff compares two in-memory snapshots, for callers that already hold
// both (sync-deletion checks). Any internal failure yields nil plus a
// logged error; diffing must never crash the calling workflow.
func (m *Manager) QuickDiff(collection string, currentData, newData interface{}, realm string) (result *diff.Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("quick diff failed: %v", r)
			result = nil
		}
	}()

	result = m.compare(currentData, newData, collection, realm)
	m.reporter.DisplaySummary(result)
	return result
}

func (m *Manager) compare(currentData, newData interface{}, collection, realm string) *diff.Result {
	result := m.engine.Compare(currentData, newData, collection, realm)
	result.Insights = m.insights.Generate(collection, result.Added, result.Modified, result.Removed)
	return result
}
