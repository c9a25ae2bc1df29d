// Package rollback tracks the mutations an import batch performs so a
// failed batch can be reversed: created items are deleted, updated items
// get their pre-import baseline PUT back. Rollback is best-effort and
// non-transactional; one entry's failure never stops the rest.
package rollback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yourusername/confsync/internal/diff"
	"github.com/yourusername/confsync/internal/fetch"
	"github.com/yourusername/confsync/internal/logger"
	"github.com/yourusername/confsync/internal/models"
	"github.com/yourusername/confsync/internal/registry"
)

// Actions recorded against tracked entries and reported after reversal.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"

	ActionDeleted         = "deleted"
	ActionRestored        = "restored"
	ActionRestoredManaged = "restored_managed_config"
)

// Entry is one tracked mutation. Baseline is only present for updates.
type Entry struct {
	ID       string
	Action   string
	Baseline models.Item
}

// RolledBack records one successfully reversed entry.
type RolledBack struct {
	ID     string `json:"id,omitempty"`
	Action string `json:"action"`
}

// Failure records one entry that could not be reversed.
type Failure struct {
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

// Report is the outcome of exactly one rollback execution.
type Report struct {
	RolledBack []RolledBack `json:"rolled_back"`
	Errors     []Failure    `json:"errors"`
}

// Doer issues one HTTP request; satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// BaselineStore optionally persists the captured baseline snapshot for
// auditability (e.g. the Git collaborator). Persistence failure does not
// fail baseline capture.
type BaselineStore interface {
	SaveBaseline(collection, realm string, data interface{}) error
}

// Manager tracks one import batch scoped to a collection and realm. Use a
// fresh instance per batch; reusing one across batches corrupts the report.
type Manager struct {
	collection string
	realm      string

	entries     []Entry
	baseline    map[string]models.Item
	rawBaseline interface{}

	client Doer
	store  BaselineStore
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient replaces the HTTP client used for reversal calls.
func WithHTTPClient(client Doer) Option {
	return func(m *Manager) { m.client = client }
}

// WithBaselineStore persists baseline snapshots through the given store.
func WithBaselineStore(store BaselineStore) Option {
	return func(m *Manager) { m.store = store }
}

// NewManager creates a rollback manager for one import batch.
func NewManager(collection, realm string, opts ...Option) *Manager {
	if realm == "" {
		realm = registry.DefaultRealm
	}
	m := &Manager{
		collection: collection,
		realm:      realm,
		baseline:   map[string]models.Item{},
		client:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateBaseline captures the pre-import server state for the batch's
// collection: the raw blob for full-config restores and an identity-keyed
// map for per-item baselines. Returns false when the state could not be
// captured.
func (m *Manager) CreateBaseline(ctx context.Context, fetcher *fetch.Fetcher) bool {
	logger.Info("Creating baseline snapshot for %s (realm=%s)...", m.collection, m.realm)

	endpoint, filter, ok := registry.Resolve(m.collection, m.realm)
	if !ok {
		logger.Error("unknown collection for baseline snapshot: %s", m.collection)
		return false
	}

	data := fetcher.FetchLive(ctx, m.collection, endpoint, filter)
	if data == nil {
		logger.Error("failed to capture baseline snapshot from server")
		return false
	}

	m.rawBaseline = data
	m.baseline = models.BuildIDMap(diff.ExtractItems(data))

	if m.store != nil {
		if err := m.store.SaveBaseline(m.collection, m.realm, data); err != nil {
			logger.Warn("failed to persist baseline snapshot: %v", err)
		}
	}

	logger.Info("Baseline snapshot created")
	return true
}

// BaselineItem returns the captured pre-import value of one item.
func (m *Manager) BaselineItem(id string) (models.Item, bool) {
	item, ok := m.baseline[id]
	return item, ok
}

// TrackImport records a successfully created or updated item for potential
// rollback. Baseline is the full pre-mutation item for updates; creates
// carry none (reversal is deletion).
func (m *Manager) TrackImport(id, action string, baseline models.Item) {
	m.entries = append(m.entries, Entry{ID: id, Action: action, Baseline: baseline})
}

// TrackedCount returns the number of recorded mutations.
func (m *Manager) TrackedCount() int {
	return len(m.entries)
}

// ExecuteRollback reverses the tracked mutations in the order they were
// recorded and reports per-entry outcomes. With nothing tracked (and no
// managed baseline to restore) the report is empty and valid.
func (m *Manager) ExecuteRollback(ctx context.Context, token, baseURL string) *Report {
	report := &Report{RolledBack: []RolledBack{}, Errors: []Failure{}}
	logger.Info("Initiating rollback of imported items...")

	// The managed collection is one bulk config object; restore it with a
	// single full PUT of the raw baseline instead of per-item reversal.
	if strings.EqualFold(m.collection, "managed") {
		m.restoreManagedBaseline(ctx, token, baseURL, report)
		return report
	}

	for _, entry := range m.entries {
		switch entry.Action {
		case ActionCreated:
			m.rollbackCreated(ctx, entry, token, baseURL, report)
		case ActionUpdated:
			m.rollbackUpdated(ctx, entry, token, baseURL, report)
		default:
			logger.Warn("unknown action %q for %s; skipping", entry.Action, entry.ID)
		}
	}

	logger.Info("Rollback completed")
	return report
}

func (m *Manager) restoreManagedBaseline(ctx context.Context, token, baseURL string, report *Report) {
	if m.rawBaseline == nil {
		report.Errors = append(report.Errors, Failure{Error: "no baseline captured for managed restore"})
		return
	}

	endpoint, _, ok := registry.Resolve(m.collection, m.realm)
	if !ok {
		report.Errors = append(report.Errors, Failure{Error: "unknown API endpoint for managed restore"})
		return
	}

	url := joinURL(baseURL, endpoint)
	status, body, err := m.send(ctx, http.MethodPut, url, token, m.rawBaseline, "protocol=2.1,resource=1.0")
	if err != nil {
		logger.Warn("managed restore failed: %v", err)
		report.Errors = append(report.Errors, Failure{Error: err.Error()})
		return
	}
	if status == http.StatusOK || status == http.StatusCreated {
		logger.Info("Managed objects restored from baseline")
		report.RolledBack = append(report.RolledBack, RolledBack{Action: ActionRestoredManaged})
		return
	}
	logger.Warn("failed to restore managed baseline: %d", status)
	report.Errors = append(report.Errors, Failure{Error: body})
}

func (m *Manager) rollbackCreated(ctx context.Context, entry Entry, token, baseURL string, report *Report) {
	url := m.itemURL(baseURL, entry.ID)
	status, body, err := m.send(ctx, http.MethodDelete, url, token, nil, "resource=1.0")
	if err != nil {
		logger.Warn("rollback error for %s: %v", entry.ID, err)
		report.Errors = append(report.Errors, Failure{ID: entry.ID, Error: err.Error()})
		return
	}
	// 404 means the item is already gone, which is the state we want.
	if status == http.StatusOK || status == http.StatusNoContent || status == http.StatusNotFound {
		logger.Info("Rolled back (deleted): %s", entry.ID)
		report.RolledBack = append(report.RolledBack, RolledBack{ID: entry.ID, Action: ActionDeleted})
		return
	}
	logger.Warn("failed to delete %s during rollback: %d", entry.ID, status)
	report.Errors = append(report.Errors, Failure{ID: entry.ID, Error: body})
}

func (m *Manager) rollbackUpdated(ctx context.Context, entry Entry, token, baseURL string, report *Report) {
	if entry.Baseline == nil {
		logger.Warn("no baseline found for %s; skipping restore", entry.ID)
		report.Errors = append(report.Errors, Failure{ID: entry.ID, Error: "no_baseline"})
		return
	}

	url := m.itemURL(baseURL, entry.ID)
	status, body, err := m.send(ctx, http.MethodPut, url, token, entry.Baseline, "resource=1.0")
	if err != nil {
		logger.Warn("rollback error for %s: %v", entry.ID, err)
		report.Errors = append(report.Errors, Failure{ID: entry.ID, Error: err.Error()})
		return
	}
	if status >= 200 && status <= 299 {
		logger.Info("Rolled back (restored): %s", entry.ID)
		report.RolledBack = append(report.RolledBack, RolledBack{ID: entry.ID, Action: ActionRestored})
		return
	}
	logger.Warn("failed to restore %s during rollback: %d", entry.ID, status)
	report.Errors = append(report.Errors, Failure{ID: entry.ID, Error: body})
}

// send issues one reversal request and returns the status code and a short
// body excerpt for error reporting.
func (m *Manager) send(ctx context.Context, method, url, token string, payload interface{}, apiVersion string) (int, string, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, "", fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-API-Version", apiVersion)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return resp.StatusCode, strings.TrimSpace(string(excerpt)), nil
}

// itemURL resolves the per-item endpoint through the registry, with a
// generic fallback when the collection is unknown.
func (m *Manager) itemURL(baseURL, itemID string) string {
	endpoint, _, ok := registry.Resolve(m.collection, m.realm)
	if !ok {
		return joinURL(baseURL, "/"+itemID)
	}

	switch {
	case strings.HasSuffix(endpoint, "?_queryFilter=true"):
		endpoint = strings.TrimSuffix(endpoint, "?_queryFilter=true") + "/" + itemID
	case strings.HasSuffix(endpoint, "/"):
		endpoint += itemID
	default:
		endpoint += "/" + itemID
	}
	return joinURL(baseURL, endpoint)
}

func joinURL(baseURL, endpoint string) string {
	return strings.TrimRight(baseURL, "/") + endpoint
}
