package sync_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/confsync/internal/deletion"
	"github.com/yourusername/confsync/internal/diffmgr"
	"github.com/yourusername/confsync/internal/fetch"
	"github.com/yourusername/confsync/internal/report"
	syncpkg "github.com/yourusername/confsync/internal/sync"
)

type stubExporter struct {
	data interface{}
	err  error
}

func (s *stubExporter) Export(ctx context.Context, collection, endpoint string) (interface{}, error) {
	return s.data, s.err
}

func quietDiffManager(exporter fetch.Exporter) *diffmgr.Manager {
	m := diffmgr.New(fetch.New(exporter, nil))
	m.SetReporter(report.NewReporterTo(&bytes.Buffer{}))
	return m
}

func quietDeletionManager(confirm deletion.ConfirmFunc) *deletion.Manager {
	opts := []deletion.Option{deletion.WithOutput(&bytes.Buffer{})}
	if confirm != nil {
		opts = append(opts, deletion.WithConfirmFunc(confirm))
	}
	return deletion.New(opts...)
}

func writeImport(t *testing.T, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "import.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))
	return path
}

func TestHandleSyncDeletions_DeletesOrphans(t *testing.T) {
	// server has two items, the import keeps one: "stale" is an orphan
	exporter := &stubExporter{data: map[string]interface{}{
		"result": []interface{}{
			map[string]interface{}{"_id": "keep", "name": "Keep"},
			map[string]interface{}{"_id": "stale", "name": "Stale"},
		},
	}}
	filePath := writeImport(t, `{"result": [{"_id": "keep", "name": "Keep"}]}`)

	var deletedIDs []string
	deleteFn := func(itemID, token, baseURL string) (bool, error) {
		deletedIDs = append(deletedIDs, itemID)
		assert.Equal(t, "tok", token)
		assert.Equal(t, "https://tenant.example.com", baseURL)
		return true, nil
	}

	summary := syncpkg.HandleSyncDeletions(context.Background(),
		quietDiffManager(exporter), quietDeletionManager(nil),
		syncpkg.Options{
			Collection: "scripts",
			ItemType:   "scripts",
			FilePath:   filePath,
			Token:      "tok",
			BaseURL:    "https://tenant.example.com",
			Force:      true,
		}, deleteFn)

	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.DeletedCount)
	assert.Equal(t, 0, summary.FailedCount)
	assert.Equal(t, []string{"stale"}, deletedIDs)
}

func TestHandleSyncDeletions_NilWhenDiffFails(t *testing.T) {
	exporter := &stubExporter{err: assert.AnError}

	called := false
	deleteFn := func(itemID, token, baseURL string) (bool, error) {
		called = true
		return true, nil
	}

	summary := syncpkg.HandleSyncDeletions(context.Background(),
		quietDiffManager(exporter), quietDeletionManager(nil),
		syncpkg.Options{Collection: "scripts", FilePath: "/nowhere.json", Force: true},
		deleteFn)

	assert.Nil(t, summary)
	assert.False(t, called)
}

func TestHandleSyncDeletions_NilWhenNoOrphans(t *testing.T) {
	exporter := &stubExporter{data: map[string]interface{}{
		"result": []interface{}{map[string]interface{}{"_id": "keep"}},
	}}
	filePath := writeImport(t, `{"result": [{"_id": "keep"}]}`)

	summary := syncpkg.HandleSyncDeletions(context.Background(),
		quietDiffManager(exporter), quietDeletionManager(nil),
		syncpkg.Options{Collection: "scripts", FilePath: filePath, Force: true},
		func(itemID, token, baseURL string) (bool, error) { return true, nil })

	assert.Nil(t, summary)
}

func TestHandleSyncDeletions_NilWhenUserDeclines(t *testing.T) {
	exporter := &stubExporter{data: map[string]interface{}{
		"result": []interface{}{map[string]interface{}{"_id": "stale"}},
	}}
	filePath := writeImport(t, `{"result": []}`)

	called := false
	deleteFn := func(itemID, token, baseURL string) (bool, error) {
		called = true
		return true, nil
	}

	summary := syncpkg.HandleSyncDeletions(context.Background(),
		quietDiffManager(exporter),
		quietDeletionManager(func(prompt string) (bool, error) { return false, nil }),
		syncpkg.Options{Collection: "scripts", FilePath: filePath},
		deleteFn)

	assert.Nil(t, summary)
	assert.False(t, called)
}

func TestHandleSyncDeletions_ReportsPartialFailure(t *testing.T) {
	exporter := &stubExporter{data: map[string]interface{}{
		"result": []interface{}{
			map[string]interface{}{"_id": "one"},
			map[string]interface{}{"_id": "two"},
		},
	}}
	filePath := writeImport(t, `{"result": []}`)

	deleteFn := func(itemID, token, baseURL string) (bool, error) {
		return itemID == "one", nil
	}

	summary := syncpkg.HandleSyncDeletions(context.Background(),
		quietDiffManager(exporter), quietDeletionManager(nil),
		syncpkg.Options{Collection: "scripts", FilePath: filePath, Force: true},
		deleteFn)

	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.DeletedCount)
	require.Equal(t, 1, summary.FailedCount)
	assert.Equal(t, "two", summary.FailedDeletions[0].ID)
}
