package rollback_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/confsync/internal/fetch"
	"github.com/yourusername/confsync/internal/models"
	"github.com/yourusername/confsync/internal/rollback"
)

// fakeDoer records every request and answers each with the next queued
// response (the last one repeats).
type fakeDoer struct {
	requests  []*http.Request
	bodies    []string
	responses []fakeResponse
}

type fakeResponse struct {
	status int
	body   string
	err    error
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)
	body := ""
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		body = string(raw)
	}
	f.bodies = append(f.bodies, body)

	resp := fakeResponse{status: http.StatusOK}
	if len(f.responses) > 0 {
		resp = f.responses[0]
		if len(f.responses) > 1 {
			f.responses = f.responses[1:]
		}
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return &http.Response{
		StatusCode: resp.status,
		Body:       io.NopCloser(bytes.NewBufferString(resp.body)),
	}, nil
}

type stubExporter struct {
	data interface{}
	err  error
}

func (s *stubExporter) Export(ctx context.Context, collection, endpoint string) (interface{}, error) {
	return s.data, s.err
}

type recordingStore struct {
	collection string
	realm      string
	saved      bool
	err        error
}

func (r *recordingStore) SaveBaseline(collection, realm string, data interface{}) error {
	r.collection = collection
	r.realm = realm
	r.saved = true
	return r.err
}

func TestCreateBaseline(t *testing.T) {
	exporter := &stubExporter{data: map[string]interface{}{
		"result": []interface{}{
			map[string]interface{}{"_id": "webapp", "name": "Web App"},
		},
	}}
	store := &recordingStore{}
	m := rollback.NewManager("oauth", "", rollback.WithBaselineStore(store))

	ok := m.CreateBaseline(context.Background(), fetch.New(exporter, nil))

	require.True(t, ok)
	item, found := m.BaselineItem("webapp")
	require.True(t, found)
	assert.Equal(t, "Web App", item["name"])
	assert.True(t, store.saved)
	assert.Equal(t, "oauth", store.collection)
	// empty realm falls back to the default
	assert.Equal(t, "alpha", store.realm)
}

func TestCreateBaseline_Failures(t *testing.T) {
	t.Run("unknown collection", func(t *testing.T) {
		m := rollback.NewManager("no-such-thing", "alpha")
		ok := m.CreateBaseline(context.Background(), fetch.New(&stubExporter{}, nil))
		assert.False(t, ok)
	})

	t.Run("fetch fails", func(t *testing.T) {
		m := rollback.NewManager("oauth", "alpha")
		ok := m.CreateBaseline(context.Background(), fetch.New(&stubExporter{err: assert.AnError}, nil))
		assert.False(t, ok)
	})
}

func TestExecuteRollback_CreatedEntryIsDeleted(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{{status: http.StatusNoContent}}}
	m := rollback.NewManager("oauth", "alpha", rollback.WithHTTPClient(doer))
	m.TrackImport("new-client", rollback.ActionCreated, nil)

	report := m.ExecuteRollback(context.Background(), "tok", "https://tenant.example.com")

	require.Len(t, doer.requests, 1)
	req := doer.requests[0]
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Contains(t, req.URL.Path, "/new-client")
	assert.NotContains(t, req.URL.RawQuery, "_queryFilter")
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
	assert.Equal(t, "resource=1.0", req.Header.Get("Accept-API-Version"))

	require.Len(t, report.RolledBack, 1)
	assert.Equal(t, rollback.RolledBack{ID: "new-client", Action: rollback.ActionDeleted}, report.RolledBack[0])
	assert.Empty(t, report.Errors)
}

func TestExecuteRollback_CreatedAlreadyGone(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{{status: http.StatusNotFound, body: "not found"}}}
	m := rollback.NewManager("oauth", "alpha", rollback.WithHTTPClient(doer))
	m.TrackImport("ghost", rollback.ActionCreated, nil)

	report := m.ExecuteRollback(context.Background(), "tok", "https://tenant.example.com")

	require.Len(t, report.RolledBack, 1)
	assert.Equal(t, rollback.ActionDeleted, report.RolledBack[0].Action)
	assert.Empty(t, report.Errors)
}

func TestExecuteRollback_UpdatedEntryIsRestored(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{{status: http.StatusOK}}}
	m := rollback.NewManager("oauth", "alpha", rollback.WithHTTPClient(doer))
	baseline := models.Item{"_id": "webapp", "grantTypes": []interface{}{"authorization_code"}}
	m.TrackImport("webapp", rollback.ActionUpdated, baseline)

	report := m.ExecuteRollback(context.Background(), "tok", "https://tenant.example.com")

	require.Len(t, doer.requests, 1)
	req := doer.requests[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Contains(t, req.URL.Path, "/webapp")
	assert.Contains(t, doer.bodies[0], "authorization_code")

	require.Len(t, report.RolledBack, 1)
	assert.Equal(t, rollback.RolledBack{ID: "webapp", Action: rollback.ActionRestored}, report.RolledBack[0])
	assert.Empty(t, report.Errors)
}

func TestExecuteRollback_UpdatedWithoutBaseline(t *testing.T) {
	doer := &fakeDoer{}
	m := rollback.NewManager("oauth", "alpha", rollback.WithHTTPClient(doer))
	m.TrackImport("webapp", rollback.ActionUpdated, nil)

	report := m.ExecuteRollback(context.Background(), "tok", "https://tenant.example.com")

	assert.Empty(t, doer.requests)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, rollback.Failure{ID: "webapp", Error: "no_baseline"}, report.Errors[0])
}

func TestExecuteRollback_BestEffortAcrossEntries(t *testing.T) {
	doer := &fakeDoer{responses: []fakeResponse{
		{status: http.StatusConflict, body: "locked"},
		{status: http.StatusOK},
	}}
	m := rollback.NewManager("oauth", "alpha", rollback.WithHTTPClient(doer))
	m.TrackImport("first", rollback.ActionCreated, nil)
	m.TrackImport("second", rollback.ActionUpdated, models.Item{"_id": "second"})

	report := m.ExecuteRollback(context.Background(), "tok", "https://tenant.example.com")

	assert.Len(t, doer.requests, 2)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "first", report.Errors[0].ID)
	assert.Equal(t, "locked", report.Errors[0].Error)
	require.Len(t, report.RolledBack, 1)
	assert.Equal(t, "second", report.RolledBack[0].ID)
}

func TestExecuteRollback_EntriesRunInRecordedOrder(t *testing.T) {
	doer := &fakeDoer{}
	m := rollback.NewManager("oauth", "alpha", rollback.WithHTTPClient(doer))
	m.TrackImport("a", rollback.ActionCreated, nil)
	m.TrackImport("b", rollback.ActionCreated, nil)
	m.TrackImport("c", rollback.ActionCreated, nil)
	require.Equal(t, 3, m.TrackedCount())

	m.ExecuteRollback(context.Background(), "tok", "https://tenant.example.com")

	require.Len(t, doer.requests, 3)
	assert.Contains(t, doer.requests[0].URL.Path, "/a")
	assert.Contains(t, doer.requests[1].URL.Path, "/b")
	assert.Contains(t, doer.requests[2].URL.Path, "/c")
}

func TestExecuteRollback_ManagedUsesSingleFullRestore(t *testing.T) {
	exporter := &stubExporter{data: map[string]interface{}{
		"objects": []interface{}{map[string]interface{}{"_id": "user"}},
	}}
	doer := &fakeDoer{responses: []fakeResponse{{status: http.StatusOK}}}
	m := rollback.NewManager("managed", "alpha", rollback.WithHTTPClient(doer))
	require.True(t, m.CreateBaseline(context.Background(), fetch.New(exporter, nil)))

	// per-item tracking is ignored for the managed bulk config
	m.TrackImport("user", rollback.ActionUpdated, models.Item{"_id": "user"})

	report := m.ExecuteRollback(context.Background(), "tok", "https://tenant.example.com")

	require.Len(t, doer.requests, 1)
	req := doer.requests[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "protocol=2.1,resource=1.0", req.Header.Get("Accept-API-Version"))

	require.Len(t, report.RolledBack, 1)
	assert.Equal(t, rollback.ActionRestoredManaged, report.RolledBack[0].Action)
	assert.Empty(t, report.Errors)
}

func TestExecuteRollback_ManagedWithoutBaseline(t *testing.T) {
	doer := &fakeDoer{}
	m := rollback.NewManager("managed", "alpha", rollback.WithHTTPClient(doer))

	report := m.ExecuteRollback(context.Background(), "tok", "https://tenant.example.com")

	assert.Empty(t, doer.requests)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Error, "no baseline")
}

func TestExecuteRollback_NothingTracked(t *testing.T) {
	doer := &fakeDoer{}
	m := rollback.NewManager("oauth", "alpha", rollback.WithHTTPClient(doer))

	report := m.ExecuteRollback(context.Background(), "tok", "https://tenant.example.com")

	assert.Empty(t, doer.requests)
	assert.NotNil(t, report.RolledBack)
	assert.NotNil(t, report.Errors)
	assert.Empty(t, report.RolledBack)
	assert.Empty(t, report.Errors)
}
