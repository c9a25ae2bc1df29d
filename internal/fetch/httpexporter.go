package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Doer issues one HTTP request. Satisfied by *http.Client; narrow so tests
// can stub transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPExporter is a minimal bearer-token implementation of Exporter for
// callers that do not bring their own export pipeline. Authentication
// (obtaining the token) stays with the caller.
type HTTPExporter struct {
	BaseURL string
	Token   string
	Client  Doer
}

// NewHTTPExporter creates an exporter with a default client.
func NewHTTPExporter(baseURL, token string) *HTTPExporter {
	return &HTTPExporter{
		BaseURL: baseURL,
		Token:   token,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Export fetches one JSON document from the endpoint.
func (e *HTTPExporter) Export(ctx context.Context, collection, endpoint string) (interface{}, error) {
	url := strings.TrimRight(e.BaseURL, "/") + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", collection, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-API-Version", "resource=1.0")
	if e.Token != "" {
		req.Header.Set("Authorization", "Bearer "+e.Token)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", collection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: status %d: %s", collection, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", collection, err)
	}
	return data, nil
}
