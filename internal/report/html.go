package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/yourusername/confsync/internal/diff"
	"github.com/yourusername/confsync/internal/logger"
)

// htmlReport is the template input for one rendered diff artifact.
type htmlReport struct {
	Title       string
	GeneratedAt string
	Collection  string
	Realm       string
	TotalCur    int
	TotalNew    int
	Added       []diff.DiffItem
	Modified    []modifiedDetail
	Removed     []diff.DiffItem
	Insights    []string
	UnifiedDiff string
}

type modifiedDetail struct {
	ID      string
	Name    string
	Summary string
	Before  string
	After   string
}

// GenerateHTMLDiff writes a self-contained HTML report combining the diff
// summary with full before/after detail for modified items. It returns the
// written file path. I/O failures are logged and returned; nothing panics.
func (r *Reporter) GenerateHTMLDiff(result *diff.Result, currentData, newData interface{}, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = "diff_reports"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		logger.Error("failed to create report directory %s: %v", outputDir, err)
		return "", fmt.Errorf("create report directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(outputDir, fmt.Sprintf("%s_diff_%s.html", result.Collection, timestamp))

	content, err := renderHTML(result, currentData, newData, timestamp)
	if err != nil {
		logger.Error("failed to render HTML diff: %v", err)
		return "", err
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		logger.Error("failed to write HTML diff %s: %v", path, err)
		return "", fmt.Errorf("write report: %w", err)
	}

	logger.Info("HTML diff report saved: %s", path)
	return path, nil
}

func renderHTML(result *diff.Result, currentData, newData interface{}, timestamp string) (string, error) {
	currentJSON := prettyJSON(currentData)
	newJSON := prettyJSON(newData)

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(currentJSON),
		B:        difflib.SplitLines(newJSON),
		FromFile: "Current",
		ToFile:   "New",
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("unified diff: %w", err)
	}

	modified := make([]modifiedDetail, 0, len(result.Modified))
	for _, item := range result.Modified {
		modified = append(modified, modifiedDetail{
			ID:      item.ID,
			Name:    item.Name,
			Summary: item.Summary,
			Before:  prettyJSON(item.Current),
			After:   prettyJSON(item.New),
		})
	}

	data := htmlReport{
		Title:       fmt.Sprintf("Diff Report: %s", result.Collection),
		GeneratedAt: timestamp,
		Collection:  result.Collection,
		Realm:       result.Realm,
		TotalCur:    result.TotalCurrent,
		TotalNew:    result.TotalNew,
		Added:       result.Added,
		Modified:    modified,
		Removed:     result.Removed,
		Insights:    result.Insights,
		UnifiedDiff: unified,
	}

	var sb strings.Builder
	if err := reportTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return sb.String(), nil
}

func prettyJSON(v interface{}) string {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(encoded)
}

var reportTemplate = template.Must(template.New("diff").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2em; color: #24292e; }
h1, h2 { border-bottom: 1px solid #e1e4e8; padding-bottom: .3em; }
.summary { background: #f6f8fa; border: 1px solid #e1e4e8; border-radius: 6px; padding: 1em; }
.counts span { margin-right: 1.5em; font-weight: 600; }
.added { color: #22863a; }
.modified { color: #b08800; }
.removed { color: #cb2431; }
.insights li { margin: .3em 0; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
th, td { border: 1px solid #e1e4e8; padding: .4em .8em; text-align: left; }
th { background: #f6f8fa; }
pre { background: #f6f8fa; border: 1px solid #e1e4e8; border-radius: 6px; padding: 1em; overflow-x: auto; font-size: 12px; }
.side-by-side { display: flex; gap: 1em; }
.side-by-side > div { flex: 1; min-width: 0; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="summary">
<p>Collection: <strong>{{.Collection}}</strong>{{if .Realm}} | Realm: <strong>{{.Realm}}</strong>{{end}} | Generated: {{.GeneratedAt}}</p>
<p class="counts">
<span>Total on server: {{.TotalCur}}</span>
<span>Total in import: {{.TotalNew}}</span>
<span class="added">Added: {{len .Added}}</span>
<span class="modified">Modified: {{len .Modified}}</span>
<span class="removed">Removed: {{len .Removed}}</span>
</p>
</div>

{{if .Insights}}
<h2>Key Insights</h2>
<ul class="insights">
{{range .Insights}}<li>{{.}}</li>
{{end}}</ul>
{{end}}

{{if .Added}}
<h2 class="added">Added Items</h2>
<table><tr><th>ID</th><th>Name</th><th>Summary</th></tr>
{{range .Added}}<tr><td>{{.ID}}</td><td>{{.Name}}</td><td>{{.Summary}}</td></tr>
{{end}}</table>
{{end}}

{{if .Removed}}
<h2 class="removed">Removed Items</h2>
<table><tr><th>ID</th><th>Name</th><th>Summary</th></tr>
{{range .Removed}}<tr><td>{{.ID}}</td><td>{{.Name}}</td><td>{{.Summary}}</td></tr>
{{end}}</table>
{{end}}

{{if .Modified}}
<h2 class="modified">Modified Items</h2>
{{range .Modified}}
<h3>{{.ID}}{{if .Name}} ({{.Name}}){{end}}</h3>
<p>{{.Summary}}</p>
<div class="side-by-side">
<div><h4>Current</h4><pre>{{.Before}}</pre></div>
<div><h4>New</h4><pre>{{.After}}</pre></div>
</div>
{{end}}
{{end}}

<h2>Unified Diff</h2>
<pre>{{.UnifiedDiff}}</pre>
</body>
</html>
`))
