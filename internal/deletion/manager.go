// Package deletion turns a diff result's removed-item set into a confirmed,
// best-effort deletion batch against a live system. One Manager instance
// serves one batch; accumulators are reset at the start of every execution.
package deletion

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/yourusername/confsync/internal/diff"
	"github.com/yourusername/confsync/internal/logger"
)

// DeleteFunc deletes a single item. A false return or an error both count
// as a failed deletion.
type DeleteFunc func(itemID, token, baseURL string) (bool, error)

// ConfirmFunc asks the user a yes/no question; the default answer is no.
type ConfirmFunc func(prompt string) (bool, error)

// FailedDeletion records one item that could not be deleted.
type FailedDeletion struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Summary is the outcome of one deletion batch.
type Summary struct {
	DeletedCount    int              `json:"deleted_count"`
	FailedCount     int              `json:"failed_count"`
	DeletedItems    []string         `json:"deleted_items"`
	FailedDeletions []FailedDeletion `json:"failed_deletions"`
}

var warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

// Manager manages safe deletion of orphaned items during sync operations.
type Manager struct {
	deleted []string
	failed  []FailedDeletion
	out     io.Writer
	confirm ConfirmFunc
}

// Option configures a Manager.
type Option func(*Manager)

// WithOutput redirects the manager's console output.
func WithOutput(out io.Writer) Option {
	return func(m *Manager) { m.out = out }
}

// WithConfirmFunc replaces the interactive confirmation, for tests and
// non-interactive callers.
func WithConfirmFunc(fn ConfirmFunc) Option {
	return func(m *Manager) { m.confirm = fn }
}

// New creates a deletion manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		out:     os.Stdout,
		confirm: interactiveConfirm,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ItemsToDelete extracts the removed-item set from a diff result.
func (m *Manager) ItemsToDelete(result *diff.Result) []diff.DiffItem {
	return result.Removed
}

// ConfirmDeletions shows the deletion preview and obtains confirmation. An
// empty list needs no confirmation; force skips the prompt. A declined or
// unanswered prompt never deletes anything.
func (m *Manager) ConfirmDeletions(items []diff.DiffItem, itemType string, force bool) bool {
	if len(items) == 0 {
		logger.Info("No items to delete")
		return true
	}

	divider := warningStyle.Render("============================================================")
	fmt.Fprintln(m.out, divider)
	fmt.Fprintln(m.out, warningStyle.Render(fmt.Sprintf("SYNC MODE: %d %s will be DELETED", len(items), itemType)))
	fmt.Fprintln(m.out, divider)
	for _, item := range items {
		name := item.Name
		if name == "" {
			name = item.ID
		}
		fmt.Fprintf(m.out, "  x %s\n", name)
	}
	fmt.Fprintln(m.out, divider)

	if force {
		logger.Info("Force mode enabled, skipping confirmation")
		return true
	}

	confirmed, err := m.confirm("Are you sure you want to DELETE these items?")
	if err != nil {
		logger.Warn("confirmation aborted: %v", err)
		return false
	}
	return confirmed
}

// ExecuteDeletions deletes each item through deleteFn. The batch is
// best-effort: one item's failure never stops the remaining items.
func (m *Manager) ExecuteDeletions(items []diff.DiffItem, deleteFn DeleteFunc, token, baseURL string) Summary {
	m.deleted = nil
	m.failed = nil

	for _, item := range items {
		ok, err := safeDelete(deleteFn, item.ID, token, baseURL)
		switch {
		case err != nil:
			m.failed = append(m.failed, FailedDeletion{ID: item.ID, Error: err.Error()})
			logger.Error("failed to delete %s: %v", item.ID, err)
		case !ok:
			m.failed = append(m.failed, FailedDeletion{ID: item.ID, Error: "delete function returned false"})
		default:
			m.deleted = append(m.deleted, item.ID)
			name := item.Name
			if name == "" {
				name = item.ID
			}
			logger.Info("Deleted: %s", name)
		}
	}

	return m.summary()
}

// safeDelete converts a panicking delete capability into an ordinary error
// so the batch keeps going.
func safeDelete(deleteFn DeleteFunc, itemID, token, baseURL string) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("delete panicked: %v", r)
		}
	}()
	return deleteFn(itemID, token, baseURL)
}

func (m *Manager) summary() Summary {
	return Summary{
		DeletedCount:    len(m.deleted),
		FailedCount:     len(m.failed),
		DeletedItems:    append([]string{}, m.deleted...),
		FailedDeletions: append([]FailedDeletion{}, m.failed...),
	}
}

// PrintSummary renders a deletion summary. Presentation only.
func (m *Manager) PrintSummary(s Summary) {
	if s.DeletedCount > 0 {
		fmt.Fprintf(m.out, "Successfully deleted %d item(s)\n", s.DeletedCount)
	}
	if s.FailedCount > 0 {
		fmt.Fprintln(m.out, warningStyle.Render(fmt.Sprintf("Failed to delete %d item(s)", s.FailedCount)))
		for _, f := range s.FailedDeletions {
			fmt.Fprintf(m.out, "  - %s: %s\n", f.ID, f.Error)
		}
	}
}

func interactiveConfirm(prompt string) (bool, error) {
	confirmed := false
	err := huh.NewConfirm().
		Title(prompt).
		Affirmative("Yes, delete").
		Negative("No").
		Value(&confirmed).
		Run()
	if err != nil {
		return false, err
	}
	return confirmed, nil
}
