// Package diff implements the change-detection engine: it normalizes two
// raw JSON snapshots of a resource collection into identity-keyed item sets
// and classifies every item as added, removed, modified or unchanged.
package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yourusername/confsync/internal/models"
)

// ChangeType classifies an item within one comparison.
type ChangeType string

const (
	ChangeAdded     ChangeType = "added"
	ChangeModified  ChangeType = "modified"
	ChangeRemoved   ChangeType = "removed"
	ChangeUnchanged ChangeType = "unchanged"
)

// DiffItem is one classified item. Current and New carry the raw item
// payloads where available; Delta is populated for modified items only.
// DiffItems are immutable once the comparison has produced them.
type DiffItem struct {
	ID           string
	Name         string
	Realm        string
	Type         ChangeType
	ChangesCount int
	Summary      string
	Current      models.Item
	New          models.Item
	Delta        *Delta
}

// Result aggregates one comparison of a resource collection.
//
// TotalCurrent and TotalNew are the raw extracted-item counts and may exceed
// the sum of the four buckets when extracted items lack a resolvable
// identity; that divergence is deliberate and must not be reconciled.
type Result struct {
	Collection   string
	Realm        string
	TotalCurrent int
	TotalNew     int
	Added        []DiffItem
	Modified     []DiffItem
	Removed      []DiffItem
	Unchanged    []DiffItem
	Insights     []string
}

// listWrapperKeys are, in priority order, the object keys whose list value
// is treated as the item collection during extraction. These are structural
// predicates; the engine never branches on collection names.
var listWrapperKeys = []string{"result", "clients", "objects", "mappings"}

// ignoredFields are volatile bookkeeping fields excluded from item
// comparison.
var ignoredFields = map[string]bool{
	"_rev":         true,
	"lastModified": true,
	"createdDate":  true,
	"modifiedDate": true,
}

// Engine compares configuration snapshots. It is stateless; one instance
// may serve any number of comparisons.
type Engine struct{}

// NewEngine creates a diff engine.
func NewEngine() *Engine {
	return &Engine{}
}

// ExtractItems flattens a snapshot into its item sequence using a uniform
// unwrapping rule: descend into a "data" key, use a known list-wrapper key
// ("result" and friends) when its value is a list, use a bare list as-is,
// and treat any other object as a one-item collection. Anything that cannot
// be unwrapped yields an empty sequence, never an error.
func ExtractItems(snapshot interface{}) []interface{} {
	if snapshot == nil {
		return nil
	}

	value := snapshot
	if obj, ok := value.(map[string]interface{}); ok {
		if inner, present := obj["data"]; present {
			value = inner
		}
	}

	if obj, ok := value.(map[string]interface{}); ok {
		for _, key := range listWrapperKeys {
			if list, isList := obj[key].([]interface{}); isList {
				return list
			}
		}
	}

	if list, ok := value.([]interface{}); ok {
		return list
	}

	if obj, ok := value.(map[string]interface{}); ok {
		return []interface{}{obj}
	}

	return nil
}

// Compare turns two raw snapshots into a Result. It never panics on
// malformed input; snapshots that contain no recognizable items degrade to
// an empty comparison.
func (e *Engine) Compare(current, updated interface{}, collection, realm string) *Result {
	currentItems := ExtractItems(current)
	newItems := ExtractItems(updated)

	currentMap := models.BuildIDMap(currentItems)
	newMap := models.BuildIDMap(newItems)

	result := &Result{
		Collection:   collection,
		Realm:        realm,
		TotalCurrent: len(currentItems),
		TotalNew:     len(newItems),
		Insights:     []string{},
	}

	for _, id := range sortedKeys(newMap) {
		newItem := newMap[id]
		currentItem, exists := currentMap[id]
		if !exists {
			result.Added = append(result.Added, e.buildDiffItem(id, nil, newItem, ChangeAdded, realm, nil))
			continue
		}

		delta := computeDelta(map[string]interface{}(stripIgnored(currentItem)), map[string]interface{}(stripIgnored(newItem)))
		if delta.Empty() {
			result.Unchanged = append(result.Unchanged, e.buildDiffItem(id, currentItem, newItem, ChangeUnchanged, realm, nil))
		} else {
			result.Modified = append(result.Modified, e.buildDiffItem(id, currentItem, newItem, ChangeModified, realm, delta))
		}
	}

	for _, id := range sortedKeys(currentMap) {
		if _, exists := newMap[id]; !exists {
			result.Removed = append(result.Removed, e.buildDiffItem(id, currentMap[id], nil, ChangeRemoved, realm, nil))
		}
	}

	return result
}

func (e *Engine) buildDiffItem(id string, currentItem, newItem models.Item, changeType ChangeType, realm string, delta *Delta) DiffItem {
	name := ""
	if newItem != nil {
		name = models.ResolveName(newItem)
	} else if currentItem != nil {
		name = models.ResolveName(currentItem)
	}

	item := DiffItem{
		ID:      id,
		Name:    name,
		Realm:   realm,
		Type:    changeType,
		Current: currentItem,
		New:     newItem,
	}

	switch changeType {
	case ChangeAdded:
		item.Summary = "New item to be created"
		item.ChangesCount = 1
	case ChangeRemoved:
		item.Summary = "Item no longer exists in new data"
		item.ChangesCount = 1
	case ChangeModified:
		item.Summary = changeSummary(delta)
		item.ChangesCount = delta.Count()
		item.Delta = delta
	default:
		item.Summary = "No changes"
	}

	return item
}

// changeSummary renders a one-line human summary of a delta.
func changeSummary(d *Delta) string {
	var parts []string
	if n := len(d.ValuesChanged); n > 0 {
		parts = append(parts, fmt.Sprintf("%d %s modified", n, pluralize(n, "field", "fields")))
	}
	if n := len(d.KeysAdded); n > 0 {
		parts = append(parts, fmt.Sprintf("%d %s added", n, pluralize(n, "field", "fields")))
	}
	if n := len(d.KeysRemoved); n > 0 {
		parts = append(parts, fmt.Sprintf("%d %s removed", n, pluralize(n, "field", "fields")))
	}
	if n := len(d.ItemsAdded); n > 0 {
		parts = append(parts, fmt.Sprintf("%d %s added to arrays", n, pluralize(n, "item", "items")))
	}
	if n := len(d.ItemsRemoved); n > 0 {
		parts = append(parts, fmt.Sprintf("%d %s removed from arrays", n, pluralize(n, "item", "items")))
	}
	if len(parts) == 0 {
		return "No changes"
	}
	return strings.Join(parts, ", ")
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

// stripIgnored removes volatile bookkeeping fields before comparison.
func stripIgnored(item models.Item) models.Item {
	clean := make(models.Item, len(item))
	for key, value := range item {
		if ignoredFields[key] {
			continue
		}
		clean[key] = value
	}
	return clean
}

func sortedKeys(m map[string]models.Item) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
