// Package insights post-processes modified diff items with domain-specific
// heuristics and produces short plain-language summary lines. The rule set
// is an ordered table keyed by collection name; unknown collections simply
// produce no insights.
package insights

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/yourusername/confsync/internal/diff"
)

type rule struct {
	matches  func(collection string) bool
	generate func(modified []diff.DiffItem) []string
}

// Generator evaluates the insight rule table over a diff result's modified
// items. Rules accumulate across categories; within a category each item
// contributes at most once per tracked field.
type Generator struct {
	rules []rule
}

// NewGenerator creates a generator with the built-in rule set.
func NewGenerator() *Generator {
	return &Generator{
		rules: []rule{
			{matches: collectionIs("oauth"), generate: oauthInsights},
			{matches: collectionIs("journeys"), generate: journeyInsights},
			{matches: collectionIs("managed"), generate: managedInsights},
		},
	}
}

// Generate returns insight lines for one comparison. Only modified items
// are inspected; when there are none the result is empty.
func (g *Generator) Generate(collection string, added, modified, removed []diff.DiffItem) []string {
	insights := []string{}
	if len(modified) == 0 {
		return insights
	}
	for _, r := range g.rules {
		if r.matches(collection) {
			insights = append(insights, r.generate(modified)...)
		}
	}
	return insights
}

func collectionIs(name string) func(string) bool {
	return func(collection string) bool {
		return strings.EqualFold(collection, name)
	}
}

// pathHasField reports whether a delta path touches the given field, in
// either bracket or dotted notation.
func pathHasField(path, field string) bool {
	return strings.Contains(path, "['"+field+"']") || strings.Contains(path, "."+field)
}

// deltaTouchesField reports whether any change of any kind touches field.
func deltaTouchesField(d *diff.Delta, field string) bool {
	if d == nil {
		return false
	}
	for path := range d.ValuesChanged {
		if pathHasField(path, field) {
			return true
		}
	}
	for _, bucket := range []map[string]interface{}{d.KeysAdded, d.KeysRemoved, d.ItemsAdded, d.ItemsRemoved} {
		for path := range bucket {
			if pathHasField(path, field) {
				return true
			}
		}
	}
	return false
}

func oauthInsights(modified []diff.DiffItem) []string {
	var insights []string

	type grantChange struct {
		id      string
		added   int
		removed int
	}
	var grantChanges []grantChange
	var redirectIDs, scopeIDs, claimIDs []string

	for _, item := range modified {
		d := item.Delta
		if d == nil {
			continue
		}

		added, removed, touched := grantTypeCounts(d)
		if touched {
			grantChanges = append(grantChanges, grantChange{id: itemRef(item), added: added, removed: removed})
		}
		if deltaTouchesField(d, "redirectionUris") {
			redirectIDs = append(redirectIDs, itemRef(item))
		}
		if deltaTouchesField(d, "scopes") {
			scopeIDs = append(scopeIDs, itemRef(item))
		}
		if deltaTouchesField(d, "claims") {
			claimIDs = append(claimIDs, itemRef(item))
		}
	}

	if len(grantChanges) > 0 {
		ids := make([]string, 0, len(grantChanges))
		totalAdded, totalRemoved := 0, 0
		for _, gc := range grantChanges {
			ids = append(ids, quote(gc.id))
			totalAdded += gc.added
			totalRemoved += gc.removed
		}
		line := fmt.Sprintf("grantTypes updated for the following clients: %s", strings.Join(ids, ", "))
		var details []string
		if totalAdded > 0 {
			details = append(details, fmt.Sprintf("added: %d type(s)", totalAdded))
		}
		if totalRemoved > 0 {
			details = append(details, fmt.Sprintf("removed: %d type(s)", totalRemoved))
		}
		if len(details) > 0 {
			line += " (" + strings.Join(details, ", ") + ")"
		}
		insights = append(insights, line)
	}

	if len(redirectIDs) > 0 {
		insights = append(insights, fmt.Sprintf("redirectionUris updated in: %s", quoteJoin(redirectIDs)))
	}
	if len(scopeIDs) > 0 {
		insights = append(insights, fmt.Sprintf("scopes changed in: %s", quoteJoin(scopeIDs)))
	}
	if len(claimIDs) > 0 {
		insights = append(insights, fmt.Sprintf("claims changed in: %s", quoteJoin(claimIDs)))
	}

	return insights
}

// grantTypeCounts inspects a delta for grantTypes changes and returns the
// number of grant types added and removed, plus whether the field was
// touched at all. A whole-list replacement recorded as a value change is
// counted via set difference on the old/new lists.
func grantTypeCounts(d *diff.Delta) (added, removed int, touched bool) {
	for path := range d.ItemsAdded {
		if pathHasField(path, "grantTypes") {
			added++
			touched = true
		}
	}
	for path := range d.ItemsRemoved {
		if pathHasField(path, "grantTypes") {
			removed++
			touched = true
		}
	}
	for path, change := range d.ValuesChanged {
		if !pathHasField(path, "grantTypes") {
			continue
		}
		touched = true
		oldList, oldOK := change.Old.([]interface{})
		newList, newOK := change.New.([]interface{})
		if !oldOK || !newOK {
			continue
		}
		oldSet := stringSet(oldList)
		newSet := stringSet(newList)
		for grant := range newSet {
			if !oldSet[grant] {
				added++
			}
		}
		for grant := range oldSet {
			if !newSet[grant] {
				removed++
			}
		}
	}
	return added, removed, touched
}

func journeyInsights(modified []diff.DiffItem) []string {
	var flowIDs []string
	for _, item := range modified {
		if deltaTouchesField(item.Delta, "nodes") || deltaTouchesField(item.Delta, "stages") {
			flowIDs = append(flowIDs, itemRef(item))
		}
	}
	if len(flowIDs) == 0 {
		return nil
	}
	return []string{fmt.Sprintf("Authentication flow updated in: %s", quoteJoin(flowIDs))}
}

var schemaPropertyPattern = regexp.MustCompile(`root\['schema'\]\['properties'\]\['([^']+)'\]`)

// managedInsights aggregates schema.properties changes per managed object
// into one line listing the touched property names, regardless of whether a
// property's change was a value edit, an addition or a removal.
func managedInsights(modified []diff.DiffItem) []string {
	var insights []string

	for _, item := range modified {
		d := item.Delta
		if d == nil {
			continue
		}

		changed := map[string]bool{}
		added := map[string]bool{}
		removed := map[string]bool{}

		for path := range d.ValuesChanged {
			collectProperty(path, changed)
		}
		for path := range d.KeysAdded {
			collectProperty(path, added)
		}
		for path := range d.ItemsAdded {
			collectProperty(path, added)
		}
		for path := range d.KeysRemoved {
			collectProperty(path, removed)
		}
		for path := range d.ItemsRemoved {
			collectProperty(path, removed)
		}

		if len(changed) == 0 && len(added) == 0 && len(removed) == 0 {
			continue
		}

		var parts []string
		if len(changed) > 0 {
			parts = append(parts, fmt.Sprintf("modified (%s)", strings.Join(sortedNames(changed), ", ")))
		}
		if len(added) > 0 {
			parts = append(parts, fmt.Sprintf("added (%s)", strings.Join(sortedNames(added), ", ")))
		}
		if len(removed) > 0 {
			parts = append(parts, fmt.Sprintf("removed (%s)", strings.Join(sortedNames(removed), ", ")))
		}

		insights = append(insights, fmt.Sprintf("%s: schema properties %s", quote(itemRef(item)), strings.Join(parts, ", ")))
	}

	return insights
}

func collectProperty(path string, into map[string]bool) {
	if m := schemaPropertyPattern.FindStringSubmatch(path); m != nil {
		into[m[1]] = true
	}
}

func itemRef(item diff.DiffItem) string {
	if item.ID != "" {
		return item.ID
	}
	return item.Name
}

func quote(s string) string {
	return "'" + s + "'"
}

func quoteJoin(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = quote(id)
	}
	return strings.Join(quoted, ", ")
}

func stringSet(list []interface{}) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			set[s] = true
		}
	}
	return set
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
