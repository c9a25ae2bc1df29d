package diff

import (
	"fmt"
	"reflect"
)

// ValueChange records the before/after pair of a scalar change.
type ValueChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// Delta is the structured difference between two items, keyed by change
// kind. Paths are root-qualified bracket paths in the style
// root['schema']['properties']['mail'] or root['grantTypes'][2], so that
// downstream insight rules can pattern-match on them.
type Delta struct {
	ValuesChanged map[string]ValueChange `json:"values_changed,omitempty"`
	KeysAdded     map[string]interface{} `json:"keys_added,omitempty"`
	KeysRemoved   map[string]interface{} `json:"keys_removed,omitempty"`
	ItemsAdded    map[string]interface{} `json:"items_added,omitempty"`
	ItemsRemoved  map[string]interface{} `json:"items_removed,omitempty"`
}

func newDelta() *Delta {
	return &Delta{
		ValuesChanged: map[string]ValueChange{},
		KeysAdded:     map[string]interface{}{},
		KeysRemoved:   map[string]interface{}{},
		ItemsAdded:    map[string]interface{}{},
		ItemsRemoved:  map[string]interface{}{},
	}
}

// Empty reports whether the delta contains no changes at all.
func (d *Delta) Empty() bool {
	return len(d.ValuesChanged) == 0 &&
		len(d.KeysAdded) == 0 &&
		len(d.KeysRemoved) == 0 &&
		len(d.ItemsAdded) == 0 &&
		len(d.ItemsRemoved) == 0
}

// Count returns the total number of recorded changes across all kinds.
func (d *Delta) Count() int {
	return len(d.ValuesChanged) +
		len(d.KeysAdded) +
		len(d.KeysRemoved) +
		len(d.ItemsAdded) +
		len(d.ItemsRemoved)
}

// computeDelta walks two decoded JSON values and records their structural
// differences. List comparison is order-insensitive: elements are matched as
// a multiset and the unmatched remainder is reported as added/removed
// entries.
func computeDelta(current, updated interface{}) *Delta {
	d := newDelta()
	walkDiff("root", current, updated, d)
	return d
}

func walkDiff(path string, current, updated interface{}, d *Delta) {
	switch cur := current.(type) {
	case map[string]interface{}:
		upd, ok := updated.(map[string]interface{})
		if !ok {
			d.ValuesChanged[path] = ValueChange{Old: current, New: updated}
			return
		}
		for key, cv := range cur {
			keyPath := fmt.Sprintf("%s['%s']", path, key)
			uv, present := upd[key]
			if !present {
				d.KeysRemoved[keyPath] = cv
				continue
			}
			walkDiff(keyPath, cv, uv, d)
		}
		for key, uv := range upd {
			if _, present := cur[key]; !present {
				d.KeysAdded[fmt.Sprintf("%s['%s']", path, key)] = uv
			}
		}

	case []interface{}:
		upd, ok := updated.([]interface{})
		if !ok {
			d.ValuesChanged[path] = ValueChange{Old: current, New: updated}
			return
		}
		walkListDiff(path, cur, upd, d)

	default:
		if !equalValues(current, updated) {
			d.ValuesChanged[path] = ValueChange{Old: current, New: updated}
		}
	}
}

func walkListDiff(path string, current, updated []interface{}, d *Delta) {
	matched := make([]bool, len(updated))
	for i, cv := range current {
		found := false
		for j, uv := range updated {
			if !matched[j] && equalValues(cv, uv) {
				matched[j] = true
				found = true
				break
			}
		}
		if !found {
			d.ItemsRemoved[fmt.Sprintf("%s[%d]", path, i)] = cv
		}
	}
	for j, uv := range updated {
		if !matched[j] {
			d.ItemsAdded[fmt.Sprintf("%s[%d]", path, j)] = uv
		}
	}
}

// equalValues is a deep equality check over decoded JSON values in which
// list order does not matter.
func equalValues(a, b interface{}) bool {
	switch av := a.(type) {
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for key, aval := range av {
			bval, present := bv[key]
			if !present || !equalValues(aval, bval) {
				return false
			}
		}
		return true

	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		matched := make([]bool, len(bv))
		for _, aval := range av {
			found := false
			for j, bval := range bv {
				if !matched[j] && equalValues(aval, bval) {
					matched[j] = true
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true

	default:
		return reflect.DeepEqual(a, b)
	}
}
