// Package models holds the shared data shapes for configuration items and
// the identity resolution rules used across the diff, deletion and rollback
// components. Keeping identity resolution here prevents the components from
// drifting apart on what "the ID of an item" means.
package models

import "fmt"

// Item is a single configuration record as decoded from a JSON snapshot.
type Item map[string]interface{}

// UnnamedPlaceholder is the display name used when an item carries neither a
// name field nor a resolvable identity.
const UnnamedPlaceholder = "<unnamed>"

// idFields are checked in priority order when resolving an item's identity.
var idFields = []string{"_id", "id"}

// nameFields are checked in priority order when resolving a display name.
var nameFields = []string{"name", "displayName", "title"}

// ResolveID returns the unique identity of an item, preferring "_id" over
// "id". It returns the empty string when the item has no resolvable
// identity; such items cannot participate in identity-keyed comparison.
func ResolveID(item Item) string {
	for _, field := range idFields {
		if v, ok := item[field]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// ResolveName returns a human-friendly display name for an item, falling
// back to the item's identity and finally to a generic placeholder.
func ResolveName(item Item) string {
	for _, field := range nameFields {
		if v, ok := item[field]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	if id := ResolveID(item); id != "" {
		return id
	}
	return UnnamedPlaceholder
}

// BuildIDMap builds an identity-keyed map from a raw extracted item
// sequence. Non-object entries and items without a resolvable identity are
// dropped; duplicate identities resolve last-wins.
func BuildIDMap(items []interface{}) map[string]Item {
	idMap := make(map[string]Item, len(items))
	for _, raw := range items {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		item := Item(obj)
		if id := ResolveID(item); id != "" {
			idMap[id] = item
		}
	}
	return idMap
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		// JSON numbers decode as float64; render integers without exponent.
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%v", s)
	default:
		return fmt.Sprintf("%v", v)
	}
}
