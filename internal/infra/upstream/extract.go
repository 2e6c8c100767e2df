package upstream

import (
	"encoding/json"
	"strconv"
	"strings"
)

// itemPaths lists the envelope shapes upstream feeds wrap their records in.
var itemPaths = [][]string{
	{"response", "body", "items", "item"},
	{"content"},
	{"items", "item"},
	{"body", "items", "item"},
	{"list"},
}

// Items locates the record list inside a decoded document. A single object
// is wrapped into a one-element list; unknown shapes yield nil.
func Items(doc Document) []map[string]any {
	if doc.Root == nil {
		return nil
	}
	for _, path := range itemPaths {
		node, ok := descend(doc.Root, path)
		if !ok {
			continue
		}
		return toRecords(node)
	}
	if list, ok := doc.Root.([]any); ok {
		return toRecords(list)
	}
	return nil
}

func descend(node any, path []string) (any, bool) {
	cur := node
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		next, ok := m[key]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func toRecords(node any) []map[string]any {
	switch v := node.(type) {
	case map[string]any:
		return []map[string]any{v}
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, entry := range v {
			if m, ok := entry.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

// Field extracts one logical value from a record, trying Keys in order.
type Field struct {
	Name string
	Keys []string
}

// From returns the first non-empty candidate key, stringified and trimmed.
func (f Field) From(record map[string]any) string {
	for _, key := range f.Keys {
		raw, ok := record[key]
		if !ok || raw == nil {
			continue
		}
		if s := Stringify(raw); s != "" {
			return s
		}
	}
	return ""
}

// Stringify renders a decoded scalar as text without losing numeric formatting.
func Stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
