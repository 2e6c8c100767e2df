package station

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SearchByName refreshes the directory if stale and returns the stations whose
// name matches query. With a hint only that kind is searched; otherwise kinds
// are tried in priority order and the first kind with any match wins.
func (d *Directory) SearchByName(ctx context.Context, query string, hint Kind) []Record {
	query = strings.TrimSpace(norm.NFC.String(query))
	if query == "" {
		return nil
	}
	if err := d.Refresh(ctx); err != nil {
		d.logger.Warn("station directory refresh failed, searching cached entries", "error", err)
	}

	d.mu.RLock()
	snapshot := make(map[Kind][]entry, len(d.entries))
	for kind, list := range d.entries {
		snapshot[kind] = list
	}
	d.mu.RUnlock()

	if hint.Valid() {
		return match(snapshot[hint], query)
	}
	for _, kind := range Kinds {
		if found := match(snapshot[kind], query); len(found) > 0 {
			return found
		}
	}
	return nil
}

type matcher func(e entry) bool

// match applies the name rules in order, accumulating deduplicated hits, and
// falls back to location and river name only when no name rule matched.
func match(list []entry, query string) []Record {
	if len(list) == 0 {
		return nil
	}
	normQuery := Normalize(query)

	nameRules := []matcher{
		func(e entry) bool {
			return e.record.Name == query || (normQuery != "" && e.normName == normQuery)
		},
		func(e entry) bool {
			return containsEither(e.record.Name, query)
		},
		func(e entry) bool {
			return containsEither(e.normName, normQuery)
		},
	}
	if found := collect(list, nameRules); len(found) > 0 {
		return found
	}

	fallbackRules := []matcher{
		func(e entry) bool {
			return containsEither(e.record.Location, query) || containsEither(e.record.RiverName, query)
		},
		func(e entry) bool {
			return containsEither(e.normLoc, normQuery) || containsEither(e.normRiver, normQuery)
		},
	}
	return collect(list, fallbackRules)
}

func collect(list []entry, rules []matcher) []Record {
	seen := make(map[string]struct{})
	var out []Record
	for _, rule := range rules {
		for _, e := range list {
			if _, dup := seen[e.record.Code]; dup {
				continue
			}
			if rule(e) {
				seen[e.record.Code] = struct{}{}
				out = append(out, e.record)
			}
		}
	}
	return out
}

func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
