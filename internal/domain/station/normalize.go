package station

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// stopWords are domain nouns that add noise to fuzzy name matches.
var stopWords = sortedByLength([]string{
	"관측소", "수위표", "수위국", "강우량", "강수량", "우량", "수위", "대교", "댐",
	"rainfall", "station", "dam", "bridge", "waterlevel",
})

func sortedByLength(words []string) []string {
	sort.SliceStable(words, func(i, j int) bool {
		return len([]rune(words[i])) > len([]rune(words[j]))
	})
	return words
}

// Normalize folds a station name or query into its comparison form: NFC,
// no whitespace, brackets or hyphens, lowercase, stop words removed.
func Normalize(value string) string {
	value = norm.NFC.String(value)
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if unicode.IsSpace(r) || isBracket(r) || isHyphen(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	out := b.String()
	for _, word := range stopWords {
		out = strings.ReplaceAll(out, word, "")
	}
	return out
}

// Compact strips whitespace only; used for alias lookups.
func Compact(value string) string {
	return strings.Join(strings.Fields(norm.NFC.String(value)), "")
}

func isBracket(r rune) bool {
	switch r {
	case '(', ')', '[', ']', '{', '}', '<', '>', '（', '）', '［', '］', '「', '」', '『', '』', '【', '】', '〈', '〉':
		return true
	default:
		return false
	}
}

func isHyphen(r rune) bool {
	switch r {
	case '-', '‐', '‑', '‒', '–', '—', '―', '_':
		return true
	default:
		return false
	}
}
