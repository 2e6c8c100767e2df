package hydro

import (
	"strings"

	"github.com/yanqian/hydro-agent/internal/domain/hydro/reference"
	"github.com/yanqian/hydro-agent/internal/domain/station"
)

// CandidateSource names the strategy that produced a candidate code.
type CandidateSource string

const (
	SourceExplicit       CandidateSource = "explicit"
	SourceAliasExact     CandidateSource = "alias_exact"
	SourceAliasCompact   CandidateSource = "alias_compact"
	SourceNumericLiteral CandidateSource = "numeric_literal"
)

// Candidate is one station code considered for a query, with its origin.
type Candidate struct {
	Code   string
	Source CandidateSource
}

type candidateInput struct {
	name     string
	kind     station.Kind
	explicit []string
}

type candidateStrategy struct {
	source CandidateSource
	codes  func(r *Resolver, in candidateInput) []string
}

// candidateStrategies is ranked highest priority first.
var candidateStrategies = []candidateStrategy{
	{
		source: SourceExplicit,
		codes: func(_ *Resolver, in candidateInput) []string {
			return in.explicit
		},
	},
	{
		source: SourceAliasExact,
		codes: func(r *Resolver, in candidateInput) []string {
			return r.aliases[in.kind][strings.TrimSpace(in.name)]
		},
	},
	{
		source: SourceAliasCompact,
		codes: func(r *Resolver, in candidateInput) []string {
			return r.compactAliases[in.kind][station.Compact(in.name)]
		},
	},
	{
		source: SourceNumericLiteral,
		codes: func(_ *Resolver, in candidateInput) []string {
			if literal := strings.TrimSpace(in.name); isDigits(literal) {
				return []string{literal}
			}
			return nil
		},
	},
}

// Resolver turns names into candidate codes and candidate codes into readings.
type Resolver struct {
	ref            *reference.Data
	aliases        map[station.Kind]map[string][]string
	compactAliases map[station.Kind]map[string][]string
}

// NewResolver indexes the alias tables of ref.
func NewResolver(ref *reference.Data) *Resolver {
	r := &Resolver{
		ref:            ref,
		aliases:        make(map[station.Kind]map[string][]string),
		compactAliases: make(map[station.Kind]map[string][]string),
	}
	if ref == nil {
		return r
	}
	for kind, table := range ref.Aliases {
		exact := make(map[string][]string, len(table))
		compact := make(map[string][]string, len(table))
		for name, codes := range table {
			exact[strings.TrimSpace(name)] = codes
			key := station.Compact(name)
			compact[key] = append(compact[key], codes...)
		}
		r.aliases[kind] = exact
		r.compactAliases[kind] = compact
	}
	return r
}

// RankedCandidates applies every strategy in rank order and removes duplicates,
// keeping the first (highest ranked) occurrence.
func (r *Resolver) RankedCandidates(name string, kind station.Kind, explicit ...string) []Candidate {
	in := candidateInput{name: name, kind: kind, explicit: explicit}
	seen := make(map[string]struct{})
	var out []Candidate
	for _, strategy := range candidateStrategies {
		for _, code := range strategy.codes(r, in) {
			code = strings.TrimSpace(code)
			if code == "" {
				continue
			}
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			out = append(out, Candidate{Code: code, Source: strategy.source})
		}
	}
	return out
}

// CollectCandidateCodes returns the ordered, deduplicated candidate codes.
func (r *Resolver) CollectCandidateCodes(name string, kind station.Kind, explicit ...string) []string {
	ranked := r.RankedCandidates(name, kind, explicit...)
	codes := make([]string, len(ranked))
	for i, c := range ranked {
		codes[i] = c.Code
	}
	return codes
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
