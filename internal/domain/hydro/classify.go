package hydro

import (
	"strings"

	"github.com/yanqian/hydro-agent/internal/domain/station"
)

type classificationRule struct {
	kind     station.Kind
	keywords []string
}

// classificationRules are checked in order; the first rule with a keyword hit wins.
// Rainfall uses "강수량" rather than "강수" so "한강수위" stays a water-level query.
var classificationRules = []classificationRule{
	{kind: station.KindRainfall, keywords: []string{"강우", "강수량", "우량", "비가", "빗물", "rain"}},
	{kind: station.KindDam, keywords: []string{"댐", "저수", "방류", "유입", "dam", "reservoir"}},
	{kind: station.KindWaterLevel, keywords: []string{"수위", "하천", "유량", "홍수", "water level", "river"}},
}

// Classify returns the kind a query leans toward, or "" when no keyword matches.
func Classify(query string) station.Kind {
	lowered := strings.ToLower(query)
	for _, rule := range classificationRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return rule.kind
			}
		}
	}
	return ""
}
