package hydro

import (
	"math"
	"strconv"
	"strings"

	"github.com/yanqian/hydro-agent/pkg/util"
)

// parseValue accepts a finite number; blanks and dash placeholders are misses.
func parseValue(raw string) (float64, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" || strings.Trim(raw, "-") == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func optionalValue(raw string) *float64 {
	if v, ok := parseValue(raw); ok {
		return &v
	}
	return nil
}

func sameCode(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

// ResolveWaterLevel scans candidates in order and returns the first one whose
// snapshot row carries a valid level.
func (r *Resolver) ResolveWaterLevel(snapshot []WaterLevelRecord, candidates []string) (WaterLevelReading, bool) {
	for _, code := range candidates {
		for _, rec := range snapshot {
			if !sameCode(rec.Code, code) {
				continue
			}
			level, ok := parseValue(rec.Level)
			if !ok {
				continue
			}
			observedAt, _ := util.ParseCompactKST(strings.TrimSpace(rec.ObservedAt))
			return WaterLevelReading{
				Code:       strings.TrimSpace(rec.Code),
				Name:       strings.TrimSpace(rec.Name),
				ObservedAt: observedAt,
				Level:      level,
				Unit:       UnitWaterLevel,
				Flow:       optionalValue(rec.Flow),
			}, true
		}
	}
	return WaterLevelReading{}, false
}

// ResolveRainfall is the rainfall counterpart of ResolveWaterLevel.
func (r *Resolver) ResolveRainfall(snapshot []RainfallRecord, candidates []string) (RainfallReading, bool) {
	for _, code := range candidates {
		for _, rec := range snapshot {
			if !sameCode(rec.Code, code) {
				continue
			}
			value, ok := parseValue(rec.Rainfall)
			if !ok {
				continue
			}
			observedAt, _ := util.ParseCompactKST(strings.TrimSpace(rec.ObservedAt))
			return RainfallReading{
				Code:       strings.TrimSpace(rec.Code),
				Name:       strings.TrimSpace(rec.Name),
				ObservedAt: observedAt,
				Rainfall:   value,
				Unit:       UnitRainfall,
			}, true
		}
	}
	return RainfallReading{}, false
}

// ResolveDam resolves the realtime row, joins the info row of the same code
// and derives the flood-limit analysis.
func (r *Resolver) ResolveDam(snapshot DamSnapshot, candidates []string) (DamReading, bool) {
	for _, code := range candidates {
		for _, rec := range snapshot.Realtime {
			if !sameCode(rec.Code, code) {
				continue
			}
			level, ok := parseValue(rec.WaterLevel)
			if !ok {
				continue
			}
			resolved := strings.TrimSpace(rec.Code)
			info := snapshot.Info[resolved]
			observedAt, _ := util.ParseCompactKST(strings.TrimSpace(rec.ObservedAt))

			name := strings.TrimSpace(rec.Name)
			if name == "" {
				name = strings.TrimSpace(info.Name)
			}
			if name == "" {
				if capInfo, ok := r.ref.Dam(resolved); ok {
					name = capInfo.Name
				}
			}

			limit := optionalValue(info.FloodLimitLevel)
			return DamReading{
				Code:                 resolved,
				Name:                 name,
				ObservedAt:           observedAt,
				WaterLevel:           level,
				Unit:                 UnitDamLevel,
				Inflow:               optionalValue(rec.Inflow),
				Outflow:              optionalValue(rec.TotalOutflow),
				Storage:              optionalValue(rec.Storage),
				FloodLimitLevel:      limit,
				FloodControlCapacity: optionalValue(info.FloodControlCapacity),
				Analysis:             AnalyzeWaterLevel(level, limit),
			}, true
		}
	}
	return DamReading{}, false
}
