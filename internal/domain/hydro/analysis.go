package hydro

import (
	"fmt"
	"math"
)

// AnalyzeWaterLevel classifies level against the flood-limit level:
// above the limit is exceeded, within one metre below is near the limit,
// anything lower is safe. A missing or non-positive limit gives no verdict.
func AnalyzeWaterLevel(level float64, limit *float64) WaterLevelAnalysis {
	if limit == nil || *limit <= 0 || math.IsNaN(level) || math.IsInf(level, 0) {
		return WaterLevelAnalysis{
			Status:    StatusInsufficientInfo,
			Message:   "홍수기 제한수위 정보가 없어 위험도를 판단할 수 없습니다.",
			RiskLevel: RiskUnknown,
		}
	}

	diff := round2(level - *limit)
	pct := round2((level - *limit) / *limit * 100)
	analysis := WaterLevelAnalysis{LevelDifference: &diff, Percent: &pct}

	switch {
	case level-*limit > 0:
		analysis.Status = StatusExceeded
		analysis.RiskLevel = RiskHigh
		analysis.Message = fmt.Sprintf("홍수기 제한수위를 %.2fm 초과했습니다.", diff)
	case level-*limit > -1:
		analysis.Status = StatusNearLimit
		analysis.RiskLevel = RiskMedium
		analysis.Message = fmt.Sprintf("홍수기 제한수위까지 %.2fm 남았습니다.", math.Abs(diff))
	default:
		analysis.Status = StatusSafe
		analysis.RiskLevel = RiskLow
		analysis.Message = fmt.Sprintf("홍수기 제한수위보다 %.2fm 낮아 안전합니다.", math.Abs(diff))
	}
	return analysis
}

// StorageRatio returns current storage as a percentage of nominal capacity.
func StorageRatio(storage *float64, info DamCapacityInfo, ok bool) *float64 {
	if storage == nil || !ok || info.TotalCapacityMillionM3 <= 0 {
		return nil
	}
	ratio := round2(*storage / info.TotalCapacityMillionM3 * 100)
	return &ratio
}

// RelatedDams lists the other dams sharing code's watershed.
func (r *Resolver) RelatedDams(code string) (string, []RelatedDam) {
	info, ok := r.ref.Dam(code)
	if !ok {
		return "", nil
	}
	var out []RelatedDam
	for _, other := range r.ref.DamsInWatershed(info.Watershed, code) {
		otherInfo, _ := r.ref.Dam(other)
		out = append(out, RelatedDam{
			Code:                   other,
			Name:                   otherInfo.Name,
			TotalCapacityMillionM3: otherInfo.TotalCapacityMillionM3,
		})
	}
	return info.Watershed, out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
