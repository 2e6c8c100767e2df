package tools

import (
	"fmt"
	"strings"

	"github.com/yanqian/hydro-agent/internal/domain/realestate"
	"github.com/yanqian/hydro-agent/internal/domain/trend"
)

var directionLabels = map[trend.Direction]string{
	trend.Rising:           "상승",
	trend.Falling:          "하강",
	trend.Stable:           "보합",
	trend.InsufficientData: "데이터 부족",
}

func renderTrend(r trend.Report) string {
	var b strings.Builder
	name := r.Name
	if name == "" {
		name = r.Code
	}
	fmt.Fprintf(&b, "%s (%s, %s)", name, r.Code, r.Kind)
	if r.Latest != nil {
		fmt.Fprintf(&b, "\n현재: %.2f%s (%s)", r.Latest.Value, r.Unit, r.Latest.ObservedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(&b, "\n추세: %s", directionLabels[r.Trend.Direction])
	if r.Trend.Change != nil {
		fmt.Fprintf(&b, " (%+.2f%s)", *r.Trend.Change, r.Unit)
	}
	if d := r.Daily; d.Count > 0 {
		fmt.Fprintf(&b, "\n24시간: 최저 %.2f / 최고 %.2f / 평균 %.2f%s", *d.Min, *d.Max, *d.Average, r.Unit)
	}
	for _, c := range []struct {
		label string
		value *float64
	}{
		{"1시간", r.Changes.OneHour},
		{"6시간", r.Changes.SixHours},
		{"24시간", r.Changes.DayAgo},
	} {
		if c.value != nil {
			fmt.Fprintf(&b, "\n%s 전 대비: %+.2f%s", c.label, *c.value, r.Unit)
		}
	}
	for _, h := range r.Horizons {
		fmt.Fprintf(&b, "\n%s(%d개 %s): %s", h.Name, h.Samples, h.Cadence, directionLabels[h.Trend.Direction])
	}
	return b.String()
}

func renderTrades(s realestate.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s) %s 아파트 매매", s.Region, s.LawdCode, s.YearMonth)
	if s.Apartment != "" {
		fmt.Fprintf(&b, " [%s]", s.Apartment)
	}
	if s.Count == 0 {
		b.WriteString(": 거래 내역이 없습니다.")
		return b.String()
	}
	fmt.Fprintf(&b, " %d건\n최저 %s / 최고 %s / 평균 %s", s.Count, formatManwon(s.MinPrice), formatManwon(s.MaxPrice), formatManwon(s.AveragePrice))
	for _, t := range s.Recent {
		fmt.Fprintf(&b, "\n- %s %s", t.DealDate, t.Apartment)
		if t.ExclusiveArea != nil {
			fmt.Fprintf(&b, " %.1f㎡", *t.ExclusiveArea)
		}
		if t.Floor != "" {
			fmt.Fprintf(&b, " %s층", t.Floor)
		}
		fmt.Fprintf(&b, " %s", formatManwon(t.Price))
	}
	return b.String()
}

// formatManwon renders a price given in 10,000 KRW units, e.g. 82500 -> "8억 2,500만원".
func formatManwon(v int64) string {
	eok, man := v/10000, v%10000
	switch {
	case eok == 0:
		return groupThousands(man) + "만원"
	case man == 0:
		return fmt.Sprintf("%d억원", eok)
	default:
		return fmt.Sprintf("%d억 %s만원", eok, groupThousands(man))
	}
}

func groupThousands(v int64) string {
	if v < 1000 {
		return fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("%d,%03d", v/1000, v%1000)
}
