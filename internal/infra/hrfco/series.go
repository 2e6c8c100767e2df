package hrfco

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/yanqian/hydro-agent/internal/domain/station"
	"github.com/yanqian/hydro-agent/internal/domain/trend"
	apperrors "github.com/yanqian/hydro-agent/pkg/errors"
	"github.com/yanqian/hydro-agent/pkg/util"
)

// Series returns one station's history at the given cadence, most recent
// first. Rows with an unreadable timestamp are dropped; unreadable values
// are kept as NaN so gaps stay visible to the analyzer.
func (c *Client) Series(ctx context.Context, kind station.Kind, code string, cadence trend.Cadence) ([]trend.Point, error) {
	sc, ok := schemas[kind]
	if !ok {
		return nil, apperrors.Wrap("invalid_input", fmt.Sprintf("unknown station kind %q", kind), nil)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.Wrap("invalid_input", "station code is required", nil)
	}
	items, err := c.items(ctx, c.endpoint(kind, "list", string(cadence), code))
	if err != nil {
		return nil, err
	}

	points := make([]trend.Point, 0, len(items))
	for _, item := range items {
		if itemCode := sc.code.From(item); itemCode != "" && itemCode != code {
			continue
		}
		observedAt, ok := util.ParseCompactKST(fieldObservedAt.From(item))
		if !ok {
			continue
		}
		points = append(points, trend.Point{ObservedAt: observedAt, Value: parseFloat(sc.value.From(item))})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].ObservedAt.After(points[j].ObservedAt)
	})
	return points, nil
}

func parseFloat(raw string) float64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
