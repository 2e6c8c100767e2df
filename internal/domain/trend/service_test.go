package trend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/hydro-agent/internal/domain/station"
	apperrors "github.com/yanqian/hydro-agent/pkg/errors"
)

type stubSeries struct {
	mu     sync.Mutex
	series map[Cadence][]Point
	errs   map[Cadence]error
	calls  []Cadence
}

func (s *stubSeries) Series(_ context.Context, _ station.Kind, _ string, cadence Cadence) ([]Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, cadence)
	if err := s.errs[cadence]; err != nil {
		return nil, err
	}
	return s.series[cadence], nil
}

type stubLookup map[string]station.Record

func (s stubLookup) Lookup(_ station.Kind, code string) (station.Record, bool) {
	rec, ok := s[code]
	return rec, ok
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStationTrendReport(t *testing.T) {
	source := &stubSeries{
		series: map[Cadence][]Point{
			Hourly:    series(3.4, 3.2, 3.1),
			TenMinute: series(3.45, 3.4),
		},
		errs: map[Cadence]error{Daily: errors.New("daily feed down")},
	}
	svc := NewService(source, stubLookup{"1018683": {Code: "1018683", Name: "한강대교"}}, discardLogger())

	report, err := svc.StationTrend(context.Background(), station.KindWaterLevel, " 1018683 ")
	require.NoError(t, err)
	require.Equal(t, "1018683", report.Code)
	require.Equal(t, "한강대교", report.Name)
	require.Equal(t, "m", report.Unit)
	require.Equal(t, Rising, report.Trend.Direction)
	require.Equal(t, 3.45, report.Latest.Value)
	require.Equal(t, 3.1, *report.Daily.Min)
	require.Len(t, report.Horizons, 3)
	require.Len(t, source.calls, 3)
}

func TestStationTrendRequiresHourlySeries(t *testing.T) {
	source := &stubSeries{errs: map[Cadence]error{Hourly: apperrors.Wrap("timeout", "slow", nil)}}
	svc := NewService(source, nil, discardLogger())

	_, err := svc.StationTrend(context.Background(), station.KindDam, "1012110")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "timeout"))
}

func TestStationTrendNoData(t *testing.T) {
	svc := NewService(&stubSeries{}, nil, discardLogger())

	_, err := svc.StationTrend(context.Background(), station.KindRainfall, "10184100")
	require.True(t, apperrors.IsCode(err, "not_found"))
}

func TestStationTrendValidatesInput(t *testing.T) {
	svc := NewService(&stubSeries{}, nil, discardLogger())

	_, err := svc.StationTrend(context.Background(), station.Kind("snow"), "1")
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = svc.StationTrend(context.Background(), station.KindDam, " ")
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}
