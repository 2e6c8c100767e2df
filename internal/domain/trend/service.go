package trend

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yanqian/hydro-agent/internal/domain/station"
	apperrors "github.com/yanqian/hydro-agent/pkg/errors"
	"github.com/yanqian/hydro-agent/pkg/util"
)

// Cadence is the sampling interval of a historical series.
type Cadence string

const (
	TenMinute Cadence = "10M"
	Hourly    Cadence = "1H"
	Daily     Cadence = "1D"
)

// dailyWindow is the number of hourly samples summarised as one day.
const dailyWindow = 24

// SeriesSource fetches a station's history, most recent first.
type SeriesSource interface {
	Series(ctx context.Context, kind station.Kind, code string, cadence Cadence) ([]Point, error)
}

// StationLookup resolves station metadata by code.
type StationLookup interface {
	Lookup(kind station.Kind, code string) (station.Record, bool)
}

// Report is the full trend view of one station.
type Report struct {
	Kind        station.Kind `json:"kind"`
	Code        string       `json:"code"`
	Name        string       `json:"name,omitempty"`
	Unit        string       `json:"unit"`
	Latest      *Point       `json:"latest,omitempty"`
	Trend       Trend        `json:"trend"`
	Daily       Summary      `json:"daily"`
	Changes     Changes      `json:"changes"`
	Horizons    []Horizon    `json:"horizons"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Service builds trend reports for stations.
type Service interface {
	StationTrend(ctx context.Context, kind station.Kind, code string) (Report, error)
}

type service struct {
	source   SeriesSource
	stations StationLookup
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the trend service. stations may be nil.
func NewService(source SeriesSource, stations StationLookup, logger *slog.Logger) Service {
	return &service{
		source:   source,
		stations: stations,
		logger:   logger.With("component", "trend.service"),
		now:      util.NowUTC,
	}
}

func (s *service) StationTrend(ctx context.Context, kind station.Kind, code string) (Report, error) {
	code = strings.TrimSpace(code)
	if !kind.Valid() {
		return Report{}, apperrors.Wrap("invalid_input", "unknown station kind", nil)
	}
	if code == "" {
		return Report{}, apperrors.Wrap("invalid_input", "station code is required", nil)
	}

	cadences := []Cadence{TenMinute, Hourly, Daily}
	results := make([][]Point, len(cadences))
	g, gctx := errgroup.WithContext(ctx)
	for i, cadence := range cadences {
		g.Go(func() error {
			points, err := s.source.Series(gctx, kind, code, cadence)
			if err != nil {
				if cadence == Hourly {
					return err
				}
				s.logger.Warn("optional series unavailable", "kind", kind, "code", code, "cadence", cadence, "error", err)
				return nil
			}
			results[i] = points
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	series := make(map[Cadence][]Point, len(cadences))
	for i, cadence := range cadences {
		series[cadence] = results[i]
	}
	hourly := series[Hourly]
	if len(hourly) == 0 {
		return Report{}, apperrors.Wrap("not_found", "no hourly series for station", nil)
	}

	report := Report{
		Kind:        kind,
		Code:        code,
		Unit:        unitFor(kind),
		Trend:       AnalyzeTrend(hourly),
		Daily:       DailySummary(window(hourly, dailyWindow)),
		Changes:     ChangeRates(hourly),
		Horizons:    MultiHorizon(series),
		GeneratedAt: s.now(),
	}
	if latest := firstFinite(series[TenMinute], hourly); latest != nil {
		report.Latest = latest
	}
	if s.stations != nil {
		if rec, ok := s.stations.Lookup(kind, code); ok {
			report.Name = rec.Name
		}
	}
	return report, nil
}

func window(points []Point, n int) []Point {
	if len(points) > n {
		return points[:n]
	}
	return points
}

func firstFinite(series ...[]Point) *Point {
	for _, points := range series {
		if len(points) > 0 && points[0].finite() {
			p := points[0]
			return &p
		}
	}
	return nil
}

func unitFor(kind station.Kind) string {
	switch kind {
	case station.KindRainfall:
		return "mm"
	case station.KindDam:
		return "El.m"
	default:
		return "m"
	}
}
