package hydro

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/hydro-agent/internal/domain/querylog"
	"github.com/yanqian/hydro-agent/internal/domain/station"
	"github.com/yanqian/hydro-agent/pkg/metrics"
	"github.com/yanqian/hydro-agent/pkg/util"
)

// Config tunes the integrated search.
type Config struct {
	// MaxStations caps how many directory hits are tried per query.
	MaxStations int
}

// Service answers free-text hydrology questions.
type Service interface {
	// SearchAndGetData never fails; every failure path yields an error-status response.
	SearchAndGetData(ctx context.Context, query string) IntegratedResponse
}

type service struct {
	cfg       Config
	directory StationSearcher
	source    SnapshotSource
	resolver  *Resolver
	queryLog  querylog.Repository
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewService wires the integrated search. queryLog may be nil.
func NewService(cfg Config, directory StationSearcher, source SnapshotSource, resolver *Resolver, queryLog querylog.Repository, logger *slog.Logger) Service {
	if cfg.MaxStations <= 0 {
		cfg.MaxStations = 5
	}
	return &service{
		cfg:       cfg,
		directory: directory,
		source:    source,
		resolver:  resolver,
		queryLog:  queryLog,
		logger:    logger.With("component", "hydro.service"),
		now:       util.NowUTC,
		newID:     uuid.NewString,
	}
}

func (s *service) SearchAndGetData(ctx context.Context, query string) (resp IntegratedResponse) {
	start := s.now()
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("search panicked", "query", query, "panic", rec)
			resp = s.failure(query, "요청을 처리하는 중 내부 오류가 발생했습니다.")
		}
		s.finish(ctx, query, resp, start)
	}()

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return s.failure(query, "검색어가 비어 있습니다. 관측소나 댐 이름을 입력해 주세요.")
	}

	l := &lookup{svc: s, ctx: ctx, query: query, snaps: newSnapshots(s.source)}
	kind := Classify(trimmed)

	stations := s.directory.SearchByName(ctx, trimmed, kind)
	if len(stations) == 0 && kind != "" {
		stations = s.directory.SearchByName(ctx, trimmed, "")
	}
	stations = prioritize(stations, kind)
	if len(stations) > s.cfg.MaxStations {
		stations = stations[:s.cfg.MaxStations]
	}

	for _, st := range stations {
		if out, ok := l.resolveStation(st); ok {
			return out
		}
	}

	if len(stations) == 0 {
		for _, k := range fallbackKinds(kind) {
			if out, ok := l.resolveKind(station.Record{Name: trimmed, Kind: k}); ok {
				return out
			}
		}
	}

	return s.failure(query, fmt.Sprintf("'%s'에 해당하는 관측소 데이터를 찾을 수 없습니다.", query))
}

// prioritize moves stations of the classified kind to the front, keeping relative order.
func prioritize(stations []station.Record, kind station.Kind) []station.Record {
	if kind == "" || len(stations) < 2 {
		return stations
	}
	out := append([]station.Record(nil), stations...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Kind == kind && out[j].Kind != kind
	})
	return out
}

func fallbackKinds(kind station.Kind) []station.Kind {
	order := []station.Kind{kind, station.KindWaterLevel, station.KindRainfall}
	seen := make(map[station.Kind]struct{}, len(order))
	var out []station.Kind
	for _, k := range order {
		if !k.Valid() {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func (s *service) failure(query, message string) IntegratedResponse {
	return IntegratedResponse{
		Status:    ResponseError,
		Query:     query,
		Message:   message,
		Timestamp: s.now(),
	}
}

func (s *service) finish(ctx context.Context, query string, resp IntegratedResponse, start time.Time) {
	kind := "none"
	code := ""
	if resp.PrimaryStation != nil {
		kind = string(resp.PrimaryStation.Kind)
		code = resp.PrimaryStation.Code
	}
	metrics.Resolutions.WithLabelValues(kind, resp.Status).Inc()

	elapsed := s.now().Sub(start)
	s.logger.Info("query resolved", "query", query, "status", resp.Status, "kind", kind, "station", code, "elapsed", elapsed.String())

	if s.queryLog == nil {
		return
	}
	entry := querylog.Entry{
		ID:             s.newID(),
		Query:          query,
		Status:         resp.Status,
		Kind:           kind,
		StationCode:    code,
		Message:        resp.Message,
		DurationMillis: elapsed.Milliseconds(),
		CreatedAt:      start,
	}
	if err := s.queryLog.Insert(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("record query log failed", "error", err)
	}
}

// lookup carries the state of one SearchAndGetData call.
type lookup struct {
	svc   *service
	ctx   context.Context
	query string
	snaps *snapshots
}

func (l *lookup) resolveStation(st station.Record) (IntegratedResponse, bool) {
	if out, ok := l.resolveKind(st); ok {
		return out, true
	}
	if st.Kind == station.KindWaterLevel {
		return IntegratedResponse{}, false
	}
	// Many dams and rain gauges have a water-level gauge under the same name.
	paired := station.Record{Name: st.Name, Kind: station.KindWaterLevel, Location: st.Location}
	return l.resolveWaterLevel(paired, l.pairedWaterLevelCodes(st.Name)...)
}

func (l *lookup) resolveKind(target station.Record) (IntegratedResponse, bool) {
	switch target.Kind {
	case station.KindDam:
		return l.resolveDam(target)
	case station.KindRainfall:
		return l.resolveRainfall(target)
	case station.KindWaterLevel:
		return l.resolveWaterLevel(target, explicitCodes(target)...)
	default:
		return IntegratedResponse{}, false
	}
}

func explicitCodes(target station.Record) []string {
	if code := strings.TrimSpace(target.Code); code != "" {
		return []string{code}
	}
	return nil
}

func (l *lookup) pairedWaterLevelCodes(name string) []string {
	var codes []string
	for _, rec := range l.svc.directory.SearchByName(l.ctx, name, station.KindWaterLevel) {
		codes = append(codes, rec.Code)
	}
	return codes
}

func (l *lookup) resolveWaterLevel(target station.Record, explicit ...string) (IntegratedResponse, bool) {
	candidates := l.svc.resolver.CollectCandidateCodes(target.Name, station.KindWaterLevel, explicit...)
	if len(candidates) == 0 {
		return IntegratedResponse{}, false
	}
	snapshot, err := l.snaps.WaterLevel(l.ctx)
	if err != nil {
		l.svc.logger.Warn("water level snapshot unavailable", "error", err)
		return IntegratedResponse{}, false
	}
	reading, ok := l.svc.resolver.ResolveWaterLevel(snapshot, candidates)
	if !ok {
		return IntegratedResponse{}, false
	}
	if reading.Name == "" {
		reading.Name = target.Name
	}
	return l.svc.waterLevelResponse(l.query, target, reading), true
}

func (l *lookup) resolveRainfall(target station.Record) (IntegratedResponse, bool) {
	candidates := l.svc.resolver.CollectCandidateCodes(target.Name, station.KindRainfall, explicitCodes(target)...)
	if len(candidates) == 0 {
		return IntegratedResponse{}, false
	}
	snapshot, err := l.snaps.Rainfall(l.ctx)
	if err != nil {
		l.svc.logger.Warn("rainfall snapshot unavailable", "error", err)
		return IntegratedResponse{}, false
	}
	reading, ok := l.svc.resolver.ResolveRainfall(snapshot, candidates)
	if !ok {
		return IntegratedResponse{}, false
	}
	if reading.Name == "" {
		reading.Name = target.Name
	}
	return l.svc.rainfallResponse(l.query, target, reading), true
}

// resolveDam fetches the dam snapshot and the paired water-level snapshot
// concurrently; a failed water-level fetch only drops the paired reading.
func (l *lookup) resolveDam(target station.Record) (IntegratedResponse, bool) {
	candidates := l.svc.resolver.CollectCandidateCodes(target.Name, station.KindDam, explicitCodes(target)...)
	if len(candidates) == 0 {
		return IntegratedResponse{}, false
	}
	wlCandidates := l.svc.resolver.CollectCandidateCodes(target.Name, station.KindWaterLevel, l.pairedWaterLevelCodes(target.Name)...)

	var (
		wg      sync.WaitGroup
		damSnap DamSnapshot
		damErr  error
		wlSnap  []WaterLevelRecord
		wlErr   error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		damSnap, damErr = l.snaps.Dam(l.ctx)
	}()
	if len(wlCandidates) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wlSnap, wlErr = l.snaps.WaterLevel(l.ctx)
		}()
	}
	wg.Wait()

	if damErr != nil {
		l.svc.logger.Warn("dam snapshot unavailable", "error", damErr)
		return IntegratedResponse{}, false
	}
	reading, ok := l.svc.resolver.ResolveDam(damSnap, candidates)
	if !ok {
		return IntegratedResponse{}, false
	}
	if reading.Name == "" {
		reading.Name = target.Name
	}

	var paired *WaterLevelReading
	if len(wlCandidates) > 0 {
		if wlErr != nil {
			l.svc.logger.Warn("paired water level snapshot unavailable", "error", wlErr)
		} else if wl, ok := l.svc.resolver.ResolveWaterLevel(wlSnap, wlCandidates); ok {
			if wl.Name == "" {
				wl.Name = target.Name
			}
			paired = &wl
		}
	}
	return l.svc.damResponse(l.query, target, reading, paired), true
}
