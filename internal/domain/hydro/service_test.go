package hydro

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/hydro-agent/internal/domain/hydro/reference"
	"github.com/yanqian/hydro-agent/internal/domain/querylog"
	"github.com/yanqian/hydro-agent/internal/domain/station"
)

type stubLister struct {
	records map[station.Kind][]station.Record
}

func (s stubLister) ListStations(_ context.Context, kind station.Kind) ([]station.Record, error) {
	return s.records[kind], nil
}

type stubSource struct {
	mu         sync.Mutex
	calls      map[string]int
	waterLevel []WaterLevelRecord
	rainfall   []RainfallRecord
	dam        DamSnapshot
	damErr     error
}

func (s *stubSource) count(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[name]++
}

func (s *stubSource) callCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubSource) WaterLevelSnapshot(context.Context) ([]WaterLevelRecord, error) {
	s.count("waterlevel")
	return s.waterLevel, nil
}

func (s *stubSource) RainfallSnapshot(context.Context) ([]RainfallRecord, error) {
	s.count("rainfall")
	return s.rainfall, nil
}

func (s *stubSource) DamSnapshot(context.Context) (DamSnapshot, error) {
	s.count("dam")
	if s.damErr != nil {
		return DamSnapshot{}, s.damErr
	}
	return s.dam, nil
}

type stubQueryLog struct {
	mu      sync.Mutex
	entries []querylog.Entry
}

func (s *stubQueryLog) Insert(_ context.Context, entry querylog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubQueryLog) Recent(context.Context, int) ([]querylog.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]querylog.Entry(nil), s.entries...), nil
}

type panicSearcher struct{}

func (panicSearcher) SearchByName(context.Context, string, station.Kind) []station.Record {
	panic("directory exploded")
}

func newTestService(t *testing.T, records map[station.Kind][]station.Record, source SnapshotSource, log querylog.Repository) Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return time.Date(2024, 7, 1, 3, 0, 0, 0, time.UTC) }
	dir := station.NewDirectory(station.Config{TTL: time.Hour}, stubLister{records: records}, nil, clock, logger)
	ref := &reference.Data{
		Version: "test",
		Dams: map[string]reference.DamCapacityInfo{
			"D1": {Name: "대청댐", TotalCapacityMillionM3: 1490, Watershed: "금강"},
			"D2": {Name: "용담댐", TotalCapacityMillionM3: 815, Watershed: "금강"},
		},
	}
	return NewService(Config{MaxStations: 5}, dir, source, NewResolver(ref), log, logger)
}

func TestSearchDamWithPairedWaterLevel(t *testing.T) {
	source := &stubSource{
		dam: DamSnapshot{
			Realtime: []DamRealtimeRecord{{Code: "D1", WaterLevel: "70.10", Storage: "745", ObservedAt: "202407011200"}},
			Info:     map[string]DamInfoRecord{"D1": {Code: "D1", FloodLimitLevel: "76.5"}},
		},
		waterLevel: []WaterLevelRecord{{Code: "W1", Level: "3.20", ObservedAt: "202407011200"}},
	}
	log := &stubQueryLog{}
	svc := newTestService(t, map[station.Kind][]station.Record{
		station.KindDam:        {{Code: "D1", Name: "대청댐"}},
		station.KindWaterLevel: {{Code: "W1", Name: "대청댐"}},
	}, source, log)

	resp := svc.SearchAndGetData(context.Background(), "대청댐")
	require.Equal(t, ResponseSuccess, resp.Status)
	require.Equal(t, "D1", resp.PrimaryStation.Code)
	require.Equal(t, station.KindDam, resp.PrimaryStation.Kind)
	require.NotNil(t, resp.DetailedData.WaterLevelStation)
	require.Equal(t, "W1", resp.DetailedData.WaterLevelStation.Code)
	require.Equal(t, StatusSafe, resp.DetailedData.Dam.Analysis.Status)
	require.Equal(t, 50.0, *resp.DetailedData.StorageRatio)
	require.Equal(t, []RelatedDam{{Code: "D2", Name: "용담댐", TotalCapacityMillionM3: 815}}, resp.DetailedData.RelatedDams)
	require.Equal(t, "대청댐", resp.Query)

	require.Equal(t, 1, source.callCount("dam"))
	require.Equal(t, 1, source.callCount("waterlevel"))

	entries, err := log.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "D1", entries[0].StationCode)
	require.NotEmpty(t, entries[0].ID)
}

func TestSearchUnknownNameReturnsError(t *testing.T) {
	source := &stubSource{}
	svc := newTestService(t, map[station.Kind][]station.Record{
		station.KindDam: {{Code: "D1", Name: "대청댐"}},
	}, source, nil)

	resp := svc.SearchAndGetData(context.Background(), "가상의관측소")
	require.Equal(t, ResponseError, resp.Status)
	require.True(t, strings.Contains(resp.Message, "가상의관측소"))
	require.Equal(t, "가상의관측소", resp.Query)
	require.Nil(t, resp.PrimaryStation)
	require.Zero(t, source.callCount("dam"))
	require.Zero(t, source.callCount("waterlevel"))
	require.Zero(t, source.callCount("rainfall"))
}

func TestSearchRainfallQueryNeverFetchesDams(t *testing.T) {
	source := &stubSource{
		rainfall: []RainfallRecord{{Code: "R1", Rainfall: "1.5", ObservedAt: "2024070112"}},
	}
	svc := newTestService(t, map[station.Kind][]station.Record{
		station.KindRainfall: {{Code: "R1", Name: "서울"}},
	}, source, nil)

	resp := svc.SearchAndGetData(context.Background(), "서울 강수량")
	require.Equal(t, ResponseSuccess, resp.Status)
	require.Equal(t, "R1", resp.PrimaryStation.Code)
	require.Equal(t, 1.5, resp.DetailedData.Rainfall.Rainfall)
	require.Zero(t, source.callCount("dam"))
	require.Equal(t, 1, source.callCount("rainfall"))
}

func TestSearchDamFailureFallsBackToWaterLevel(t *testing.T) {
	source := &stubSource{
		damErr:     errors.New("dam feed down"),
		waterLevel: []WaterLevelRecord{{Code: "W1", Level: "2.75"}},
	}
	svc := newTestService(t, map[station.Kind][]station.Record{
		station.KindDam:        {{Code: "D1", Name: "대청댐"}},
		station.KindWaterLevel: {{Code: "W1", Name: "대청댐"}},
	}, source, nil)

	resp := svc.SearchAndGetData(context.Background(), "대청댐")
	require.Equal(t, ResponseSuccess, resp.Status)
	require.Equal(t, station.KindWaterLevel, resp.PrimaryStation.Kind)
	require.Equal(t, "W1", resp.PrimaryStation.Code)
	require.Nil(t, resp.DetailedData.Dam)
	require.Equal(t, 1, source.callCount("dam"))
	require.Equal(t, 1, source.callCount("waterlevel"))
}

func TestSearchMemoizesSnapshotsAcrossStations(t *testing.T) {
	source := &stubSource{
		waterLevel: []WaterLevelRecord{
			{Code: "W1", Level: ""},
			{Code: "W2", Level: "1.05"},
		},
	}
	svc := newTestService(t, map[station.Kind][]station.Record{
		station.KindWaterLevel: {
			{Code: "W1", Name: "한강A"},
			{Code: "W2", Name: "한강B"},
		},
	}, source, nil)

	resp := svc.SearchAndGetData(context.Background(), "한강")
	require.Equal(t, ResponseSuccess, resp.Status)
	require.Equal(t, "W2", resp.PrimaryStation.Code)
	require.Equal(t, 1, source.callCount("waterlevel"))
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := newTestService(t, nil, &stubSource{}, nil)

	resp := svc.SearchAndGetData(context.Background(), "   ")
	require.Equal(t, ResponseError, resp.Status)
	require.NotEmpty(t, resp.Message)
}

func TestSearchRecoversFromPanics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(Config{}, panicSearcher{}, &stubSource{}, NewResolver(nil), nil, logger)

	resp := svc.SearchAndGetData(context.Background(), "대청댐")
	require.Equal(t, ResponseError, resp.Status)
	require.Equal(t, "대청댐", resp.Query)
}

func TestRenderSuccessAndError(t *testing.T) {
	level := 3.2
	text := Render(IntegratedResponse{
		Status:         ResponseSuccess,
		DirectAnswer:   "한강대교 관측소의 현재 수위는 3.20m입니다.",
		PrimaryStation: &StationRef{Code: "1018683", Name: "한강대교", Kind: station.KindWaterLevel},
		DetailedData:   &DetailedData{WaterLevelStation: &WaterLevelReading{Code: "1018683", Level: level}},
	})
	require.Contains(t, text, "3.20m")
	require.Contains(t, text, "1018683")

	require.Equal(t, "not found", Render(IntegratedResponse{Status: ResponseError, Message: "not found"}))
}
