package station

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubLister struct {
	mu      sync.Mutex
	calls   map[Kind]int
	records map[Kind][]Record
	errs    map[Kind]error
	delay   time.Duration
}

func newStubLister() *stubLister {
	return &stubLister{
		calls: make(map[Kind]int),
		records: map[Kind][]Record{
			KindDam: {
				{Code: "1003110", Name: "대청댐", Location: "대전광역시 대덕구", RiverName: "금강"},
				{Code: "1012110", Name: "소양강댐", Location: "강원도 춘천시", RiverName: "북한강"},
			},
			KindWaterLevel: {
				{Code: "3008680", Name: "대청댐", Location: "대전광역시 대덕구 미호동"},
				{Code: "1018683", Name: "서울시(한강대교)", Location: "서울특별시 용산구", RiverName: "한강"},
				{Code: "", Name: "no code"},
			},
			KindRainfall: {
				{Code: "10184100", Name: "서울", Location: "서울특별시 종로구"},
			},
		},
		errs: make(map[Kind]error),
	}
}

func (s *stubLister) ListStations(_ context.Context, kind Kind) ([]Record, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[kind]++
	if err := s.errs[kind]; err != nil {
		return nil, err
	}
	return s.records[kind], nil
}

func (s *stubLister) callCount(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[kind]
}

func (s *stubLister) fail(kind Kind, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[kind] = err
}

type memStore struct {
	gen   Generation
	saved int
}

func (m *memStore) Load(context.Context) (Generation, bool, error) {
	if m.gen.Entries == nil {
		return Generation{}, false, nil
	}
	return m.gen, true, nil
}

func (m *memStore) Save(_ context.Context, gen Generation) error {
	m.gen = gen
	m.saved++
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestDirectory(lister Lister, store Store, clock *fakeClock) *Directory {
	return NewDirectory(Config{TTL: time.Hour}, lister, store, clock.Now, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSearchWithinTTLDoesNotRefetch(t *testing.T) {
	lister := newStubLister()
	clock := &fakeClock{now: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}
	dir := newTestDirectory(lister, nil, clock)

	require.NotEmpty(t, dir.SearchByName(context.Background(), "대청댐", ""))
	clock.Advance(30 * time.Minute)
	require.NotEmpty(t, dir.SearchByName(context.Background(), "소양강댐", KindDam))

	for _, kind := range Kinds {
		require.Equal(t, 1, lister.callCount(kind), kind)
	}

	clock.Advance(31 * time.Minute)
	dir.SearchByName(context.Background(), "대청댐", "")
	require.Equal(t, 2, lister.callCount(KindDam))
}

func TestConcurrentRefreshSharesOneFetch(t *testing.T) {
	lister := newStubLister()
	lister.delay = 20 * time.Millisecond
	clock := &fakeClock{now: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}
	dir := newTestDirectory(lister, nil, clock)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = dir.Refresh(context.Background())
		}()
	}
	wg.Wait()

	require.Equal(t, 1, lister.callCount(KindDam))
}

func TestRefreshKeepsPriorEntriesOnKindFailure(t *testing.T) {
	lister := newStubLister()
	clock := &fakeClock{now: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}
	dir := newTestDirectory(lister, nil, clock)
	require.NoError(t, dir.Refresh(context.Background()))

	lister.fail(KindDam, errors.New("dam list unavailable"))
	clock.Advance(2 * time.Hour)
	require.NoError(t, dir.Refresh(context.Background()))

	require.Len(t, dir.Stations(KindDam), 2)
	require.Len(t, dir.Stations(KindWaterLevel), 2)
	found := dir.SearchByName(context.Background(), "서울", KindRainfall)
	require.Len(t, found, 1)
	require.Equal(t, "10184100", found[0].Code)
	require.Equal(t, clock.Now(), dir.LastRefreshedAt())
}

func TestRefreshFailingEveryKindKeepsGeneration(t *testing.T) {
	lister := newStubLister()
	clock := &fakeClock{now: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}
	dir := newTestDirectory(lister, nil, clock)
	require.NoError(t, dir.Refresh(context.Background()))
	first := dir.LastRefreshedAt()

	for _, kind := range Kinds {
		lister.fail(kind, errors.New("outage"))
	}
	clock.Advance(2 * time.Hour)
	require.Error(t, dir.Refresh(context.Background()))
	require.Equal(t, first, dir.LastRefreshedAt())
	require.Len(t, dir.Stations(KindDam), 2)
}

func TestRefreshBacksOffAfterTotalFailure(t *testing.T) {
	lister := newStubLister()
	for _, kind := range Kinds {
		lister.fail(kind, errors.New("outage"))
	}
	clock := &fakeClock{now: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}
	dir := newTestDirectory(lister, nil, clock)

	require.Error(t, dir.Refresh(context.Background()))
	require.Equal(t, 1, lister.callCount(KindDam))

	clock.Advance(30 * time.Second)
	require.Empty(t, dir.SearchByName(context.Background(), "대청댐", ""))
	require.Error(t, dir.Refresh(context.Background()))
	require.Equal(t, 1, lister.callCount(KindDam))

	for _, kind := range Kinds {
		lister.fail(kind, nil)
	}
	clock.Advance(time.Minute)
	require.NoError(t, dir.Refresh(context.Background()))
	require.Equal(t, 2, lister.callCount(KindDam))
	require.Len(t, dir.Stations(KindDam), 2)
}

func TestRefreshVetsRecords(t *testing.T) {
	lister := newStubLister()
	clock := &fakeClock{now: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}
	dir := newTestDirectory(lister, nil, clock)
	require.NoError(t, dir.Refresh(context.Background()))

	stations := dir.Stations(KindWaterLevel)
	require.Len(t, stations, 2)
	for _, rec := range stations {
		require.NotEmpty(t, rec.Code)
		require.Equal(t, KindWaterLevel, rec.Kind)
	}
	rec, ok := dir.Lookup(KindWaterLevel, " 1018683 ")
	require.True(t, ok)
	require.Equal(t, "서울시(한강대교)", rec.Name)
}

func TestWarmFromStoreSkipsUpstream(t *testing.T) {
	lister := newStubLister()
	clock := &fakeClock{now: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}
	store := &memStore{}

	first := newTestDirectory(lister, store, clock)
	require.NoError(t, first.Refresh(context.Background()))
	require.Equal(t, 1, store.saved)

	second := newTestDirectory(lister, store, clock)
	require.NoError(t, second.Warm(context.Background()))
	clock.Advance(10 * time.Minute)
	require.NotEmpty(t, second.SearchByName(context.Background(), "대청댐", KindDam))
	require.Equal(t, 1, lister.callCount(KindDam))
}
