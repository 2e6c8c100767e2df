package hydro

import (
	"context"
	"fmt"
	"sync"
)

type memo[T any] struct {
	once  sync.Once
	value T
	err   error
}

func (m *memo[T]) get(fetch func() (T, error)) (T, error) {
	m.once.Do(func() {
		defer func() {
			if rec := recover(); rec != nil {
				m.err = fmt.Errorf("snapshot fetch panicked: %v", rec)
			}
		}()
		m.value, m.err = fetch()
	})
	return m.value, m.err
}

// snapshots memoizes upstream snapshots for the lifetime of one query so each
// kind is fetched at most once however many candidate stations are tried.
type snapshots struct {
	source     SnapshotSource
	waterLevel memo[[]WaterLevelRecord]
	rainfall   memo[[]RainfallRecord]
	dam        memo[DamSnapshot]
}

func newSnapshots(source SnapshotSource) *snapshots {
	return &snapshots{source: source}
}

func (s *snapshots) WaterLevel(ctx context.Context) ([]WaterLevelRecord, error) {
	return s.waterLevel.get(func() ([]WaterLevelRecord, error) {
		return s.source.WaterLevelSnapshot(ctx)
	})
}

func (s *snapshots) Rainfall(ctx context.Context) ([]RainfallRecord, error) {
	return s.rainfall.get(func() ([]RainfallRecord, error) {
		return s.source.RainfallSnapshot(ctx)
	})
}

func (s *snapshots) Dam(ctx context.Context) (DamSnapshot, error) {
	return s.dam.get(func() (DamSnapshot, error) {
		return s.source.DamSnapshot(ctx)
	})
}
