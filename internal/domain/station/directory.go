package station

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/yanqian/hydro-agent/pkg/errors"
	"github.com/yanqian/hydro-agent/pkg/metrics"
)

const refreshKey = "refresh"

// Config tunes directory freshness.
type Config struct {
	TTL time.Duration
	// FailureBackoff is how long Refresh reuses a failed reload before trying upstream again.
	FailureBackoff time.Duration
}

type entry struct {
	record    Record
	normName  string
	normLoc   string
	normRiver string
}

// Directory is a time-boxed cache of every station of every kind.
// Each kind holds either nothing or a vetted list; lists are replaced wholesale.
type Directory struct {
	cfg    Config
	lister Lister
	store  Store
	now    Clock
	logger *slog.Logger

	mu          sync.RWMutex
	entries     map[Kind][]entry
	refreshedAt time.Time
	failedAt    time.Time
	failure     error

	group singleflight.Group
}

// NewDirectory builds an empty directory. store may be nil.
func NewDirectory(cfg Config, lister Lister, store Store, now Clock, logger *slog.Logger) *Directory {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.FailureBackoff <= 0 {
		cfg.FailureBackoff = time.Minute
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		cfg:     cfg,
		lister:  lister,
		store:   store,
		now:     now,
		logger:  logger.With("component", "station.directory"),
		entries: make(map[Kind][]entry),
	}
}

// Refresh reloads every kind unless the current generation is still within TTL.
// Concurrent callers share one in-flight reload. After a reload in which every
// kind failed, callers get that failure back until FailureBackoff elapses.
func (d *Directory) Refresh(ctx context.Context) error {
	if d.fresh() {
		return nil
	}
	if err := d.backingOff(); err != nil {
		return err
	}
	_, err, _ := d.group.Do(refreshKey, func() (interface{}, error) {
		if d.fresh() {
			return nil, nil
		}
		if err := d.backingOff(); err != nil {
			return nil, err
		}
		return nil, d.reload(ctx)
	})
	return err
}

// ForceRefresh reloads regardless of TTL. Used by the scheduled refresh job.
func (d *Directory) ForceRefresh(ctx context.Context) error {
	_, err, _ := d.group.Do(refreshKey, func() (interface{}, error) {
		return nil, d.reload(ctx)
	})
	return err
}

// Warm seeds the directory from the store. A stored generation keeps its
// original timestamp so TTL is honoured across restarts.
func (d *Directory) Warm(ctx context.Context) error {
	if d.store == nil {
		return nil
	}
	gen, ok, err := d.store.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for kind, records := range gen.Entries {
		if !kind.Valid() {
			continue
		}
		if vetted := vet(kind, records); len(vetted) > 0 {
			d.entries[kind] = vetted
		}
	}
	d.refreshedAt = gen.RefreshedAt
	d.logger.Info("station directory warmed from store", "refreshed_at", gen.RefreshedAt, "counts", d.countsLocked())
	return nil
}

func (d *Directory) backingOff() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.failure == nil || d.now().Sub(d.failedAt) >= d.cfg.FailureBackoff {
		return nil
	}
	return d.failure
}

func (d *Directory) fresh() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.refreshedAt.IsZero() {
		return false
	}
	return d.now().Sub(d.refreshedAt) < d.cfg.TTL
}

type listResult struct {
	kind    Kind
	records []Record
	err     error
}

func (d *Directory) reload(ctx context.Context) error {
	if d.lister == nil {
		return apperrors.Wrap("upstream_error", "station lister not configured", nil)
	}

	results := make([]listResult, len(Kinds))
	var wg sync.WaitGroup
	for i, kind := range Kinds {
		wg.Add(1)
		go func(i int, kind Kind) {
			defer wg.Done()
			records, err := d.lister.ListStations(ctx, kind)
			results[i] = listResult{kind: kind, records: records, err: err}
		}(i, kind)
	}
	wg.Wait()

	fetched := make(map[Kind][]entry, len(results))
	var errs []error
	for _, res := range results {
		if res.err != nil {
			metrics.DirectoryRefreshes.WithLabelValues(string(res.kind), "error").Inc()
			d.logger.Warn("station list fetch failed, keeping previous entries", "kind", res.kind, "error", res.err)
			errs = append(errs, res.err)
			continue
		}
		metrics.DirectoryRefreshes.WithLabelValues(string(res.kind), "ok").Inc()
		fetched[res.kind] = vet(res.kind, res.records)
	}
	if len(fetched) == 0 {
		err := apperrors.Wrap("upstream_error", "station directory refresh failed for every kind", errors.Join(errs...))
		d.mu.Lock()
		d.failedAt = d.now()
		d.failure = err
		d.mu.Unlock()
		return err
	}

	d.mu.Lock()
	for kind, list := range fetched {
		d.entries[kind] = list
	}
	d.refreshedAt = d.now()
	d.failedAt = time.Time{}
	d.failure = nil
	gen := d.generationLocked()
	counts := d.countsLocked()
	d.mu.Unlock()

	d.logger.Info("station directory refreshed", "counts", counts, "failed_kinds", len(errs))

	if d.store != nil {
		if err := d.store.Save(ctx, gen); err != nil {
			d.logger.Warn("persist station directory failed", "error", err)
		}
	}
	return nil
}

func vet(kind Kind, records []Record) []entry {
	out := make([]entry, 0, len(records))
	for _, rec := range records {
		rec.Code = strings.TrimSpace(rec.Code)
		rec.Name = strings.TrimSpace(rec.Name)
		if rec.Code == "" || rec.Name == "" {
			continue
		}
		rec.Kind = kind
		rec.Location = strings.TrimSpace(rec.Location)
		rec.RiverName = strings.TrimSpace(rec.RiverName)
		out = append(out, entry{
			record:    rec,
			normName:  Normalize(rec.Name),
			normLoc:   Normalize(rec.Location),
			normRiver: Normalize(rec.RiverName),
		})
	}
	return out
}

func (d *Directory) generationLocked() Generation {
	gen := Generation{Entries: make(map[Kind][]Record, len(d.entries)), RefreshedAt: d.refreshedAt}
	for kind, list := range d.entries {
		gen.Entries[kind] = recordsOf(list)
	}
	return gen
}

func (d *Directory) countsLocked() map[string]int {
	counts := make(map[string]int, len(d.entries))
	for kind, list := range d.entries {
		counts[string(kind)] = len(list)
	}
	return counts
}

func recordsOf(list []entry) []Record {
	out := make([]Record, len(list))
	for i, e := range list {
		out[i] = e.record
	}
	return out
}

// Stations returns the current records of one kind.
func (d *Directory) Stations(kind Kind) []Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return recordsOf(d.entries[kind])
}

// Lookup finds a station by code within a kind.
func (d *Directory) Lookup(kind Kind, code string) (Record, bool) {
	code = strings.TrimSpace(code)
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, e := range d.entries[kind] {
		if e.record.Code == code {
			return e.record, true
		}
	}
	return Record{}, false
}

// LastRefreshedAt reports when the current generation was loaded.
func (d *Directory) LastRefreshedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.refreshedAt
}

// Counts reports the number of stations cached per kind.
func (d *Directory) Counts() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.countsLocked()
}
