package hrfco

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/yanqian/hydro-agent/internal/domain/hydro"
	"github.com/yanqian/hydro-agent/internal/domain/station"
	"github.com/yanqian/hydro-agent/internal/infra/upstream"
	apperrors "github.com/yanqian/hydro-agent/pkg/errors"
)

// DefaultBaseURL is the Han River Flood Control Office open API host.
const DefaultBaseURL = "https://api.hrfco.go.kr"

// Snapshot granularity per kind.
const (
	waterLevelSnapshotCadence = "10M"
	rainfallSnapshotCadence   = "1H"
	damSnapshotCadence        = "10M"
)

// Requester is the request core contract the fetchers rely on.
type Requester interface {
	Request(ctx context.Context, ep upstream.Endpoint, format upstream.Format) (upstream.Document, error)
}

// Client fetches snapshots, station listings and series from the flood control feed.
type Client struct {
	requester Requester
	format    upstream.Format
	logger    *slog.Logger
}

// NewClient builds a fetcher on top of the request core. format is json or xml.
func NewClient(requester Requester, format upstream.Format, logger *slog.Logger) *Client {
	if format != upstream.FormatXML {
		format = upstream.FormatJSON
	}
	return &Client{
		requester: requester,
		format:    format,
		logger:    logger.With("component", "infra.hrfco"),
	}
}

func (c *Client) endpoint(kind station.Kind, parts ...string) upstream.Endpoint {
	return upstream.Endpoint{
		Resource: string(kind),
		Path:     string(kind) + "/" + strings.Join(parts, "/") + "." + string(c.format),
	}
}

func (c *Client) items(ctx context.Context, ep upstream.Endpoint) ([]map[string]any, error) {
	doc, err := c.requester.Request(ctx, ep, c.format)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ep.Path, err)
	}
	if doc.Fallback {
		c.logger.Warn("unstructured payload from flood control feed", "resource", ep.Resource, "bytes", len(doc.Raw))
		return nil, apperrors.Wrap("upstream_error", "flood control feed returned an unstructured payload", nil)
	}
	return upstream.Items(doc), nil
}

// WaterLevelSnapshot returns the latest water level of every gauge.
func (c *Client) WaterLevelSnapshot(ctx context.Context) ([]hydro.WaterLevelRecord, error) {
	items, err := c.items(ctx, c.endpoint(station.KindWaterLevel, "list", waterLevelSnapshotCadence))
	if err != nil {
		return nil, err
	}
	sc := schemas[station.KindWaterLevel]
	out := make([]hydro.WaterLevelRecord, 0, len(items))
	for _, item := range items {
		code := sc.code.From(item)
		if code == "" {
			continue
		}
		out = append(out, hydro.WaterLevelRecord{
			Code:       code,
			Name:       fieldName.From(item),
			ObservedAt: fieldObservedAt.From(item),
			Level:      sc.value.From(item),
			Flow:       fieldFlow.From(item),
		})
	}
	return out, nil
}

// RainfallSnapshot returns the latest rainfall of every gauge.
func (c *Client) RainfallSnapshot(ctx context.Context) ([]hydro.RainfallRecord, error) {
	items, err := c.items(ctx, c.endpoint(station.KindRainfall, "list", rainfallSnapshotCadence))
	if err != nil {
		return nil, err
	}
	sc := schemas[station.KindRainfall]
	out := make([]hydro.RainfallRecord, 0, len(items))
	for _, item := range items {
		code := sc.code.From(item)
		if code == "" {
			continue
		}
		out = append(out, hydro.RainfallRecord{
			Code:       code,
			Name:       fieldName.From(item),
			ObservedAt: fieldObservedAt.From(item),
			Rainfall:   sc.value.From(item),
		})
	}
	return out, nil
}

// DamSnapshot fetches realtime readings and dam info concurrently. Info is
// optional: when it fails the snapshot carries realtime rows only.
func (c *Client) DamSnapshot(ctx context.Context) (hydro.DamSnapshot, error) {
	var (
		wg               sync.WaitGroup
		realtime, info   []map[string]any
		realErr, infoErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		realtime, realErr = c.items(ctx, c.endpoint(station.KindDam, "list", damSnapshotCadence))
	}()
	go func() {
		defer wg.Done()
		info, infoErr = c.items(ctx, c.endpoint(station.KindDam, "info"))
	}()
	wg.Wait()

	if realErr != nil {
		return hydro.DamSnapshot{}, realErr
	}
	if infoErr != nil {
		c.logger.Warn("dam info unavailable, flood-limit analysis disabled", "error", infoErr)
	}

	sc := schemas[station.KindDam]
	snapshot := hydro.DamSnapshot{
		Realtime: make([]hydro.DamRealtimeRecord, 0, len(realtime)),
		Info:     make(map[string]hydro.DamInfoRecord, len(info)),
	}
	for _, item := range realtime {
		code := sc.code.From(item)
		if code == "" {
			continue
		}
		snapshot.Realtime = append(snapshot.Realtime, hydro.DamRealtimeRecord{
			Code:         code,
			Name:         fieldName.From(item),
			ObservedAt:   fieldObservedAt.From(item),
			WaterLevel:   sc.value.From(item),
			Inflow:       fieldDamInflow.From(item),
			TotalOutflow: fieldDamOutflow.From(item),
			Storage:      fieldDamStorage.From(item),
		})
	}
	for _, item := range info {
		code := sc.code.From(item)
		if code == "" {
			continue
		}
		snapshot.Info[code] = hydro.DamInfoRecord{
			Code:                 code,
			Name:                 fieldName.From(item),
			FloodLimitLevel:      fieldDamFloodLimit.From(item),
			PlannedFloodLevel:    fieldDamPlanned.From(item),
			FloodControlCapacity: fieldDamFloodVolume.From(item),
		}
	}
	return snapshot, nil
}

// ListStations returns the station population of one kind from its info listing.
func (c *Client) ListStations(ctx context.Context, kind station.Kind) ([]station.Record, error) {
	sc, ok := schemas[kind]
	if !ok {
		return nil, apperrors.Wrap("invalid_input", fmt.Sprintf("unknown station kind %q", kind), nil)
	}
	items, err := c.items(ctx, c.endpoint(kind, "info"))
	if err != nil {
		return nil, err
	}
	out := make([]station.Record, 0, len(items))
	for _, item := range items {
		code := sc.code.From(item)
		if code == "" {
			continue
		}
		location := fieldAddress.From(item)
		if detail := fieldAddressEtc.From(item); detail != "" {
			location = strings.TrimSpace(location + " " + detail)
		}
		out = append(out, station.Record{
			Code:      code,
			Name:      fieldName.From(item),
			Kind:      kind,
			Location:  location,
			RiverName: fieldRiver.From(item),
		})
	}
	c.logger.Debug("station listing fetched", "kind", kind, "count", len(out))
	return out, nil
}
