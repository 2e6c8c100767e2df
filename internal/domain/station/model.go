package station

import (
	"context"
	"strings"
	"time"
)

// Kind scopes station codes to one telemetry feed.
type Kind string

const (
	KindDam        Kind = "dam"
	KindWaterLevel Kind = "waterlevel"
	KindRainfall   Kind = "rainfall"
)

// Kinds lists every kind in search priority order.
var Kinds = []Kind{KindDam, KindWaterLevel, KindRainfall}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindDam, KindWaterLevel, KindRainfall:
		return true
	default:
		return false
	}
}

// ParseKind accepts the canonical names plus a few common spellings.
func ParseKind(value string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dam", "dams", "댐":
		return KindDam, true
	case "waterlevel", "water_level", "water-level", "wl", "수위":
		return KindWaterLevel, true
	case "rainfall", "rain", "rf", "강우", "강수":
		return KindRainfall, true
	default:
		return "", false
	}
}

// Record is one station entry of a directory generation.
type Record struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Kind      Kind   `json:"kind"`
	Location  string `json:"location,omitempty"`
	RiverName string `json:"river_name,omitempty"`
}

// Generation is a persisted copy of the directory contents.
type Generation struct {
	Entries     map[Kind][]Record `json:"entries"`
	RefreshedAt time.Time         `json:"refreshed_at"`
}

// Lister fetches the full station population of one kind.
type Lister interface {
	ListStations(ctx context.Context, kind Kind) ([]Record, error)
}

// Store persists directory generations so a restarted process can warm up without upstream calls.
type Store interface {
	Load(ctx context.Context) (Generation, bool, error)
	Save(ctx context.Context, gen Generation) error
}

// Clock returns the current time.
type Clock func() time.Time
