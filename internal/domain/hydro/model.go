package hydro

import (
	"context"
	"time"

	"github.com/yanqian/hydro-agent/internal/domain/hydro/reference"
	"github.com/yanqian/hydro-agent/internal/domain/station"
)

// Raw snapshot rows. Values keep upstream text so unparseable readings reach
// the resolver, which decides per candidate whether a row is usable.
type (
	WaterLevelRecord struct {
		Code       string
		Name       string
		ObservedAt string
		Level      string
		Flow       string
	}

	RainfallRecord struct {
		Code       string
		Name       string
		ObservedAt string
		Rainfall   string
	}

	DamRealtimeRecord struct {
		Code         string
		Name         string
		ObservedAt   string
		WaterLevel   string
		Inflow       string
		TotalOutflow string
		Storage      string
	}

	DamInfoRecord struct {
		Code                 string
		Name                 string
		FloodLimitLevel      string
		PlannedFloodLevel    string
		FloodControlCapacity string
	}
)

// DamSnapshot joins the realtime list with per-dam info keyed by code.
type DamSnapshot struct {
	Realtime []DamRealtimeRecord
	Info     map[string]DamInfoRecord
}

// SnapshotSource fetches the latest readings of every station of one kind.
type SnapshotSource interface {
	WaterLevelSnapshot(ctx context.Context) ([]WaterLevelRecord, error)
	RainfallSnapshot(ctx context.Context) ([]RainfallRecord, error)
	DamSnapshot(ctx context.Context) (DamSnapshot, error)
}

// StationSearcher is the directory view the service needs.
type StationSearcher interface {
	SearchByName(ctx context.Context, query string, hint station.Kind) []station.Record
}

// DamCapacityInfo is the static capacity entry for a dam.
type DamCapacityInfo = reference.DamCapacityInfo

const (
	UnitWaterLevel = "m"
	UnitDamLevel   = "El.m"
	UnitRainfall   = "mm"
	UnitFlow       = "m³/s"
	UnitStorage    = "백만m³"
)

// WaterLevelReading is a validated water-level observation.
type WaterLevelReading struct {
	Code       string    `json:"code"`
	Name       string    `json:"name,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
	Level      float64   `json:"level"`
	Unit       string    `json:"unit"`
	Flow       *float64  `json:"flow,omitempty"`
}

// RainfallReading is a validated rainfall observation.
type RainfallReading struct {
	Code       string    `json:"code"`
	Name       string    `json:"name,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
	Rainfall   float64   `json:"rainfall"`
	Unit       string    `json:"unit"`
}

// Analysis statuses and risk levels.
const (
	StatusExceeded         = "exceeded"
	StatusNearLimit        = "near_limit"
	StatusSafe             = "safe"
	StatusInsufficientInfo = "insufficient_info"

	RiskHigh    = "high"
	RiskMedium  = "medium"
	RiskLow     = "low"
	RiskUnknown = "unknown"
)

// WaterLevelAnalysis compares a dam level with its flood-limit level.
type WaterLevelAnalysis struct {
	Status          string   `json:"status"`
	Message         string   `json:"message"`
	LevelDifference *float64 `json:"level_difference,omitempty"`
	Percent         *float64 `json:"percent,omitempty"`
	RiskLevel       string   `json:"risk_level"`
}

// DamReading is a validated dam observation joined with its info record.
type DamReading struct {
	Code                 string             `json:"code"`
	Name                 string             `json:"name,omitempty"`
	ObservedAt           time.Time          `json:"observed_at"`
	WaterLevel           float64            `json:"water_level"`
	Unit                 string             `json:"unit"`
	Inflow               *float64           `json:"inflow,omitempty"`
	Outflow              *float64           `json:"outflow,omitempty"`
	Storage              *float64           `json:"storage,omitempty"`
	FloodLimitLevel      *float64           `json:"flood_limit_level,omitempty"`
	FloodControlCapacity *float64           `json:"flood_control_capacity,omitempty"`
	Analysis             WaterLevelAnalysis `json:"analysis"`
}

// RelatedDam is another dam in the same watershed.
type RelatedDam struct {
	Code                   string  `json:"code"`
	Name                   string  `json:"name"`
	TotalCapacityMillionM3 float64 `json:"total_capacity_million_m3"`
}

// StationRef identifies a station in a response.
type StationRef struct {
	Code     string       `json:"code"`
	Name     string       `json:"name"`
	Kind     station.Kind `json:"kind"`
	Location string       `json:"location,omitempty"`
}

// DetailedData carries the readings behind an answer. Every field originates
// from the same resolution.
type DetailedData struct {
	Dam               *DamReading        `json:"dam,omitempty"`
	WaterLevelStation *WaterLevelReading `json:"water_level_station,omitempty"`
	Rainfall          *RainfallReading   `json:"rainfall,omitempty"`
	StorageRatio      *float64           `json:"storage_ratio,omitempty"`
	Watershed         string             `json:"watershed,omitempty"`
	RelatedDams       []RelatedDam       `json:"related_dams,omitempty"`
}

// Response statuses.
const (
	ResponseSuccess = "success"
	ResponseError   = "error"
)

// IntegratedResponse is the single answer built for one query.
type IntegratedResponse struct {
	Status          string        `json:"status"`
	Summary         string        `json:"summary,omitempty"`
	DirectAnswer    string        `json:"direct_answer,omitempty"`
	PrimaryStation  *StationRef   `json:"primary_station,omitempty"`
	RelatedStations []StationRef  `json:"related_stations,omitempty"`
	DetailedData    *DetailedData `json:"detailed_data,omitempty"`
	Query           string        `json:"query"`
	Message         string        `json:"message,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
}
