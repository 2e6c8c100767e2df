package hydro

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/hydro-agent/internal/domain/hydro/reference"
	"github.com/yanqian/hydro-agent/internal/domain/station"
)

func testReference(t *testing.T) *reference.Data {
	t.Helper()
	ref, err := reference.Parse([]byte(`
version: test
aliases:
  dam:
    대청댐: ["3008110"]
  waterlevel:
    한강대교: ["1018683"]
    대 청 댐: ["3008680"]
dams:
  "3008110": { name: 대청댐, totalCapacityMillionM3: 1490, watershed: 금강 }
  "3001110": { name: 용담댐, totalCapacityMillionM3: 815, watershed: 금강 }
  "1012110": { name: 소양강댐, totalCapacityMillionM3: 2900, watershed: 한강 }
`))
	require.NoError(t, err)
	return ref
}

func TestCandidateRankingExplicitFirst(t *testing.T) {
	r := NewResolver(testReference(t))

	ranked := r.RankedCandidates("대청댐", station.KindDam, "D1")
	require.Equal(t, []Candidate{
		{Code: "D1", Source: SourceExplicit},
		{Code: "3008110", Source: SourceAliasExact},
	}, ranked)
}

func TestCandidateCodesDeduplicateKeepingPriority(t *testing.T) {
	r := NewResolver(testReference(t))

	codes := r.CollectCandidateCodes("대청댐", station.KindDam, "3008110", "3008110")
	require.Equal(t, []string{"3008110"}, codes)
}

func TestCandidateCodesCompactAliasAndLiteral(t *testing.T) {
	r := NewResolver(testReference(t))

	require.Equal(t, []string{"3008680"}, r.CollectCandidateCodes("대청댐", station.KindWaterLevel))
	require.Equal(t, []string{"1018683"}, r.CollectCandidateCodes("한강 대교", station.KindWaterLevel))
	require.Equal(t, []string{"1018683"}, r.CollectCandidateCodes(" 1018683 ", station.KindWaterLevel))
	require.Empty(t, r.CollectCandidateCodes("1018683번", station.KindWaterLevel))
}

func TestCandidateStrategyRanking(t *testing.T) {
	sources := make([]CandidateSource, 0, len(candidateStrategies))
	for _, s := range candidateStrategies {
		sources = append(sources, s.source)
	}
	require.Equal(t, []CandidateSource{SourceExplicit, SourceAliasExact, SourceAliasCompact, SourceNumericLiteral}, sources)
}

func TestResolveSkipsBlankValues(t *testing.T) {
	r := NewResolver(testReference(t))
	snapshot := []WaterLevelRecord{
		{Code: "B", Level: "42.0", ObservedAt: "202407011230"},
		{Code: "A", Level: " "},
	}

	reading, ok := r.ResolveWaterLevel(snapshot, []string{"A", "B"})
	require.True(t, ok)
	require.Equal(t, "B", reading.Code)
	require.Equal(t, 42.0, reading.Level)
	require.Equal(t, 12, reading.ObservedAt.Hour())
}

func TestResolveFollowsCandidateOrderNotSnapshotOrder(t *testing.T) {
	r := NewResolver(testReference(t))
	snapshot := []RainfallRecord{
		{Code: "R2", Rainfall: "3.0"},
		{Code: " R1 ", Rainfall: "0.5"},
	}

	reading, ok := r.ResolveRainfall(snapshot, []string{"R1", "R2"})
	require.True(t, ok)
	require.Equal(t, "R1", reading.Code)
	require.Equal(t, 0.5, reading.Rainfall)
}

func TestResolveMissWhenNothingParses(t *testing.T) {
	r := NewResolver(testReference(t))
	snapshot := []WaterLevelRecord{{Code: "A", Level: "-"}, {Code: "B", Level: "n/a"}}

	_, ok := r.ResolveWaterLevel(snapshot, []string{"A", "B", "C"})
	require.False(t, ok)
}

func TestResolveDamJoinsInfo(t *testing.T) {
	r := NewResolver(testReference(t))
	snapshot := DamSnapshot{
		Realtime: []DamRealtimeRecord{
			{Code: "3008110", WaterLevel: "", ObservedAt: "202407011200"},
			{Code: "3008110", WaterLevel: "75.20", Inflow: "120.5", TotalOutflow: "80", Storage: "1043", ObservedAt: "202407011210"},
		},
		Info: map[string]DamInfoRecord{
			"3008110": {Code: "3008110", FloodLimitLevel: "76.5"},
		},
	}

	reading, ok := r.ResolveDam(snapshot, []string{"3008110"})
	require.True(t, ok)
	require.Equal(t, "대청댐", reading.Name)
	require.Equal(t, 75.2, reading.WaterLevel)
	require.Equal(t, StatusSafe, reading.Analysis.Status)
	require.NotNil(t, reading.Inflow)
	require.Equal(t, 120.5, *reading.Inflow)
}

func TestAnalyzeWaterLevelBoundaries(t *testing.T) {
	limit := 100.0
	cases := []struct {
		level  float64
		status string
		risk   string
	}{
		{level: 100.01, status: StatusExceeded, risk: RiskHigh},
		{level: 100, status: StatusNearLimit, risk: RiskMedium},
		{level: 99.5, status: StatusNearLimit, risk: RiskMedium},
		{level: 99, status: StatusSafe, risk: RiskLow},
		{level: 50, status: StatusSafe, risk: RiskLow},
	}
	for _, tc := range cases {
		analysis := AnalyzeWaterLevel(tc.level, &limit)
		require.Equal(t, tc.status, analysis.Status, tc.level)
		require.Equal(t, tc.risk, analysis.RiskLevel, tc.level)
	}

	exceeded := AnalyzeWaterLevel(102, &limit)
	require.Equal(t, 2.0, *exceeded.LevelDifference)
	require.Equal(t, 2.0, *exceeded.Percent)
}

func TestAnalyzeWaterLevelWithoutLimit(t *testing.T) {
	zero := 0.0
	for _, limit := range []*float64{nil, &zero} {
		analysis := AnalyzeWaterLevel(10, limit)
		require.Equal(t, StatusInsufficientInfo, analysis.Status)
		require.Equal(t, RiskUnknown, analysis.RiskLevel)
		require.Nil(t, analysis.LevelDifference)
	}
	limit := 10.0
	require.Equal(t, StatusInsufficientInfo, AnalyzeWaterLevel(math.NaN(), &limit).Status)
}

func TestStorageRatioAndRelatedDams(t *testing.T) {
	r := NewResolver(testReference(t))
	storage := 745.0
	info, ok := r.ref.Dam("3008110")

	ratio := StorageRatio(&storage, info, ok)
	require.NotNil(t, ratio)
	require.Equal(t, 50.0, *ratio)
	require.Nil(t, StorageRatio(nil, info, ok))

	watershed, related := r.RelatedDams("3008110")
	require.Equal(t, "금강", watershed)
	require.Equal(t, []RelatedDam{{Code: "3001110", Name: "용담댐", TotalCapacityMillionM3: 815}}, related)
}

func TestClassify(t *testing.T) {
	require.Equal(t, station.KindRainfall, Classify("서울 강수량"))
	require.Equal(t, station.KindRainfall, Classify("대청댐 강우량"))
	require.Equal(t, station.KindDam, Classify("소양강댐 방류"))
	require.Equal(t, station.KindWaterLevel, Classify("한강대교 수위"))
	require.Equal(t, station.Kind(""), Classify("한강대교"))
	require.Equal(t, station.KindWaterLevel, Classify("한강수위"))
	require.Equal(t, station.KindWaterLevel, Classify("남강수위"))
	require.Equal(t, station.KindWaterLevel, Classify("섬진강수위 알려줘"))
}
