package station

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func searchDirectory(t *testing.T, records map[Kind][]Record) *Directory {
	t.Helper()
	lister := newStubLister()
	if records != nil {
		lister.records = records
	}
	clock := &fakeClock{now: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}
	return newTestDirectory(lister, nil, clock)
}

func TestSearchPrefersDamWithoutHint(t *testing.T) {
	dir := searchDirectory(t, nil)

	found := dir.SearchByName(context.Background(), "대청댐", "")
	require.Len(t, found, 1)
	require.Equal(t, KindDam, found[0].Kind)
	require.Equal(t, "1003110", found[0].Code)
}

func TestSearchHonoursKindHint(t *testing.T) {
	dir := searchDirectory(t, nil)

	found := dir.SearchByName(context.Background(), "대청댐", KindWaterLevel)
	require.Len(t, found, 1)
	require.Equal(t, "3008680", found[0].Code)
}

func TestSearchExactMatchesComeFirstAndDeduplicate(t *testing.T) {
	dir := searchDirectory(t, map[Kind][]Record{
		KindWaterLevel: {
			{Code: "A", Name: "신여주"},
			{Code: "B", Name: "여주대교"},
			{Code: "C", Name: "여주"},
		},
	})

	found := dir.SearchByName(context.Background(), "여주", KindWaterLevel)
	codes := make([]string, 0, len(found))
	for _, rec := range found {
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []string{"B", "C", "A"}, codes)
}

func TestSearchNormalizedContainment(t *testing.T) {
	dir := searchDirectory(t, nil)

	found := dir.SearchByName(context.Background(), "한강 대교 수위", KindWaterLevel)
	require.Len(t, found, 1)
	require.Equal(t, "1018683", found[0].Code)
}

func TestSearchQueryContainingStationName(t *testing.T) {
	dir := searchDirectory(t, nil)

	found := dir.SearchByName(context.Background(), "서울 강수량", KindRainfall)
	require.Len(t, found, 1)
	require.Equal(t, "10184100", found[0].Code)
}

func TestSearchFallsBackToRiverName(t *testing.T) {
	dir := searchDirectory(t, nil)

	found := dir.SearchByName(context.Background(), "북한강", "")
	require.Len(t, found, 1)
	require.Equal(t, "1012110", found[0].Code)
}

func TestSearchUnknownNameReturnsNothing(t *testing.T) {
	dir := searchDirectory(t, nil)

	require.Empty(t, dir.SearchByName(context.Background(), "존재하지않는곳", ""))
	require.Empty(t, dir.SearchByName(context.Background(), "   ", ""))
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "한강", Normalize(" 한강 대교 (수위) "))
	require.Equal(t, "소양강", Normalize("소양강댐"))
	require.Equal(t, "seoul", Normalize("Seoul Rainfall-Station"))
	require.Equal(t, "", Normalize("댐"))
	require.Equal(t, "대청댐", Compact("대청 댐"))
}

func TestParseKind(t *testing.T) {
	kind, ok := ParseKind("Water_Level")
	require.True(t, ok)
	require.Equal(t, KindWaterLevel, kind)

	_, ok = ParseKind("snow")
	require.False(t, ok)
}
