package realestate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/hydro-agent/pkg/errors"
)

type stubSource struct {
	records  []TradeRecord
	err      error
	lawdCode string
	month    string
}

func (s *stubSource) Trades(_ context.Context, lawdCode, yearMonth string) ([]TradeRecord, error) {
	s.lawdCode, s.month = lawdCode, yearMonth
	return s.records, s.err
}

type stubRegions map[string]string

func (r stubRegions) RegionCode(name string) (string, bool) {
	code, ok := r[name]
	return code, ok
}

func newTestService(source TradeSource) Service {
	now := func() time.Time { return time.Date(2024, 6, 30, 16, 0, 0, 0, time.UTC) }
	return NewService(Config{RecentLimit: 2}, source, stubRegions{"강남구": "11680"}, now, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSummarizeComputesStatistics(t *testing.T) {
	source := &stubSource{records: []TradeRecord{
		{Apartment: "래미안 대치팰리스", Amount: "282,000", Year: "2024", Month: "6", Day: "3", ExclusiveArea: "84.97"},
		{Apartment: "은마", Amount: " 218,500", Year: "2024", Month: "6", Day: "21"},
		{Apartment: "은마", Amount: "199,000", Year: "2024", Month: "6", Day: "11"},
		{Apartment: "broken", Amount: "-", Year: "2024", Month: "6", Day: "1"},
	}}
	summary, err := newTestService(source).Summarize(context.Background(), Query{Region: "강남구", YearMonth: "2024-06"})
	require.NoError(t, err)

	require.Equal(t, "11680", source.lawdCode)
	require.Equal(t, "202406", source.month)
	require.Equal(t, 3, summary.Count)
	require.Equal(t, 1, summary.Skipped)
	require.Equal(t, int64(199000), summary.MinPrice)
	require.Equal(t, int64(282000), summary.MaxPrice)
	require.Equal(t, int64(233166), summary.AveragePrice)
	require.Len(t, summary.Recent, 2)
	require.Equal(t, "2024-06-21", summary.Recent[0].DealDate)
	require.Equal(t, "2024-06-11", summary.Recent[1].DealDate)
}

func TestSummarizeFiltersApartment(t *testing.T) {
	source := &stubSource{records: []TradeRecord{
		{Apartment: "래미안 대치팰리스", Amount: "282,000"},
		{Apartment: "은마", Amount: "218,500"},
	}}
	summary, err := newTestService(source).Summarize(context.Background(), Query{Region: "11680", YearMonth: "202406", Apartment: "래미안대치"})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Count)
	require.Equal(t, "래미안 대치팰리스", summary.Recent[0].Apartment)
}

func TestSummarizeDefaultsToCurrentKoreanMonth(t *testing.T) {
	source := &stubSource{}
	summary, err := newTestService(source).Summarize(context.Background(), Query{Region: "강남구"})
	require.NoError(t, err)
	require.Equal(t, "202407", source.month)
	require.Zero(t, summary.Count)
	require.Empty(t, summary.Recent)
}

func TestSummarizeValidation(t *testing.T) {
	svc := newTestService(&stubSource{})

	_, err := svc.Summarize(context.Background(), Query{})
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = svc.Summarize(context.Background(), Query{Region: "어딘가"})
	require.True(t, apperrors.IsCode(err, "not_found"))

	_, err = svc.Summarize(context.Background(), Query{Region: "강남구", YearMonth: "202413"})
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestSummarizePropagatesSourceErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := newTestService(&stubSource{err: boom}).Summarize(context.Background(), Query{Region: "강남구", YearMonth: "202406"})
	require.ErrorIs(t, err, boom)
}

func TestParsePrice(t *testing.T) {
	price, ok := ParsePrice("82,500")
	require.True(t, ok)
	require.Equal(t, int64(82500), price)

	for _, raw := range []string{"", "-", "abc", "0"} {
		_, ok := ParsePrice(raw)
		require.False(t, ok, raw)
	}
}
