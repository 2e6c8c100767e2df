package realestate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	apperrors "github.com/yanqian/hydro-agent/pkg/errors"
	"github.com/yanqian/hydro-agent/pkg/util"
)

const defaultRecentLimit = 10

// Config tunes the summary.
type Config struct {
	RecentLimit int
}

// Service answers transaction summary queries.
type Service interface {
	Summarize(ctx context.Context, q Query) (Summary, error)
}

type service struct {
	cfg     Config
	source  TradeSource
	regions RegionLookup
	now     func() time.Time
	logger  *slog.Logger
}

// NewService wires the real-estate service.
func NewService(cfg Config, source TradeSource, regions RegionLookup, now func() time.Time, logger *slog.Logger) Service {
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = defaultRecentLimit
	}
	if now == nil {
		now = util.NowUTC
	}
	return &service{
		cfg:     cfg,
		source:  source,
		regions: regions,
		now:     now,
		logger:  logger.With("component", "realestate.service"),
	}
}

func (s *service) Summarize(ctx context.Context, q Query) (Summary, error) {
	region := strings.TrimSpace(q.Region)
	if region == "" {
		return Summary{}, apperrors.Wrap("invalid_input", "region is required", nil)
	}
	code, ok := s.regionCode(region)
	if !ok {
		return Summary{}, apperrors.Wrap("not_found", fmt.Sprintf("unknown region %q", region), nil)
	}
	yearMonth, err := s.yearMonth(q.YearMonth)
	if err != nil {
		return Summary{}, err
	}

	records, err := s.source.Trades(ctx, code, yearMonth)
	if err != nil {
		s.logger.Error("fetch trades failed", "lawd_code", code, "year_month", yearMonth, "error", err)
		return Summary{}, err
	}

	filter := compact(q.Apartment)
	summary := Summary{
		Region:      region,
		LawdCode:    code,
		YearMonth:   yearMonth,
		Apartment:   strings.TrimSpace(q.Apartment),
		GeneratedAt: s.now(),
	}
	trades := make([]Trade, 0, len(records))
	for _, record := range records {
		if filter != "" && !strings.Contains(compact(record.Apartment), filter) {
			continue
		}
		trade, ok := parseTrade(record)
		if !ok {
			summary.Skipped++
			continue
		}
		trades = append(trades, trade)
	}
	summarize(&summary, trades, s.cfg.RecentLimit)
	s.logger.Info("trades summarized", "lawd_code", code, "year_month", yearMonth, "count", summary.Count, "skipped", summary.Skipped)
	return summary, nil
}

func (s *service) regionCode(region string) (string, bool) {
	if len(region) == 5 && isDigits(region) {
		return region, true
	}
	return s.regions.RegionCode(region)
}

func (s *service) yearMonth(value string) (string, error) {
	value = strings.TrimSpace(strings.ReplaceAll(value, "-", ""))
	if value == "" {
		return s.now().In(util.KST).Format("200601"), nil
	}
	if _, err := time.Parse("200601", value); err != nil || len(value) != 6 {
		return "", apperrors.Wrap("invalid_input", fmt.Sprintf("yearMonth %q must be YYYYMM", value), nil)
	}
	return value, nil
}

func summarize(summary *Summary, trades []Trade, recent int) {
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].DealDate > trades[j].DealDate
	})
	summary.Count = len(trades)
	if len(trades) == 0 {
		summary.Recent = []Trade{}
		return
	}
	var total int64
	summary.MinPrice, summary.MaxPrice = trades[0].Price, trades[0].Price
	for _, trade := range trades {
		total += trade.Price
		summary.MinPrice = min(summary.MinPrice, trade.Price)
		summary.MaxPrice = max(summary.MaxPrice, trade.Price)
	}
	summary.AveragePrice = total / int64(len(trades))
	if len(trades) > recent {
		trades = trades[:recent]
	}
	summary.Recent = trades
}

// parseTrade drops rows whose price is unparseable.
func parseTrade(record TradeRecord) (Trade, bool) {
	price, ok := ParsePrice(record.Amount)
	if !ok {
		return Trade{}, false
	}
	trade := Trade{
		Apartment: strings.TrimSpace(record.Apartment),
		Dong:      strings.TrimSpace(record.Dong),
		Floor:     strings.TrimSpace(record.Floor),
		Price:     price,
		DealDate:  dealDate(record.Year, record.Month, record.Day),
		BuildYear: strings.TrimSpace(record.BuildYear),
	}
	if area, err := strconv.ParseFloat(strings.TrimSpace(record.ExclusiveArea), 64); err == nil {
		trade.ExclusiveArea = &area
	}
	return trade, true
}

// ParsePrice reads amounts such as "82,500" (10,000 KRW units).
func ParsePrice(raw string) (int64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if cleaned == "" {
		return 0, false
	}
	price, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}

func dealDate(year, month, day string) string {
	y, errY := strconv.Atoi(strings.TrimSpace(year))
	m, errM := strconv.Atoi(strings.TrimSpace(month))
	d, errD := strconv.Atoi(strings.TrimSpace(day))
	if errY != nil || errM != nil || errD != nil {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

func compact(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, norm.NFC.String(value))
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return value != ""
}
