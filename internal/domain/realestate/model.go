// Package realestate summarizes apartment transactions for a district and month.
package realestate

import (
	"context"
	"time"
)

// TradeRecord is one raw transaction row as the feed reports it.
type TradeRecord struct {
	Apartment     string
	Dong          string
	ExclusiveArea string
	Floor         string
	Amount        string
	Year          string
	Month         string
	Day           string
	BuildYear     string
}

// TradeSource lists transactions for a LAWD district code and YYYYMM month.
type TradeSource interface {
	Trades(ctx context.Context, lawdCode, yearMonth string) ([]TradeRecord, error)
}

// RegionLookup maps district names to LAWD codes.
type RegionLookup interface {
	RegionCode(name string) (string, bool)
}

// Query selects the transactions to summarize. YearMonth defaults to the
// current month in Korea when empty.
type Query struct {
	Region    string `json:"region"`
	YearMonth string `json:"yearMonth"`
	Apartment string `json:"apartment,omitempty"`
}

// Trade is a parsed transaction. Prices are in units of 10,000 KRW.
type Trade struct {
	Apartment     string   `json:"apartment"`
	Dong          string   `json:"dong,omitempty"`
	ExclusiveArea *float64 `json:"exclusive_area_m2,omitempty"`
	Floor         string   `json:"floor,omitempty"`
	Price         int64    `json:"price_manwon"`
	DealDate      string   `json:"deal_date,omitempty"`
	BuildYear     string   `json:"build_year,omitempty"`
}

// Summary aggregates the matching transactions.
type Summary struct {
	Region       string    `json:"region"`
	LawdCode     string    `json:"lawd_code"`
	YearMonth    string    `json:"year_month"`
	Apartment    string    `json:"apartment,omitempty"`
	Count        int       `json:"count"`
	MinPrice     int64     `json:"min_price_manwon,omitempty"`
	MaxPrice     int64     `json:"max_price_manwon,omitempty"`
	AveragePrice int64     `json:"average_price_manwon,omitempty"`
	Skipped      int       `json:"skipped,omitempty"`
	Recent       []Trade   `json:"recent"`
	GeneratedAt  time.Time `json:"generated_at"`
}
