// Package molit fetches apartment transactions from the land ministry's open API.
package molit

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/yanqian/hydro-agent/internal/domain/realestate"
	"github.com/yanqian/hydro-agent/internal/infra/upstream"
	apperrors "github.com/yanqian/hydro-agent/pkg/errors"
)

// DefaultBaseURL is the apartment trade service root.
const DefaultBaseURL = "https://apis.data.go.kr/1613000/RTMSDataSvcAptTrade"

const (
	resource        = "realestate"
	tradePath       = "getRTMSDataSvcAptTrade"
	defaultPageSize = 1000
	maxPages        = 20
)

// Result codes the feed reports for a successful call.
var okResultCodes = map[string]bool{"00": true, "000": true}

var (
	fieldApartment = upstream.Field{Name: "apartment", Keys: []string{"aptNm", "아파트"}}
	fieldDong      = upstream.Field{Name: "dong", Keys: []string{"umdNm", "법정동"}}
	fieldArea      = upstream.Field{Name: "area", Keys: []string{"excluUseAr", "전용면적"}}
	fieldFloor     = upstream.Field{Name: "floor", Keys: []string{"floor", "층"}}
	fieldAmount    = upstream.Field{Name: "amount", Keys: []string{"dealAmount", "거래금액"}}
	fieldYear      = upstream.Field{Name: "year", Keys: []string{"dealYear", "년"}}
	fieldMonth     = upstream.Field{Name: "month", Keys: []string{"dealMonth", "월"}}
	fieldDay       = upstream.Field{Name: "day", Keys: []string{"dealDay", "일"}}
	fieldBuildYear = upstream.Field{Name: "buildYear", Keys: []string{"buildYear", "건축년도"}}
)

// Requester is the request core contract.
type Requester interface {
	Request(ctx context.Context, ep upstream.Endpoint, format upstream.Format) (upstream.Document, error)
}

// Client implements realestate.TradeSource.
type Client struct {
	requester Requester
	pageSize  int
	logger    *slog.Logger
}

// NewClient builds the transaction fetcher.
func NewClient(requester Requester, pageSize int, logger *slog.Logger) *Client {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Client{
		requester: requester,
		pageSize:  pageSize,
		logger:    logger.With("component", "infra.molit"),
	}
}

// Trades returns every transaction row for the district and month, paging
// through the feed until totalCount rows are collected.
func (c *Client) Trades(ctx context.Context, lawdCode, yearMonth string) ([]realestate.TradeRecord, error) {
	out := make([]realestate.TradeRecord, 0)
	for page := 1; page <= maxPages; page++ {
		items, total, err := c.fetchPage(ctx, lawdCode, yearMonth, page)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			out = append(out, toRecord(item))
		}
		if total <= 0 || len(items) < c.pageSize || len(out) >= total {
			c.logger.Debug("apartment trades fetched", "lawd_code", lawdCode, "year_month", yearMonth, "count", len(out), "pages", page)
			return out, nil
		}
	}
	c.logger.Warn("apartment trades truncated at page limit", "lawd_code", lawdCode, "year_month", yearMonth, "count", len(out), "pages", maxPages)
	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, lawdCode, yearMonth string, page int) ([]map[string]any, int, error) {
	params := url.Values{}
	params.Set("LAWD_CD", lawdCode)
	params.Set("DEAL_YMD", yearMonth)
	params.Set("pageNo", strconv.Itoa(page))
	params.Set("numOfRows", strconv.Itoa(c.pageSize))

	doc, err := c.requester.Request(ctx, upstream.Endpoint{Resource: resource, Path: tradePath, Params: params}, upstream.FormatXML)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch apartment trades page %d: %w", page, err)
	}
	if err := checkHeader(doc); err != nil {
		return nil, 0, err
	}
	return upstream.Items(doc), totalCount(doc), nil
}

func toRecord(item map[string]any) realestate.TradeRecord {
	return realestate.TradeRecord{
		Apartment:     fieldApartment.From(item),
		Dong:          fieldDong.From(item),
		ExclusiveArea: fieldArea.From(item),
		Floor:         fieldFloor.From(item),
		Amount:        fieldAmount.From(item),
		Year:          fieldYear.From(item),
		Month:         fieldMonth.From(item),
		Day:           fieldDay.From(item),
		BuildYear:     fieldBuildYear.From(item),
	}
}

// totalCount reads response.body.totalCount, or 0 when absent.
func totalCount(doc upstream.Document) int {
	root, _ := doc.Root.(map[string]any)
	envelope, _ := root["response"].(map[string]any)
	body, _ := envelope["body"].(map[string]any)
	n, err := strconv.Atoi(upstream.Stringify(body["totalCount"]))
	if err != nil {
		return 0
	}
	return n
}

// checkHeader surfaces error envelopes the feed returns with a 200 status.
func checkHeader(doc upstream.Document) error {
	root, ok := doc.Root.(map[string]any)
	if !ok {
		return apperrors.Wrap("upstream_error", "transaction feed returned an unstructured payload", nil)
	}
	envelope, _ := root["response"].(map[string]any)
	if envelope == nil {
		envelope, _ = root["OpenAPI_ServiceResponse"].(map[string]any)
	}
	header, _ := envelope["header"].(map[string]any)
	if header == nil {
		header, _ = envelope["cmmMsgHeader"].(map[string]any)
	}
	if header == nil {
		return nil
	}
	code := upstream.Stringify(header["resultCode"])
	if code == "" {
		code = upstream.Stringify(header["returnReasonCode"])
	}
	if code == "" || okResultCodes[code] {
		return nil
	}
	msg := upstream.Stringify(header["resultMsg"])
	if msg == "" {
		msg = upstream.Stringify(header["returnAuthMsg"])
	}
	return apperrors.Wrap("upstream_error", fmt.Sprintf("transaction feed error %s: %s", code, msg), nil)
}

var _ realestate.TradeSource = (*Client)(nil)
