package molit

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/hydro-agent/internal/infra/upstream"
	apperrors "github.com/yanqian/hydro-agent/pkg/errors"
)

type stubRequester struct {
	body  string
	pages map[string]string
	ep    upstream.Endpoint
	calls int
}

func (s *stubRequester) Request(_ context.Context, ep upstream.Endpoint, format upstream.Format) (upstream.Document, error) {
	s.ep = ep
	s.calls++
	if body, ok := s.pages[ep.Params.Get("pageNo")]; ok {
		return upstream.Parse([]byte(body), format)
	}
	return upstream.Parse([]byte(s.body), format)
}

func newTestClient(body string) (*Client, *stubRequester) {
	req := &stubRequester{body: body}
	return NewClient(req, 0, slog.New(slog.NewTextHandler(io.Discard, nil))), req
}

func TestTradesParsesItems(t *testing.T) {
	client, req := newTestClient(`<response>
  <header><resultCode>000</resultCode><resultMsg>OK</resultMsg></header>
  <body><items>
    <item><aptNm>은마</aptNm><dealAmount>218,500</dealAmount><dealYear>2024</dealYear><dealMonth>6</dealMonth><dealDay>21</dealDay><umdNm>대치동</umdNm><excluUseAr>76.79</excluUseAr><floor>9</floor></item>
    <item><아파트>래미안</아파트><거래금액>282,000</거래금액><년>2024</년><월>6</월><일>3</일></item>
  </items></body>
</response>`)

	trades, err := client.Trades(context.Background(), "11680", "202406")
	require.NoError(t, err)
	require.Equal(t, "11680", req.ep.Params.Get("LAWD_CD"))
	require.Equal(t, "202406", req.ep.Params.Get("DEAL_YMD"))
	require.Equal(t, "1000", req.ep.Params.Get("numOfRows"))
	require.Len(t, trades, 2)
	require.Equal(t, "은마", trades[0].Apartment)
	require.Equal(t, "218,500", trades[0].Amount)
	require.Equal(t, "대치동", trades[0].Dong)
	require.Equal(t, "래미안", trades[1].Apartment)
	require.Equal(t, "282,000", trades[1].Amount)
}

func TestTradesSurfacesErrorEnvelope(t *testing.T) {
	client, _ := newTestClient(`<OpenAPI_ServiceResponse><cmmMsgHeader><returnAuthMsg>SERVICE_KEY_IS_NOT_REGISTERED_ERROR</returnAuthMsg><returnReasonCode>30</returnReasonCode></cmmMsgHeader></OpenAPI_ServiceResponse>`)

	_, err := client.Trades(context.Background(), "11680", "202406")
	require.True(t, apperrors.IsCode(err, "upstream_error"))
	require.Contains(t, err.Error(), "SERVICE_KEY_IS_NOT_REGISTERED_ERROR")
}

func TestTradesEmptyMonth(t *testing.T) {
	client, _ := newTestClient(`<response><header><resultCode>00</resultCode></header><body><items></items><totalCount>0</totalCount></body></response>`)

	trades, err := client.Trades(context.Background(), "11680", "202406")
	require.NoError(t, err)
	require.Empty(t, trades)
}

func TestTradesPagesThroughTotalCount(t *testing.T) {
	page := func(names ...string) string {
		var b strings.Builder
		b.WriteString(`<response><header><resultCode>000</resultCode></header><body><items>`)
		for _, name := range names {
			b.WriteString(`<item><aptNm>` + name + `</aptNm><dealAmount>100,000</dealAmount></item>`)
		}
		b.WriteString(`</items><numOfRows>2</numOfRows><totalCount>5</totalCount></body></response>`)
		return b.String()
	}
	req := &stubRequester{pages: map[string]string{
		"1": page("a", "b"),
		"2": page("c", "d"),
		"3": page("e"),
	}}
	client := NewClient(req, 2, slog.New(slog.NewTextHandler(io.Discard, nil)))

	trades, err := client.Trades(context.Background(), "11680", "202406")
	require.NoError(t, err)
	require.Equal(t, 3, req.calls)
	require.Equal(t, "3", req.ep.Params.Get("pageNo"))
	require.Len(t, trades, 5)
	require.Equal(t, "e", trades[4].Apartment)
}
