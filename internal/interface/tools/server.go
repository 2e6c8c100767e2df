// Package tools exposes the water, trend and real-estate services as MCP tools.
package tools

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/yanqian/hydro-agent/internal/domain/hydro"
	"github.com/yanqian/hydro-agent/internal/domain/realestate"
	"github.com/yanqian/hydro-agent/internal/domain/station"
	"github.com/yanqian/hydro-agent/internal/domain/trend"
	"github.com/yanqian/hydro-agent/internal/infra/config"
	apperrors "github.com/yanqian/hydro-agent/pkg/errors"
)

// Tool names.
const (
	ToolSearchWaterInfo       = "search_water_info"
	ToolStationTrend          = "get_station_trend"
	ToolSearchApartmentTrades = "search_apartment_trades"
)

// Tools holds the services the tool handlers call.
type Tools struct {
	water      hydro.Service
	trends     trend.Service
	realEstate realestate.Service
	logger     *slog.Logger
}

// NewTools constructs the tool handlers.
func NewTools(water hydro.Service, trends trend.Service, realEstate realestate.Service, logger *slog.Logger) *Tools {
	return &Tools{
		water:      water,
		trends:     trends,
		realEstate: realEstate,
		logger:     logger.With("component", "interface.mcp"),
	}
}

// NewServer registers every tool on a fresh MCP server.
func NewServer(cfg *config.Config, tools *Tools) *server.MCPServer {
	s := server.NewMCPServer(
		cfg.MCP.Name,
		cfg.MCP.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Korean open-data assistant: realtime dam, water-level and rainfall readings, station trends and apartment trade summaries."),
	)
	s.AddTool(searchWaterInfoTool(), tools.SearchWaterInfo)
	s.AddTool(stationTrendTool(), tools.StationTrend)
	s.AddTool(searchApartmentTradesTool(), tools.SearchApartmentTrades)
	return s
}

// NewHTTPHandler serves the MCP server over streamable HTTP without sessions.
func NewHTTPHandler(s *server.MCPServer) *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s, server.WithStateLess(true))
}

func searchWaterInfoTool() mcp.Tool {
	return mcp.NewTool(ToolSearchWaterInfo,
		mcp.WithDescription("Look up the latest dam, water-level or rainfall reading for a Korean place, river or station name."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text query such as \"대청댐 수위\" or \"서울 강수량\"."),
		),
	)
}

func stationTrendTool() mcp.Tool {
	return mcp.NewTool(ToolStationTrend,
		mcp.WithDescription("Summarize recent history of one station: trend, daily min/max/average and change rates."),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Enum(string(station.KindDam), string(station.KindWaterLevel), string(station.KindRainfall)),
			mcp.Description("Station kind."),
		),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Station code."),
		),
	)
}

func searchApartmentTradesTool() mcp.Tool {
	return mcp.NewTool(ToolSearchApartmentTrades,
		mcp.WithDescription("Summarize apartment sale transactions for a district and month."),
		mcp.WithString("region",
			mcp.Required(),
			mcp.Description("District name (e.g. \"강남구\") or five-digit LAWD code."),
		),
		mcp.WithString("yearMonth",
			mcp.Description("Month as YYYYMM; defaults to the current month."),
		),
		mcp.WithString("apartment",
			mcp.Description("Optional apartment name filter."),
		),
	)
}

// SearchWaterInfo handles search_water_info.
func (t *Tools) SearchWaterInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	resp := t.water.SearchAndGetData(ctx, query)
	if resp.Status != hydro.ResponseSuccess {
		return mcp.NewToolResultError(hydro.Render(resp)), nil
	}
	return mcp.NewToolResultText(hydro.Render(resp)), nil
}

// StationTrend handles get_station_trend.
func (t *Tools) StationTrend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, ok := station.ParseKind(req.GetString("kind", ""))
	if !ok {
		return mcp.NewToolResultError("kind must be one of dam, waterlevel, rainfall"), nil
	}
	report, err := t.trends.StationTrend(ctx, kind, req.GetString("code", ""))
	if err != nil {
		return t.failure(ToolStationTrend, err), nil
	}
	return mcp.NewToolResultText(renderTrend(report)), nil
}

// SearchApartmentTrades handles search_apartment_trades.
func (t *Tools) SearchApartmentTrades(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := t.realEstate.Summarize(ctx, realestate.Query{
		Region:    req.GetString("region", ""),
		YearMonth: req.GetString("yearMonth", ""),
		Apartment: req.GetString("apartment", ""),
	})
	if err != nil {
		return t.failure(ToolSearchApartmentTrades, err), nil
	}
	return mcp.NewToolResultText(renderTrades(summary)), nil
}

func (t *Tools) failure(tool string, err error) *mcp.CallToolResult {
	code := apperrors.CodeOf(err)
	switch code {
	case "invalid_input", "not_found":
		t.logger.Warn("tool call rejected", "tool", tool, "code", code, "error", err)
		return mcp.NewToolResultError(err.Error())
	default:
		t.logger.Error("tool call failed", "tool", tool, "code", code, "error", err)
		return mcp.NewToolResultError("upstream data is temporarily unavailable, please retry later")
	}
}
