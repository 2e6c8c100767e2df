package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/hydro-agent/internal/domain/hydro"
	"github.com/yanqian/hydro-agent/internal/domain/querylog"
	"github.com/yanqian/hydro-agent/internal/domain/realestate"
	"github.com/yanqian/hydro-agent/internal/domain/station"
	"github.com/yanqian/hydro-agent/internal/domain/trend"
)

const maxStationResults = 50

// StationDirectory is the read side of the station directory.
type StationDirectory interface {
	SearchByName(ctx context.Context, query string, hint station.Kind) []station.Record
	Stations(kind station.Kind) []station.Record
	LastRefreshedAt() time.Time
	Counts() map[string]int
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	waterSvc      hydro.Service
	directory     StationDirectory
	trendSvc      trend.Service
	realEstateSvc realestate.Service
	queryLogSvc   querylog.Service
	logger        *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(waterSvc hydro.Service, directory StationDirectory, trendSvc trend.Service, realEstateSvc realestate.Service, queryLogSvc querylog.Service, logger *slog.Logger) *Handler {
	return &Handler{
		waterSvc:      waterSvc,
		directory:     directory,
		trendSvc:      trendSvc,
		realEstateSvc: realEstateSvc,
		queryLogSvc:   queryLogSvc,
		logger:        logger.With("component", "http.handler"),
	}
}

type waterSearchRequest struct {
	Query string `json:"query"`
}

// SearchWater resolves a free-text query. The body always carries a status;
// unresolved queries answer 404 with the same structure.
func (h *Handler) SearchWater(c *gin.Context) {
	var req waterSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp := h.waterSvc.SearchAndGetData(c.Request.Context(), req.Query)
	status := http.StatusOK
	if resp.Status != hydro.ResponseSuccess {
		status = http.StatusNotFound
		if strings.TrimSpace(req.Query) == "" {
			status = http.StatusBadRequest
		}
	}
	c.JSON(status, resp)
}

// ListStations searches the directory by name, or lists one kind when q is empty.
func (h *Handler) ListStations(c *gin.Context) {
	var hint station.Kind
	if raw := c.Query("kind"); raw != "" {
		kind, ok := station.ParseKind(raw)
		if !ok {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "kind must be one of dam, waterlevel, rainfall", nil))
			return
		}
		hint = kind
	}

	query := strings.TrimSpace(c.Query("q"))
	var records []station.Record
	switch {
	case query != "":
		records = h.directory.SearchByName(c.Request.Context(), query, hint)
	case hint != "":
		records = h.directory.Stations(hint)
	default:
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "q or kind is required", nil))
		return
	}

	total := len(records)
	if total > maxStationResults {
		records = records[:maxStationResults]
	}
	if records == nil {
		records = []station.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"stations": records, "total": total})
}

// StationTrend returns the trend report of one station.
func (h *Handler) StationTrend(c *gin.Context) {
	kind, ok := station.ParseKind(c.Param("kind"))
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "kind must be one of dam, waterlevel, rainfall", nil))
		return
	}

	report, err := h.trendSvc.StationTrend(c.Request.Context(), kind, c.Param("code"))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, report)
}

// ApartmentTrades summarizes apartment transactions.
func (h *Handler) ApartmentTrades(c *gin.Context) {
	var req realestate.Query
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	summary, err := h.realEstateSvc.Summarize(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RecentQueries lists the latest resolved queries.
func (h *Handler) RecentQueries(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer", err))
			return
		}
		limit = parsed
	}

	entries, err := h.queryLogSvc.Recent(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "query_log_failed", "failed to list recent queries", err))
		return
	}
	if entries == nil {
		entries = []querylog.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"queries": entries})
}

// Health reports liveness plus directory freshness.
func (h *Handler) Health(c *gin.Context) {
	directory := gin.H{"counts": h.directory.Counts()}
	if refreshed := h.directory.LastRefreshedAt(); !refreshed.IsZero() {
		directory["refreshed_at"] = refreshed
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "directory": directory})
}
