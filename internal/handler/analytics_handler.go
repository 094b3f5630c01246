package handler

import (
	"net/http"

	"github.com/dushixiang/tradenote/internal/service"
	"github.com/dushixiang/tradenote/internal/xe"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// AnalyticsHandler 统计分析HTTP处理器
type AnalyticsHandler struct {
	logger           *zap.Logger
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler 创建分析处理器
func NewAnalyticsHandler(logger *zap.Logger, analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		logger:           logger,
		analyticsService: analyticsService,
	}
}

// GetStats 完整统计指标
// GET /api/analytics/stats?as_of=2024-12-31
func (h *AnalyticsHandler) GetStats(c echo.Context) error {
	ctx := c.Request().Context()

	asOf, ok := parseDateParam(c.QueryParam("as_of"))
	if !ok {
		return xe.ErrInvalidParams
	}

	bundle, err := h.analyticsService.Stats(ctx, asOf)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bundle)
}

// GetTrades 已平仓交易列表
// GET /api/analytics/trades?symbol=AAPL&tag=scalp&limit=50
func (h *AnalyticsHandler) GetTrades(c echo.Context) error {
	ctx := c.Request().Context()

	asOf, ok := parseDateParam(c.QueryParam("as_of"))
	if !ok {
		return xe.ErrInvalidParams
	}
	limit := cast.ToInt(c.QueryParam("limit"))

	trades, err := h.analyticsService.Trades(ctx, c.QueryParam("symbol"), c.QueryParam("tag"), limit, asOf)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":  len(trades),
		"trades": trades,
	})
}

// GetPositions 未平仓位列表
// GET /api/analytics/positions
func (h *AnalyticsHandler) GetPositions(c echo.Context) error {
	ctx := c.Request().Context()

	asOf, ok := parseDateParam(c.QueryParam("as_of"))
	if !ok {
		return xe.ErrInvalidParams
	}

	positions, err := h.analyticsService.Positions(ctx, asOf)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":     len(positions),
		"positions": positions,
	})
}

// GetEquityCurve 资金曲线及均线覆盖层
// GET /api/analytics/equity-curve
func (h *AnalyticsHandler) GetEquityCurve(c echo.Context) error {
	ctx := c.Request().Context()

	asOf, ok := parseDateParam(c.QueryParam("as_of"))
	if !ok {
		return xe.ErrInvalidParams
	}

	curve, err := h.analyticsService.EquityCurve(ctx, asOf)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, curve)
}

// GetCalendar 日历视图
// GET /api/analytics/calendar
func (h *AnalyticsHandler) GetCalendar(c echo.Context) error {
	ctx := c.Request().Context()

	rows, err := h.analyticsService.Calendar(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(rows),
		"days":  rows,
	})
}

// RegisterRoutes 注册路由（需认证）
func (h *AnalyticsHandler) RegisterRoutes(g *echo.Group) {
	analytics := g.Group("/analytics")

	analytics.GET("/stats", h.GetStats)
	analytics.GET("/trades", h.GetTrades)
	analytics.GET("/positions", h.GetPositions)
	analytics.GET("/equity-curve", h.GetEquityCurve)
	analytics.GET("/calendar", h.GetCalendar)
}
