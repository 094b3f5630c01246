package handler

import (
	"net/http"
	"time"

	"github.com/dushixiang/tradenote/internal/service"
	"github.com/dushixiang/tradenote/internal/xe"
	"github.com/dushixiang/tradenote/pkg/ledger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// JournalHandler 交易日志HTTP处理器
type JournalHandler struct {
	logger         *zap.Logger
	journalService *service.JournalService
}

// NewJournalHandler 创建日志处理器
func NewJournalHandler(logger *zap.Logger, journalService *service.JournalService) *JournalHandler {
	return &JournalHandler{
		logger:         logger,
		journalService: journalService,
	}
}

// ListEntries 列出日志条目
// GET /api/journal?from=2024-01-01&to=2024-12-31
func (h *JournalHandler) ListEntries(c echo.Context) error {
	ctx := c.Request().Context()

	from, ok := parseDateParam(c.QueryParam("from"))
	if !ok {
		return xe.ErrInvalidParams
	}
	to, ok := parseDateParam(c.QueryParam("to"))
	if !ok {
		return xe.ErrInvalidParams
	}

	entries, err := h.journalService.ListEntries(ctx, from, to)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":   len(entries),
		"entries": entries,
	})
}

// GetEntry 获取单条日志条目
// GET /api/journal/:id
func (h *JournalHandler) GetEntry(c echo.Context) error {
	ctx := c.Request().Context()

	entry, err := h.journalService.GetEntry(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

// CreateEntry 创建日志条目
// POST /api/journal
func (h *JournalHandler) CreateEntry(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.EntryRequest
	if err := c.Bind(&req); err != nil {
		return xe.ErrInvalidParams
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	entry, err := h.journalService.CreateEntry(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

// UpdateEntry 更新日志条目
// PUT /api/journal/:id
func (h *JournalHandler) UpdateEntry(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.EntryRequest
	if err := c.Bind(&req); err != nil {
		return xe.ErrInvalidParams
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	entry, err := h.journalService.UpdateEntry(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

// DeleteEntry 删除日志条目
// DELETE /api/journal/:id
func (h *JournalHandler) DeleteEntry(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.journalService.DeleteEntry(ctx, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "删除成功",
	})
}

// ListSnapshots 列出余额快照
// GET /api/journal/snapshots
func (h *JournalHandler) ListSnapshots(c echo.Context) error {
	ctx := c.Request().Context()

	snapshots, err := h.journalService.ListSnapshots(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":     len(snapshots),
		"snapshots": snapshots,
	})
}

// CreateSnapshot 手动创建余额快照
// POST /api/journal/snapshots
func (h *JournalHandler) CreateSnapshot(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.SnapshotRequest
	if err := c.Bind(&req); err != nil {
		return xe.ErrInvalidParams
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	snapshot, err := h.journalService.CreateSnapshot(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snapshot)
}

// DeleteSnapshot 删除余额快照
// DELETE /api/journal/snapshots/:id
func (h *JournalHandler) DeleteSnapshot(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.journalService.DeleteSnapshot(ctx, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "删除成功",
	})
}

// ListCashflows 列出出入金记录
// GET /api/journal/cashflows
func (h *JournalHandler) ListCashflows(c echo.Context) error {
	ctx := c.Request().Context()

	flows, err := h.journalService.ListCashflows(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":     len(flows),
		"cashflows": flows,
	})
}

// CreateCashflow 创建出入金记录
// POST /api/journal/cashflows
func (h *JournalHandler) CreateCashflow(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.CashflowRequest
	if err := c.Bind(&req); err != nil {
		return xe.ErrInvalidParams
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	flow, err := h.journalService.CreateCashflow(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, flow)
}

// DeleteCashflow 删除出入金记录
// DELETE /api/journal/cashflows/:id
func (h *JournalHandler) DeleteCashflow(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.journalService.DeleteCashflow(ctx, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "删除成功",
	})
}

// RegisterRoutes 注册路由（需认证）
func (h *JournalHandler) RegisterRoutes(g *echo.Group) {
	journal := g.Group("/journal")

	journal.GET("", h.ListEntries)
	journal.POST("", h.CreateEntry)

	journal.GET("/snapshots", h.ListSnapshots)
	journal.POST("/snapshots", h.CreateSnapshot)
	journal.DELETE("/snapshots/:id", h.DeleteSnapshot)

	journal.GET("/cashflows", h.ListCashflows)
	journal.POST("/cashflows", h.CreateCashflow)
	journal.DELETE("/cashflows/:id", h.DeleteCashflow)

	journal.GET("/:id", h.GetEntry)
	journal.PUT("/:id", h.UpdateEntry)
	journal.DELETE("/:id", h.DeleteEntry)
}

// parseDateParam 解析可选日期参数，空串表示不限制
func parseDateParam(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	return ledger.ParseDate(s)
}
