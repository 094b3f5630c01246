package handler

import (
	"net/http"

	"github.com/dushixiang/tradenote/internal/service"
	"github.com/dushixiang/tradenote/internal/xe"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// AssistantHandler AI助手HTTP处理器
type AssistantHandler struct {
	logger           *zap.Logger
	assistantService *service.AssistantService
}

// NewAssistantHandler 创建助手处理器
func NewAssistantHandler(logger *zap.Logger, assistantService *service.AssistantService) *AssistantHandler {
	return &AssistantHandler{
		logger:           logger,
		assistantService: assistantService,
	}
}

// Chat 发起一次复盘对话
// POST /api/assistant/chat
func (h *AssistantHandler) Chat(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Message string `json:"message" validate:"required,max=4000"`
	}
	if err := c.Bind(&req); err != nil {
		return xe.ErrInvalidParams
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	userID, _ := c.Get("user_id").(string)

	result, err := h.assistantService.Chat(ctx, userID, req.Message)
	if err != nil {
		h.logger.Error("assistant chat failed", zap.Error(err))
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// GetLogs 最近的对话日志
// GET /api/assistant/logs?limit=20
func (h *AssistantHandler) GetLogs(c echo.Context) error {
	ctx := c.Request().Context()

	limit := cast.ToInt(c.QueryParam("limit"))
	logs, err := h.assistantService.RecentLogs(ctx, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(logs),
		"logs":  logs,
	})
}

// RegisterRoutes 注册路由（需认证）
func (h *AssistantHandler) RegisterRoutes(g *echo.Group) {
	assistant := g.Group("/assistant")

	assistant.POST("/chat", h.Chat)
	assistant.GET("/logs", h.GetLogs)
}
