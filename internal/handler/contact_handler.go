package handler

import (
	"net/http"

	"github.com/dushixiang/tradenote/internal/service"
	"github.com/dushixiang/tradenote/internal/xe"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ContactHandler 联系表单HTTP处理器
type ContactHandler struct {
	logger         *zap.Logger
	contactService *service.ContactService
}

// NewContactHandler 创建联系处理器
func NewContactHandler(logger *zap.Logger, contactService *service.ContactService) *ContactHandler {
	return &ContactHandler{
		logger:         logger,
		contactService: contactService,
	}
}

// Submit 提交联系表单
// POST /api/contact
func (h *ContactHandler) Submit(c echo.Context) error {
	var req service.ContactRequest
	if err := c.Bind(&req); err != nil {
		return xe.ErrInvalidParams
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.contactService.Relay(req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "提交成功",
	})
}

// RegisterRoutes 注册路由（公开接口）
func (h *ContactHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/contact", h.Submit)
}
