package service

import (
	"fmt"
	"strings"

	"github.com/dushixiang/tradenote/internal/config"
	"github.com/dushixiang/tradenote/internal/telegram"
	"github.com/dushixiang/tradenote/internal/xe"
	"github.com/dushixiang/tradenote/pkg/nostd"
	"go.uber.org/zap"
)

// ContactService 联系表单转发服务，通过Telegram通知管理员
type ContactService struct {
	logger *zap.Logger
	tg     *telegram.Telegram
	conf   config.TelegramConf
}

// NewContactService 创建联系服务
func NewContactService(logger *zap.Logger, tg *telegram.Telegram, conf *config.Config) *ContactService {
	return &ContactService{
		logger: logger,
		tg:     tg,
		conf:   conf.Telegram,
	}
}

// ContactRequest 联系表单
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required"`
	Message string `json:"message" validate:"required,max=2000"`
}

// Relay 校验并转发联系表单
func (s *ContactService) Relay(req ContactRequest) error {
	if s.tg == nil || !s.conf.Enabled {
		return xe.ErrContactDisabled
	}
	if !nostd.IsEmail(req.Email) {
		return xe.ErrInvalidEmail
	}

	var sb strings.Builder
	sb.WriteString("*新的联系消息*\n")
	sb.WriteString(fmt.Sprintf("姓名: %s\n", telegram.EscapeMarkdown(req.Name)))
	sb.WriteString(fmt.Sprintf("邮箱: %s\n", telegram.EscapeMarkdown(req.Email)))
	sb.WriteString(fmt.Sprintf("内容: %s\n", telegram.EscapeMarkdown(req.Message)))

	if err := s.tg.Notify(s.conf.ChatID, sb.String()); err != nil {
		s.logger.Error("failed to relay contact message", zap.Error(err))
		return err
	}

	s.logger.Info("contact message relayed", zap.String("email", req.Email))
	return nil
}
