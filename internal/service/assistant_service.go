package service

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/dushixiang/tradenote/internal/config"
	"github.com/dushixiang/tradenote/internal/models"
	"github.com/dushixiang/tradenote/internal/repo"
	"github.com/dushixiang/tradenote/internal/xe"
	"github.com/dushixiang/tradenote/pkg/ledger"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
	"github.com/valyala/fasttemplate"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed templates/system_instructions.txt
var systemInstructionsTemplate string

// AssistantService AI复盘助手
// 把当前统计摘要注入系统提示词后转发用户消息，完整对话落库审计
type AssistantService struct {
	logger *zap.Logger

	*orz.Service
	*repo.ChatLogRepo

	openAIClient     *openai.Client
	analyticsService *AnalyticsService
	model            string
}

// NewAssistantService 创建助手服务
func NewAssistantService(
	db *gorm.DB,
	openAIClient *openai.Client,
	analyticsService *AnalyticsService,
	logger *zap.Logger,
	conf *config.Config,
) *AssistantService {
	return &AssistantService{
		logger:           logger,
		Service:          orz.NewService(db),
		ChatLogRepo:      repo.NewChatLogRepo(db),
		openAIClient:     openAIClient,
		analyticsService: analyticsService,
		model:            conf.LLM.Model,
	}
}

// ChatResult 一次助手对话的结果
type ChatResult struct {
	Content          string `json:"content"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// Chat 执行一次复盘对话
func (s *AssistantService) Chat(ctx context.Context, userID, message string) (*ChatResult, error) {
	if s.model == "" {
		return nil, xe.ErrAssistantDisabled
	}

	bundle, err := s.analyticsService.Stats(ctx, time.Time{})
	if err != nil {
		return nil, err
	}

	systemPrompt := s.renderSystemPrompt(bundle.Stats)
	started := time.Now()

	resp, err := s.openAIClient.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(message),
		},
	})

	chatLog := models.ChatLog{
		ID:           ulid.Make().String(),
		UserID:       userID,
		Model:        s.model,
		SystemPrompt: systemPrompt,
		UserMessage:  message,
		Duration:     time.Since(started).Milliseconds(),
		ExecutedAt:   started,
	}

	if err != nil {
		chatLog.Error = err.Error()
		if saveErr := s.ChatLogRepo.Create(ctx, &chatLog); saveErr != nil {
			s.logger.Error("failed to save chat log", zap.Error(saveErr))
		}
		return nil, fmt.Errorf("failed to call LLM API: %w", err)
	}

	result := &ChatResult{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}
	if len(resp.Choices) > 0 {
		result.Content = resp.Choices[0].Message.Content
		chatLog.AssistantContent = result.Content
		chatLog.FinishReason = string(resp.Choices[0].FinishReason)
	}
	chatLog.PromptTokens = result.PromptTokens
	chatLog.CompletionTokens = result.CompletionTokens
	chatLog.TotalTokens = int(resp.Usage.TotalTokens)

	if err := s.ChatLogRepo.Create(ctx, &chatLog); err != nil {
		s.logger.Error("failed to save chat log", zap.Error(err))
	}

	s.logger.Info("assistant chat completed",
		zap.String("user_id", userID),
		zap.Int("total_tokens", chatLog.TotalTokens),
		zap.Int64("duration_ms", chatLog.Duration))

	return result, nil
}

// RecentLogs 最近的助手对话日志
func (s *AssistantService) RecentLogs(ctx context.Context, limit int) ([]models.ChatLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.ChatLogRepo.FindRecentLogs(ctx, limit)
}

// renderSystemPrompt 把统计摘要注入系统提示词模板
func (s *AssistantService) renderSystemPrompt(stats ledger.Stats) string {
	formatFloat := func(val float64) string {
		str := fmt.Sprintf("%.2f", val)
		str = strings.TrimRight(str, "0")
		str = strings.TrimRight(str, ".")
		if str == "" {
			return "0"
		}
		return str
	}
	formatRatio := func(val *float64) string {
		if val == nil {
			return "数据不足"
		}
		return formatFloat(*val)
	}

	replacements := map[string]interface{}{
		"total_trades":         fmt.Sprintf("%d", stats.TotalTrades),
		"win_rate":             formatFloat(stats.WinRate),
		"net_pnl":              formatFloat(stats.NetPnl),
		"avg_win":              formatFloat(stats.AvgWin),
		"avg_loss":             formatFloat(stats.AvgLoss),
		"profit_factor":        formatRatio(stats.ProfitFactor),
		"max_drawdown":         formatFloat(stats.MaxDrawdown),
		"max_drawdown_percent": formatFloat(stats.MaxDrawdownPercent),
		"win_streak":           fmt.Sprintf("%d", stats.WinStreak),
		"loss_streak":          fmt.Sprintf("%d", stats.LossStreak),
		"unmatched_exits":      fmt.Sprintf("%d", stats.UnmatchedExits),
	}

	tmpl := fasttemplate.New(systemInstructionsTemplate, "{{", "}}")
	return tmpl.ExecuteString(replacements)
}
