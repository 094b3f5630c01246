package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatLog AI助手通信日志记录
type ChatLog struct {
	ID               string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	UserID           string         `gorm:"index" json:"user_id"`              // 发起会话的用户ID
	Model            string         `json:"model"`                             // 使用的AI模型
	SystemPrompt     string         `json:"-"`                                 // 系统提示词(前端隐藏)
	UserMessage      string         `json:"user_message"`                      // 用户消息
	AssistantContent string         `json:"assistant_content"`                 // AI返回的内容
	PromptTokens     int            `json:"prompt_tokens"`                     // 提示词token数
	CompletionTokens int            `json:"completion_tokens"`                 // 完成token数
	TotalTokens      int            `json:"total_tokens"`                      // 总token数
	FinishReason     string         `json:"finish_reason"`                     // 结束原因
	Duration         int64          `json:"duration"`                          // 请求耗时(毫秒)
	Error            string         `json:"error"`                             // 错误信息(如果有)
	ExecutedAt       time.Time      `gorm:"not null;index" json:"executed_at"` // 执行时间
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (ChatLog) TableName() string {
	return "chat_logs"
}
