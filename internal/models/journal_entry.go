package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JournalEntry 单个交易日的日志条目
// Notes 保存原始成交载荷（entries/exits数组），解析在服务层进行
type JournalEntry struct {
	ID        string                      `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Date      time.Time                   `gorm:"not null;uniqueIndex" json:"date"`            // 交易日（UTC零点）
	Notes     datatypes.JSON              `gorm:"type:json" json:"notes"`                      // 原始成交记录
	StoredPnl *float64                    `gorm:"type:decimal(20,8)" json:"stored_pnl"`        // 手动记录的当日净盈亏
	Fees      float64                     `gorm:"type:decimal(20,8)" json:"fees"`              // 当日手续费合计
	Tags      datatypes.JSONSlice[string] `gorm:"type:json" json:"tags"`                       // 会话标签，下传给当日所有成交
	Summary   string                      `gorm:"type:text" json:"summary"`                    // 当日复盘文字
	CreatedAt time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt              `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (JournalEntry) TableName() string {
	return "journal_entries"
}
