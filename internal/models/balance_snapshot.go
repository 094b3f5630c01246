package models

import (
	"time"

	"gorm.io/gorm"
)

// BalanceSnapshot 每日账户余额快照
// 手动录入或由夜间任务自动补录，用于账户增长曲线
type BalanceSnapshot struct {
	ID          string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Date        time.Time      `gorm:"not null;uniqueIndex" json:"date"`            // 快照日期（UTC零点）
	Balance     float64        `gorm:"type:decimal(20,8);not null" json:"balance"`  // 当日起始余额
	RealizedPnl float64        `gorm:"type:decimal(20,8)" json:"realized_pnl"`      // 当日已实现盈亏
	Source      string         `gorm:"size:20;default:'manual'" json:"source"`      // manual/cron
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (BalanceSnapshot) TableName() string {
	return "balance_snapshots"
}
