package models

import (
	"time"

	"gorm.io/gorm"
)

// Cashflow 出入金记录，入金为正、出金为负
type Cashflow struct {
	ID        string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Date      time.Time      `gorm:"not null;index" json:"date"`
	Amount    float64        `gorm:"type:decimal(20,8);not null" json:"amount"`
	Kind      string         `gorm:"size:20;not null" json:"kind"` // deposit/withdrawal
	Note      string         `gorm:"size:255" json:"note"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (Cashflow) TableName() string {
	return "cashflows"
}
