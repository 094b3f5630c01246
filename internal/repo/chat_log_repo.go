package repo

import (
	"context"

	"github.com/dushixiang/tradenote/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewChatLogRepo(db *gorm.DB) *ChatLogRepo {
	return &ChatLogRepo{
		Repository: orz.NewRepository[models.ChatLog, string](db),
	}
}

type ChatLogRepo struct {
	orz.Repository[models.ChatLog, string]
}

// FindRecentLogs 获取最近的助手对话日志
func (r ChatLogRepo) FindRecentLogs(ctx context.Context, limit int) ([]models.ChatLog, error) {
	var logs []models.ChatLog
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("executed_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// FindByUserID 获取某个用户的对话日志
func (r ChatLogRepo) FindByUserID(ctx context.Context, userID string, limit int) ([]models.ChatLog, error) {
	var logs []models.ChatLog
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("user_id = ?", userID).
		Order("executed_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
