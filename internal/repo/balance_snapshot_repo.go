package repo

import (
	"context"
	"time"

	"github.com/dushixiang/tradenote/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewBalanceSnapshotRepo(db *gorm.DB) *BalanceSnapshotRepo {
	return &BalanceSnapshotRepo{
		Repository: orz.NewRepository[models.BalanceSnapshot, string](db),
	}
}

type BalanceSnapshotRepo struct {
	orz.Repository[models.BalanceSnapshot, string]
}

// FindAllOrderByDate 获取所有余额快照（按日期升序）
func (r BalanceSnapshotRepo) FindAllOrderByDate(ctx context.Context) ([]models.BalanceSnapshot, error) {
	var snapshots []models.BalanceSnapshot
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("date ASC").
		Find(&snapshots).Error
	return snapshots, err
}

// FindLatest 获取最新一条快照
func (r BalanceSnapshotRepo) FindLatest(ctx context.Context) (m models.BalanceSnapshot, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Order("date DESC").
		First(&m).Error
	return m, err
}

// ExistsByDate 检查某天是否已有快照
func (r BalanceSnapshotRepo) ExistsByDate(ctx context.Context, date time.Time) (bool, error) {
	var count int64
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("date = ?", date).
		Count(&count).Error
	return count > 0, err
}
