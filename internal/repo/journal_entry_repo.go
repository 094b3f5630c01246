package repo

import (
	"context"
	"time"

	"github.com/dushixiang/tradenote/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewJournalEntryRepo(db *gorm.DB) *JournalEntryRepo {
	return &JournalEntryRepo{
		Repository: orz.NewRepository[models.JournalEntry, string](db),
	}
}

type JournalEntryRepo struct {
	orz.Repository[models.JournalEntry, string]
}

// FindByDate 根据交易日查找条目
func (r JournalEntryRepo) FindByDate(ctx context.Context, date time.Time) (m models.JournalEntry, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("date = ?", date).
		First(&m).Error
	return m, err
}

// FindByDateRange 查找日期区间内的条目（按日期升序）
// from/to 为零值时表示不限制该侧边界
func (r JournalEntryRepo) FindByDateRange(ctx context.Context, from, to time.Time) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	db := r.GetDB(ctx).Table(r.GetTableName())
	if !from.IsZero() {
		db = db.Where("date >= ?", from)
	}
	if !to.IsZero() {
		db = db.Where("date <= ?", to)
	}
	err := db.Order("date ASC").Find(&entries).Error
	return entries, err
}

// FindAllOrderByDate 获取所有条目（按日期升序）
func (r JournalEntryRepo) FindAllOrderByDate(ctx context.Context) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("date ASC").
		Find(&entries).Error
	return entries, err
}

// ExistsByDate 检查某个交易日是否已有条目
func (r JournalEntryRepo) ExistsByDate(ctx context.Context, date time.Time) (bool, error) {
	var count int64
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("date = ?", date).
		Count(&count).Error
	return count > 0, err
}
