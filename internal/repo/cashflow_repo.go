package repo

import (
	"context"

	"github.com/dushixiang/tradenote/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewCashflowRepo(db *gorm.DB) *CashflowRepo {
	return &CashflowRepo{
		Repository: orz.NewRepository[models.Cashflow, string](db),
	}
}

type CashflowRepo struct {
	orz.Repository[models.Cashflow, string]
}

// FindAllOrderByDate 获取所有出入金记录（按日期升序）
func (r CashflowRepo) FindAllOrderByDate(ctx context.Context) ([]models.Cashflow, error) {
	var flows []models.Cashflow
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("date ASC").
		Find(&flows).Error
	return flows, err
}
