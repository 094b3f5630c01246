package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/dushixiang/tradenote/internal/models"
	"github.com/dushixiang/tradenote/internal/repo"
	"github.com/dushixiang/tradenote/internal/xe"
	"github.com/dushixiang/tradenote/pkg/ledger"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JournalService 交易日志条目及关联序列（余额快照、出入金）的增删改查
type JournalService struct {
	logger *zap.Logger

	*orz.Service
	*repo.JournalEntryRepo
	*repo.BalanceSnapshotRepo
	*repo.CashflowRepo
}

// NewJournalService 创建日志服务
func NewJournalService(db *gorm.DB, logger *zap.Logger) *JournalService {
	return &JournalService{
		logger:              logger,
		Service:             orz.NewService(db),
		JournalEntryRepo:    repo.NewJournalEntryRepo(db),
		BalanceSnapshotRepo: repo.NewBalanceSnapshotRepo(db),
		CashflowRepo:        repo.NewCashflowRepo(db),
	}
}

// EntryRequest 创建/更新日志条目的请求体
// Notes 为原始JSON对象，保持原样落库
type EntryRequest struct {
	Date      string          `json:"date" validate:"required"`
	Notes     json.RawMessage `json:"notes"`
	StoredPnl *float64        `json:"stored_pnl"`
	Fees      float64         `json:"fees"`
	Tags      []string        `json:"tags"`
	Summary   string          `json:"summary"`
}

// CreateEntry 创建日志条目，同一交易日只允许一条
func (s *JournalService) CreateEntry(ctx context.Context, req EntryRequest) (*models.JournalEntry, error) {
	date, ok := ledger.ParseDate(req.Date)
	if !ok {
		return nil, xe.ErrInvalidParams
	}

	exists, err := s.JournalEntryRepo.ExistsByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, xe.ErrEntryDateExists
	}

	entry := models.JournalEntry{
		ID:        ulid.Make().String(),
		Date:      date,
		Notes:     datatypes.JSON(req.Notes),
		StoredPnl: req.StoredPnl,
		Fees:      req.Fees,
		Tags:      datatypes.NewJSONSlice(req.Tags),
		Summary:   req.Summary,
	}

	if err := s.JournalEntryRepo.Create(ctx, &entry); err != nil {
		return nil, err
	}

	s.logger.Info("journal entry created",
		zap.String("id", entry.ID),
		zap.Time("date", entry.Date))
	return &entry, nil
}

// UpdateEntry 更新日志条目
func (s *JournalService) UpdateEntry(ctx context.Context, id string, req EntryRequest) (*models.JournalEntry, error) {
	entry, err := s.JournalEntryRepo.FindById(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xe.ErrEntryNotFound
		}
		return nil, err
	}

	if req.Date != "" {
		date, ok := ledger.ParseDate(req.Date)
		if !ok {
			return nil, xe.ErrInvalidParams
		}
		if !date.Equal(entry.Date) {
			exists, err := s.JournalEntryRepo.ExistsByDate(ctx, date)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, xe.ErrEntryDateExists
			}
			entry.Date = date
		}
	}

	entry.Notes = datatypes.JSON(req.Notes)
	entry.StoredPnl = req.StoredPnl
	entry.Fees = req.Fees
	entry.Tags = datatypes.NewJSONSlice(req.Tags)
	entry.Summary = req.Summary

	if err := s.JournalEntryRepo.UpdateById(ctx, &entry); err != nil {
		return nil, err
	}

	s.logger.Info("journal entry updated", zap.String("id", entry.ID))
	return &entry, nil
}

// GetEntry 获取单条日志条目
func (s *JournalService) GetEntry(ctx context.Context, id string) (*models.JournalEntry, error) {
	entry, err := s.JournalEntryRepo.FindById(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xe.ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// ListEntries 列出日期区间内的日志条目
func (s *JournalService) ListEntries(ctx context.Context, from, to time.Time) ([]models.JournalEntry, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, xe.ErrInvalidDateRange
	}
	return s.JournalEntryRepo.FindByDateRange(ctx, from, to)
}

// DeleteEntry 删除日志条目
func (s *JournalService) DeleteEntry(ctx context.Context, id string) error {
	if err := s.JournalEntryRepo.DeleteById(ctx, id); err != nil {
		return err
	}
	s.logger.Info("journal entry deleted", zap.String("id", id))
	return nil
}

// SnapshotRequest 创建余额快照的请求体
type SnapshotRequest struct {
	Date        string  `json:"date" validate:"required"`
	Balance     float64 `json:"balance" validate:"required"`
	RealizedPnl float64 `json:"realized_pnl"`
}

// CreateSnapshot 手动创建余额快照
func (s *JournalService) CreateSnapshot(ctx context.Context, req SnapshotRequest) (*models.BalanceSnapshot, error) {
	date, ok := ledger.ParseDate(req.Date)
	if !ok {
		return nil, xe.ErrInvalidParams
	}

	snapshot := models.BalanceSnapshot{
		ID:          ulid.Make().String(),
		Date:        date,
		Balance:     req.Balance,
		RealizedPnl: req.RealizedPnl,
		Source:      "manual",
	}
	if err := s.BalanceSnapshotRepo.Create(ctx, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ListSnapshots 列出所有余额快照
func (s *JournalService) ListSnapshots(ctx context.Context) ([]models.BalanceSnapshot, error) {
	return s.BalanceSnapshotRepo.FindAllOrderByDate(ctx)
}

// DeleteSnapshot 删除余额快照
func (s *JournalService) DeleteSnapshot(ctx context.Context, id string) error {
	return s.BalanceSnapshotRepo.DeleteById(ctx, id)
}

// CashflowRequest 创建出入金记录的请求体
type CashflowRequest struct {
	Date   string  `json:"date" validate:"required"`
	Amount float64 `json:"amount" validate:"required"`
	Kind   string  `json:"kind" validate:"required,oneof=deposit withdrawal"`
	Note   string  `json:"note"`
}

// CreateCashflow 创建出入金记录
// 金额符号由类型决定：入金存为正数，出金存为负数，与请求里的符号无关
func (s *JournalService) CreateCashflow(ctx context.Context, req CashflowRequest) (*models.Cashflow, error) {
	date, ok := ledger.ParseDate(req.Date)
	if !ok {
		return nil, xe.ErrInvalidParams
	}

	amount := math.Abs(req.Amount)
	if req.Kind == "withdrawal" {
		amount = -amount
	}

	flow := models.Cashflow{
		ID:     ulid.Make().String(),
		Date:   date,
		Amount: amount,
		Kind:   req.Kind,
		Note:   req.Note,
	}
	if err := s.CashflowRepo.Create(ctx, &flow); err != nil {
		return nil, err
	}
	return &flow, nil
}

// ListCashflows 列出所有出入金记录
func (s *JournalService) ListCashflows(ctx context.Context) ([]models.Cashflow, error) {
	return s.CashflowRepo.FindAllOrderByDate(ctx)
}

// DeleteCashflow 删除出入金记录
func (s *JournalService) DeleteCashflow(ctx context.Context, id string) error {
	return s.CashflowRepo.DeleteById(ctx, id)
}
