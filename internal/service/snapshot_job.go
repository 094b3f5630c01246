package service

import (
	"context"
	"time"

	"github.com/dushixiang/tradenote/internal/config"
	"github.com/dushixiang/tradenote/internal/models"
	"github.com/dushixiang/tradenote/internal/repo"
	"github.com/oklog/ulid/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SnapshotJob 夜间余额快照任务
// 每天00:05把前一天的已实现净盈亏累加到最近余额上并落一条快照，
// 使账户增长序列无需手动录入也能持续累积
type SnapshotJob struct {
	logger *zap.Logger

	snapshotRepo     *repo.BalanceSnapshotRepo
	analyticsService *AnalyticsService
	journalConf      config.JournalConf

	cron *cron.Cron
}

// NewSnapshotJob 创建快照任务
func NewSnapshotJob(db *gorm.DB, analyticsService *AnalyticsService, logger *zap.Logger, conf *config.Config) *SnapshotJob {
	return &SnapshotJob{
		logger:           logger,
		snapshotRepo:     repo.NewBalanceSnapshotRepo(db),
		analyticsService: analyticsService,
		journalConf:      conf.Journal,
	}
}

// Start 注册定时任务
func (s *SnapshotJob) Start() error {
	location := time.Local
	if s.journalConf.Timezone != "" {
		loc, err := time.LoadLocation(s.journalConf.Timezone)
		if err != nil {
			s.logger.Warn("invalid timezone, falling back to local",
				zap.String("timezone", s.journalConf.Timezone),
				zap.Error(err))
		} else {
			location = loc
		}
	}

	s.cron = cron.New(cron.WithLocation(location))
	_, err := s.cron.AddFunc("5 0 * * *", func() {
		if err := s.RunOnce(context.Background(), time.Now().In(location)); err != nil {
			s.logger.Error("nightly snapshot failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("nightly snapshot job scheduled", zap.String("timezone", location.String()))
	return nil
}

// Stop 停止定时任务
func (s *SnapshotJob) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// RunOnce 对 now 的前一天补录快照，已存在时跳过
func (s *SnapshotJob) RunOnce(ctx context.Context, now time.Time) error {
	yesterday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	exists, err := s.snapshotRepo.ExistsByDate(ctx, yesterday)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	realized, err := s.analyticsService.RealizedPnlOn(ctx, yesterday)
	if err != nil {
		return err
	}

	balance := s.journalConf.StartingBalance
	if latest, err := s.snapshotRepo.FindLatest(ctx); err == nil {
		balance = latest.Balance + latest.RealizedPnl
	}

	snapshot := models.BalanceSnapshot{
		ID:          ulid.Make().String(),
		Date:        yesterday,
		Balance:     balance,
		RealizedPnl: realized,
		Source:      "cron",
	}
	if err := s.snapshotRepo.Create(ctx, &snapshot); err != nil {
		return err
	}

	s.logger.Info("balance snapshot recorded",
		zap.Time("date", yesterday),
		zap.Float64("balance", balance),
		zap.Float64("realized_pnl", realized))
	return nil
}
