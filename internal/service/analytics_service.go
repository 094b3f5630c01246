package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/dushixiang/tradenote/internal/config"
	"github.com/dushixiang/tradenote/internal/models"
	"github.com/dushixiang/tradenote/internal/repo"
	"github.com/dushixiang/tradenote/pkg/ledger"
	"github.com/dushixiang/tradenote/pkg/ta"
	"github.com/go-orz/orz"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const overlayPeriod = 20

// AnalyticsService 把日志条目转换为账本并计算统计指标
// 每次请求都从数据库重建完整账本，无跨请求状态
type AnalyticsService struct {
	logger *zap.Logger

	*orz.Service
	*repo.JournalEntryRepo
	*repo.BalanceSnapshotRepo
	*repo.CashflowRepo

	journalConf config.JournalConf
}

// NewAnalyticsService 创建分析服务
func NewAnalyticsService(db *gorm.DB, logger *zap.Logger, conf *config.Config) *AnalyticsService {
	return &AnalyticsService{
		logger:              logger,
		Service:             orz.NewService(db),
		JournalEntryRepo:    repo.NewJournalEntryRepo(db),
		BalanceSnapshotRepo: repo.NewBalanceSnapshotRepo(db),
		CashflowRepo:        repo.NewCashflowRepo(db),
		journalConf:         conf.Journal,
	}
}

// StatsBundle 统计接口的完整响应
type StatsBundle struct {
	Stats         ledger.Stats          `json:"stats"`
	OpenPositions []ledger.OpenPosition `json:"open_positions"`
	AsOf          time.Time             `json:"as_of"`
}

// EquityCurveResponse 资金曲线及均线覆盖层
type EquityCurveResponse struct {
	Points []ledger.EquityPoint `json:"points"`
	SMA20  []*float64           `json:"sma20"`
	EMA20  []*float64           `json:"ema20"`
}

// CalendarRow 日历视图的一行
type CalendarRow struct {
	Date   time.Time `json:"date"`
	NetPnl float64   `json:"net_pnl"`
	Trades int       `json:"trades"`
	Tags   []string  `json:"tags"`
}

// ledgerInput 一次请求加载的全部账本输入
type ledgerInput struct {
	sessions  []ledger.Session
	snapshots []ledger.BalanceSnapshot
	cashflows []ledger.Cashflow
	asOf      time.Time
}

// loadInput 加载并转换账本输入
// asOf为零值时取最后一个交易日，保证同样的数据永远算出同样的结果
// 显式指定的asOf原样生效，早于最后交易日也不会被覆盖
func (s *AnalyticsService) loadInput(ctx context.Context, asOf time.Time) (*ledgerInput, error) {
	entries, err := s.JournalEntryRepo.FindAllOrderByDate(ctx)
	if err != nil {
		return nil, err
	}
	snapshotRows, err := s.BalanceSnapshotRepo.FindAllOrderByDate(ctx)
	if err != nil {
		return nil, err
	}
	flowRows, err := s.CashflowRepo.FindAllOrderByDate(ctx)
	if err != nil {
		return nil, err
	}

	input := &ledgerInput{asOf: asOf}
	for _, entry := range entries {
		input.sessions = append(input.sessions, sessionFromEntry(entry))
	}
	// 条目按日期升序加载，末尾即最后交易日
	if input.asOf.IsZero() && len(entries) > 0 {
		input.asOf = entries[len(entries)-1].Date
	}
	for _, snap := range snapshotRows {
		input.snapshots = append(input.snapshots, ledger.BalanceSnapshot{
			Date:        snap.Date,
			Balance:     snap.Balance,
			RealizedPnl: snap.RealizedPnl,
		})
	}
	for _, flow := range flowRows {
		input.cashflows = append(input.cashflows, ledger.Cashflow{
			Date:   flow.Date,
			Amount: flow.Amount,
		})
	}
	return input, nil
}

// sessionFromEntry 数据库行到账本会话的转换
func sessionFromEntry(entry models.JournalEntry) ledger.Session {
	session := ledger.Session{
		Date:      entry.Date,
		StoredPnl: entry.StoredPnl,
		Fees:      entry.Fees,
		Tags:      entry.Tags,
	}
	raw := []byte(entry.Notes)
	session.Entries, session.Exits = ledger.ParseNotes(raw, entry.Date)

	// 手续费未单独录入时从原始载荷的历史别名字段提取
	if session.Fees == 0 && len(raw) > 0 {
		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err == nil {
			session.Fees = ledger.ExtractFees(payload)
		}
	}
	return session
}

// Stats 计算完整统计指标
func (s *AnalyticsService) Stats(ctx context.Context, asOf time.Time) (*StatsBundle, error) {
	input, err := s.loadInput(ctx, asOf)
	if err != nil {
		return nil, err
	}

	result := ledger.BuildLedger(input.sessions, input.asOf)
	stats := ledger.ComputeStats(input.sessions, result, input.snapshots, input.cashflows, s.journalConf.StartingBalance)

	if result.UnmatchedExits > 0 {
		s.logger.Warn("ledger contains unmatched exits",
			zap.Int("count", result.UnmatchedExits),
			zap.Float64("quantity", result.UnmatchedQuantity))
	}

	return &StatsBundle{
		Stats:         stats,
		OpenPositions: result.OpenPositions,
		AsOf:          input.asOf,
	}, nil
}

// Trades 列出已平仓交易，支持按标的/标签过滤
func (s *AnalyticsService) Trades(ctx context.Context, symbol, tag string, limit int, asOf time.Time) ([]ledger.ClosedTrade, error) {
	input, err := s.loadInput(ctx, asOf)
	if err != nil {
		return nil, err
	}

	result := ledger.BuildLedger(input.sessions, input.asOf)

	trades := make([]ledger.ClosedTrade, 0, len(result.ClosedTrades))
	for _, t := range result.ClosedTrades {
		if symbol != "" && !strings.EqualFold(t.Symbol, symbol) {
			continue
		}
		if tag != "" && !containsTag(t.Tags, tag) {
			continue
		}
		trades = append(trades, t)
	}

	// 最近的在前
	for i, j := 0, len(trades)-1; i < j; i, j = i+1, j-1 {
		trades[i], trades[j] = trades[j], trades[i]
	}
	if limit > 0 && len(trades) > limit {
		trades = trades[:limit]
	}
	return trades, nil
}

// Positions 列出账本推导出的未平仓位
func (s *AnalyticsService) Positions(ctx context.Context, asOf time.Time) ([]ledger.OpenPosition, error) {
	input, err := s.loadInput(ctx, asOf)
	if err != nil {
		return nil, err
	}

	result := ledger.BuildLedger(input.sessions, input.asOf)
	return result.OpenPositions, nil
}

// EquityCurve 资金曲线及SMA20/EMA20覆盖层
func (s *AnalyticsService) EquityCurve(ctx context.Context, asOf time.Time) (*EquityCurveResponse, error) {
	input, err := s.loadInput(ctx, asOf)
	if err != nil {
		return nil, err
	}

	result := ledger.BuildLedger(input.sessions, input.asOf)

	netByDate := make(map[string]float64)
	for _, t := range result.ClosedTrades {
		netByDate[ledger.DateKey(t.ExitTime)] += t.Pnl
	}
	points := ledger.EquityCurve(input.sessions, netByDate, input.cashflows, s.startingBalance(input))

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Equity
	}

	return &EquityCurveResponse{
		Points: points,
		SMA20:  ta.SMA(values, overlayPeriod),
		EMA20:  ta.EMA(values, overlayPeriod),
	}, nil
}

// Calendar 日历视图：每个交易日的净盈亏与交易数
func (s *AnalyticsService) Calendar(ctx context.Context) ([]CalendarRow, error) {
	input, err := s.loadInput(ctx, time.Time{})
	if err != nil {
		return nil, err
	}

	result := ledger.BuildLedger(input.sessions, input.asOf)

	netByDate := make(map[string]float64)
	tradesByDate := make(map[string]int)
	for _, t := range result.ClosedTrades {
		key := ledger.DateKey(t.ExitTime)
		netByDate[key] += t.Pnl
		tradesByDate[key]++
	}

	rows := make([]CalendarRow, 0, len(input.sessions))
	for _, session := range input.sessions {
		rows = append(rows, CalendarRow{
			Date:   session.Date,
			NetPnl: ledger.SessionNetPnl(session, netByDate),
			Trades: tradesByDate[ledger.DateKey(session.Date)],
			Tags:   session.Tags,
		})
	}
	return rows, nil
}

// RealizedPnlOn 某个交易日的已实现净盈亏，快照任务使用
func (s *AnalyticsService) RealizedPnlOn(ctx context.Context, date time.Time) (float64, error) {
	input, err := s.loadInput(ctx, date)
	if err != nil {
		return 0, err
	}

	result := ledger.BuildLedger(input.sessions, input.asOf)

	netByDate := make(map[string]float64)
	for _, t := range result.ClosedTrades {
		netByDate[ledger.DateKey(t.ExitTime)] += t.Pnl
	}

	key := ledger.DateKey(date)
	for _, session := range input.sessions {
		if ledger.DateKey(session.Date) == key {
			return ledger.SessionNetPnl(session, netByDate), nil
		}
	}
	return 0, nil
}

func (s *AnalyticsService) startingBalance(input *ledgerInput) float64 {
	if s.journalConf.StartingBalance > 0 {
		return s.journalConf.StartingBalance
	}
	if len(input.snapshots) > 0 {
		return input.snapshots[0].Balance
	}
	return 0
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
