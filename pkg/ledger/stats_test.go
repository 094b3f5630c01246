package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pnl(v float64) *float64 { return &v }

func closedTrade(symbol string, pnlValue float64, entry, exit time.Time) ClosedTrade {
	var hold *float64
	if !entry.IsZero() && !exit.IsZero() {
		minutes := exit.Sub(entry).Minutes()
		hold = &minutes
	}
	return ClosedTrade{
		Symbol: symbol, Kind: KindStock, Side: SideLong, PremiumSide: PremiumNone,
		Quantity: 1, Pnl: pnlValue, HoldMinutes: hold, EntryTime: entry, ExitTime: exit,
	}
}

func TestComputeStatsEmptyInput(t *testing.T) {
	// 零交易边界：胜率为0而不是NaN，所有计数为0
	stats := ComputeStats(nil, Result{}, nil, nil, 0)

	assert.Equal(t, 0, stats.TotalTrades)
	assert.Equal(t, 0, stats.Winners)
	assert.Equal(t, 0, stats.Losers)
	assert.Equal(t, 0, stats.BreakEven)
	assert.Equal(t, float64(0), stats.WinRate)
	assert.Nil(t, stats.ProfitFactor)
	assert.Nil(t, stats.RewardRisk)
	assert.Nil(t, stats.Sharpe)
	assert.Nil(t, stats.Sortino)
	assert.Nil(t, stats.Cagr)
	assert.Nil(t, stats.AccountGrowthPercent)
}

func TestComputeStatsClassification(t *testing.T) {
	trades := []ClosedTrade{
		closedTrade("A", 100, at(2024, 3, 4, 9, 0), at(2024, 3, 4, 10, 0)),
		closedTrade("B", 50, at(2024, 3, 4, 9, 0), at(2024, 3, 4, 11, 0)),
		closedTrade("C", -50, at(2024, 3, 4, 9, 0), at(2024, 3, 4, 9, 30)),
		closedTrade("D", 0.005, at(2024, 3, 4, 9, 0), at(2024, 3, 4, 9, 5)), // 打平
	}

	stats := ComputeStats(nil, Result{ClosedTrades: trades}, nil, nil, 0)

	assert.Equal(t, 4, stats.TotalTrades)
	assert.Equal(t, 2, stats.Winners)
	assert.Equal(t, 1, stats.Losers)
	assert.Equal(t, 1, stats.BreakEven)
	// 打平的交易不计入胜率分母：2/(2+1)
	assert.InDelta(t, 66.6667, stats.WinRate, 0.01)
	assert.InDelta(t, 75, stats.AvgWin, 1e-9)
	assert.InDelta(t, -50, stats.AvgLoss, 1e-9)
	assert.InDelta(t, 100, stats.LargestWin, 1e-9)
	assert.InDelta(t, -50, stats.LargestLoss, 1e-9)
	assert.InDelta(t, 25.00125, stats.Expectancy, 1e-9)

	require.NotNil(t, stats.ProfitFactor)
	assert.InDelta(t, 3, *stats.ProfitFactor, 1e-9) // 150/50

	require.NotNil(t, stats.RewardRisk)
	assert.InDelta(t, 1.5, *stats.RewardRisk, 1e-9) // 75/50
}

func TestComputeStatsStreaksOverSessions(t *testing.T) {
	// 连胜/连亏按交易日统计，不按单笔交易
	sessions := []Session{
		{Date: day(2024, 3, 4), StoredPnl: pnl(100)},
		{Date: day(2024, 3, 5), StoredPnl: pnl(50)},
		{Date: day(2024, 3, 6), StoredPnl: pnl(-30)},
		{Date: day(2024, 3, 7), StoredPnl: pnl(-10)},
		{Date: day(2024, 3, 8), StoredPnl: pnl(-5)},
		{Date: day(2024, 3, 11), StoredPnl: pnl(80)},
	}

	stats := ComputeStats(sessions, Result{}, nil, nil, 1000)

	assert.Equal(t, 2, stats.WinStreak)
	assert.Equal(t, 3, stats.LossStreak)
	assert.InDelta(t, 185, stats.NetPnl, 1e-9)
}

func TestComputeStatsDrawdown(t *testing.T) {
	sessions := []Session{
		{Date: day(2024, 3, 4), StoredPnl: pnl(100)},  // 1100
		{Date: day(2024, 3, 5), StoredPnl: pnl(-50)},  // 1050
		{Date: day(2024, 3, 6), StoredPnl: pnl(-100)}, // 950
		{Date: day(2024, 3, 7), StoredPnl: pnl(200)},  // 1150
	}

	stats := ComputeStats(sessions, Result{}, nil, nil, 1000)

	assert.InDelta(t, 150, stats.MaxDrawdown, 1e-9) // 峰值1100 → 谷底950
	assert.InDelta(t, 150.0/1100*100, stats.MaxDrawdownPercent, 1e-9)
}

func TestComputeStatsDrawdownMonotonicCurveIsZero(t *testing.T) {
	sessions := []Session{
		{Date: day(2024, 3, 4), StoredPnl: pnl(10)},
		{Date: day(2024, 3, 5), StoredPnl: pnl(20)},
		{Date: day(2024, 3, 6), StoredPnl: pnl(30)},
	}

	stats := ComputeStats(sessions, Result{}, nil, nil, 1000)

	assert.Equal(t, float64(0), stats.MaxDrawdown)
	assert.Equal(t, float64(0), stats.MaxDrawdownPercent)
}

func TestComputeStatsNullPropagation(t *testing.T) {
	// 少于2个收益观测：Sharpe/Sortino/CAGR必须是nil而非NaN
	sessions := []Session{
		{Date: day(2024, 3, 4), StoredPnl: pnl(100)},
	}

	stats := ComputeStats(sessions, Result{}, nil, nil, 1000)

	assert.Nil(t, stats.Sharpe)
	assert.Nil(t, stats.Sortino)
	assert.Nil(t, stats.Cagr)
}

func TestComputeStatsSharpeAndSortino(t *testing.T) {
	sessions := []Session{
		{Date: day(2024, 3, 4), StoredPnl: pnl(100)},
		{Date: day(2024, 3, 5), StoredPnl: pnl(-50)},
		{Date: day(2024, 3, 6), StoredPnl: pnl(80)},
		{Date: day(2024, 3, 7), StoredPnl: pnl(-20)},
	}

	stats := ComputeStats(sessions, Result{}, nil, nil, 1000)

	require.NotNil(t, stats.Sharpe)
	assert.False(t, isNaN(*stats.Sharpe))
	require.NotNil(t, stats.Sortino)
	assert.False(t, isNaN(*stats.Sortino))
}

func TestComputeStatsSortinoNilWithoutLosses(t *testing.T) {
	// 全是正收益时下行波动为0，Sortino保持nil而不是Inf
	sessions := []Session{
		{Date: day(2024, 3, 4), StoredPnl: pnl(100)},
		{Date: day(2024, 3, 5), StoredPnl: pnl(50)},
		{Date: day(2024, 3, 6), StoredPnl: pnl(80)},
	}

	stats := ComputeStats(sessions, Result{}, nil, nil, 1000)

	require.NotNil(t, stats.Sharpe)
	assert.Nil(t, stats.Sortino)
}

func TestComputeStatsCagr(t *testing.T) {
	sessions := []Session{
		{Date: day(2023, 3, 6), StoredPnl: pnl(100)},
		{Date: day(2024, 3, 6), StoredPnl: pnl(100)},
	}

	stats := ComputeStats(sessions, Result{}, nil, nil, 1000)

	require.NotNil(t, stats.Cagr)
	assert.Greater(t, *stats.Cagr, float64(0))
}

func TestComputeStatsCashflowDoesNotInflateReturns(t *testing.T) {
	// 入金推高资金曲线但不得算作收益
	sessions := []Session{
		{Date: day(2024, 3, 4), StoredPnl: pnl(0)},
		{Date: day(2024, 3, 5), StoredPnl: pnl(0)},
		{Date: day(2024, 3, 6), StoredPnl: pnl(0)},
	}
	cashflows := []Cashflow{
		{Date: day(2024, 3, 5), Amount: 5000},
	}

	stats := ComputeStats(sessions, Result{}, nil, cashflows, 1000)

	// 收益全为0：标准差为0，Sharpe保持nil；回撤也为0
	assert.Nil(t, stats.Sharpe)
	assert.Equal(t, float64(0), stats.MaxDrawdown)
}

func TestComputeStatsSessionNetFallsBackToClosedTrades(t *testing.T) {
	// 未手动记录盈亏的会话：按当日平仓盈亏减手续费
	trades := []ClosedTrade{
		closedTrade("AAPL", 150, at(2024, 3, 4, 9, 0), at(2024, 3, 4, 11, 0)),
	}
	sessions := []Session{
		{Date: day(2024, 3, 4), Fees: 10},
	}

	stats := ComputeStats(sessions, Result{ClosedTrades: trades}, nil, nil, 1000)

	assert.InDelta(t, 140, stats.NetPnl, 1e-9)
	assert.InDelta(t, 10, stats.TotalFees, 1e-9)
}

func TestComputeStatsHoldTimeSplit(t *testing.T) {
	trades := []ClosedTrade{
		closedTrade("A", 100, at(2024, 3, 4, 9, 0), at(2024, 3, 4, 10, 0)),  // 胜，60分钟
		closedTrade("B", 200, at(2024, 3, 4, 9, 0), at(2024, 3, 4, 12, 0)),  // 胜，180分钟
		closedTrade("C", -50, at(2024, 3, 4, 9, 0), at(2024, 3, 4, 9, 30)),  // 负，30分钟
	}

	stats := ComputeStats(nil, Result{ClosedTrades: trades}, nil, nil, 0)

	require.NotNil(t, stats.WinnerHold.Mean)
	assert.InDelta(t, 120, *stats.WinnerHold.Mean, 1e-9)
	assert.InDelta(t, 120, *stats.WinnerHold.Median, 1e-9)
	assert.InDelta(t, 60, *stats.WinnerHold.Min, 1e-9)
	assert.InDelta(t, 180, *stats.WinnerHold.Max, 1e-9)

	require.NotNil(t, stats.LoserHold.Mean)
	assert.InDelta(t, 30, *stats.LoserHold.Mean, 1e-9)
}

func TestComputeStatsHoldTimeWeightedByQuantity(t *testing.T) {
	// 均值按成交数量加权：Σ(时长×数量)/Σ(数量)
	single := closedTrade("A", 100, at(2024, 3, 4, 9, 0), at(2024, 3, 4, 10, 0)) // 60分钟×1
	bulk := closedTrade("A", 300, at(2024, 3, 4, 9, 0), at(2024, 3, 4, 12, 0))   // 180分钟×3
	bulk.Quantity = 3

	stats := ComputeStats(nil, Result{ClosedTrades: []ClosedTrade{single, bulk}}, nil, nil, 0)

	require.NotNil(t, stats.WinnerHold.Mean)
	assert.InDelta(t, 150, *stats.WinnerHold.Mean, 1e-9) // (60×1+180×3)/4
	assert.InDelta(t, 120, *stats.WinnerHold.Median, 1e-9)
	assert.InDelta(t, 60, *stats.WinnerHold.Min, 1e-9)
	assert.InDelta(t, 180, *stats.WinnerHold.Max, 1e-9)
}

func TestComputeStatsAccountGrowth(t *testing.T) {
	snapshots := []BalanceSnapshot{
		{Date: day(2024, 1, 2), Balance: 1000},
		{Date: day(2024, 6, 3), Balance: 1200},
	}

	stats := ComputeStats(nil, Result{}, snapshots, nil, 0)

	require.NotNil(t, stats.AccountGrowthPercent)
	assert.InDelta(t, 20, *stats.AccountGrowthPercent, 1e-9)
}

func TestComputeStatsBuckets(t *testing.T) {
	trades := []ClosedTrade{
		closedTrade("A", 100, at(2024, 3, 4, 9, 0), at(2024, 3, 4, 10, 0)),  // 周一 09:00
		closedTrade("B", -40, at(2024, 3, 4, 14, 0), at(2024, 3, 4, 15, 0)), // 周一 14:00
		closedTrade("C", 60, at(2024, 3, 5, 9, 0), at(2024, 3, 5, 10, 0)),   // 周二 09:00
	}

	stats := ComputeStats(nil, Result{ClosedTrades: trades}, nil, nil, 0)

	require.Len(t, stats.WeekdayPnl, 2)
	assert.Equal(t, "Monday", stats.WeekdayPnl[0].Label)
	assert.InDelta(t, 60, stats.WeekdayPnl[0].Pnl, 1e-9)
	assert.Equal(t, 2, stats.WeekdayPnl[0].Trades)
	assert.Equal(t, "Tuesday", stats.WeekdayPnl[1].Label)

	require.Len(t, stats.HourlyPnl, 2)
	assert.Equal(t, "09:00", stats.HourlyPnl[0].Label)
	assert.InDelta(t, 160, stats.HourlyPnl[0].Pnl, 1e-9)
	assert.Equal(t, "14:00", stats.HourlyPnl[1].Label)
}

func TestComputeStatsIdempotent(t *testing.T) {
	sessions := []Session{
		{Date: day(2024, 3, 4), StoredPnl: pnl(100)},
		{Date: day(2024, 3, 5), StoredPnl: pnl(-50)},
	}
	result := Result{ClosedTrades: []ClosedTrade{
		closedTrade("AAPL", 100, at(2024, 3, 4, 9, 0), at(2024, 3, 4, 10, 0)),
	}}

	first := ComputeStats(sessions, result, nil, nil, 1000)
	second := ComputeStats(sessions, result, nil, nil, 1000)

	assert.Equal(t, first, second)
}

func isNaN(v float64) bool { return v != v }
