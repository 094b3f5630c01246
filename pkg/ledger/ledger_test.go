package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hour, minute int) time.Time {
	return time.Date(y, m, d, hour, minute, 0, 0, time.UTC)
}

func stockFill(symbol string, side Side, price, qty float64, ts time.Time) Fill {
	return Fill{
		Symbol: symbol, Kind: KindStock, Side: side, PremiumSide: PremiumNone,
		Price: price, Quantity: qty, Time: ts,
	}
}

func optionFill(symbol string, premium PremiumSide, price, qty float64, ts time.Time) Fill {
	side := SideLong
	if premium == PremiumCredit {
		side = SideShort
	}
	return Fill{
		Symbol: symbol, Kind: KindOption, Side: side, PremiumSide: premium,
		Price: price, Quantity: qty, Time: ts,
	}
}

func TestBuildLedgerFifoOrdering(t *testing.T) {
	// 先开的手数先被消耗：E1@100在E2@110之前，平仓必须与E1撮合
	sessions := []Session{{
		Date: day(2024, 3, 4),
		Entries: []Fill{
			stockFill("AAPL", SideLong, 100, 10, at(2024, 3, 4, 9, 30)),
			stockFill("AAPL", SideLong, 110, 10, at(2024, 3, 4, 10, 0)),
		},
		Exits: []Fill{
			stockFill("AAPL", SideLong, 120, 10, at(2024, 3, 4, 15, 0)),
		},
	}}

	result := BuildLedger(sessions, day(2024, 4, 1))

	require.Len(t, result.ClosedTrades, 1)
	trade := result.ClosedTrades[0]
	assert.Equal(t, float64(200), trade.Pnl) // (120-100)×10，而不是(120-110)×10
	assert.Equal(t, at(2024, 3, 4, 9, 30), trade.EntryTime)

	require.Len(t, result.OpenPositions, 1)
	assert.Equal(t, float64(10), result.OpenPositions[0].Quantity)
	assert.Equal(t, float64(110), result.OpenPositions[0].AvgPrice)
}

func TestBuildLedgerSplitsExitAcrossLots(t *testing.T) {
	// 一笔平仓跨越多个手数时，每个(手数,平仓)配对产生一条独立记录
	sessions := []Session{{
		Date: day(2024, 3, 4),
		Entries: []Fill{
			stockFill("MSFT", SideLong, 100, 5, at(2024, 3, 4, 9, 30)),
			stockFill("MSFT", SideLong, 102, 5, at(2024, 3, 4, 10, 0)),
		},
		Exits: []Fill{
			stockFill("MSFT", SideLong, 104, 8, at(2024, 3, 4, 15, 0)),
		},
	}}

	result := BuildLedger(sessions, day(2024, 4, 1))

	require.Len(t, result.ClosedTrades, 2)
	assert.Equal(t, float64(5), result.ClosedTrades[0].Quantity)
	assert.Equal(t, float64(20), result.ClosedTrades[0].Pnl) // (104-100)×5
	assert.Equal(t, float64(3), result.ClosedTrades[1].Quantity)
	assert.Equal(t, float64(6), result.ClosedTrades[1].Pnl) // (104-102)×3

	require.Len(t, result.OpenPositions, 1)
	assert.Equal(t, float64(2), result.OpenPositions[0].Quantity)
}

func TestBuildLedgerConservation(t *testing.T) {
	// 守恒律：已撮合数量 + 剩余持仓数量 == 总开仓数量
	sessions := []Session{
		{
			Date: day(2024, 3, 4),
			Entries: []Fill{
				stockFill("NVDA", SideLong, 800, 10, at(2024, 3, 4, 9, 30)),
				stockFill("NVDA", SideLong, 810, 4, at(2024, 3, 4, 11, 0)),
			},
			Exits: []Fill{
				stockFill("NVDA", SideLong, 820, 6, at(2024, 3, 4, 14, 0)),
			},
		},
		{
			Date: day(2024, 3, 5),
			Exits: []Fill{
				stockFill("NVDA", SideLong, 830, 3, at(2024, 3, 5, 10, 0)),
			},
		},
	}

	result := BuildLedger(sessions, day(2024, 4, 1))

	var matched, open float64
	for _, trade := range result.ClosedTrades {
		assert.Greater(t, trade.Quantity, float64(0))
		matched += trade.Quantity
	}
	for _, pos := range result.OpenPositions {
		open += pos.Quantity
	}
	assert.Equal(t, float64(14), matched+open)
	assert.Equal(t, 0, result.UnmatchedExits)
}

func TestBuildLedgerOptionDebitSign(t *testing.T) {
	// 买入期权（debit）@2.00平仓@3.00，1张：(3-2)×1×100×(+1) = +100
	sessions := []Session{{
		Date: day(2024, 1, 8),
		Entries: []Fill{
			optionFill("AAPL240119C00190000", PremiumDebit, 2.00, 1, at(2024, 1, 8, 10, 0)),
		},
		Exits: []Fill{
			optionFill("AAPL240119C00190000", PremiumDebit, 3.00, 1, at(2024, 1, 10, 10, 0)),
		},
	}}

	result := BuildLedger(sessions, day(2024, 2, 1))

	require.Len(t, result.ClosedTrades, 1)
	assert.InDelta(t, 100, result.ClosedTrades[0].Pnl, 1e-9)
	assert.False(t, result.ClosedTrades[0].Synthetic)
}

func TestBuildLedgerSyntheticExpiryForCreditOption(t *testing.T) {
	// 卖出的期权到期作废：按价格0合成平仓，卖方收下全部权利金
	// (0-2.00)×1×100×(-1) = +200
	sessions := []Session{{
		Date: day(2024, 1, 8),
		Entries: []Fill{
			optionFill("AAPL240119P00150000", PremiumCredit, 2.00, 1, at(2024, 1, 8, 10, 0)),
		},
	}}

	result := BuildLedger(sessions, day(2024, 2, 1))

	require.Len(t, result.ClosedTrades, 1)
	trade := result.ClosedTrades[0]
	assert.True(t, trade.Synthetic)
	assert.InDelta(t, 200, trade.Pnl, 1e-9)
	assert.Equal(t, day(2024, 1, 19), trade.ExitTime)
	assert.Empty(t, result.OpenPositions)
}

func TestBuildLedgerCreditOptionNotYetExpiredStaysOpen(t *testing.T) {
	sessions := []Session{{
		Date: day(2024, 1, 8),
		Entries: []Fill{
			optionFill("AAPL240119P00150000", PremiumCredit, 2.00, 1, at(2024, 1, 8, 10, 0)),
		},
	}}

	// asOf早于到期日，不得合成平仓
	result := BuildLedger(sessions, day(2024, 1, 15))

	assert.Empty(t, result.ClosedTrades)
	require.Len(t, result.OpenPositions, 1)
	assert.Equal(t, float64(1), result.OpenPositions[0].Quantity)
}

func TestBuildLedgerFuturesMultiplier(t *testing.T) {
	// ES @4500→4510，2手做多：(4510-4500)×2×50 = 1000
	sessions := []Session{{
		Date: day(2024, 3, 4),
		Entries: []Fill{{
			Symbol: "ESZ24", Kind: KindFuture, Side: SideLong, PremiumSide: PremiumNone,
			Price: 4500, Quantity: 2, Time: at(2024, 3, 4, 9, 30),
		}},
		Exits: []Fill{{
			Symbol: "ESZ24", Kind: KindFuture, Side: SideLong, PremiumSide: PremiumNone,
			Price: 4510, Quantity: 2, Time: at(2024, 3, 4, 11, 0),
		}},
	}}

	result := BuildLedger(sessions, day(2024, 4, 1))

	require.Len(t, result.ClosedTrades, 1)
	assert.InDelta(t, 1000, result.ClosedTrades[0].Pnl, 1e-9)
}

func TestBuildLedgerShortStockSign(t *testing.T) {
	// 做空股票价格下跌获利：(90-100)×10×(-1) = +100
	sessions := []Session{{
		Date: day(2024, 3, 4),
		Entries: []Fill{
			stockFill("TSLA", SideShort, 100, 10, at(2024, 3, 4, 9, 30)),
		},
		Exits: []Fill{
			stockFill("TSLA", SideShort, 90, 10, at(2024, 3, 4, 14, 0)),
		},
	}}

	result := BuildLedger(sessions, day(2024, 4, 1))

	require.Len(t, result.ClosedTrades, 1)
	assert.InDelta(t, 100, result.ClosedTrades[0].Pnl, 1e-9)
}

func TestBuildLedgerFallbackPremiumFlip(t *testing.T) {
	// 平仓记录错标为debit，但账上只有credit队列：权利金方向翻转后仍可撮合
	sessions := []Session{{
		Date: day(2024, 1, 8),
		Entries: []Fill{
			optionFill("SPY240216P00480000", PremiumCredit, 1.50, 2, at(2024, 1, 8, 10, 0)),
		},
		Exits: []Fill{
			optionFill("SPY240216P00480000", PremiumDebit, 0.50, 2, at(2024, 1, 12, 10, 0)),
		},
	}}

	result := BuildLedger(sessions, day(2024, 1, 15))

	require.Len(t, result.ClosedTrades, 1)
	trade := result.ClosedTrades[0]
	// 符号取开仓手数的credit属性：(0.50-1.50)×2×100×(-1) = +200
	assert.InDelta(t, 200, trade.Pnl, 1e-9)
	assert.Equal(t, PremiumCredit, trade.PremiumSide)
	assert.Equal(t, 0, result.UnmatchedExits)
}

func TestBuildLedgerExactKeyPreferredOverFallback(t *testing.T) {
	// 精确键存在时不得动用翻转兜底
	sessions := []Session{{
		Date: day(2024, 1, 8),
		Entries: []Fill{
			optionFill("SPY240216P00480000", PremiumCredit, 1.50, 1, at(2024, 1, 8, 9, 0)),
			optionFill("SPY240216P00480000", PremiumDebit, 2.00, 1, at(2024, 1, 8, 10, 0)),
		},
		Exits: []Fill{
			optionFill("SPY240216P00480000", PremiumDebit, 2.50, 1, at(2024, 1, 8, 14, 0)),
		},
	}}

	result := BuildLedger(sessions, day(2024, 1, 10))

	require.Len(t, result.ClosedTrades, 1)
	assert.Equal(t, PremiumDebit, result.ClosedTrades[0].PremiumSide)
	assert.InDelta(t, 50, result.ClosedTrades[0].Pnl, 1e-9) // (2.50-2.00)×1×100
}

func TestBuildLedgerUltimateFallbackEarliestLot(t *testing.T) {
	// 平仓的权利金方向完全未知（none）时，兜底到同(symbol, kind)下首手数最早的队列
	exit := Fill{
		Symbol: "SPY240216P00480000", Kind: KindOption, Side: SideLong, PremiumSide: PremiumNone,
		Price: 0.75, Quantity: 1, Time: at(2024, 1, 12, 10, 0),
	}
	sessions := []Session{{
		Date: day(2024, 1, 8),
		Entries: []Fill{
			optionFill("SPY240216P00480000", PremiumDebit, 2.00, 1, at(2024, 1, 8, 11, 0)),
			optionFill("SPY240216P00480000", PremiumCredit, 1.50, 1, at(2024, 1, 8, 9, 0)),
		},
		Exits: []Fill{exit},
	}}

	result := BuildLedger(sessions, day(2024, 1, 13))

	require.Len(t, result.ClosedTrades, 1)
	// credit手数开仓更早（9:00 < 11:00）
	assert.Equal(t, PremiumCredit, result.ClosedTrades[0].PremiumSide)
	assert.Equal(t, 0, result.UnmatchedExits)
}

func TestBuildLedgerUnmatchedExitDropped(t *testing.T) {
	// 找不到任何手数的平仓被静默丢弃，但计入数据质量信号
	sessions := []Session{{
		Date: day(2024, 3, 4),
		Exits: []Fill{
			stockFill("GME", SideLong, 25, 5, at(2024, 3, 4, 10, 0)),
		},
	}}

	result := BuildLedger(sessions, day(2024, 4, 1))

	assert.Empty(t, result.ClosedTrades)
	assert.Equal(t, 1, result.UnmatchedExits)
	assert.Equal(t, float64(5), result.UnmatchedQuantity)
}

func TestBuildLedgerSkipsInvalidFills(t *testing.T) {
	sessions := []Session{{
		Date: day(2024, 3, 4),
		Entries: []Fill{
			stockFill("AAPL", SideLong, 0, 10, at(2024, 3, 4, 9, 30)),   // 零价格
			stockFill("AAPL", SideLong, 100, -5, at(2024, 3, 4, 9, 31)), // 负数量
			stockFill("AAPL", SideLong, 100, 10, at(2024, 3, 4, 9, 32)),
		},
		Exits: []Fill{
			stockFill("AAPL", SideLong, 110, 0, at(2024, 3, 4, 15, 0)), // 零数量
		},
	}}

	result := BuildLedger(sessions, day(2024, 4, 1))

	assert.Empty(t, result.ClosedTrades)
	require.Len(t, result.OpenPositions, 1)
	assert.Equal(t, float64(10), result.OpenPositions[0].Quantity)
}

func TestBuildLedgerEntryAfterExitNeverMatches(t *testing.T) {
	// 事件流严格向前处理：晚于平仓的开仓（录入错误）不会被回头撮合
	sessions := []Session{{
		Date: day(2024, 3, 4),
		Entries: []Fill{
			stockFill("AMD", SideLong, 100, 5, at(2024, 3, 4, 15, 0)),
		},
		Exits: []Fill{
			stockFill("AMD", SideLong, 110, 5, at(2024, 3, 4, 10, 0)),
		},
	}}

	result := BuildLedger(sessions, day(2024, 4, 1))

	assert.Empty(t, result.ClosedTrades)
	assert.Equal(t, 1, result.UnmatchedExits)
	require.Len(t, result.OpenPositions, 1)
}

func TestBuildLedgerIdempotent(t *testing.T) {
	sessions := []Session{
		{
			Date: day(2024, 1, 8),
			Entries: []Fill{
				optionFill("AAPL240119P00150000", PremiumCredit, 2.00, 1, at(2024, 1, 8, 10, 0)),
				stockFill("NVDA", SideLong, 800, 10, at(2024, 1, 8, 9, 30)),
			},
			Exits: []Fill{
				stockFill("NVDA", SideLong, 820, 6, at(2024, 1, 8, 14, 0)),
			},
			Tags: []string{"momentum"},
		},
		{
			Date: day(2024, 1, 9),
			Exits: []Fill{
				stockFill("NVDA", SideLong, 830, 4, at(2024, 1, 9, 10, 0)),
			},
		},
	}

	asOf := day(2024, 2, 1)
	first := BuildLedger(sessions, asOf)
	second := BuildLedger(sessions, asOf)

	assert.Equal(t, first, second)
}

func TestBuildLedgerInheritsSessionTags(t *testing.T) {
	sessions := []Session{{
		Date: day(2024, 3, 4),
		Tags: []string{"breakout", "a-plus"},
		Entries: []Fill{
			stockFill("AAPL", SideLong, 100, 10, at(2024, 3, 4, 9, 30)),
		},
		Exits: []Fill{
			stockFill("AAPL", SideLong, 105, 10, at(2024, 3, 4, 11, 0)),
		},
	}}

	result := BuildLedger(sessions, day(2024, 4, 1))

	require.Len(t, result.ClosedTrades, 1)
	assert.Equal(t, []string{"breakout", "a-plus"}, result.ClosedTrades[0].Tags)
}

func TestBuildLedgerWeightedHoldTime(t *testing.T) {
	// 跨手数平仓的各段分别记录持仓时长，统计层按数量加权
	sessions := []Session{{
		Date: day(2024, 3, 4),
		Entries: []Fill{
			stockFill("AAPL", SideLong, 100, 5, at(2024, 3, 4, 9, 0)),
			stockFill("AAPL", SideLong, 101, 5, at(2024, 3, 4, 10, 0)),
		},
		Exits: []Fill{
			stockFill("AAPL", SideLong, 102, 10, at(2024, 3, 4, 12, 0)),
		},
	}}

	result := BuildLedger(sessions, day(2024, 4, 1))

	require.Len(t, result.ClosedTrades, 2)
	require.NotNil(t, result.ClosedTrades[0].HoldMinutes)
	require.NotNil(t, result.ClosedTrades[1].HoldMinutes)
	assert.InDelta(t, 180, *result.ClosedTrades[0].HoldMinutes, 1e-9)
	assert.InDelta(t, 120, *result.ClosedTrades[1].HoldMinutes, 1e-9)
}
