package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFloat(t *testing.T) {
	assert.Equal(t, 1.5, ToFloat(1.5))
	assert.Equal(t, float64(3), ToFloat(3))
	assert.Equal(t, 2.25, ToFloat("2.25"))
	assert.Equal(t, 1234.5, ToFloat("$1,234.50")) // 历史数据带货币符号和千分位
	assert.Equal(t, float64(0), ToFloat("n/a"))
	assert.Equal(t, float64(0), ToFloat(nil))
}

func TestParseDate(t *testing.T) {
	expected := day(2024, 3, 4)

	for _, s := range []string{"2024-03-04", "2024/03/04", "03/04/2024", "2024-03-04 15:30:00"} {
		got, ok := ParseDate(s)
		require.True(t, ok, s)
		assert.Equal(t, expected, got, s)
	}

	_, ok := ParseDate("not a date")
	assert.False(t, ok)
	_, ok = ParseDate("")
	assert.False(t, ok)
}

func TestResolveTimestamp(t *testing.T) {
	date := day(2024, 3, 4)

	// 完整时间戳直接使用
	assert.Equal(t, at(2024, 3, 5, 9, 30), ResolveTimestamp("2024-03-05T09:30:00Z", date))

	// 仅有时刻的与会话日期合并
	assert.Equal(t, at(2024, 3, 4, 9, 30), ResolveTimestamp("09:30", date))
	assert.Equal(t, at(2024, 3, 4, 9, 30), ResolveTimestamp("9:30 AM", date))
	assert.Equal(t, at(2024, 3, 4, 15, 45), ResolveTimestamp("3:45 pm", date))

	// 无法解析时退化为会话日期
	assert.Equal(t, date, ResolveTimestamp("open", date))
	assert.Equal(t, date, ResolveTimestamp("", date))
}

func TestFillFromMapAliases(t *testing.T) {
	date := day(2024, 3, 4)

	f := FillFromMap(map[string]any{
		"ticker":    "aapl",
		"assetType": "Stock",
		"direction": "SHORT",
		"fillPrice": "$180.50",
		"qty":       "100",
		"time":      "09:31",
	}, date)

	assert.Equal(t, "AAPL", f.Symbol)
	assert.Equal(t, KindStock, f.Kind)
	assert.Equal(t, SideShort, f.Side)
	assert.Equal(t, PremiumNone, f.PremiumSide)
	assert.Equal(t, 180.5, f.Price)
	assert.Equal(t, float64(100), f.Quantity)
	assert.Equal(t, at(2024, 3, 4, 9, 31), f.Time)
}

func TestFillFromMapDefaults(t *testing.T) {
	date := day(2024, 3, 4)

	f := FillFromMap(map[string]any{"symbol": "SPY"}, date)

	assert.Equal(t, KindOther, f.Kind)
	assert.Equal(t, SideLong, f.Side)
	assert.Equal(t, PremiumNone, f.PremiumSide)
	assert.Equal(t, date, f.Time)
	assert.True(t, f.Expiry.IsZero())
}

func TestFillFromMapOptionExpiryFromSymbol(t *testing.T) {
	// 到期日字段缺失时从OCC代码回填
	f := FillFromMap(map[string]any{
		"symbol": "SPY240119C00475000",
		"kind":   "option",
		"side":   "short",
	}, day(2024, 1, 8))

	assert.Equal(t, KindOption, f.Kind)
	assert.Equal(t, PremiumCredit, f.PremiumSide) // 卖方默认收权利金
	assert.Equal(t, day(2024, 1, 19), f.Expiry)
}

func TestFillFromMapExplicitExpiryWins(t *testing.T) {
	f := FillFromMap(map[string]any{
		"symbol":     "SPY240119C00475000",
		"kind":       "option",
		"expiration": "2024-01-20",
	}, day(2024, 1, 8))

	assert.Equal(t, day(2024, 1, 20), f.Expiry)
}

func TestParseNotes(t *testing.T) {
	raw := []byte(`{
		"entries": [{"symbol": "AAPL", "kind": "stock", "price": 100, "quantity": 10}],
		"exits":   [{"symbol": "AAPL", "kind": "stock", "price": 105, "quantity": 10}],
		"note": "ignored"
	}`)

	entries, exits := ParseNotes(raw, day(2024, 3, 4))

	require.Len(t, entries, 1)
	require.Len(t, exits, 1)
	assert.Equal(t, "AAPL", entries[0].Symbol)
	assert.Equal(t, float64(100), entries[0].Price)
	assert.Equal(t, float64(105), exits[0].Price)
}

func TestParseNotesMalformed(t *testing.T) {
	entries, exits := ParseNotes([]byte("not json"), day(2024, 3, 4))
	assert.Nil(t, entries)
	assert.Nil(t, exits)

	entries, exits = ParseNotes(nil, day(2024, 3, 4))
	assert.Nil(t, entries)
	assert.Nil(t, exits)

	// 数组里的非对象元素跳过
	entries, _ = ParseNotes([]byte(`{"entries": [42, {"symbol": "SPY"}]}`), day(2024, 3, 4))
	require.Len(t, entries, 1)
	assert.Equal(t, "SPY", entries[0].Symbol)
}

func TestExtractFees(t *testing.T) {
	assert.Equal(t, 2.5, ExtractFees(map[string]any{"commissions": 2.5}))
	assert.Equal(t, 1.3, ExtractFees(map[string]any{"fees": "1.30"}))
	assert.Equal(t, 4.2, ExtractFees(map[string]any{"commissionsAndFees": 4.2}))
	// 多个别名共存时按优先级取第一个
	assert.Equal(t, 2.5, ExtractFees(map[string]any{"commissions": 2.5, "fees": 9.9}))
	assert.Equal(t, float64(0), ExtractFees(map[string]any{"other": 1}))
	assert.Equal(t, float64(0), ExtractFees(nil))
}

func TestHourAndDateLabels(t *testing.T) {
	ts := time.Date(2024, 3, 4, 9, 45, 0, 0, time.UTC)
	assert.Equal(t, "09:00", HourLabel(ts))
	assert.Equal(t, "Monday", WeekdayLabel(ts))
	assert.Equal(t, "2024-03-04", DateKey(ts))
}
