package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveUnderlying(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		// OCC期权码
		{"AAPL230616C00150000", "AAPL"},
		{"TSLA240119P00200000", "TSLA"},
		{"SPX230616P04100000", "SPX"},
		// 指数期权码（周度W后缀，变长行权价）
		{"SPXW240119P4700", "SPX"},
		{"XSPW231215C470", "XSP"},
		// 期货合约码
		{"ESZ24", "ES"},
		{"/MESH4", "MES"},
		{"CLM25", "CL"},
		{"6EU25", "6E"},
		// 普通证券代码
		{"AAPL", "AAPL"},
		{"BRK.B", "BRK"},
		{"msft", "MSFT"},
		{" SPY ", "SPY"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveUnderlying(tt.symbol), "symbol=%s", tt.symbol)
	}
}

func TestResolveUnderlyingDeterministic(t *testing.T) {
	// 撮合引擎的兜底查找反复调用，同一输入必须产出同一结果
	for i := 0; i < 3; i++ {
		assert.Equal(t, "SPX", ResolveUnderlying("SPXW240119P4700"))
	}
}

func TestExpiryFromSymbol(t *testing.T) {
	expiry, ok := ExpiryFromSymbol("AAPL240119P00150000")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 19, 0, 0, 0, 0, time.UTC), expiry)

	expiry, ok = ExpiryFromSymbol("SPXW231215C4700")
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC), expiry)

	_, ok = ExpiryFromSymbol("AAPL")
	assert.False(t, ok)

	_, ok = ExpiryFromSymbol("ESZ24")
	assert.False(t, ok)
}
