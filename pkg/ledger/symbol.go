package ledger

import (
	"regexp"
	"strings"
	"time"
)

// 标的解析顺序：OCC期权码 > 指数期权码 > 期货合约码 > 前缀大写字母
// 必须是纯函数，FIFO撮合的兜底查找会反复调用

var (
	// OCC格式：根符号 + YYMMDD + C/P + 8位行权价，如 AAPL230616C00150000
	occPattern = regexp.MustCompile(`^([A-Z]{1,6})(\d{6})([CP])(\d{8})$`)
	// 指数格式：根符号（可能带周度后缀W）+ YYMMDD + C/P + 变长行权价，如 SPXW240119P4700
	indexPattern = regexp.MustCompile(`^([A-Z]{1,6}?)(W?)(\d{6})([CP])(\d{1,7}(?:\.\d+)?)$`)
	// 期货格式：根符号 + 月份码 + 年份，如 ESZ24、/MESH4、6EU25
	futuresPattern = regexp.MustCompile(`^/?([0-9A-Z]{1,4}?)([FGHJKMNQUVXZ])(\d{1,4})$`)

	leadingLetters = regexp.MustCompile(`^[A-Z]+`)
)

// ResolveUnderlying 从原始交易代码提取标的根符号
func ResolveUnderlying(rawSymbol string) string {
	symbol := strings.ToUpper(strings.TrimSpace(rawSymbol))
	if symbol == "" {
		return ""
	}

	if m := occPattern.FindStringSubmatch(symbol); m != nil {
		return m[1]
	}
	if m := indexPattern.FindStringSubmatch(symbol); m != nil {
		return m[1]
	}
	if m := futuresPattern.FindStringSubmatch(symbol); m != nil {
		return m[1]
	}
	if m := leadingLetters.FindString(symbol); m != "" {
		return m
	}
	return symbol
}

// ExpiryFromSymbol 从期权码中解析到期日
func ExpiryFromSymbol(rawSymbol string) (time.Time, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(rawSymbol))

	var digits string
	if m := occPattern.FindStringSubmatch(symbol); m != nil {
		digits = m[2]
	} else if m := indexPattern.FindStringSubmatch(symbol); m != nil {
		digits = m[3]
	} else {
		return time.Time{}, false
	}

	t, err := time.Parse("060102", digits)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
