package ledger

import "strings"

// NormalizeKind 把自由文本的标的类型归一化为封闭枚举
// 无法识别的输入一律归为 other
func NormalizeKind(raw string) Kind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "option", "options", "opt":
		return KindOption
	case "future", "futures", "fut":
		return KindFuture
	case "stock", "stocks", "equity", "equities", "share", "shares":
		return KindStock
	case "crypto", "cryptocurrency", "coin":
		return KindCrypto
	case "forex", "fx", "currency":
		return KindForex
	default:
		return KindOther
	}
}

// NormalizeSide 归一化交易方向
// 只有明确的 short 标记才算做空，其余一律默认 long（历史数据常缺失方向）
func NormalizeSide(raw string) Side {
	if strings.ToLower(strings.TrimSpace(raw)) == "short" {
		return SideShort
	}
	return SideLong
}

// NormalizePremiumSide 推断期权权利金方向
// 推断链：显式 credit/debit 标记 > 做空隐含 credit > 默认 debit
// 该规则直接决定盈亏符号，必须严格保持
func NormalizePremiumSide(kind Kind, rawPremium string, side Side) PremiumSide {
	if kind != KindOption {
		return PremiumNone
	}

	label := strings.ToLower(strings.TrimSpace(rawPremium))
	if strings.Contains(label, "credit") {
		return PremiumCredit
	}
	if strings.Contains(label, "debit") {
		return PremiumDebit
	}
	if side == SideShort {
		return PremiumCredit
	}
	return PremiumDebit
}

// PnlSign 盈亏符号约定
// 期权以权利金方向为准：卖方（credit）在价格跌向0时获利，符号取反
// 其余类型做空取反。符号永远取自开仓手数的属性，平仓成交的标记不可信
func PnlSign(kind Kind, side Side, premiumSide PremiumSide) float64 {
	if kind == KindOption {
		if premiumSide == PremiumCredit {
			return -1
		}
		return 1
	}
	if side == SideShort {
		return -1
	}
	return 1
}

// 期货合约乘数表，按合约根符号索引
var futuresMultipliers = map[string]float64{
	"ES":  50,
	"MES": 5,
	"NQ":  20,
	"MNQ": 2,
	"RTY": 50,
	"M2K": 5,
	"YM":  5,
	"MYM": 0.5,
	"CL":  1000,
	"MCL": 100,
	"GC":  100,
	"MGC": 10,
	"SI":  5000,
	"ZB":  1000,
	"ZN":  1000,
	"6E":  125000,
}

// ContractMultiplier 合约乘数
// 期权固定100，期货查根符号表（未知根默认1），其余为1
func ContractMultiplier(kind Kind, symbol string) float64 {
	switch kind {
	case KindOption:
		return 100
	case KindFuture:
		if m, ok := futuresMultipliers[ResolveUnderlying(symbol)]; ok {
			return m
		}
		return 1
	default:
		return 1
	}
}
