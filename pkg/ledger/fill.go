package ledger

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// 通用交易日志类型定义，独立于任何特定券商的导出格式
// 历史数据字段名混乱，解析时必须宽容处理

// Kind 标的类型
type Kind string

const (
	KindOption Kind = "option"
	KindFuture Kind = "future"
	KindStock  Kind = "stock"
	KindCrypto Kind = "crypto"
	KindForex  Kind = "forex"
	KindOther  Kind = "other"
)

// Side 交易方向
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// PremiumSide 期权权利金方向（收取/支付）
type PremiumSide string

const (
	PremiumCredit PremiumSide = "credit"
	PremiumDebit  PremiumSide = "debit"
	PremiumNone   PremiumSide = "none"
)

func (k Kind) String() string        { return string(k) }
func (s Side) String() string        { return string(s) }
func (p PremiumSide) String() string { return string(p) }

// Fill 单笔成交记录（开仓或平仓，结构相同，角色由来源数组决定）
type Fill struct {
	Symbol      string      `json:"symbol"`
	Kind        Kind        `json:"kind"`
	Side        Side        `json:"side"`
	PremiumSide PremiumSide `json:"premium_side"`
	Price       float64     `json:"price"`
	Quantity    float64     `json:"quantity"`
	Time        time.Time   `json:"time"`   // 零值表示仅有日期精度
	Expiry      time.Time   `json:"expiry"` // 期权到期日，零值表示未知
	Tags        []string    `json:"tags"`
}

// Session 单个交易日的日志条目（只读输入）
type Session struct {
	Date      time.Time `json:"date"`
	Entries   []Fill    `json:"entries"`
	Exits     []Fill    `json:"exits"`
	StoredPnl *float64  `json:"stored_pnl"` // 手动记录的当日净盈亏，nil表示未记录
	Fees      float64   `json:"fees"`
	Tags      []string  `json:"tags"`
}

// BalanceSnapshot 每日账户余额快照（外部输入，可选）
type BalanceSnapshot struct {
	Date        time.Time `json:"date"`
	Balance     float64   `json:"balance"` // 当日起始余额
	RealizedPnl float64   `json:"realized_pnl"`
}

// Cashflow 出入金记录（外部输入，可选），入金为正、出金为负
type Cashflow struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// 历史版本使用过的字段别名，按优先级排列
var (
	symbolKeys   = []string{"symbol", "ticker"}
	kindKeys     = []string{"kind", "instrument", "instrumentType", "assetType"}
	sideKeys     = []string{"side", "direction"}
	premiumKeys  = []string{"premiumSide", "premium", "optionSide"}
	priceKeys    = []string{"price", "fillPrice", "entryPrice", "exitPrice"}
	quantityKeys = []string{"quantity", "qty", "contracts", "size"}
	timeKeys     = []string{"time", "timestamp", "executedAt"}
	expiryKeys   = []string{"expiry", "expiration", "expDate"}
)

func firstValue(raw map[string]any, keys []string) (any, bool) {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// FillFromMap 从宽松的JSON对象解析单笔成交
// 字段缺失或格式错误时取默认值，不报错
func FillFromMap(raw map[string]any, date time.Time) Fill {
	var f Fill

	if v, ok := firstValue(raw, symbolKeys); ok {
		f.Symbol = strings.ToUpper(strings.TrimSpace(cast.ToString(v)))
	}
	if v, ok := firstValue(raw, kindKeys); ok {
		f.Kind = NormalizeKind(cast.ToString(v))
	} else {
		f.Kind = KindOther
	}
	if v, ok := firstValue(raw, sideKeys); ok {
		f.Side = NormalizeSide(cast.ToString(v))
	} else {
		f.Side = SideLong
	}
	var rawPremium string
	if v, ok := firstValue(raw, premiumKeys); ok {
		rawPremium = cast.ToString(v)
	}
	f.PremiumSide = NormalizePremiumSide(f.Kind, rawPremium, f.Side)

	if v, ok := firstValue(raw, priceKeys); ok {
		f.Price = ToFloat(v)
	}
	if v, ok := firstValue(raw, quantityKeys); ok {
		f.Quantity = ToFloat(v)
	}
	if v, ok := firstValue(raw, timeKeys); ok {
		f.Time = ResolveTimestamp(cast.ToString(v), date)
	} else {
		f.Time = date
	}
	if v, ok := firstValue(raw, expiryKeys); ok {
		if expiry, ok := ParseDate(cast.ToString(v)); ok {
			f.Expiry = expiry
		}
	}
	if f.Expiry.IsZero() && f.Kind == KindOption {
		if expiry, ok := ExpiryFromSymbol(f.Symbol); ok {
			f.Expiry = expiry
		}
	}

	return f
}

// ParseNotes 解析日志条目的原始成交载荷
// 支持 {"entries":[...],"exits":[...]} 结构，未知字段忽略
func ParseNotes(raw []byte, date time.Time) (entries []Fill, exits []Fill) {
	if len(raw) == 0 {
		return nil, nil
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil
	}

	entries = fillsFromAny(payload["entries"], date)
	exits = fillsFromAny(payload["exits"], date)
	return entries, exits
}

func fillsFromAny(v any, date time.Time) []Fill {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	fills := make([]Fill, 0, len(items))
	for _, item := range items {
		raw, ok := item.(map[string]any)
		if !ok {
			continue
		}
		fills = append(fills, FillFromMap(raw, date))
	}
	return fills
}
