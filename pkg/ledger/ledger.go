package ledger

import (
	"sort"
	"time"
)

// FIFO撮合引擎
// 单次构建使用私有的手数队列，函数返回后整体丢弃，无共享状态
// 对相同输入（含asOf）重复调用产出完全一致的结果

// ClosedTrade 已平仓交易段，每消耗一个手数产生一条记录
type ClosedTrade struct {
	Symbol      string      `json:"symbol"`
	Kind        Kind        `json:"kind"`
	Side        Side        `json:"side"`
	PremiumSide PremiumSide `json:"premium_side"`
	Quantity    float64     `json:"quantity"` // 本段撮合数量
	Pnl         float64     `json:"pnl"`
	HoldMinutes *float64    `json:"hold_minutes"` // nil表示持仓时长不可知
	EntryTime   time.Time   `json:"entry_time"`
	ExitTime    time.Time   `json:"exit_time"`
	Tags        []string    `json:"tags"`
	Synthetic   bool        `json:"synthetic"` // 到期自动平仓标记
}

// OpenPosition 撮合结束后的剩余敞口，按撮合键聚合
type OpenPosition struct {
	Symbol      string      `json:"symbol"`
	Kind        Kind        `json:"kind"`
	Side        Side        `json:"side"`
	PremiumSide PremiumSide `json:"premium_side"`
	Quantity    float64     `json:"quantity"`
	AvgPrice    float64     `json:"avg_price"`
	OpenedAt    time.Time   `json:"opened_at"` // 最早手数的开仓时间
	Tags        []string    `json:"tags"`
}

// Result 台账构建结果
type Result struct {
	ClosedTrades  []ClosedTrade  `json:"closed_trades"`
	OpenPositions []OpenPosition `json:"open_positions"`
	// 找不到对应手数而被丢弃的平仓成交，作为数据质量信号上报
	UnmatchedExits    int     `json:"unmatched_exits"`
	UnmatchedQuantity float64 `json:"unmatched_quantity"`
}

// lotKey 撮合键
// 期权不区分方向，权利金方向已决定其经济含义；其余类型按方向区分
type lotKey struct {
	symbol  string
	kind    Kind
	side    Side
	premium PremiumSide
}

func keyFor(f Fill) lotKey {
	if f.Kind == KindOption {
		return lotKey{symbol: f.Symbol, kind: f.Kind, premium: f.PremiumSide}
	}
	return lotKey{symbol: f.Symbol, kind: f.Kind, side: f.Side, premium: PremiumNone}
}

// openLot 未平仓手数，剩余数量单调递减
type openLot struct {
	fill      Fill
	remaining float64
}

// lotBook 手数队列集合，记录键的插入顺序保证输出确定性
type lotBook struct {
	queues map[lotKey][]*openLot
	order  []lotKey
}

func newLotBook() *lotBook {
	return &lotBook{queues: make(map[lotKey][]*openLot)}
}

func (b *lotBook) push(key lotKey, lot *openLot) {
	if _, ok := b.queues[key]; !ok {
		b.order = append(b.order, key)
	}
	b.queues[key] = append(b.queues[key], lot)
}

type event struct {
	fill    Fill
	isEntry bool
}

// BuildLedger 把无序的开平仓成交流转换为一致的已平仓交易与剩余持仓
func BuildLedger(sessions []Session, asOf time.Time) Result {
	events := flattenEvents(sessions)

	sort.SliceStable(events, func(i, j int) bool {
		ti, tj := events[i].fill.Time, events[j].fill.Time
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		// 同一时刻先处理开仓
		return events[i].isEntry && !events[j].isEntry
	})

	var result Result
	book := newLotBook()

	for _, ev := range events {
		f := ev.fill
		// 价格或数量非法的成交直接跳过
		if f.Price <= 0 || f.Quantity <= 0 {
			continue
		}

		if ev.isEntry {
			book.push(keyFor(f), &openLot{fill: f, remaining: f.Quantity})
			continue
		}

		remaining := consumeExit(book, f, &result)
		if remaining > 0 {
			result.UnmatchedExits++
			result.UnmatchedQuantity += remaining
		}
	}

	closeExpiredCredits(book, asOf, &result)
	result.OpenPositions = collectOpenPositions(book)

	return result
}

// flattenEvents 展平所有会话的成交并补齐时间戳与分类标签
func flattenEvents(sessions []Session) []event {
	var events []event
	for _, s := range sessions {
		for _, f := range s.Entries {
			events = append(events, event{fill: normalizeEventFill(f, s), isEntry: true})
		}
		for _, f := range s.Exits {
			events = append(events, event{fill: normalizeEventFill(f, s)})
		}
	}
	return events
}

func normalizeEventFill(f Fill, s Session) Fill {
	if f.Time.IsZero() {
		f.Time = s.Date
	}
	f.Tags = mergeTags(s.Tags, f.Tags)
	return f
}

// candidateKeys 平仓成交的键查找顺序
// 历史数据经常漏标或错标方向/权利金方向，按渐进放宽的顺序尝试：
// 精确键 > 权利金方向翻转 > 方向翻转 > 两者同时翻转
func candidateKeys(f Fill) []lotKey {
	variants := []Fill{f}

	if f.Kind == KindOption {
		variants = append(variants, withPremium(f, flipPremium(f.PremiumSide)))
	}
	flippedSide := withSide(f, flipSide(f.Side))
	variants = append(variants, flippedSide)
	if f.Kind == KindOption {
		variants = append(variants, withPremium(flippedSide, flipPremium(f.PremiumSide)))
	}

	var keys []lotKey
	seen := make(map[lotKey]struct{})
	for _, v := range variants {
		key := keyFor(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

func flipSide(s Side) Side {
	if s == SideShort {
		return SideLong
	}
	return SideShort
}

func flipPremium(p PremiumSide) PremiumSide {
	switch p {
	case PremiumCredit:
		return PremiumDebit
	case PremiumDebit:
		return PremiumCredit
	default:
		return p
	}
}

func withSide(f Fill, s Side) Fill {
	f.Side = s
	return f
}

func withPremium(f Fill, p PremiumSide) Fill {
	f.PremiumSide = p
	return f
}

// selectQueue 为平仓成交选择手数队列
// 候选键全部落空时兜底：同(symbol, kind)前缀下取首手数日期最早的队列
func selectQueue(book *lotBook, f Fill) (lotKey, bool) {
	for _, key := range candidateKeys(f) {
		if len(book.queues[key]) > 0 {
			return key, true
		}
	}

	var (
		best      lotKey
		bestFound bool
	)
	for _, key := range book.order {
		if key.symbol != f.Symbol || key.kind != f.Kind {
			continue
		}
		queue := book.queues[key]
		if len(queue) == 0 {
			continue
		}
		if !bestFound || queue[0].fill.Time.Before(book.queues[best][0].fill.Time) {
			best = key
			bestFound = true
		}
	}
	return best, bestFound
}

// consumeExit FIFO消耗选中队列，返回未能撮合的剩余数量
func consumeExit(book *lotBook, exit Fill, result *Result) float64 {
	need := exit.Quantity

	key, ok := selectQueue(book, exit)
	if !ok {
		return need
	}

	queue := book.queues[key]
	for need > 0 && len(queue) > 0 {
		lot := queue[0]
		matched := min(lot.remaining, need)

		result.ClosedTrades = append(result.ClosedTrades, closeSegment(lot, exit, matched, exit.Price, exit.Time, false))

		lot.remaining -= matched
		need -= matched
		if lot.remaining <= 0 {
			queue = queue[1:]
		}
	}
	book.queues[key] = queue

	return need
}

// closeSegment 生成单个(手数,平仓)配对的交易段
// 符号与乘数锁定开仓手数的属性，平仓成交的标记不参与计算
func closeSegment(lot *openLot, exit Fill, matched, exitPrice float64, exitTime time.Time, synthetic bool) ClosedTrade {
	sign := PnlSign(lot.fill.Kind, lot.fill.Side, lot.fill.PremiumSide)
	multiplier := ContractMultiplier(lot.fill.Kind, lot.fill.Symbol)

	trade := ClosedTrade{
		Symbol:      lot.fill.Symbol,
		Kind:        lot.fill.Kind,
		Side:        lot.fill.Side,
		PremiumSide: lot.fill.PremiumSide,
		Quantity:    matched,
		Pnl:         (exitPrice - lot.fill.Price) * matched * sign * multiplier,
		EntryTime:   lot.fill.Time,
		ExitTime:    exitTime,
		Tags:        mergeTags(lot.fill.Tags, exit.Tags),
		Synthetic:   synthetic,
	}

	if !lot.fill.Time.IsZero() && !exitTime.IsZero() {
		if hold := exitTime.Sub(lot.fill.Time).Minutes(); hold >= 0 {
			trade.HoldMinutes = &hold
		}
	}
	return trade
}

// closeExpiredCredits 合成到期平仓
// 卖出的期权（credit）常常没有显式平仓记录：到期作废即卖方完整获利
// 对到期日不晚于asOf的credit手数按价格0合成平仓，避免持仓列表被污染
func closeExpiredCredits(book *lotBook, asOf time.Time, result *Result) {
	for _, key := range book.order {
		if key.kind != KindOption || key.premium != PremiumCredit {
			continue
		}

		queue := book.queues[key]
		kept := queue[:0]
		for _, lot := range queue {
			expiry := lot.fill.Expiry
			if expiry.IsZero() {
				if parsed, ok := ExpiryFromSymbol(lot.fill.Symbol); ok {
					expiry = parsed
				}
			}
			if expiry.IsZero() || expiry.After(asOf) {
				kept = append(kept, lot)
				continue
			}

			result.ClosedTrades = append(result.ClosedTrades,
				closeSegment(lot, lot.fill, lot.remaining, 0, expiry, true))
		}
		book.queues[key] = kept
	}
}

// collectOpenPositions 按键聚合剩余手数
func collectOpenPositions(book *lotBook) []OpenPosition {
	var positions []OpenPosition
	for _, key := range book.order {
		queue := book.queues[key]
		if len(queue) == 0 {
			continue
		}

		pos := OpenPosition{
			Symbol:      key.symbol,
			Kind:        key.kind,
			Side:        queue[0].fill.Side,
			PremiumSide: queue[0].fill.PremiumSide,
			OpenedAt:    queue[0].fill.Time,
			Tags:        queue[0].fill.Tags,
		}

		var cost float64
		for _, lot := range queue {
			pos.Quantity += lot.remaining
			cost += lot.fill.Price * lot.remaining
			if lot.fill.Time.Before(pos.OpenedAt) {
				pos.OpenedAt = lot.fill.Time
			}
		}
		if pos.Quantity > 0 {
			pos.AvgPrice = cost / pos.Quantity
		}

		positions = append(positions, pos)
	}
	return positions
}

func mergeTags(base, extra []string) []string {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(base)+len(extra))
	merged := make([]string, 0, len(base)+len(extra))
	for _, tag := range base {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		merged = append(merged, tag)
	}
	for _, tag := range extra {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		merged = append(merged, tag)
	}
	return merged
}
