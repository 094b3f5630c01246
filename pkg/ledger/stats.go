package ledger

import (
	"math"
	"sort"
	"time"
)

// 统计聚合层
// 样本不足时所有比率返回nil（JSON null），绝不产生NaN/Inf
// 前端依赖null区分"已计算"与"数据不足"

// breakEvenEpsilon 盈亏分类阈值，|pnl|不超过该值视为打平
const breakEvenEpsilon = 0.01

// tradingDaysPerYear 年化因子
const tradingDaysPerYear = 252

// HoldStats 持仓时长统计（分钟）
type HoldStats struct {
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
}

// BucketPnl 分桶盈亏，用于星期/小时分布图
type BucketPnl struct {
	Label  string  `json:"label"`
	Pnl    float64 `json:"pnl"`
	Trades int     `json:"trades"`
}

// EquityPoint 资金曲线上的一个点
type EquityPoint struct {
	Date     time.Time `json:"date"`
	Equity   float64   `json:"equity"`
	NetPnl   float64   `json:"net_pnl"`   // 当日净盈亏
	Cashflow float64   `json:"cashflow"`  // 当日出入金
}

// Stats 完整的KPI集合
type Stats struct {
	TotalTrades int     `json:"total_trades"`
	Winners     int     `json:"winners"`
	Losers      int     `json:"losers"`
	BreakEven   int     `json:"break_even"`
	WinRate     float64 `json:"win_rate"` // 胜率，打平的交易不计入分母

	AvgWin       float64  `json:"avg_win"`
	AvgLoss      float64  `json:"avg_loss"`
	LargestWin   float64  `json:"largest_win"`
	LargestLoss  float64  `json:"largest_loss"`
	Expectancy   float64  `json:"expectancy"` // 每笔交易的平均盈亏
	ProfitFactor *float64 `json:"profit_factor"`
	RewardRisk   *float64 `json:"reward_risk"` // |平均盈利| / |平均亏损|

	NetPnl    float64 `json:"net_pnl"`
	TotalFees float64 `json:"total_fees"`

	WinStreak  int `json:"win_streak"`  // 按会话（交易日）统计
	LossStreak int `json:"loss_streak"`

	MaxDrawdown        float64 `json:"max_drawdown"`
	MaxDrawdownPercent float64 `json:"max_drawdown_percent"`

	Sharpe  *float64 `json:"sharpe"`
	Sortino *float64 `json:"sortino"`
	Cagr    *float64 `json:"cagr"`

	WinnerHold HoldStats `json:"winner_hold"`
	LoserHold  HoldStats `json:"loser_hold"`

	AccountGrowthPercent *float64 `json:"account_growth_percent"`

	UnmatchedExits int `json:"unmatched_exits"`

	WeekdayPnl []BucketPnl `json:"weekday_pnl"`
	HourlyPnl  []BucketPnl `json:"hourly_pnl"`
}

// ComputeStats 从已平仓交易、会话级盈亏及可选的外部序列计算全部KPI
func ComputeStats(sessions []Session, result Result, snapshots []BalanceSnapshot, cashflows []Cashflow, startingBalance float64) Stats {
	stats := Stats{UnmatchedExits: result.UnmatchedExits}

	classifyTrades(result.ClosedTrades, &stats)
	computeHoldStats(result.ClosedTrades, &stats)
	computeBuckets(result.ClosedTrades, &stats)

	netByDate := pnlByExitDate(result.ClosedTrades)
	ordered := sortedSessions(sessions)

	for _, s := range ordered {
		stats.NetPnl += SessionNetPnl(s, netByDate)
		stats.TotalFees += s.Fees
	}

	computeStreaks(ordered, netByDate, &stats)

	curve := EquityCurve(ordered, netByDate, cashflows, resolveStartingBalance(startingBalance, snapshots))
	computeDrawdown(curve, &stats)
	computeRiskRatios(curve, &stats)
	computeCagr(curve, &stats)

	stats.AccountGrowthPercent = accountGrowth(snapshots)

	return stats
}

// SessionNetPnl 会话净盈亏：优先使用手动记录值，否则按当日平仓盈亏减手续费
func SessionNetPnl(s Session, pnlByDate map[string]float64) float64 {
	if s.StoredPnl != nil {
		return *s.StoredPnl
	}
	return pnlByDate[DateKey(s.Date)] - s.Fees
}

func pnlByExitDate(trades []ClosedTrade) map[string]float64 {
	byDate := make(map[string]float64)
	for _, t := range trades {
		byDate[DateKey(t.ExitTime)] += t.Pnl
	}
	return byDate
}

func sortedSessions(sessions []Session) []Session {
	ordered := make([]Session, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})
	return ordered
}

func classifyTrades(trades []ClosedTrade, stats *Stats) {
	var grossWin, grossLoss float64
	for _, t := range trades {
		stats.TotalTrades++
		stats.Expectancy += t.Pnl

		switch {
		case t.Pnl > breakEvenEpsilon:
			stats.Winners++
			grossWin += t.Pnl
			if t.Pnl > stats.LargestWin {
				stats.LargestWin = t.Pnl
			}
		case t.Pnl < -breakEvenEpsilon:
			stats.Losers++
			grossLoss += -t.Pnl
			if t.Pnl < stats.LargestLoss {
				stats.LargestLoss = t.Pnl
			}
		default:
			stats.BreakEven++
		}
	}

	if stats.TotalTrades > 0 {
		stats.Expectancy /= float64(stats.TotalTrades)
	}
	if decided := stats.Winners + stats.Losers; decided > 0 {
		stats.WinRate = float64(stats.Winners) / float64(decided) * 100
	}
	if stats.Winners > 0 {
		stats.AvgWin = grossWin / float64(stats.Winners)
	}
	if stats.Losers > 0 {
		stats.AvgLoss = -grossLoss / float64(stats.Losers)
	}
	if grossLoss > 0 {
		pf := grossWin / grossLoss
		stats.ProfitFactor = &pf
	}
	if stats.AvgLoss != 0 {
		rr := math.Abs(stats.AvgWin) / math.Abs(stats.AvgLoss)
		stats.RewardRisk = &rr
	}
}

// computeStreaks 最长连胜/连亏按交易日统计，打平的会话同时中断两种连串
func computeStreaks(sessions []Session, netByDate map[string]float64, stats *Stats) {
	var wins, losses int
	for _, s := range sessions {
		net := SessionNetPnl(s, netByDate)
		switch {
		case net > breakEvenEpsilon:
			wins++
			losses = 0
		case net < -breakEvenEpsilon:
			losses++
			wins = 0
		default:
			wins, losses = 0, 0
		}
		if wins > stats.WinStreak {
			stats.WinStreak = wins
		}
		if losses > stats.LossStreak {
			stats.LossStreak = losses
		}
	}
}

func resolveStartingBalance(configured float64, snapshots []BalanceSnapshot) float64 {
	if configured > 0 {
		return configured
	}
	var first BalanceSnapshot
	for _, snap := range snapshots {
		if first.Date.IsZero() || snap.Date.Before(first.Date) {
			first = snap
		}
	}
	return first.Balance
}

// EquityCurve 资金曲线：起始资金 + 累计净盈亏，出入金按日期加入基线
// sessions须按日期升序
func EquityCurve(sessions []Session, netByDate map[string]float64, cashflows []Cashflow, startingBalance float64) []EquityPoint {
	flows := make([]Cashflow, len(cashflows))
	copy(flows, cashflows)
	sort.SliceStable(flows, func(i, j int) bool {
		return flows[i].Date.Before(flows[j].Date)
	})

	equity := startingBalance
	flowIdx := 0
	points := make([]EquityPoint, 0, len(sessions))

	for _, s := range sessions {
		var flowToday float64
		for flowIdx < len(flows) && !flows[flowIdx].Date.After(s.Date) {
			flowToday += flows[flowIdx].Amount
			flowIdx++
		}

		net := SessionNetPnl(s, netByDate)
		equity += flowToday + net
		points = append(points, EquityPoint{
			Date:     s.Date,
			Equity:   equity,
			NetPnl:   net,
			Cashflow: flowToday,
		})
	}
	return points
}

// computeDrawdown 跟踪运行峰值，报告最大峰谷回撤（货币与峰值百分比）
func computeDrawdown(curve []EquityPoint, stats *Stats) {
	var peak float64
	for i, p := range curve {
		if i == 0 || p.Equity > peak {
			peak = p.Equity
		}
		dd := peak - p.Equity
		if dd > stats.MaxDrawdown {
			stats.MaxDrawdown = dd
			if peak > 0 {
				stats.MaxDrawdownPercent = dd / peak * 100
			}
		}
	}
}

// dailyReturns 日收益率序列，出入金从分子中剔除避免污染收益
func dailyReturns(curve []EquityPoint) []float64 {
	var returns []float64
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev <= 0 {
			continue
		}
		returns = append(returns, (curve[i].Equity-curve[i-1].Equity-curve[i].Cashflow)/prev)
	}
	return returns
}

// computeRiskRatios Sharpe与Sortino，√252年化
// 少于2个收益观测或分母为0时返回nil，绝不除零
func computeRiskRatios(curve []EquityPoint, stats *Stats) {
	returns := dailyReturns(curve)
	if len(returns) < 2 {
		return
	}

	mean := meanOf(returns)
	std := stdevOf(returns, mean)
	if std > 0 {
		sharpe := mean / std * math.Sqrt(tradingDaysPerYear)
		stats.Sharpe = &sharpe
	}

	var negatives []float64
	for _, r := range returns {
		if r < 0 {
			negatives = append(negatives, r)
		}
	}
	if len(negatives) == 0 {
		return
	}
	downside := stdevOf(negatives, meanOf(negatives))
	if downside > 0 {
		sortino := mean / downside * math.Sqrt(tradingDaysPerYear)
		stats.Sortino = &sortino
	}
}

// computeCagr 复合年化增长率，资金非正或时间跨度非正时为nil
func computeCagr(curve []EquityPoint, stats *Stats) {
	if len(curve) < 2 {
		return
	}

	start := curve[0].Equity
	end := curve[len(curve)-1].Equity
	years := curve[len(curve)-1].Date.Sub(curve[0].Date).Hours() / 24 / 365.25
	if start <= 0 || end <= 0 || years <= 0 {
		return
	}

	cagr := (math.Pow(end/start, 1/years) - 1) * 100
	stats.Cagr = &cagr
}

func computeHoldStats(trades []ClosedTrade, stats *Stats) {
	var winners, winWeights, losers, lossWeights []float64
	for _, t := range trades {
		if t.HoldMinutes == nil {
			continue
		}
		weight := t.Quantity
		if weight <= 0 {
			weight = 1
		}
		switch {
		case t.Pnl > breakEvenEpsilon:
			winners = append(winners, *t.HoldMinutes)
			winWeights = append(winWeights, weight)
		case t.Pnl < -breakEvenEpsilon:
			losers = append(losers, *t.HoldMinutes)
			lossWeights = append(lossWeights, weight)
		}
	}
	stats.WinnerHold = holdStatsOf(winners, winWeights)
	stats.LoserHold = holdStatsOf(losers, lossWeights)
}

// holdStatsOf 均值按成交数量加权：Σ(时长×数量)/Σ(数量)
// 中位数与最值取各段时长本身
func holdStatsOf(values, weights []float64) HoldStats {
	if len(values) == 0 {
		return HoldStats{}
	}

	var weighted, total float64
	for i, v := range values {
		weighted += v * weights[i]
		total += weights[i]
	}
	mean := weighted / total

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}
	minVal := sorted[0]
	maxVal := sorted[len(sorted)-1]

	return HoldStats{Mean: &mean, Median: &median, Min: &minVal, Max: &maxVal}
}

var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
	time.Saturday, time.Sunday,
}

// computeBuckets 按开仓时间分桶的盈亏分布
func computeBuckets(trades []ClosedTrade, stats *Stats) {
	byWeekday := make(map[string]*BucketPnl)
	byHour := make(map[string]*BucketPnl)

	for _, t := range trades {
		wd := WeekdayLabel(t.EntryTime)
		if b, ok := byWeekday[wd]; ok {
			b.Pnl += t.Pnl
			b.Trades++
		} else {
			byWeekday[wd] = &BucketPnl{Label: wd, Pnl: t.Pnl, Trades: 1}
		}

		hour := HourLabel(t.EntryTime)
		if b, ok := byHour[hour]; ok {
			b.Pnl += t.Pnl
			b.Trades++
		} else {
			byHour[hour] = &BucketPnl{Label: hour, Pnl: t.Pnl, Trades: 1}
		}
	}

	for _, wd := range weekdayOrder {
		if b, ok := byWeekday[wd.String()]; ok {
			stats.WeekdayPnl = append(stats.WeekdayPnl, *b)
		}
	}

	hours := make([]string, 0, len(byHour))
	for hour := range byHour {
		hours = append(hours, hour)
	}
	sort.Strings(hours)
	for _, hour := range hours {
		stats.HourlyPnl = append(stats.HourlyPnl, *byHour[hour])
	}
}

// accountGrowth 外部余额序列首尾变化百分比，少于2条记录时为nil
func accountGrowth(snapshots []BalanceSnapshot) *float64 {
	if len(snapshots) < 2 {
		return nil
	}

	sorted := make([]BalanceSnapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	first := sorted[0].Balance
	last := sorted[len(sorted)-1].Balance
	if first <= 0 {
		return nil
	}

	growth := (last - first) / first * 100
	return &growth
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdevOf(values []float64, mean float64) float64 {
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
